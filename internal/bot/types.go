package bot

import (
	"math/rand"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"cardbot/internal/config"
	"cardbot/internal/game"
	"cardbot/internal/moderation"
)

// Bot is the Telegram transport layer: thin handlers resolving a user id,
// consulting the cooldown gate and delegating to the game components. All
// economic decisions live in internal/game; this package only parses
// commands and renders results.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	ledger *game.Ledger
	gate   *game.Gate
	deck   *game.Deck
	market *game.Market
	shop   *game.Shop
	duels  *game.Duels
	trades *game.Trades

	flood    *moderation.FloodGate
	timers   *moderation.Timers
	settings *moderation.Settings

	rng    *rand.Rand
	logger *zap.Logger
}

// Deps bundles the collaborators a Bot needs.
type Deps struct {
	Ledger   *game.Ledger
	Gate     *game.Gate
	Deck     *game.Deck
	Market   *game.Market
	Shop     *game.Shop
	Duels    *game.Duels
	Trades   *game.Trades
	Flood    *moderation.FloodGate
	Timers   *moderation.Timers
	Settings *moderation.Settings
	RNG      *rand.Rand
	Logger   *zap.Logger
}
