package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"cardbot/internal/config"
	"cardbot/internal/models"
)

// NewBot creates a new Telegram bot.
func NewBot(cfg *config.Config, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		deps.Logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	deps.Logger.Info("Bot created", zap.String("bot_username", api.Self.UserName))

	return newBot(api, cfg, deps), nil
}

// newBot wires the struct without touching the network, for tests.
func newBot(api *tgbotapi.BotAPI, cfg *config.Config, deps Deps) *Bot {
	return &Bot{
		api:      api,
		cfg:      cfg,
		ledger:   deps.Ledger,
		gate:     deps.Gate,
		deck:     deps.Deck,
		market:   deps.Market,
		shop:     deps.Shop,
		duels:    deps.Duels,
		trades:   deps.Trades,
		flood:    deps.Flood,
		timers:   deps.Timers,
		settings: deps.Settings,
		rng:      deps.RNG,
		logger:   deps.Logger,
	}
}

// HandleModTimer applies a due moderation restore; bound to the timer
// scheduler at wiring time.
func (b *Bot) HandleModTimer(timer models.ModTimer) {
	switch timer.Action {
	case "unmute":
		b.applyUnmute(timer.ChatID, timer.UserID)
	case "unban":
		b.applyUnban(timer.ChatID, timer.UserID)
	}
}
