package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleMessage processes a single message.
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage", zap.Any("panic", r))
			b.send(tgbotapi.NewMessage(message.Chat.ID, "An error occurred while processing your request. Please try again."))
		}
	}()

	if message.From == nil {
		return
	}
	ctx := context.Background()

	if err := b.ledger.RecordUsername(ctx, message.From.ID, displayName(message.From)); err != nil {
		b.logger.Warn("failed to record username", zap.Error(err))
	}

	// Paid sell slot delivery arrives as a successful payment message.
	if message.SuccessfulPayment != nil {
		b.handleSuccessfulPayment(ctx, message)
		return
	}

	if !message.IsCommand() {
		b.checkFlood(ctx, message)
		return
	}

	switch message.Command() {
	case "start", "help":
		b.handleStart(message)
	case "draw":
		b.handleDraw(ctx, message)
	case "lucky":
		b.handleLucky(ctx, message)
	case "profile":
		b.handleProfile(ctx, message)
	case "top":
		b.handleTop(ctx, message)
	case "mine":
		b.handleMine(ctx, message)
	case "duel":
		b.handleDuel(ctx, message)
	case "accept":
		b.handleDuelAccept(ctx, message)
	case "decline":
		b.handleDuelDecline(ctx, message)
	case "trade":
		b.handleTrade(ctx, message)
	case "accepttrade":
		b.handleTradeAccept(ctx, message)
	case "declinetrade":
		b.handleTradeDecline(ctx, message)
	case "canceltrade":
		b.handleTradeCancel(ctx, message)
	case "shop":
		b.handleShop(ctx, message)
	case "buy":
		b.handleBuy(ctx, message)
	case "sell":
		b.handleSell(ctx, message)
	case "mysales":
		b.handleMySales(ctx, message)
	case "unsell":
		b.handleUnsell(ctx, message)
	case "market":
		b.handleMarket(ctx, message)
	case "buyslot":
		b.handleBuySlot(message)
	case "mute":
		b.handleMute(ctx, message)
	case "unmute":
		b.handleUnmute(ctx, message)
	case "ban":
		b.handleBan(ctx, message)
	case "unban":
		b.handleUnban(ctx, message)
	case "rules":
		b.handleRules(ctx, message)
	case "setrules":
		b.handleSetRules(ctx, message)
	case "settings":
		b.handleSettings(ctx, message)
	default:
		b.send(tgbotapi.NewMessage(message.Chat.ID, "Unknown command. Use /start to see available commands."))
	}
}

// handleCallbackQuery processes inline keyboard button clicks.
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery", zap.Any("panic", r))
		}
	}()

	if query.From == nil || query.Message == nil {
		return
	}
	ctx := context.Background()

	// Answer the callback query to remove loading state
	if b.api != nil {
		if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			b.logger.Warn("failed to answer callback query", zap.Error(err))
		}
	}

	data := query.Data
	switch {
	case data == "menu_draw":
		b.handleDraw(ctx, syntheticMessage(query))
	case data == "menu_cards":
		b.handleProfile(ctx, syntheticMessage(query))
	case data == "menu_balance":
		b.handleBalance(ctx, query)
	case data == "menu_shop":
		b.handleShop(ctx, syntheticMessage(query))
	case strings.HasPrefix(data, "buy_listing:"):
		b.handleListingCallback(ctx, query, strings.TrimPrefix(data, "buy_listing:"))
	}
}

// syntheticMessage adapts a callback query into the message shape the
// command handlers expect.
func syntheticMessage(query *tgbotapi.CallbackQuery) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: query.From,
		Chat: query.Message.Chat,
	}
}

// checkFlood feeds a group message into the sliding-window flood gate and
// mutes the offender when it trips.
func (b *Bot) checkFlood(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil || message.Chat.IsPrivate() {
		return
	}
	if !b.flood.Record(message.Chat.ID, message.From.ID) {
		return
	}

	b.flood.Reset(message.Chat.ID, message.From.ID)
	b.muteFor(ctx, message.Chat.ID, message.From.ID, b.cfg.Moderation.FloodMute)
	b.send(tgbotapi.NewMessage(message.Chat.ID, displayName(message.From)+" muted for flooding."))
}
