package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cardbot/internal/game"
)

// handleStart shows the welcome message and the main menu.
func (b *Bot) handleStart(message *tgbotapi.Message) {
	text := `🃏 Welcome to Mustard Card Bot!

Collect cards, duel other players and trade your way to the top.

/draw - Open a card
/lucky - Lucky draw (Epic or better)
/profile - Your cards and balance
/top - Richest players
/mine - Mine some coins
/duel - Challenge a player (reply to them)
/trade - Offer a card trade
/shop - Today's shop
/market - Player listings
/sell - List a card for sale
/mysales - Your listings`

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎁 Open a card", "menu_draw"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📦 My cards", "menu_cards"),
			tgbotapi.NewInlineKeyboardButtonData("💰 Balance", "menu_balance"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛒 Shop", "menu_shop"),
		),
	)
	b.send(msg)
}

// handleDraw performs a cooldown-gated weighted draw from the full table.
func (b *Bot) handleDraw(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID

	undo, err := b.gate.CheckAndConsume(ctx, userID, game.ActionDraw, b.cfg.Game.DrawCooldown)
	if err != nil {
		b.replyErr(message, err)
		return
	}

	card := b.deck.Draw(b.rng)
	if err := b.ledger.AddItem(ctx, userID, card.Item(), 1); err != nil {
		undo()
		b.replyErr(message, err)
		return
	}

	b.reply(message, fmt.Sprintf("🎉 You got: %s", card.Item()))
}

// handleLucky performs a cooldown-gated draw from the rare pool.
func (b *Bot) handleLucky(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID

	undo, err := b.gate.CheckAndConsume(ctx, userID, game.ActionLucky, b.cfg.Game.LuckyCooldown)
	if err != nil {
		b.replyErr(message, err)
		return
	}

	card := b.deck.Lucky().Draw(b.rng)
	if err := b.ledger.AddItem(ctx, userID, card.Item(), 1); err != nil {
		undo()
		b.replyErr(message, err)
		return
	}

	b.reply(message, fmt.Sprintf("🍀 Lucky draw: %s", card.Item()))
}

// handleProfile shows a user's balance and inventory; an optional target
// (reply or id argument) shows someone else's.
func (b *Bot) handleProfile(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	if target := targetUser(message); target != 0 {
		userID = target
	}

	balance, err := b.ledger.Balance(ctx, userID)
	if err != nil {
		b.replyErr(message, err)
		return
	}
	inv, err := b.ledger.Inventory(ctx, userID)
	if err != nil {
		b.replyErr(message, err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👤 %s\n💰 %d coins\n\n", b.ledger.Username(ctx, userID), balance)
	sb.WriteString(formatInventory(inv))
	b.reply(message, sb.String())
}

// handleBalance answers the balance menu button.
func (b *Bot) handleBalance(ctx context.Context, query *tgbotapi.CallbackQuery) {
	balance, err := b.ledger.Balance(ctx, query.From.ID)
	if err != nil {
		b.send(tgbotapi.NewMessage(query.Message.Chat.ID, errorText(err)))
		return
	}
	b.send(tgbotapi.NewMessage(query.Message.Chat.ID, fmt.Sprintf("💰 Your balance: %d coins", balance)))
}

// handleTop shows the richest players.
func (b *Bot) handleTop(ctx context.Context, message *tgbotapi.Message) {
	entries, err := b.ledger.TopBalances(ctx, 10)
	if err != nil {
		b.replyErr(message, err)
		return
	}
	if len(entries) == 0 {
		b.reply(message, "Nobody has any coins yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🏆 Leaderboard:\n\n")
	for i, e := range entries {
		fmt.Fprintf(&sb, "%d. %s — %d coins\n", i+1, e.Name, e.Balance)
	}
	b.reply(message, sb.String())
}

// handleMine credits a cooldown-gated random amount of coins.
func (b *Bot) handleMine(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID

	undo, err := b.gate.CheckAndConsume(ctx, userID, game.ActionMine, b.cfg.Game.MineCooldown)
	if err != nil {
		b.replyErr(message, err)
		return
	}

	reward := b.cfg.Game.MineRewardMin
	if spread := b.cfg.Game.MineRewardMax - b.cfg.Game.MineRewardMin; spread > 0 {
		reward += b.rng.Intn(spread + 1)
	}
	balance, err := b.ledger.Credit(ctx, userID, reward)
	if err != nil {
		undo()
		b.replyErr(message, err)
		return
	}

	b.reply(message, fmt.Sprintf("⛏ You mined %d coins! Balance: %d", reward, balance))
}
