package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"cardbot/internal/game"
)

const slotPayload = "buyslot"

// handleShop shows today's shop with buy indices.
func (b *Bot) handleShop(ctx context.Context, message *tgbotapi.Message) {
	date := b.shop.Today()
	entries, err := b.shop.Daily(ctx, date)
	if err != nil {
		b.replyErr(message, err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🛒 Shop for %s:\n\n", date)
	for i, e := range entries {
		bought, err := b.shop.HasPurchasedToday(ctx, message.From.ID, date, e.Item)
		if err != nil {
			b.replyErr(message, err)
			return
		}
		mark := ""
		if bought {
			mark = " ✅"
		}
		if e.IsLuckyBundle() {
			fmt.Fprintf(&sb, "%d. %s (x%d lucky draws) — %d coins%s\n", i+1, e.Item, e.Uses, e.Price, mark)
		} else {
			fmt.Fprintf(&sb, "%d. %s — %d coins%s\n", i+1, e.Item, e.Price, mark)
		}
	}
	sb.WriteString("\n/buy <number> to purchase (once per entry per day).")
	b.reply(message, sb.String())
}

// handleBuy purchases a shop entry by index. Entries are once per user per
// day; the lucky bundle grants its draws immediately.
func (b *Bot) handleBuy(ctx context.Context, message *tgbotapi.Message) {
	idx, err := strconv.Atoi(strings.TrimSpace(message.CommandArguments()))
	if err != nil {
		b.reply(message, "Usage: /buy <number> (see /shop)")
		return
	}

	date := b.shop.Today()
	entries, err := b.shop.Daily(ctx, date)
	if err != nil {
		b.replyErr(message, err)
		return
	}
	if idx < 1 || idx > len(entries) {
		b.replyErr(message, &game.InvalidArgumentError{Reason: fmt.Sprintf("no shop entry %d", idx)})
		return
	}
	entry := entries[idx-1]
	userID := message.From.ID

	// The reservation is the atomic once-per-day check; it happens before
	// any coins or cards move so two overlapping buys cannot both commit.
	release, err := b.shop.RecordDailyPurchase(ctx, userID, date, entry.Item)
	if err != nil {
		b.replyErr(message, err)
		return
	}

	if _, err := b.ledger.Debit(ctx, userID, entry.Price); err != nil {
		release()
		b.replyErr(message, err)
		return
	}

	if entry.IsLuckyBundle() {
		lucky := b.deck.Lucky()
		var cards []string
		for i := 0; i < entry.Uses; i++ {
			card := lucky.Draw(b.rng)
			if err := b.ledger.AddItem(ctx, userID, card.Item(), 1); err != nil {
				b.undoShopPurchase(ctx, userID, entry.Price, cards, release)
				b.replyErr(message, err)
				return
			}
			cards = append(cards, card.Item())
		}
		b.reply(message, "🍀 Bundle opened:\n"+strings.Join(cards, "\n"))
		return
	}

	if err := b.ledger.AddItem(ctx, userID, entry.Item, 1); err != nil {
		b.undoShopPurchase(ctx, userID, entry.Price, nil, release)
		b.replyErr(message, err)
		return
	}
	b.reply(message, fmt.Sprintf("🎉 Bought %s for %d coins.", entry.Item, entry.Price))
}

// undoShopPurchase unwinds a shop buy that failed after the debit: refund
// the coins, take back any cards already granted, release the daily
// reservation.
func (b *Bot) undoShopPurchase(ctx context.Context, userID int64, price int, granted []string, release func()) {
	if _, err := b.ledger.Credit(ctx, userID, price); err != nil {
		b.logger.Error("failed to refund shop purchase",
			zap.Int64("user_id", userID), zap.Int("price", price), zap.Error(err))
	}
	for _, item := range granted {
		if err := b.ledger.RemoveItem(ctx, userID, item, 1); err != nil {
			b.logger.Error("failed to take back shop card",
				zap.Int64("user_id", userID), zap.String("item", item), zap.Error(err))
		}
	}
	release()
}

// handleMarket shows active player listings with buy buttons. Buttons carry
// the listing id, so a purchase is re-validated by identity even after
// other listings were removed.
func (b *Bot) handleMarket(ctx context.Context, message *tgbotapi.Message) {
	listings, err := b.market.Listings(ctx)
	if err != nil {
		b.replyErr(message, err)
		return
	}
	if len(listings) == 0 {
		b.reply(message, "🏪 The market is empty. /sell to list a card.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🏪 Market:\n\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, l := range listings {
		fmt.Fprintf(&sb, "%d. %s — %d coins (seller: %s)\n",
			i+1, l.Item, l.Price, b.ledger.Username(ctx, l.SellerID))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("Buy %d for %d", i+1, l.Price),
				"buy_listing:"+l.ID,
			),
		))
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, sb.String())
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(msg)
}

// handleListingCallback settles a market purchase from a buy button.
func (b *Bot) handleListingCallback(ctx context.Context, query *tgbotapi.CallbackQuery, listingID string) {
	listing, err := b.market.Purchase(ctx, query.From.ID, listingID)
	if err != nil {
		b.send(tgbotapi.NewMessage(query.Message.Chat.ID, errorText(err)))
		return
	}
	b.send(tgbotapi.NewMessage(query.Message.Chat.ID,
		fmt.Sprintf("🤝 %s bought %s for %d coins.", displayName(query.From), listing.Item, listing.Price)))
}

// handleSell lists one unit of a card for sale: /sell <price> <card query>.
func (b *Bot) handleSell(ctx context.Context, message *tgbotapi.Message) {
	args := strings.Fields(message.CommandArguments())
	if len(args) < 2 {
		b.reply(message, "Usage: /sell <price> <card name>")
		return
	}
	price, err := strconv.Atoi(args[0])
	if err != nil {
		b.replyErr(message, &game.InvalidArgumentError{Reason: "price must be a number"})
		return
	}
	query := strings.Join(args[1:], " ")

	inv, err := b.ledger.Inventory(ctx, message.From.ID)
	if err != nil {
		b.replyErr(message, err)
		return
	}
	item, err := matchInventoryItem(inv, query)
	if err != nil {
		b.replyErr(message, err)
		return
	}

	listing, err := b.market.ListForSale(ctx, message.From.ID, item, price)
	if err != nil {
		b.replyErr(message, err)
		return
	}
	b.reply(message, fmt.Sprintf("🏷 Listed %s for %d coins. It returns to you in 24h if unsold.", listing.Item, listing.Price))
}

// handleMySales shows the seller's active listings and slot usage.
func (b *Bot) handleMySales(ctx context.Context, message *tgbotapi.Message) {
	mine, slots, err := b.market.ListingsBySeller(ctx, message.From.ID)
	if err != nil {
		b.replyErr(message, err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🏷 Your listings (%d/%d slots):\n\n", len(mine), slots)
	if len(mine) == 0 {
		sb.WriteString("None. /sell to list a card.")
	}
	for i, l := range mine {
		fmt.Fprintf(&sb, "%d. %s — %d coins\n", i+1, l.Item, l.Price)
	}
	b.reply(message, sb.String())
}

// handleUnsell takes one of the seller's own listings off the market:
// /unsell <number> indexes into /mysales.
func (b *Bot) handleUnsell(ctx context.Context, message *tgbotapi.Message) {
	idx, err := strconv.Atoi(strings.TrimSpace(message.CommandArguments()))
	if err != nil {
		b.reply(message, "Usage: /unsell <number> (see /mysales)")
		return
	}

	mine, _, err := b.market.ListingsBySeller(ctx, message.From.ID)
	if err != nil {
		b.replyErr(message, err)
		return
	}
	if idx < 1 || idx > len(mine) {
		b.replyErr(message, game.ErrListingNotFound)
		return
	}

	listing, err := b.market.Unlist(ctx, message.From.ID, mine[idx-1].ID)
	if err != nil {
		b.replyErr(message, err)
		return
	}
	b.reply(message, fmt.Sprintf("↩️ %s is back in your inventory.", listing.Item))
}

// handleBuySlot sends an invoice for an extra sell slot through the
// platform's payment channel.
func (b *Bot) handleBuySlot(message *tgbotapi.Message) {
	currency := "XTR"
	if b.cfg.Telegram.PaymentToken != "" {
		currency = "USD"
	}

	invoice := tgbotapi.NewInvoice(
		message.Chat.ID,
		"Extra sell slot",
		"One more concurrent market listing, forever.",
		slotPayload,
		b.cfg.Telegram.PaymentToken,
		"buyslot",
		currency,
		[]tgbotapi.LabeledPrice{{Label: "Extra sell slot", Amount: b.cfg.Game.SlotPrice}},
	)
	b.send(invoice)
}

// handlePreCheckout approves pending slot payments.
func (b *Bot) handlePreCheckout(query *tgbotapi.PreCheckoutQuery) {
	ok := query.InvoicePayload == slotPayload
	errMsg := ""
	if !ok {
		errMsg = "Unknown purchase."
	}
	if b.api == nil {
		return
	}
	if _, err := b.api.Request(tgbotapi.PreCheckoutConfig{
		PreCheckoutQueryID: query.ID,
		OK:                 ok,
		ErrorMessage:       errMsg,
	}); err != nil {
		b.logger.Warn("failed to answer pre-checkout query", zap.Error(err))
	}
}

// handleSuccessfulPayment delivers the paid sell slot.
func (b *Bot) handleSuccessfulPayment(ctx context.Context, message *tgbotapi.Message) {
	if message.SuccessfulPayment.InvoicePayload != slotPayload {
		return
	}
	slots, err := b.ledger.AddSellSlot(ctx, message.From.ID)
	if err != nil {
		// The payment already went through; log loudly and tell the user.
		b.logger.Error("failed to deliver paid sell slot",
			zap.Int64("user_id", message.From.ID), zap.Error(err))
		b.reply(message, "Payment received but slot delivery failed. Contact the admin.")
		return
	}
	b.reply(message, fmt.Sprintf("✅ Payment received! You now have %d sell slots.", slots))
}
