package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cardbot/internal/game"
)

// handleTrade proposes a card exchange. Reply to the target's message with
//
//	/trade <qty> <your card> for <qty> <their card>
//
// Single-quantity shorthand: /trade <your card> for <their card>.
func (b *Bot) handleTrade(ctx context.Context, message *tgbotapi.Message) {
	target := targetUser(message)
	if target == 0 {
		b.reply(message, "Reply to your trade partner's message with /trade.")
		return
	}

	offerItem, offerQty, wantItem, wantQty, err := parseTradeArgs(message.CommandArguments())
	if err != nil {
		b.replyErr(message, err)
		return
	}

	// Offer side resolves against the initiator's inventory; the want side
	// stays a free-form query resolved at acceptance.
	inv, err := b.ledger.Inventory(ctx, message.From.ID)
	if err != nil {
		b.replyErr(message, err)
		return
	}
	offerItem, err = matchInventoryItem(inv, offerItem)
	if err != nil {
		b.replyErr(message, err)
		return
	}

	wantInv, err := b.ledger.Inventory(ctx, target)
	if err != nil {
		b.replyErr(message, err)
		return
	}
	wantItem, err = matchInventoryItem(wantInv, wantItem)
	if err != nil {
		b.replyErr(message, err)
		return
	}

	trade, err := b.trades.Propose(ctx, message.From.ID, target, offerItem, offerQty, wantItem, wantQty)
	if err != nil {
		b.replyErr(message, err)
		return
	}

	b.reply(message, fmt.Sprintf("🔄 %s offers %dx %s for %dx %s.\n%s: /accepttrade or /declinetrade.",
		displayName(message.From), trade.OfferQty, trade.OfferItem, trade.WantQty, trade.WantItem,
		b.ledger.Username(ctx, target)))
}

// parseTradeArgs splits "<qty> <card> for <qty> <card>" around the "for"
// keyword; quantities default to 1.
func parseTradeArgs(args string) (offerItem string, offerQty int, wantItem string, wantQty int, err error) {
	fields := strings.Fields(args)
	forIdx := -1
	for i, f := range fields {
		if strings.EqualFold(f, "for") {
			forIdx = i
			break
		}
	}
	if forIdx <= 0 || forIdx == len(fields)-1 {
		return "", 0, "", 0, &game.InvalidArgumentError{
			Reason: "usage: /trade <qty> <your card> for <qty> <their card>",
		}
	}

	offerItem, offerQty = parseQtyItem(fields[:forIdx])
	wantItem, wantQty = parseQtyItem(fields[forIdx+1:])
	if offerItem == "" || wantItem == "" || offerQty < 1 || wantQty < 1 {
		return "", 0, "", 0, &game.InvalidArgumentError{
			Reason: "usage: /trade <qty> <your card> for <qty> <their card>",
		}
	}
	return offerItem, offerQty, wantItem, wantQty, nil
}

func parseQtyItem(fields []string) (string, int) {
	if len(fields) == 0 {
		return "", 0
	}
	if n, err := strconv.Atoi(fields[0]); err == nil {
		return strings.Join(fields[1:], " "), n
	}
	return strings.Join(fields, " "), 1
}

// handleTradeAccept settles the caller's oldest pending trade.
func (b *Bot) handleTradeAccept(ctx context.Context, message *tgbotapi.Message) {
	trade, err := b.trades.Accept(ctx, message.From.ID)
	if err != nil {
		b.replyErr(message, err)
		return
	}
	b.reply(message, fmt.Sprintf("✅ Trade complete: %s gave %dx %s, %s gave %dx %s.",
		b.ledger.Username(ctx, trade.InitiatorID), trade.OfferQty, trade.OfferItem,
		b.ledger.Username(ctx, trade.TargetID), trade.WantQty, trade.WantItem))
}

// handleTradeDecline drops the caller's oldest pending trade.
func (b *Bot) handleTradeDecline(ctx context.Context, message *tgbotapi.Message) {
	trade, err := b.trades.Decline(message.From.ID)
	if err != nil {
		b.replyErr(message, err)
		return
	}
	b.reply(message, fmt.Sprintf("🙅 %s declined the trade from %s.",
		displayName(message.From), b.ledger.Username(ctx, trade.InitiatorID)))
}

// handleTradeCancel withdraws the caller's own pending offer.
func (b *Bot) handleTradeCancel(ctx context.Context, message *tgbotapi.Message) {
	trade, err := b.trades.Cancel(message.From.ID)
	if err != nil {
		b.replyErr(message, err)
		return
	}
	b.reply(message, fmt.Sprintf("↩️ Withdrew your offer of %dx %s.", trade.OfferQty, trade.OfferItem))
}
