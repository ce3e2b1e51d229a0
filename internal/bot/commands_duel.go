package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cardbot/internal/game"
)

// handleDuel proposes a poker duel: reply to the target's message with
// /duel, or /duel <user id>.
func (b *Bot) handleDuel(ctx context.Context, message *tgbotapi.Message) {
	target := targetUser(message)
	if target == 0 {
		b.reply(message, "Reply to someone's message with /duel (or /duel <user id>).")
		return
	}

	undo, err := b.gate.CheckAndConsume(ctx, message.From.ID, game.ActionPoker, b.cfg.Game.PokerCooldown)
	if err != nil {
		b.replyErr(message, err)
		return
	}

	if _, err := b.duels.Propose(message.From.ID, target); err != nil {
		undo()
		b.replyErr(message, err)
		return
	}

	b.reply(message, fmt.Sprintf("🃏 %s challenges %s to a poker duel!\n%s: /accept or /decline.",
		displayName(message.From), b.ledger.Username(ctx, target), b.ledger.Username(ctx, target)))
}

// handleDuelAccept resolves the caller's oldest pending challenge.
func (b *Bot) handleDuelAccept(ctx context.Context, message *tgbotapi.Message) {
	result, err := b.duels.Accept(ctx, message.From.ID)
	if err != nil {
		b.replyErr(message, err)
		return
	}

	challenger := b.ledger.Username(ctx, result.ChallengerID)
	target := b.ledger.Username(ctx, result.TargetID)

	var sb strings.Builder
	sb.WriteString("🃏 Poker duel!\n\n")
	fmt.Fprintf(&sb, "%s: %d points\n%s: %d points\n\n",
		challenger, result.ChallengerScore, target, result.TargetScore)

	if result.Draw {
		sb.WriteString("🤝 A draw. Nothing changes hands.")
		b.reply(message, sb.String())
		return
	}

	fmt.Fprintf(&sb, "🏆 %s wins and receives %s!",
		b.ledger.Username(ctx, result.WinnerID), result.Reward)
	if result.Forfeit != "" {
		fmt.Fprintf(&sb, "\n💔 %s forfeits %s.",
			b.ledger.Username(ctx, result.LoserID), result.Forfeit)
	}
	b.reply(message, sb.String())
}

// handleDuelDecline drops the caller's oldest pending challenge.
func (b *Bot) handleDuelDecline(ctx context.Context, message *tgbotapi.Message) {
	ch, err := b.duels.Decline(message.From.ID)
	if err != nil {
		b.replyErr(message, err)
		return
	}
	b.reply(message, fmt.Sprintf("🙅 %s declined the duel from %s.",
		displayName(message.From), b.ledger.Username(ctx, ch.ChallengerID)))
}
