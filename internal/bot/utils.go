package bot

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"cardbot/internal/game"
	"cardbot/internal/models"
)

// send delivers a message, logging and swallowing transport failures.
// Economic mutations are never rolled back on a failed send
// (notify-after-commit, no compensation).
func (b *Bot) send(msg tgbotapi.Chattable) {
	if b.api == nil {
		return // For testing
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed to send message", zap.Error(err))
	}
}

// reply sends plain text back to the message's chat.
func (b *Bot) reply(message *tgbotapi.Message, text string) {
	b.send(tgbotapi.NewMessage(message.Chat.ID, text))
}

// replyErr renders a recoverable game error as plain text for the invoking
// user.
func (b *Bot) replyErr(message *tgbotapi.Message, err error) {
	b.reply(message, errorText(err))
}

// errorText maps the game error taxonomy onto user-facing text.
func errorText(err error) string {
	if ce, ok := game.IsCooldown(err); ok {
		return fmt.Sprintf("⏳ Not so fast! Try again in %s.", formatDuration(ce.Remaining))
	}
	var inv *game.InvalidArgumentError
	if errors.As(err, &inv) {
		return "❌ " + inv.Reason
	}

	switch {
	case errors.Is(err, game.ErrInsufficientFunds):
		return "❌ Not enough coins."
	case errors.Is(err, game.ErrInsufficientInventory):
		return "❌ You don't have that card."
	case errors.Is(err, game.ErrListingNotFound):
		return "❌ That listing is gone (sold or expired)."
	case errors.Is(err, game.ErrChallengeNotFound):
		return "❌ No pending duel for you."
	case errors.Is(err, game.ErrTradeNotFound):
		return "❌ No pending trade for you."
	case errors.Is(err, game.ErrPermissionDenied):
		return "❌ You are not allowed to do that."
	case errors.Is(err, game.ErrAlreadyPurchasedToday):
		return "❌ You already bought that today. Come back tomorrow!"
	case errors.Is(err, game.ErrSlotLimitReached):
		return "❌ All your sell slots are in use. /buyslot for more."
	case errors.Is(err, game.ErrProposalExists):
		return "❌ You already have a pending offer to that player."
	default:
		return "An error occurred while processing your request. Please try again."
	}
}

// displayName returns a user's @username or first name.
func displayName(user *tgbotapi.User) string {
	if user.UserName != "" {
		return "@" + user.UserName
	}
	return user.FirstName
}

// targetUser resolves the user a command is aimed at: the replied-to message
// sender, else a numeric id argument. Zero when neither is present.
func targetUser(message *tgbotapi.Message) int64 {
	if message.ReplyToMessage != nil && message.ReplyToMessage.From != nil {
		return message.ReplyToMessage.From.ID
	}
	for _, arg := range strings.Fields(message.CommandArguments()) {
		if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
			return id
		}
	}
	return 0
}

// formatDuration renders a duration compactly: 1h05m, 3m20s, 45s.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d >= time.Hour {
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
	if d >= time.Minute {
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}

// formatInventory renders an inventory sorted by tier, rarest first, then
// by name.
func formatInventory(inv map[string]int) string {
	if len(inv) == 0 {
		return "📦 No cards yet. /draw to get your first one!"
	}

	items := make([]string, 0, len(inv))
	for item := range inv {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		ti, tj := models.TierOf(items[i]), models.TierOf(items[j])
		if ti != tj {
			return ti > tj
		}
		return items[i] < items[j]
	})

	var sb strings.Builder
	sb.WriteString("📦 Your cards:\n\n")
	for _, item := range items {
		fmt.Fprintf(&sb, "%s x%d\n", item, inv[item])
	}
	return sb.String()
}

// matchInventoryItem finds the inventory item matching a /sell query:
// exact identifier first, then unique case-insensitive substring.
func matchInventoryItem(inv map[string]int, query string) (string, error) {
	if _, ok := inv[query]; ok {
		return query, nil
	}

	q := strings.ToLower(query)
	var matches []string
	for item := range inv {
		if strings.Contains(strings.ToLower(item), q) {
			matches = append(matches, item)
		}
	}
	switch len(matches) {
	case 0:
		return "", game.ErrInsufficientInventory
	case 1:
		return matches[0], nil
	default:
		sort.Strings(matches)
		return "", &game.InvalidArgumentError{
			Reason: fmt.Sprintf("%q matches %d cards, be more specific", query, len(matches)),
		}
	}
}
