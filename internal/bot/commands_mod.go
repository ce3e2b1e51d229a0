package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"cardbot/internal/game"
	"cardbot/internal/models"
)

const defaultMuteDuration = time.Hour

// isAdmin reports whether the user is an administrator or the owner of the
// chat. With no api (tests) everyone is an admin.
func (b *Bot) isAdmin(chatID, userID int64) bool {
	if b.api == nil {
		return true
	}
	member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	if err != nil {
		b.logger.Warn("failed to look up chat member", zap.Error(err))
		return false
	}
	return member.IsAdministrator() || member.IsCreator()
}

// durationArg finds the first argument that parses as a duration.
func durationArg(message *tgbotapi.Message, fallback time.Duration) time.Duration {
	for _, arg := range strings.Fields(message.CommandArguments()) {
		if d, err := time.ParseDuration(arg); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// modTarget resolves the moderated user and checks the caller's rights.
func (b *Bot) modTarget(message *tgbotapi.Message) (int64, bool) {
	if message.Chat.IsPrivate() {
		b.reply(message, "Moderation commands only work in groups.")
		return 0, false
	}
	if !b.isAdmin(message.Chat.ID, message.From.ID) {
		b.replyErr(message, game.ErrPermissionDenied)
		return 0, false
	}
	target := targetUser(message)
	if target == 0 {
		b.reply(message, "Reply to the user's message (or pass a user id).")
		return 0, false
	}
	return target, true
}

// handleMute restricts a user for a duration (default 1h):
// reply + /mute [duration].
func (b *Bot) handleMute(ctx context.Context, message *tgbotapi.Message) {
	target, ok := b.modTarget(message)
	if !ok {
		return
	}
	d := durationArg(message, defaultMuteDuration)
	b.muteFor(ctx, message.Chat.ID, target, d)
	b.reply(message, fmt.Sprintf("🔇 %s muted for %s.",
		b.ledger.Username(ctx, target), formatDuration(d)))
}

// handleUnmute lifts a mute early and cancels its pending timer.
func (b *Bot) handleUnmute(ctx context.Context, message *tgbotapi.Message) {
	target, ok := b.modTarget(message)
	if !ok {
		return
	}
	b.applyUnmute(message.Chat.ID, target)
	if err := b.timers.Cancel(ctx, message.Chat.ID, target, "unmute"); err != nil {
		b.logger.Warn("failed to cancel unmute timer", zap.Error(err))
	}
	b.reply(message, fmt.Sprintf("🔊 %s unmuted.", b.ledger.Username(ctx, target)))
}

// handleBan removes a user from the chat; an optional duration schedules
// the unban.
func (b *Bot) handleBan(ctx context.Context, message *tgbotapi.Message) {
	target, ok := b.modTarget(message)
	if !ok {
		return
	}

	ban := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: message.Chat.ID,
			UserID: target,
		},
	}
	d := durationArg(message, 0)
	if d > 0 {
		ban.UntilDate = b.timers.Now().Add(d).Unix()
	}
	if b.api != nil {
		if _, err := b.api.Request(ban); err != nil {
			b.logger.Error("failed to ban user", zap.Int64("user_id", target), zap.Error(err))
			b.reply(message, "Could not ban that user.")
			return
		}
	}

	if d > 0 {
		if err := b.timers.Schedule(ctx, models.ModTimer{
			ChatID:   message.Chat.ID,
			UserID:   target,
			Action:   "unban",
			Deadline: b.timers.Now().Add(d).Unix(),
		}); err != nil {
			b.logger.Error("failed to schedule unban", zap.Error(err))
		}
		b.reply(message, fmt.Sprintf("🔨 %s banned for %s.",
			b.ledger.Username(ctx, target), formatDuration(d)))
		return
	}
	b.reply(message, fmt.Sprintf("🔨 %s banned.", b.ledger.Username(ctx, target)))
}

// handleUnban lifts a ban early and cancels its pending timer.
func (b *Bot) handleUnban(ctx context.Context, message *tgbotapi.Message) {
	target, ok := b.modTarget(message)
	if !ok {
		return
	}
	b.applyUnban(message.Chat.ID, target)
	if err := b.timers.Cancel(ctx, message.Chat.ID, target, "unban"); err != nil {
		b.logger.Warn("failed to cancel unban timer", zap.Error(err))
	}
	b.reply(message, fmt.Sprintf("✅ %s unbanned.", b.ledger.Username(ctx, target)))
}

// muteFor restricts the user and persists the unmute deadline so it
// survives restarts.
func (b *Bot) muteFor(ctx context.Context, chatID, userID int64, d time.Duration) {
	if b.api != nil {
		restrict := tgbotapi.RestrictChatMemberConfig{
			ChatMemberConfig: tgbotapi.ChatMemberConfig{
				ChatID: chatID,
				UserID: userID,
			},
			UntilDate:   b.timers.Now().Add(d).Unix(),
			Permissions: &tgbotapi.ChatPermissions{},
		}
		if _, err := b.api.Request(restrict); err != nil {
			b.logger.Error("failed to mute user", zap.Int64("user_id", userID), zap.Error(err))
			return
		}
	}

	if err := b.timers.Schedule(ctx, models.ModTimer{
		ChatID:   chatID,
		UserID:   userID,
		Action:   "unmute",
		Deadline: b.timers.Now().Add(d).Unix(),
	}); err != nil {
		b.logger.Error("failed to schedule unmute", zap.Error(err))
	}
}

// applyUnmute restores full member permissions.
func (b *Bot) applyUnmute(chatID, userID int64) {
	if b.api == nil {
		return
	}
	restrict := tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
		Permissions: &tgbotapi.ChatPermissions{
			CanSendMessages:       true,
			CanSendMediaMessages:  true,
			CanSendPolls:          true,
			CanSendOtherMessages:  true,
			CanAddWebPagePreviews: true,
			CanInviteUsers:        true,
		},
	}
	if _, err := b.api.Request(restrict); err != nil {
		b.logger.Error("failed to unmute user", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// applyUnban lifts a ban without kicking current members.
func (b *Bot) applyUnban(chatID, userID int64) {
	if b.api == nil {
		return
	}
	unban := tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
		OnlyIfBanned: true,
	}
	if _, err := b.api.Request(unban); err != nil {
		b.logger.Error("failed to unban user", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// handleRules prints the chat rules.
func (b *Bot) handleRules(ctx context.Context, message *tgbotapi.Message) {
	rules, err := b.settings.Rules(ctx, message.Chat.ID)
	if err != nil {
		b.replyErr(message, err)
		return
	}
	if rules == "" {
		b.reply(message, "No rules set for this chat. Admins: /setrules <text>.")
		return
	}
	b.reply(message, "📜 Chat rules:\n\n"+rules)
}

// handleSetRules stores the chat rules text; admins only.
func (b *Bot) handleSetRules(ctx context.Context, message *tgbotapi.Message) {
	if !b.isAdmin(message.Chat.ID, message.From.ID) {
		b.replyErr(message, game.ErrPermissionDenied)
		return
	}
	text := strings.TrimSpace(message.CommandArguments())
	if text == "" {
		b.reply(message, "Usage: /setrules <text>")
		return
	}
	if err := b.settings.SetRules(ctx, message.Chat.ID, text); err != nil {
		b.replyErr(message, err)
		return
	}
	b.reply(message, "📜 Rules updated.")
}

// handleSettings shows per-chat settings, or sets one:
// /settings [<key> <value>].
func (b *Bot) handleSettings(ctx context.Context, message *tgbotapi.Message) {
	args := strings.Fields(message.CommandArguments())
	if len(args) >= 2 {
		if !b.isAdmin(message.Chat.ID, message.From.ID) {
			b.replyErr(message, game.ErrPermissionDenied)
			return
		}
		key, value := args[0], strings.Join(args[1:], " ")
		if err := b.settings.Set(ctx, message.Chat.ID, key, value); err != nil {
			b.replyErr(message, err)
			return
		}
		b.reply(message, fmt.Sprintf("⚙️ %s = %s", key, value))
		return
	}

	all, err := b.settings.All(ctx, message.Chat.ID)
	if err != nil {
		b.replyErr(message, err)
		return
	}
	if len(all) == 0 {
		b.reply(message, "No settings for this chat. Admins: /settings <key> <value>.")
		return
	}
	var sb strings.Builder
	sb.WriteString("⚙️ Chat settings:\n\n")
	for k, v := range all {
		fmt.Fprintf(&sb, "%s = %s\n", k, v)
	}
	b.reply(message, sb.String())
}
