package moderation

import (
	"context"
	"fmt"

	"cardbot/internal/storage"
)

// Settings stores per-chat rules text and configuration values.
type Settings struct {
	store storage.Store
}

// NewSettings creates the per-chat settings accessor.
func NewSettings(store storage.Store) *Settings {
	return &Settings{store: store}
}

func rulesKey(chatID int64) string    { return fmt.Sprintf("rules_%d", chatID) }
func settingsKey(chatID int64) string { return fmt.Sprintf("settings_%d", chatID) }

// SetRules stores the chat rules text.
func (s *Settings) SetRules(ctx context.Context, chatID int64, text string) error {
	return s.store.Set(ctx, rulesKey(chatID), text)
}

// Rules returns the chat rules text, empty when none were set.
func (s *Settings) Rules(ctx context.Context, chatID int64) (string, error) {
	var text string
	if _, err := s.store.Get(ctx, rulesKey(chatID), &text); err != nil {
		return "", err
	}
	return text, nil
}

// Set stores a single configuration value for the chat.
func (s *Settings) Set(ctx context.Context, chatID int64, key, value string) error {
	all, err := s.All(ctx, chatID)
	if err != nil {
		return err
	}
	all[key] = value
	return s.store.Set(ctx, settingsKey(chatID), all)
}

// All returns every configuration value for the chat.
func (s *Settings) All(ctx context.Context, chatID int64) (map[string]string, error) {
	all := make(map[string]string)
	if _, err := s.store.Get(ctx, settingsKey(chatID), &all); err != nil {
		return nil, err
	}
	return all, nil
}
