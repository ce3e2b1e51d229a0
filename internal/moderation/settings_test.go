package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardbot/internal/storage/stubs"
)

func TestRulesPerChat(t *testing.T) {
	settings := NewSettings(stubs.NewMockStore())
	ctx := context.Background()

	rules, err := settings.Rules(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, rules)

	require.NoError(t, settings.SetRules(ctx, 100, "Be kind."))
	rules, err = settings.Rules(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "Be kind.", rules)

	// Other chats are unaffected.
	rules, err = settings.Rules(ctx, 200)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestSettingsSetAndAll(t *testing.T) {
	settings := NewSettings(stubs.NewMockStore())
	ctx := context.Background()

	all, err := settings.All(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, settings.Set(ctx, 100, "welcome", "on"))
	require.NoError(t, settings.Set(ctx, 100, "language", "en"))
	require.NoError(t, settings.Set(ctx, 100, "welcome", "off"))

	all, err = settings.All(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"welcome": "off", "language": "en"}, all)
}
