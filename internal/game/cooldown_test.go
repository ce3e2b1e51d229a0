package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardbot/internal/storage/stubs"
)

func newTestGate(start time.Time) (*Gate, *time.Time) {
	current := start
	gate := NewGate(stubs.NewMockStore(), NewKeyedMutex(), func() time.Time { return current })
	return gate, &current
}

func TestGateConsumeAndBlock(t *testing.T) {
	gate, clock := newTestGate(time.Unix(1_000_000, 0))
	ctx := context.Background()

	undo, err := gate.CheckAndConsume(ctx, 1, ActionDraw, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, undo)

	// Inside the window the attempt is rejected with the remaining time.
	*clock = clock.Add(30 * time.Minute)
	_, err = gate.CheckAndConsume(ctx, 1, ActionDraw, time.Hour)
	ce, ok := IsCooldown(err)
	require.True(t, ok)
	assert.Equal(t, 30*time.Minute, ce.Remaining)

	// The failed attempt must not have reset the clock.
	*clock = clock.Add(30 * time.Minute)
	_, err = gate.CheckAndConsume(ctx, 1, ActionDraw, time.Hour)
	assert.NoError(t, err, "boundary is inclusive: exactly cooldown elapsed is allowed")
}

func TestGateUndoRestoresPreviousState(t *testing.T) {
	gate, clock := newTestGate(time.Unix(1_000_000, 0))
	ctx := context.Background()

	// First consume on a fresh clock; undo removes the timestamp entirely.
	undo, err := gate.CheckAndConsume(ctx, 1, ActionMine, 10*time.Minute)
	require.NoError(t, err)
	undo()

	_, err = gate.CheckAndConsume(ctx, 1, ActionMine, 10*time.Minute)
	require.NoError(t, err, "undone consume must not block the retry")

	// Second consume past the window; undo restores the earlier stamp.
	*clock = clock.Add(10 * time.Minute)
	undo, err = gate.CheckAndConsume(ctx, 1, ActionMine, 10*time.Minute)
	require.NoError(t, err)
	undo()

	remaining, err := gate.Remaining(ctx, 1, ActionMine, 10*time.Minute)
	require.NoError(t, err)
	assert.Zero(t, remaining, "restored stamp is already past the window")
}

func TestGateKindsAreIndependent(t *testing.T) {
	gate, _ := newTestGate(time.Unix(1_000_000, 0))
	ctx := context.Background()

	_, err := gate.CheckAndConsume(ctx, 1, ActionDraw, time.Hour)
	require.NoError(t, err)

	_, err = gate.CheckAndConsume(ctx, 1, ActionLucky, 24*time.Hour)
	assert.NoError(t, err, "different action kinds use independent clocks")

	_, err = gate.CheckAndConsume(ctx, 2, ActionDraw, time.Hour)
	assert.NoError(t, err, "different users use independent clocks")
}

func TestGateRemainingIsReadOnly(t *testing.T) {
	gate, _ := newTestGate(time.Unix(1_000_000, 0))
	ctx := context.Background()

	remaining, err := gate.Remaining(ctx, 1, ActionPoker, 30*time.Minute)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	// Reading never consumes.
	_, err = gate.CheckAndConsume(ctx, 1, ActionPoker, 30*time.Minute)
	assert.NoError(t, err)
}
