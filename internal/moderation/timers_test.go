package moderation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cardbot/internal/models"
	"cardbot/internal/storage/stubs"
)

// restoreRecorder collects fired timers for assertions.
type restoreRecorder struct {
	mu    sync.Mutex
	fired []models.ModTimer
}

func (r *restoreRecorder) restore(timer models.ModTimer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, timer)
}

func (r *restoreRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fired)
}

func TestScheduleFiresAtDeadline(t *testing.T) {
	store := stubs.NewMockStore()
	timers := NewTimers(store, nil, zap.NewNop())
	rec := &restoreRecorder{}
	timers.Bind(rec.restore)

	require.NoError(t, timers.Schedule(context.Background(), models.ModTimer{
		ChatID:   100,
		UserID:   1,
		Action:   "unmute",
		Deadline: time.Now().Add(50 * time.Millisecond).Unix(),
	}))

	// Sub-second deadlines truncate to an immediate fire.
	assert.Eventually(t, func() bool { return rec.count() == 1 },
		2*time.Second, 10*time.Millisecond)

	// The fired deadline is removed from the store.
	assert.Eventually(t, func() bool {
		var persisted []models.ModTimer
		ok, err := store.Get(context.Background(), "mod_timers", &persisted)
		return err == nil && (!ok || len(persisted) == 0)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCancelStopsPendingTimer(t *testing.T) {
	store := stubs.NewMockStore()
	timers := NewTimers(store, nil, zap.NewNop())
	rec := &restoreRecorder{}
	timers.Bind(rec.restore)
	ctx := context.Background()

	require.NoError(t, timers.Schedule(ctx, models.ModTimer{
		ChatID:   100,
		UserID:   1,
		Action:   "unban",
		Deadline: time.Now().Add(time.Hour).Unix(),
	}))
	require.NoError(t, timers.Cancel(ctx, 100, 1, "unban"))

	var persisted []models.ModTimer
	_, err := store.Get(ctx, "mod_timers", &persisted)
	require.NoError(t, err)
	assert.Empty(t, persisted)
	assert.Zero(t, rec.count())
}

func TestRearmFiresOverdueTimers(t *testing.T) {
	store := stubs.NewMockStore()
	ctx := context.Background()

	// Persist a deadline as a previous process run would have.
	overdue := []models.ModTimer{{
		ChatID:   100,
		UserID:   1,
		Action:   "unmute",
		Deadline: time.Now().Add(-time.Minute).Unix(),
	}}
	require.NoError(t, store.Set(ctx, "mod_timers", overdue))

	timers := NewTimers(store, nil, zap.NewNop())
	rec := &restoreRecorder{}
	timers.Bind(rec.restore)
	require.NoError(t, timers.Rearm(ctx))

	assert.Eventually(t, func() bool { return rec.count() == 1 },
		2*time.Second, 10*time.Millisecond)
}
