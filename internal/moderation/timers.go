package moderation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"cardbot/internal/models"
	"cardbot/internal/storage"
)

const timersKey = "mod_timers"

// RestoreFunc applies a due moderation restore (unmute or unban).
type RestoreFunc func(timer models.ModTimer)

// Timers schedules timed moderation restores. Deadlines are persisted under
// mod_timers so restores survive a process restart: Rearm reloads them at
// startup and fires the overdue ones immediately.
type Timers struct {
	store   storage.Store
	now     func() time.Time
	logger  *zap.Logger
	restore RestoreFunc

	mu    sync.Mutex
	armed map[string]*time.Timer
}

// Now exposes the scheduler clock so callers compute deadlines against the
// same source Rearm uses.
func (t *Timers) Now() time.Time {
	return t.now()
}

// NewTimers creates the timer scheduler. The restore callback is bound
// later, once the transport layer exists.
func NewTimers(store storage.Store, now func() time.Time, logger *zap.Logger) *Timers {
	if now == nil {
		now = time.Now
	}
	return &Timers{
		store:  store,
		now:    now,
		logger: logger,
		armed:  make(map[string]*time.Timer),
	}
}

// Bind sets the restore callback. Must be called before Rearm or Schedule.
func (t *Timers) Bind(restore RestoreFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.restore = restore
}

// Schedule persists the timer deadline and arms it.
func (t *Timers) Schedule(ctx context.Context, timer models.ModTimer) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	timers, err := t.loadLocked(ctx)
	if err != nil {
		return err
	}

	key := timerKey(timer)
	kept := timers[:0]
	for _, existing := range timers {
		if timerKey(existing) != key {
			kept = append(kept, existing)
		}
	}
	kept = append(kept, timer)
	if err := t.store.Set(ctx, timersKey, kept); err != nil {
		return err
	}

	t.armLocked(timer)
	t.logger.Info("moderation timer scheduled",
		zap.Int64("chat_id", timer.ChatID),
		zap.Int64("user_id", timer.UserID),
		zap.String("action", timer.Action),
		zap.Int64("deadline", timer.Deadline),
	)
	return nil
}

// Cancel drops a pending timer, e.g. after a manual unmute.
func (t *Timers) Cancel(ctx context.Context, chatID, userID int64, action string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := timerKey(models.ModTimer{ChatID: chatID, UserID: userID, Action: action})
	if armed, ok := t.armed[key]; ok {
		armed.Stop()
		delete(t.armed, key)
	}

	timers, err := t.loadLocked(ctx)
	if err != nil {
		return err
	}
	kept := timers[:0]
	for _, existing := range timers {
		if timerKey(existing) != key {
			kept = append(kept, existing)
		}
	}
	return t.store.Set(ctx, timersKey, kept)
}

// Rearm reloads persisted timers after a restart. Overdue timers fire
// immediately.
func (t *Timers) Rearm(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	timers, err := t.loadLocked(ctx)
	if err != nil {
		return err
	}
	for _, timer := range timers {
		t.armLocked(timer)
	}
	if len(timers) > 0 {
		t.logger.Info("moderation timers re-armed", zap.Int("count", len(timers)))
	}
	return nil
}

func (t *Timers) loadLocked(ctx context.Context) ([]models.ModTimer, error) {
	var timers []models.ModTimer
	if _, err := t.store.Get(ctx, timersKey, &timers); err != nil {
		return nil, err
	}
	return timers, nil
}

// armLocked starts the wall-clock timer; caller holds the lock.
func (t *Timers) armLocked(timer models.ModTimer) {
	key := timerKey(timer)
	if armed, ok := t.armed[key]; ok {
		armed.Stop()
	}

	delay := time.Duration(timer.Deadline-t.now().Unix()) * time.Second
	if delay < 0 {
		delay = 0
	}
	t.armed[key] = time.AfterFunc(delay, func() {
		t.fire(timer)
	})
}

// fire applies the restore and removes the persisted deadline.
func (t *Timers) fire(timer models.ModTimer) {
	t.mu.Lock()
	restore := t.restore
	t.mu.Unlock()
	if restore != nil {
		restore(timer)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := t.Cancel(ctx, timer.ChatID, timer.UserID, timer.Action); err != nil {
		t.logger.Error("failed to clear fired moderation timer", zap.Error(err))
	}
}

func timerKey(timer models.ModTimer) string {
	return fmt.Sprintf("%s:%d:%d", timer.Action, timer.ChatID, timer.UserID)
}
