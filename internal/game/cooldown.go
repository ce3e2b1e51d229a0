package game

import (
	"context"
	"time"

	"cardbot/internal/storage"
)

// ActionKind names a rate-limited action. Distinct kinds use independent
// cooldown clocks per user.
type ActionKind string

const (
	ActionDraw  ActionKind = "draw"
	ActionLucky ActionKind = "lucky"
	ActionMine  ActionKind = "mine"
	ActionPoker ActionKind = "poker"
)

// Gate enforces per-user, per-action cooldowns against the store.
type Gate struct {
	store storage.Store
	locks *KeyedMutex
	now   func() time.Time
}

// NewGate creates a cooldown gate. now is injectable for tests.
func NewGate(store storage.Store, locks *KeyedMutex, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{store: store, locks: locks, now: now}
}

// CheckAndConsume checks the (user, kind) cooldown clock against cooldown.
//
// Inside the window it returns a CooldownError carrying the remaining time
// and leaves the stored timestamp untouched: failed attempts do not reset
// the clock. At or past the boundary it stamps now and returns an undo func;
// the caller must invoke undo when the gated action itself fails, so a
// failed action never consumes the cooldown.
func (g *Gate) CheckAndConsume(ctx context.Context, user int64, kind ActionKind, cooldown time.Duration) (undo func(), err error) {
	unlock := g.locks.Lock(user)
	defer unlock()

	key := cooldownKey(kind, user)
	now := g.now().Unix()

	var last int64
	had, err := g.store.Get(ctx, key, &last)
	if err != nil {
		return nil, err
	}

	if had {
		elapsed := now - last
		if elapsed < int64(cooldown.Seconds()) {
			remaining := cooldown - time.Duration(elapsed)*time.Second
			return nil, &CooldownError{Remaining: remaining}
		}
	}

	if err := g.store.Set(ctx, key, now); err != nil {
		return nil, err
	}

	undo = func() {
		unlock := g.locks.Lock(user)
		defer unlock()
		if had {
			_ = g.store.Set(ctx, key, last)
		} else {
			_ = g.store.Delete(ctx, key)
		}
	}
	return undo, nil
}

// Remaining reports how long until (user, kind) is allowed again, zero when
// the action is ready. Read-only; never consumes.
func (g *Gate) Remaining(ctx context.Context, user int64, kind ActionKind, cooldown time.Duration) (time.Duration, error) {
	var last int64
	had, err := g.store.Get(ctx, cooldownKey(kind, user), &last)
	if err != nil {
		return 0, err
	}
	if !had {
		return 0, nil
	}
	elapsed := time.Duration(g.now().Unix()-last) * time.Second
	if elapsed >= cooldown {
		return 0, nil
	}
	return cooldown - elapsed, nil
}
