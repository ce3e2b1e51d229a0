package moderation

import (
	"fmt"
	"sync"
	"time"
)

// FloodGate is a sliding-window message counter: more than limit messages
// from the same user in the same chat within window trips the gate.
type FloodGate struct {
	window time.Duration
	limit  int
	now    func() time.Time

	mu   sync.Mutex
	seen map[string][]time.Time
}

// NewFloodGate creates a flood gate. now is injectable for tests.
func NewFloodGate(limit int, window time.Duration, now func() time.Time) *FloodGate {
	if now == nil {
		now = time.Now
	}
	return &FloodGate{
		window: window,
		limit:  limit,
		now:    now,
		seen:   make(map[string][]time.Time),
	}
}

// Record registers a message from user in chat and reports whether the
// sliding window now exceeds the limit.
func (f *FloodGate) Record(chatID, userID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := fmt.Sprintf("%d:%d", chatID, userID)
	now := f.now()
	cutoff := now.Add(-f.window)

	recent := f.seen[key][:0]
	for _, ts := range f.seen[key] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}
	recent = append(recent, now)
	f.seen[key] = recent

	return len(recent) > f.limit
}

// Reset clears the window for a user, typically after a mute was applied.
func (f *FloodGate) Reset(chatID, userID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.seen, fmt.Sprintf("%d:%d", chatID, userID))
}
