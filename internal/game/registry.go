package game

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// ProposalTTL bounds how long a pending challenge or trade stays open.
const ProposalTTL = 10 * time.Minute

// proposal is the common shape of a pending two-party offer.
type proposal interface {
	parties() (initiator, target int64)
	created() time.Time
}

// registry holds transient, process-lifetime proposals keyed by
// (initiator, target). A restart silently drops everything in it; that is a
// documented limitation, not a bug.
//
// A second proposal from the same initiator to the same target is rejected
// while the first is pending, so no proposal can become unreachable behind
// another one.
type registry[T proposal] struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string]T
}

func newRegistry[T proposal](now func() time.Time) *registry[T] {
	if now == nil {
		now = time.Now
	}
	return &registry[T]{now: now, items: make(map[string]T)}
}

func pairKey(initiator, target int64) string {
	return fmt.Sprintf("%d:%d", initiator, target)
}

// put registers p, rejecting a duplicate (initiator, target) pair.
func (r *registry[T]) put(p T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	init, target := p.parties()
	key := pairKey(init, target)
	if _, ok := r.items[key]; ok {
		return ErrProposalExists
	}
	r.items[key] = p
	return nil
}

// byTarget returns the oldest pending proposal addressed to target.
func (r *registry[T]) byTarget(target int64) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	var matches []T
	for _, p := range r.items {
		if _, t := p.parties(); t == target {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		var zero T
		return zero, false
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].created().Before(matches[j].created())
	})
	return matches[0], true
}

// byInitiator returns the oldest pending proposal created by initiator.
func (r *registry[T]) byInitiator(initiator int64) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	var matches []T
	for _, p := range r.items {
		if i, _ := p.parties(); i == initiator {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		var zero T
		return zero, false
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].created().Before(matches[j].created())
	})
	return matches[0], true
}

// remove drops the proposal for the (initiator, target) pair.
func (r *registry[T]) remove(initiator, target int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, pairKey(initiator, target))
}

// Sweep evicts expired proposals and reports how many were dropped.
func (r *registry[T]) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked()
}

func (r *registry[T]) sweepLocked() int {
	cutoff := r.now().Add(-ProposalTTL)
	dropped := 0
	for key, p := range r.items {
		if p.created().Before(cutoff) {
			delete(r.items, key)
			dropped++
		}
	}
	return dropped
}
