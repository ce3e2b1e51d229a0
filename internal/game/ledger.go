package game

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"cardbot/internal/storage"
)

// DefaultSellSlots is the number of concurrent market listings every
// account starts with. Extra slots are bought through the payment flow.
const DefaultSellSlots = 2

// Ledger tracks per-user coin balances, card inventories and sell slots on
// top of the key/value store. Every mutation is written through immediately;
// there is no batching, acceptable for low-volume interactive commands.
//
// All read-modify-write sequences run under the user's keyed lock, so two
// concurrent commands for the same user serialize instead of racing.
type Ledger struct {
	store  storage.Store
	locks  *KeyedMutex
	logger *zap.Logger
}

// NewLedger creates a ledger over the given store.
func NewLedger(store storage.Store, locks *KeyedMutex, logger *zap.Logger) *Ledger {
	return &Ledger{store: store, locks: locks, logger: logger}
}

// Balance returns the user's coin balance. Accounts that were never
// credited read as zero.
func (l *Ledger) Balance(ctx context.Context, user int64) (int, error) {
	var balance int
	if _, err := l.store.Get(ctx, coinsKey(user), &balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// Credit adds amount coins to the user's balance and returns the new balance.
func (l *Ledger) Credit(ctx context.Context, user int64, amount int) (int, error) {
	if amount <= 0 {
		return 0, &InvalidArgumentError{Reason: fmt.Sprintf("credit amount must be positive, got %d", amount)}
	}

	unlock := l.locks.Lock(user)
	defer unlock()

	balance, err := l.Balance(ctx, user)
	if err != nil {
		return 0, err
	}
	balance += amount
	if err := l.store.Set(ctx, coinsKey(user), balance); err != nil {
		return 0, err
	}
	l.logger.Debug("credited coins",
		zap.Int64("user_id", user),
		zap.Int("amount", amount),
		zap.Int("balance", balance),
	)
	return balance, nil
}

// Debit removes amount coins from the user's balance. It fails with
// ErrInsufficientFunds and no mutation when the balance is too low; the
// balance never goes negative.
func (l *Ledger) Debit(ctx context.Context, user int64, amount int) (int, error) {
	if amount <= 0 {
		return 0, &InvalidArgumentError{Reason: fmt.Sprintf("debit amount must be positive, got %d", amount)}
	}

	unlock := l.locks.Lock(user)
	defer unlock()

	balance, err := l.Balance(ctx, user)
	if err != nil {
		return 0, err
	}
	if amount > balance {
		return balance, ErrInsufficientFunds
	}
	balance -= amount
	if err := l.store.Set(ctx, coinsKey(user), balance); err != nil {
		return 0, err
	}
	l.logger.Debug("debited coins",
		zap.Int64("user_id", user),
		zap.Int("amount", amount),
		zap.Int("balance", balance),
	)
	return balance, nil
}

// AddItem adds count units of item to the user's inventory.
func (l *Ledger) AddItem(ctx context.Context, user int64, item string, count int) error {
	if count <= 0 {
		return &InvalidArgumentError{Reason: fmt.Sprintf("item count must be positive, got %d", count)}
	}

	unlock := l.locks.Lock(user)
	defer unlock()
	return l.addItemLocked(ctx, user, item, count)
}

// addItemLocked mutates the inventory; caller must hold the user's lock.
func (l *Ledger) addItemLocked(ctx context.Context, user int64, item string, count int) error {
	inv, err := l.Inventory(ctx, user)
	if err != nil {
		return err
	}
	inv[item] += count
	return l.store.Set(ctx, userKey(user), inv)
}

// RemoveItem removes count units of item from the user's inventory. It fails
// with ErrInsufficientInventory and no mutation when the held count is lower
// than requested. Entries reaching zero are removed entirely.
func (l *Ledger) RemoveItem(ctx context.Context, user int64, item string, count int) error {
	if count <= 0 {
		return &InvalidArgumentError{Reason: fmt.Sprintf("item count must be positive, got %d", count)}
	}

	unlock := l.locks.Lock(user)
	defer unlock()
	return l.removeItemLocked(ctx, user, item, count)
}

func (l *Ledger) removeItemLocked(ctx context.Context, user int64, item string, count int) error {
	inv, err := l.Inventory(ctx, user)
	if err != nil {
		return err
	}
	if inv[item] < count {
		return ErrInsufficientInventory
	}
	inv[item] -= count
	if inv[item] == 0 {
		delete(inv, item)
	}
	return l.store.Set(ctx, userKey(user), inv)
}

// Inventory returns the user's item -> count mapping. Absent accounts get an
// empty map.
func (l *Ledger) Inventory(ctx context.Context, user int64) (map[string]int, error) {
	inv := make(map[string]int)
	if _, err := l.store.Get(ctx, userKey(user), &inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// SellSlots returns the user's market listing capacity, at least
// DefaultSellSlots.
func (l *Ledger) SellSlots(ctx context.Context, user int64) (int, error) {
	var slots int
	ok, err := l.store.Get(ctx, slotsKey(user), &slots)
	if err != nil {
		return 0, err
	}
	if !ok || slots < DefaultSellSlots {
		return DefaultSellSlots, nil
	}
	return slots, nil
}

// AddSellSlot grants the user one extra market listing slot and returns the
// new capacity. Called after a successful payment.
func (l *Ledger) AddSellSlot(ctx context.Context, user int64) (int, error) {
	unlock := l.locks.Lock(user)
	defer unlock()

	slots, err := l.SellSlots(ctx, user)
	if err != nil {
		return 0, err
	}
	slots++
	if err := l.store.Set(ctx, slotsKey(user), slots); err != nil {
		return 0, err
	}
	l.logger.Info("sell slot purchased", zap.Int64("user_id", user), zap.Int("slots", slots))
	return slots, nil
}

// RecordUsername remembers the display name last seen for a user id, for
// leaderboard and profile rendering.
func (l *Ledger) RecordUsername(ctx context.Context, user int64, name string) error {
	if name == "" {
		return nil
	}
	return l.store.Set(ctx, nameKey(user), name)
}

// Username returns the last seen display name for a user id, or the numeric
// id when unknown.
func (l *Ledger) Username(ctx context.Context, user int64) string {
	var name string
	ok, err := l.store.Get(ctx, nameKey(user), &name)
	if err != nil || !ok || name == "" {
		return fmt.Sprintf("%d", user)
	}
	return name
}

// BalanceEntry is a leaderboard row.
type BalanceEntry struct {
	UserID  int64
	Name    string
	Balance int
}

// TopBalances returns the top n accounts by balance, richest first.
func (l *Ledger) TopBalances(ctx context.Context, n int) ([]BalanceEntry, error) {
	keys, err := l.store.Keys(ctx, coinsKeyPrefix)
	if err != nil {
		return nil, err
	}

	var entries []BalanceEntry
	for _, key := range keys {
		var id int64
		if _, err := fmt.Sscanf(key, coinsKeyPrefix+"%d", &id); err != nil {
			continue
		}
		var balance int
		ok, err := l.store.Get(ctx, key, &balance)
		if err != nil || !ok {
			continue
		}
		entries = append(entries, BalanceEntry{
			UserID:  id,
			Name:    l.Username(ctx, id),
			Balance: balance,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Balance != entries[j].Balance {
			return entries[i].Balance > entries[j].Balance
		}
		return entries[i].UserID < entries[j].UserID
	})

	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries, nil
}
