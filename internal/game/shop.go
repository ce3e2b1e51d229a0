package game

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"cardbot/internal/models"
	"cardbot/internal/storage"
)

const (
	// shopSize is how many rolled cards the daily shop carries, on top of
	// the lucky bundle entry.
	shopSize = 5

	// LuckyBundleItem is the synthetic shop entry granting 1-3 lucky draws.
	LuckyBundleItem = "🎟 Lucky Bundle"

	// luckyBundleUnitPrice prices the bundle per use.
	luckyBundleUnitPrice = 120
)

// Shop rolls and caches the once-per-day shop catalog. The roll is
// deterministic only in distribution: once cached under shop_<date> it is
// never recomputed for that date.
type Shop struct {
	store  storage.Store
	deck   *Deck
	rng    *rand.Rand
	now    func() time.Time
	logger *zap.Logger
	mu     sync.Mutex
}

// NewShop creates the daily shop.
func NewShop(store storage.Store, deck *Deck, rng *rand.Rand, now func() time.Time, logger *zap.Logger) *Shop {
	if now == nil {
		now = time.Now
	}
	return &Shop{store: store, deck: deck, rng: rng, now: now, logger: logger}
}

// Today returns the current calendar date key.
func (s *Shop) Today() string {
	return s.now().Format("2006-01-02")
}

// Daily returns the shop entries for date, rolling and caching them on
// first request.
func (s *Shop) Daily(ctx context.Context, date string) ([]models.ShopEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []models.ShopEntry
	ok, err := s.store.Get(ctx, shopKey(date), &entries)
	if err != nil {
		return nil, err
	}
	if ok {
		return entries, nil
	}

	entries = s.roll()
	if err := s.store.Set(ctx, shopKey(date), entries); err != nil {
		return nil, err
	}
	s.logger.Info("daily shop rolled", zap.String("date", date), zap.Int("entries", len(entries)))
	return entries, nil
}

// roll draws the day's cards from the shoppable pool and prices each inside
// its tier band, then appends the lucky bundle with a random multiplicity.
func (s *Shop) roll() []models.ShopEntry {
	pool := s.deck.Shoppable()
	entries := make([]models.ShopEntry, 0, shopSize+1)
	for i := 0; i < shopSize; i++ {
		card := pool.Draw(s.rng)
		min, max := card.Tier.PriceBand()
		price := min
		if max > min {
			price += s.rng.Intn(max - min + 1)
		}
		entries = append(entries, models.ShopEntry{Item: card.Item(), Price: price})
	}

	uses := 1 + s.rng.Intn(3)
	entries = append(entries, models.ShopEntry{
		Item:  LuckyBundleItem,
		Price: luckyBundleUnitPrice * uses,
		Uses:  uses,
	})
	return entries
}

// HasPurchasedToday reports whether user already bought the given entry on
// date.
func (s *Shop) HasPurchasedToday(ctx context.Context, user int64, date, entryItem string) (bool, error) {
	purchased := make(map[string]bool)
	if _, err := s.store.Get(ctx, shopPurchasesKey(date, user), &purchased); err != nil {
		return false, err
	}
	return purchased[entryItem], nil
}

// RecordDailyPurchase marks the entry as bought by user on date, enforcing
// at most one purchase per entry per user per calendar day. Callers record
// before moving any coins or cards; the returned undo clears the mark again
// when the purchase fails after the reservation.
func (s *Shop) RecordDailyPurchase(ctx context.Context, user int64, date, entryItem string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purchased := make(map[string]bool)
	if _, err := s.store.Get(ctx, shopPurchasesKey(date, user), &purchased); err != nil {
		return nil, err
	}
	if purchased[entryItem] {
		return nil, ErrAlreadyPurchasedToday
	}
	purchased[entryItem] = true
	if err := s.store.Set(ctx, shopPurchasesKey(date, user), purchased); err != nil {
		return nil, err
	}

	undo := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		purchased := make(map[string]bool)
		if _, err := s.store.Get(ctx, shopPurchasesKey(date, user), &purchased); err != nil {
			s.logger.Error("failed to read purchases while releasing shop reservation",
				zap.Int64("user_id", user), zap.String("item", entryItem), zap.Error(err))
			return
		}
		delete(purchased, entryItem)
		if err := s.store.Set(ctx, shopPurchasesKey(date, user), purchased); err != nil {
			s.logger.Error("failed to release shop reservation",
				zap.Int64("user_id", user), zap.String("item", entryItem), zap.Error(err))
		}
	}
	return undo, nil
}
