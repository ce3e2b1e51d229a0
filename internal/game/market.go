package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cardbot/internal/models"
	"cardbot/internal/storage"
)

// ListingTTL is how long a listing stays on the market before the sweep
// returns it to its seller.
const ListingTTL = 24 * time.Hour

// Market manages time-bounded player listings under the market_cards key.
// All operations serialize on a market-wide lock; listings are few and every
// mutation rewrites the whole slice.
type Market struct {
	store  storage.Store
	ledger *Ledger
	now    func() time.Time
	logger *zap.Logger
	mu     sync.Mutex
}

// NewMarket creates a marketplace over the given store and ledger.
func NewMarket(store storage.Store, ledger *Ledger, now func() time.Time, logger *zap.Logger) *Market {
	if now == nil {
		now = time.Now
	}
	return &Market{store: store, ledger: ledger, now: now, logger: logger}
}

// ListForSale moves one unit of item out of the seller's inventory into a
// new listing. It fails with ErrInsufficientInventory when the seller does
// not hold the item and with ErrSlotLimitReached when all sell slots are in
// use.
func (m *Market) ListForSale(ctx context.Context, seller int64, item string, price int) (models.Listing, error) {
	if price <= 0 {
		return models.Listing{}, &InvalidArgumentError{Reason: "price must be positive"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	listings, err := m.sweepLocked(ctx)
	if err != nil {
		return models.Listing{}, err
	}

	slots, err := m.ledger.SellSlots(ctx, seller)
	if err != nil {
		return models.Listing{}, err
	}
	used := 0
	for _, l := range listings {
		if l.SellerID == seller {
			used++
		}
	}
	if used >= slots {
		return models.Listing{}, ErrSlotLimitReached
	}

	// Inventory moves out before the listing exists; on a failed write the
	// unit is restored.
	if err := m.ledger.RemoveItem(ctx, seller, item, 1); err != nil {
		return models.Listing{}, err
	}

	listing := models.Listing{
		ID:        uuid.NewString(),
		Item:      item,
		Price:     price,
		SellerID:  seller,
		CreatedAt: m.now().Unix(),
	}
	listings = append(listings, listing)
	if err := m.store.Set(ctx, marketKey, listings); err != nil {
		if restoreErr := m.ledger.AddItem(ctx, seller, item, 1); restoreErr != nil {
			m.logger.Error("failed to restore item after listing write failure",
				zap.Int64("seller_id", seller), zap.String("item", item), zap.Error(restoreErr))
		}
		return models.Listing{}, err
	}

	m.logger.Info("listing created",
		zap.String("listing_id", listing.ID),
		zap.Int64("seller_id", seller),
		zap.String("item", item),
		zap.Int("price", price),
	)
	return listing, nil
}

// Listings returns all active listings, oldest first, sweeping expired ones
// first.
func (m *Market) Listings(ctx context.Context) ([]models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(ctx)
}

// ListingsBySeller returns the seller's active listings plus their slot
// capacity.
func (m *Market) ListingsBySeller(ctx context.Context, seller int64) ([]models.Listing, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	listings, err := m.sweepLocked(ctx)
	if err != nil {
		return nil, 0, err
	}
	slots, err := m.ledger.SellSlots(ctx, seller)
	if err != nil {
		return nil, 0, err
	}

	var mine []models.Listing
	for _, l := range listings {
		if l.SellerID == seller {
			mine = append(mine, l)
		}
	}
	return mine, slots, nil
}

// Purchase buys the listing with the given id. The listing is re-validated
// by identity, not index: a listing already sold or swept fails with
// ErrListingNotFound. Buying your own listing is rejected. On success the
// buyer is debited, the seller credited, and the unit moves to the buyer.
func (m *Market) Purchase(ctx context.Context, buyer int64, listingID string) (models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	listings, err := m.sweepLocked(ctx)
	if err != nil {
		return models.Listing{}, err
	}

	idx := -1
	for i, l := range listings {
		if l.ID == listingID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Listing{}, ErrListingNotFound
	}
	listing := listings[idx]

	if listing.SellerID == buyer {
		return models.Listing{}, &InvalidArgumentError{Reason: "cannot buy your own listing"}
	}

	if _, err := m.ledger.Debit(ctx, buyer, listing.Price); err != nil {
		return models.Listing{}, err
	}
	if _, err := m.ledger.Credit(ctx, listing.SellerID, listing.Price); err != nil {
		m.unwindPurchase(ctx, buyer, listing, false, false)
		return models.Listing{}, err
	}
	if err := m.ledger.AddItem(ctx, buyer, listing.Item, 1); err != nil {
		m.unwindPurchase(ctx, buyer, listing, true, false)
		return models.Listing{}, err
	}

	listings = append(listings[:idx], listings[idx+1:]...)
	if err := m.store.Set(ctx, marketKey, listings); err != nil {
		m.unwindPurchase(ctx, buyer, listing, true, true)
		return models.Listing{}, err
	}

	m.logger.Info("listing purchased",
		zap.String("listing_id", listing.ID),
		zap.Int64("buyer_id", buyer),
		zap.Int64("seller_id", listing.SellerID),
		zap.Int("price", listing.Price),
	)
	return listing, nil
}

// unwindPurchase reverses the settled legs of a purchase that failed part
// way, logging every leg that cannot be restored.
func (m *Market) unwindPurchase(ctx context.Context, buyer int64, listing models.Listing, sellerPaid, itemDelivered bool) {
	if _, err := m.ledger.Credit(ctx, buyer, listing.Price); err != nil {
		m.logger.Error("failed to refund buyer after purchase failure",
			zap.String("listing_id", listing.ID), zap.Int64("buyer_id", buyer), zap.Error(err))
	}
	if sellerPaid {
		if _, err := m.ledger.Debit(ctx, listing.SellerID, listing.Price); err != nil {
			m.logger.Error("failed to reclaim seller payout after purchase failure",
				zap.String("listing_id", listing.ID), zap.Int64("seller_id", listing.SellerID), zap.Error(err))
		}
	}
	if itemDelivered {
		if err := m.ledger.RemoveItem(ctx, buyer, listing.Item, 1); err != nil {
			m.logger.Error("failed to take back item after purchase failure",
				zap.String("listing_id", listing.ID), zap.Int64("buyer_id", buyer), zap.Error(err))
		}
	}
}

// Unlist takes the seller's own listing off the market, returning the unit
// to their inventory without payment.
func (m *Market) Unlist(ctx context.Context, seller int64, listingID string) (models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	listings, err := m.sweepLocked(ctx)
	if err != nil {
		return models.Listing{}, err
	}

	idx := -1
	for i, l := range listings {
		if l.ID == listingID && l.SellerID == seller {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Listing{}, ErrListingNotFound
	}
	listing := listings[idx]

	if err := m.ledger.AddItem(ctx, seller, listing.Item, 1); err != nil {
		return models.Listing{}, err
	}
	listings = append(listings[:idx], listings[idx+1:]...)
	if err := m.store.Set(ctx, marketKey, listings); err != nil {
		return models.Listing{}, err
	}
	return listing, nil
}

// SweepExpired returns every listing older than the TTL to its seller, with
// no balance change to anyone, and reports how many were swept. Idempotent
// and safe to call before every market read.
func (m *Market) SweepExpired(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before, err := m.loadLocked(ctx)
	if err != nil {
		return 0, err
	}
	after, err := m.sweepLocked(ctx)
	if err != nil {
		return 0, err
	}
	return len(before) - len(after), nil
}

// loadLocked reads the listings slice; caller holds the market lock.
func (m *Market) loadLocked(ctx context.Context) ([]models.Listing, error) {
	var listings []models.Listing
	if _, err := m.store.Get(ctx, marketKey, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// sweepLocked removes expired listings, returning their units to sellers,
// and persists the remainder when anything changed. Caller holds the lock.
func (m *Market) sweepLocked(ctx context.Context) ([]models.Listing, error) {
	listings, err := m.loadLocked(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := m.now().Add(-ListingTTL).Unix()
	active := listings[:0]
	swept := 0
	for _, l := range listings {
		if l.CreatedAt > cutoff {
			active = append(active, l)
			continue
		}
		if err := m.ledger.AddItem(ctx, l.SellerID, l.Item, 1); err != nil {
			return nil, err
		}
		m.logger.Info("expired listing returned to seller",
			zap.String("listing_id", l.ID),
			zap.Int64("seller_id", l.SellerID),
			zap.String("item", l.Item),
		)
		swept++
	}
	if swept == 0 {
		return active, nil
	}
	if err := m.store.Set(ctx, marketKey, active); err != nil {
		return nil, err
	}
	return active, nil
}
