package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Trade is a pending card exchange proposal: the initiator offers
// OfferQty x OfferItem for WantQty x WantItem from the target.
type Trade struct {
	ID          string
	InitiatorID int64
	TargetID    int64
	OfferItem   string
	OfferQty    int
	WantItem    string
	WantQty     int
	CreatedAt   time.Time
}

func (t Trade) parties() (int64, int64) { return t.InitiatorID, t.TargetID }
func (t Trade) created() time.Time      { return t.CreatedAt }

// Trades manages pending trade proposals and their atomic settlement.
// Proposals are process-local and dropped on restart.
type Trades struct {
	pending *registry[Trade]
	ledger  *Ledger
	now     func() time.Time
	logger  *zap.Logger
}

// NewTrades creates the trade engine.
func NewTrades(ledger *Ledger, now func() time.Time, logger *zap.Logger) *Trades {
	if now == nil {
		now = time.Now
	}
	return &Trades{
		pending: newRegistry[Trade](now),
		ledger:  ledger,
		now:     now,
		logger:  logger,
	}
}

// Propose registers a trade offer. The initiator must currently hold the
// offered quantity; holding is re-checked at acceptance since inventories
// move in the meantime.
func (t *Trades) Propose(ctx context.Context, initiator, target int64, offerItem string, offerQty int, wantItem string, wantQty int) (Trade, error) {
	if initiator == target {
		return Trade{}, &InvalidArgumentError{Reason: "cannot trade with yourself"}
	}
	if offerQty <= 0 || wantQty <= 0 {
		return Trade{}, &InvalidArgumentError{Reason: "trade quantities must be positive"}
	}

	inv, err := t.ledger.Inventory(ctx, initiator)
	if err != nil {
		return Trade{}, err
	}
	if inv[offerItem] < offerQty {
		return Trade{}, ErrInsufficientInventory
	}

	trade := Trade{
		ID:          uuid.NewString(),
		InitiatorID: initiator,
		TargetID:    target,
		OfferItem:   offerItem,
		OfferQty:    offerQty,
		WantItem:    wantItem,
		WantQty:     wantQty,
		CreatedAt:   t.now(),
	}
	if err := t.pending.put(trade); err != nil {
		return Trade{}, err
	}
	t.logger.Info("trade proposed",
		zap.String("trade_id", trade.ID),
		zap.Int64("initiator_id", initiator),
		zap.Int64("target_id", target),
	)
	return trade, nil
}

// Accept settles the oldest trade addressed to target: both sides are
// re-checked, then the items swap. A failed leg restores what already moved
// so the swap is all-or-nothing.
func (t *Trades) Accept(ctx context.Context, target int64) (Trade, error) {
	trade, ok := t.pending.byTarget(target)
	if !ok {
		return Trade{}, ErrTradeNotFound
	}

	initiatorInv, err := t.ledger.Inventory(ctx, trade.InitiatorID)
	if err != nil {
		return Trade{}, err
	}
	targetInv, err := t.ledger.Inventory(ctx, target)
	if err != nil {
		return Trade{}, err
	}
	if initiatorInv[trade.OfferItem] < trade.OfferQty || targetInv[trade.WantItem] < trade.WantQty {
		// Someone no longer holds their side; the proposal is dead.
		t.pending.remove(trade.InitiatorID, trade.TargetID)
		return Trade{}, ErrInsufficientInventory
	}

	if err := t.ledger.RemoveItem(ctx, trade.InitiatorID, trade.OfferItem, trade.OfferQty); err != nil {
		return Trade{}, err
	}
	if err := t.ledger.RemoveItem(ctx, target, trade.WantItem, trade.WantQty); err != nil {
		if restoreErr := t.ledger.AddItem(ctx, trade.InitiatorID, trade.OfferItem, trade.OfferQty); restoreErr != nil {
			t.logger.Error("failed to restore initiator items after trade failure",
				zap.String("trade_id", trade.ID), zap.Error(restoreErr))
		}
		return Trade{}, err
	}
	if err := t.ledger.AddItem(ctx, target, trade.OfferItem, trade.OfferQty); err != nil {
		return Trade{}, err
	}
	if err := t.ledger.AddItem(ctx, trade.InitiatorID, trade.WantItem, trade.WantQty); err != nil {
		return Trade{}, err
	}

	t.pending.remove(trade.InitiatorID, trade.TargetID)
	t.logger.Info("trade settled", zap.String("trade_id", trade.ID))
	return trade, nil
}

// Decline closes the oldest trade addressed to target.
func (t *Trades) Decline(target int64) (Trade, error) {
	trade, ok := t.pending.byTarget(target)
	if !ok {
		return Trade{}, ErrTradeNotFound
	}
	t.pending.remove(trade.InitiatorID, trade.TargetID)
	return trade, nil
}

// Cancel withdraws the initiator's own pending trade.
func (t *Trades) Cancel(initiator int64) (Trade, error) {
	trade, ok := t.pending.byInitiator(initiator)
	if !ok {
		return Trade{}, ErrTradeNotFound
	}
	t.pending.remove(trade.InitiatorID, trade.TargetID)
	return trade, nil
}

// Sweep evicts expired trades.
func (t *Trades) Sweep() int {
	return t.pending.Sweep()
}
