package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cardbot/internal/models"
)

// rarestRewardChance is the fixed probability that a duel winner receives
// the single rarest card in the system instead of an Exclusive reward.
const rarestRewardChance = 0.10

// Challenge is a pending poker duel proposal. Only the target may accept or
// decline it.
type Challenge struct {
	ID           string
	ChallengerID int64
	TargetID     int64
	CreatedAt    time.Time
}

func (c Challenge) parties() (int64, int64) { return c.ChallengerID, c.TargetID }
func (c Challenge) created() time.Time      { return c.CreatedAt }

// DuelResult is the outcome of a resolved duel.
type DuelResult struct {
	ChallengerID    int64
	TargetID        int64
	ChallengerScore int
	TargetScore     int

	// Draw is set on an exact tie: no winner, no state changes.
	Draw     bool
	WinnerID int64
	LoserID  int64

	// Reward is the card item awarded to the winner.
	Reward string
	// Forfeit is the loser's highest-tier non-Exclusive item removed from
	// their inventory, empty when they had none.
	Forfeit string
}

// Duels runs the poker duel contest: propose, accept/decline, resolve by
// tier score. Pending challenges live only for the process lifetime.
type Duels struct {
	pending *registry[Challenge]
	ledger  *Ledger
	deck    *Deck
	rng     *rand.Rand
	now     func() time.Time
	logger  *zap.Logger
}

// NewDuels creates the duel engine.
func NewDuels(ledger *Ledger, deck *Deck, rng *rand.Rand, now func() time.Time, logger *zap.Logger) *Duels {
	if now == nil {
		now = time.Now
	}
	return &Duels{
		pending: newRegistry[Challenge](now),
		ledger:  ledger,
		deck:    deck,
		rng:     rng,
		now:     now,
		logger:  logger,
	}
}

// Propose registers a challenge from challenger to target. A challenger
// cannot duel themselves, and a second pending challenge to the same target
// is rejected.
func (d *Duels) Propose(challenger, target int64) (Challenge, error) {
	if challenger == target {
		return Challenge{}, &InvalidArgumentError{Reason: "cannot challenge yourself"}
	}
	ch := Challenge{
		ID:           uuid.NewString(),
		ChallengerID: challenger,
		TargetID:     target,
		CreatedAt:    d.now(),
	}
	if err := d.pending.put(ch); err != nil {
		return Challenge{}, err
	}
	d.logger.Info("duel proposed",
		zap.String("challenge_id", ch.ID),
		zap.Int64("challenger_id", challenger),
		zap.Int64("target_id", target),
	)
	return ch, nil
}

// Decline closes the oldest challenge addressed to target without resolving
// it.
func (d *Duels) Decline(target int64) (Challenge, error) {
	ch, ok := d.pending.byTarget(target)
	if !ok {
		return Challenge{}, ErrChallengeNotFound
	}
	d.pending.remove(ch.ChallengerID, ch.TargetID)
	return ch, nil
}

// Accept resolves the oldest challenge addressed to target.
//
// Both hands are downsampled to the hand cap, scored by tier, and the higher
// total wins. An exact tie is a draw with zero state changes. The winner
// receives a reward card weighted toward the two Exclusive cards with a
// small fixed chance of the rarest card in the system; the loser forfeits
// their single highest-tier non-Exclusive card, if they hold any.
func (d *Duels) Accept(ctx context.Context, target int64) (DuelResult, error) {
	ch, ok := d.pending.byTarget(target)
	if !ok {
		return DuelResult{}, ErrChallengeNotFound
	}

	challengerInv, err := d.ledger.Inventory(ctx, ch.ChallengerID)
	if err != nil {
		return DuelResult{}, err
	}
	targetInv, err := d.ledger.Inventory(ctx, target)
	if err != nil {
		return DuelResult{}, err
	}

	challengerScore, _ := Score(SampleHand(BuildHand(challengerInv), d.rng))
	targetScore, _ := Score(SampleHand(BuildHand(targetInv), d.rng))

	// The challenge is spent whatever the outcome.
	d.pending.remove(ch.ChallengerID, ch.TargetID)

	result := DuelResult{
		ChallengerID:    ch.ChallengerID,
		TargetID:        target,
		ChallengerScore: challengerScore,
		TargetScore:     targetScore,
	}

	if challengerScore == targetScore {
		result.Draw = true
		return result, nil
	}

	if challengerScore > targetScore {
		result.WinnerID, result.LoserID = ch.ChallengerID, target
	} else {
		result.WinnerID, result.LoserID = target, ch.ChallengerID
	}

	result.Reward = d.rollReward()
	if err := d.ledger.AddItem(ctx, result.WinnerID, result.Reward, 1); err != nil {
		return DuelResult{}, err
	}

	loserInv := challengerInv
	if result.LoserID == target {
		loserInv = targetInv
	}
	if forfeit := highestForfeitable(loserInv); forfeit != "" {
		if err := d.ledger.RemoveItem(ctx, result.LoserID, forfeit, 1); err != nil {
			return DuelResult{}, err
		}
		result.Forfeit = forfeit
	}

	d.logger.Info("duel resolved",
		zap.String("challenge_id", ch.ID),
		zap.Int64("winner_id", result.WinnerID),
		zap.Int64("loser_id", result.LoserID),
		zap.Int("winner_score", max(challengerScore, targetScore)),
		zap.Int("loser_score", min(challengerScore, targetScore)),
		zap.String("reward", result.Reward),
	)
	return result, nil
}

// Sweep evicts expired challenges.
func (d *Duels) Sweep() int {
	return d.pending.Sweep()
}

// rollReward picks the winner's prize: a small fixed chance of the rarest
// card, otherwise an even split between the two Exclusive cards.
func (d *Duels) rollReward() string {
	if d.rng.Float64() < rarestRewardChance {
		return d.deck.Rarest().Item()
	}
	if d.rng.Intn(2) == 0 {
		return PokerMasterCard.Item()
	}
	return SixtySevenCard.Item()
}

// highestForfeitable returns the loser's highest-tier non-Exclusive item,
// ties broken lexicographically for determinism; empty when they hold none.
func highestForfeitable(inv map[string]int) string {
	best := ""
	bestTier := models.TierUnknown
	for item, count := range inv {
		if count <= 0 {
			continue
		}
		tier := models.TierOf(item)
		if tier == models.TierExclusive || tier == models.TierUnknown {
			continue
		}
		if tier > bestTier || (tier == bestTier && (best == "" || item < best)) {
			best = item
			bestTier = tier
		}
	}
	return best
}
