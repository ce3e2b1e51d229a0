package game

import (
	"math/rand"
	"sort"

	"cardbot/internal/models"
)

// MaxHandSize caps how many cards a contest hand may score. Larger
// collections are downsampled so hoarding gives no unbounded advantage and
// result displays stay bounded.
const MaxHandSize = 10

// BuildHand expands an inventory multiset into a flat card slice, sorted for
// determinism.
func BuildHand(inv map[string]int) []string {
	items := make([]string, 0, len(inv))
	for item := range inv {
		items = append(items, item)
	}
	sort.Strings(items)

	var hand []string
	for _, item := range items {
		for i := 0; i < inv[item]; i++ {
			hand = append(hand, item)
		}
	}
	return hand
}

// SampleHand downsamples a hand to MaxHandSize via uniform sampling without
// replacement. Hands at or under the cap come back unchanged.
func SampleHand(hand []string, rng *rand.Rand) []string {
	if len(hand) <= MaxHandSize {
		return hand
	}
	sampled := make([]string, 0, MaxHandSize)
	for _, i := range rng.Perm(len(hand))[:MaxHandSize] {
		sampled = append(sampled, hand[i])
	}
	return sampled
}

// Score sums the tier point values of a hand and counts cards per tier.
func Score(hand []string) (int, map[models.Tier]int) {
	total := 0
	counts := make(map[models.Tier]int)
	for _, item := range hand {
		tier := models.TierOf(item)
		total += tier.Score()
		counts[tier]++
	}
	return total, counts
}
