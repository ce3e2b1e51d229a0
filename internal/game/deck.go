package game

import (
	"math/rand"

	"cardbot/internal/models"
)

// Entry is a single weighted row of a rarity table. Weights need not sum
// to 100; a draw samples uniformly in [0, totalWeight).
type Entry struct {
	Card   models.Card
	Weight float64
}

// Deck is an ordered rarity table supporting weighted draws over the full
// table or a filtered sub-pool. Entry order matters only for tie-break
// determinism.
type Deck struct {
	entries []Entry
	total   float64
}

// luckyThreshold bounds the lucky pool: only entries at or below this
// weight (Epic and rarer) can come out of a lucky draw.
const luckyThreshold = 3.5

// NewDeck builds a deck from the given entries.
func NewDeck(entries []Entry) *Deck {
	d := &Deck{entries: entries}
	for _, e := range entries {
		d.total += e.Weight
	}
	return d
}

// DefaultDeck returns the standard card catalog.
func DefaultDeck() *Deck {
	mk := func(tier models.Tier, weight float64, names ...string) []Entry {
		out := make([]Entry, 0, len(names))
		for _, n := range names {
			out = append(out, Entry{Card: models.Card{Name: n, Tier: tier}, Weight: weight})
		}
		return out
	}

	var entries []Entry
	entries = append(entries, mk(models.TierCommon, 12, "Plain Mango", "Lil Denny", "Expired Mustard", "Kanye West")...)
	entries = append(entries, mk(models.TierUncommon, 6, "Mustard", "Trollface", "Tantum Verde", "Sigeon Pex")...)
	entries = append(entries, mk(models.TierEpic, 3.5, "American Psycho", "Mister Goon", "Doctor Goon", "BR BR Patapim")...)
	entries = append(entries, mk(models.TierLegendary, 2, "Mango Mark", "Mustard King", "Chinese Chief", "J Mango")...)
	entries = append(entries, mk(models.TierMythic, 0.25, "Mango Sponsor", "Omni-Mango", "Mango Trollface", "Matvey's Mustard")...)
	entries = append(entries, mk(models.TierSecret, 0.25, "Kendrick Lamar")...)
	return NewDeck(entries)
}

// Exclusive duel-reward cards. They live outside the droppable table: only
// contest resolution can award them.
var (
	PokerMasterCard = models.Card{Name: "Poker Master", Tier: models.TierExclusive}
	SixtySevenCard  = models.Card{Name: "67", Tier: models.TierExclusive}
)

// Entries returns the table rows in order.
func (d *Deck) Entries() []Entry {
	return d.entries
}

// TotalWeight returns the sum of all entry weights.
func (d *Deck) TotalWeight() float64 {
	return d.total
}

// Draw performs a weighted draw over the full table: r uniform in
// [0, totalWeight), first cumulative bucket >= r wins. If floating-point
// accumulation falls short of r the first entry is returned; the fallback
// is deterministic rather than silently re-rolling.
func (d *Deck) Draw(rng *rand.Rand) models.Card {
	return drawWeighted(d.entries, d.total, rng)
}

// Lucky returns the sub-pool of rarer entries used by lucky draws.
func (d *Deck) Lucky() *Deck {
	var entries []Entry
	for _, e := range d.entries {
		if e.Weight <= luckyThreshold {
			entries = append(entries, e)
		}
	}
	return NewDeck(entries)
}

// Shoppable returns the sub-pool of entries that may appear in the daily
// shop: everything except the Secret card.
func (d *Deck) Shoppable() *Deck {
	var entries []Entry
	for _, e := range d.entries {
		if e.Card.Tier != models.TierSecret {
			entries = append(entries, e)
		}
	}
	return NewDeck(entries)
}

// Rarest returns the single rarest card in the table: the lowest-weight
// entry, ties broken by table order with the highest tier winning.
func (d *Deck) Rarest() models.Card {
	best := d.entries[0]
	for _, e := range d.entries[1:] {
		if e.Weight < best.Weight ||
			(e.Weight == best.Weight && e.Card.Tier > best.Card.Tier) {
			best = e
		}
	}
	return best.Card
}

func drawWeighted(entries []Entry, total float64, rng *rand.Rand) models.Card {
	if len(entries) == 0 {
		return models.Card{}
	}
	r := rng.Float64() * total
	var acc float64
	for _, e := range entries {
		acc += e.Weight
		if r < acc {
			return e.Card
		}
	}
	// Accumulation error guard: deterministic fallback to the first entry.
	return entries[0].Card
}
