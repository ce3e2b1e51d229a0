package models

import (
	"fmt"
	"strings"
)

// Tier is the rarity class of a card.
type Tier int

const (
	TierUnknown Tier = iota
	TierCommon
	TierUncommon
	TierEpic
	TierLegendary
	TierMythic
	TierSecret
	TierExclusive
)

// tierInfo holds the per-tier constants: the emoji marker used in the
// persisted item string, the display name, the contest score and the
// shop price band.
type tierInfo struct {
	marker   string
	name     string
	score    int
	priceMin int
	priceMax int
}

var tiers = map[Tier]tierInfo{
	TierCommon:    {"🟢", "Common", 1, 10, 20},
	TierUncommon:  {"🔵", "Uncommon", 2, 25, 50},
	TierEpic:      {"🟣", "Epic", 3, 60, 120},
	TierLegendary: {"🟠", "Legendary", 4, 150, 300},
	TierMythic:    {"🔴", "Mythic", 5, 400, 800},
	TierSecret:    {"⚫", "Secret", 10, 1000, 2000},
	TierExclusive: {"⭐", "Exclusive", 6, 0, 0},
}

// String returns the human-readable tier name.
func (t Tier) String() string {
	if info, ok := tiers[t]; ok {
		return info.name
	}
	return "Unknown"
}

// Marker returns the emoji prefix that tags items of this tier.
func (t Tier) Marker() string {
	return tiers[t].marker
}

// Score returns the fixed contest point value of the tier.
func (t Tier) Score() int {
	return tiers[t].score
}

// PriceBand returns the shop price range for the tier. Exclusive cards are
// never sold in the shop and report (0, 0).
func (t Tier) PriceBand() (min, max int) {
	info := tiers[t]
	return info.priceMin, info.priceMax
}

// Card is a collectible card. The persisted item identifier embeds the tier
// marker so the tier is always derivable from the identifier alone.
type Card struct {
	Name string
	Tier Tier
}

// Item returns the persisted item identifier, e.g. "🟠 Legendary: Mango Mark".
func (c Card) Item() string {
	return fmt.Sprintf("%s %s: %s", c.Tier.Marker(), c.Tier, c.Name)
}

// TierOf derives the tier of a persisted item identifier from its marker
// prefix. Unknown prefixes map to TierUnknown.
func TierOf(item string) Tier {
	for t, info := range tiers {
		if strings.HasPrefix(item, info.marker) {
			return t
		}
	}
	return TierUnknown
}

// Listing is a single unit of an item offered for sale.
type Listing struct {
	ID        string `json:"id"`
	Item      string `json:"item"`
	Price     int    `json:"price"`
	SellerID  int64  `json:"seller_id"`
	CreatedAt int64  `json:"created_at"`
}

// ShopEntry is a daily rolled catalog item, purchasable once per user per day.
type ShopEntry struct {
	Item  string `json:"item"`
	Price int    `json:"price"`
	// Uses is the multiplicity of the lucky bundle entry; 0 for plain cards.
	Uses int `json:"uses,omitempty"`
}

// IsLuckyBundle reports whether the entry is the daily lucky draw bundle.
func (e ShopEntry) IsLuckyBundle() bool {
	return e.Uses > 0
}

// ModTimer is a persisted deadline for a timed moderation restore
// (unmute or unban), re-armed at startup.
type ModTimer struct {
	ChatID   int64  `json:"chat_id"`
	UserID   int64  `json:"user_id"`
	Action   string `json:"action"` // "unmute" or "unban"
	Deadline int64  `json:"deadline"`
}
