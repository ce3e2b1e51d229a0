package game

import "fmt"

// Store key conventions. The persistence layer is a flat key/value mapping;
// these helpers keep the ad hoc prefixes in one place.
const (
	marketKey         = "market_cards"
	coinsKeyPrefix    = "coins_"
	userKeyPrefix     = "user_"
	nameKeyPrefix     = "username_"
	slotsKeyPrefix    = "slots_"
	shopKeyPrefix     = "shop_"
	cooldownKeyPrefix = "cooldown_"
)

func userKey(id int64) string  { return fmt.Sprintf("%s%d", userKeyPrefix, id) }
func coinsKey(id int64) string { return fmt.Sprintf("%s%d", coinsKeyPrefix, id) }
func slotsKey(id int64) string { return fmt.Sprintf("%s%d", slotsKeyPrefix, id) }
func nameKey(id int64) string  { return fmt.Sprintf("%s%d", nameKeyPrefix, id) }

func cooldownKey(kind ActionKind, id int64) string {
	return fmt.Sprintf("%s%s_%d", cooldownKeyPrefix, kind, id)
}

func shopKey(date string) string { return shopKeyPrefix + date }

func shopPurchasesKey(date string, id int64) string {
	return fmt.Sprintf("shop_purchases_%s_%d", date, id)
}
