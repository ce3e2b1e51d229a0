package storage

import "context"

// Store defines the interface for the key/value persistence layer.
//
// Values are JSON-serializable; keys follow the ad hoc prefix conventions
// (user_<id>, coins_<id>, shop_<date>, market_cards, ...). Readers must
// default-fill missing keys: Get reports absence instead of failing, and
// there is no schema versioning.
type Store interface {
	// Get unmarshals the value stored under key into dest.
	// It returns false with a nil error when the key is absent.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores the JSON encoding of value under key. The write is durable
	// before Set returns.
	Set(ctx context.Context, key string, value interface{}) error

	// Has reports whether key is present.
	Has(ctx context.Context, key string) (bool, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys starting with prefix, in unspecified order.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}
