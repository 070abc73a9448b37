// Package storage implements the persisted state of the app: a key/value
// store partitioned per identity, with a one-shot migration path for data
// written before identities existed.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Store is the raw persistence port. Get returns nil for an absent key.
// Implementations must make a completed Set observable by the next Get of
// the same key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Keys of per-identity state. These are also the legacy (non-namespaced)
// keys that MigrateLegacy copies into an identity's namespace.
const (
	KeyExpenses        = "expenses"
	KeySettings        = "settings"
	KeyExchangeRates   = "exchange_rates"
	KeyLastSync        = "last_sync"
	KeyLastActiveMonth = "last_active_month_year"
)

// Global keys, shared across identities.
const (
	KeyUsers       = "scope_users"
	KeyCurrentUser = "scope_current_user"
)

var legacyKeys = []string{
	KeyExpenses,
	KeySettings,
	KeyExchangeRates,
	KeyLastSync,
	KeyLastActiveMonth,
}

const namespacePrefix = "scope_app_"

// NamespacedKey builds the composite key for an identity's copy of key.
func NamespacedKey(identityID, key string) string {
	return namespacePrefix + identityID + "_" + key
}

// KV wraps a Store with JSON encoding, identity namespacing and
// default-on-corruption reads.
type KV struct {
	store Store
}

func NewKV(store Store) *KV {
	return &KV{store: store}
}

func (kv *KV) Close() error {
	return kv.store.Close()
}

// Get reads an identity's value for key, returning def when the key is
// absent. A value that no longer decodes is treated as absent: the
// caller's default wins over a crash.
func Get[T any](ctx context.Context, kv *KV, identityID, key string, def T) T {
	return getRaw(ctx, kv, NamespacedKey(identityID, key), def)
}

// Set persists an identity's value for key.
func Set[T any](ctx context.Context, kv *KV, identityID, key string, value T) error {
	return setRaw(ctx, kv, NamespacedKey(identityID, key), value)
}

// Remove deletes an identity's value for key.
func (kv *KV) Remove(ctx context.Context, identityID, key string) error {
	return kv.store.Remove(ctx, NamespacedKey(identityID, key))
}

// GetGlobal reads a non-namespaced key (identity list, session marker).
func GetGlobal[T any](ctx context.Context, kv *KV, key string, def T) T {
	return getRaw(ctx, kv, key, def)
}

// SetGlobal persists a non-namespaced key.
func SetGlobal[T any](ctx context.Context, kv *KV, key string, value T) error {
	return setRaw(ctx, kv, key, value)
}

// RemoveGlobal deletes a non-namespaced key.
func (kv *KV) RemoveGlobal(ctx context.Context, key string) error {
	return kv.store.Remove(ctx, key)
}

// MigrateLegacy copies pre-identity state into identityID's namespace and
// returns how many keys were copied. A legacy value is copied only when the
// namespaced key does not exist yet, and the legacy copy is left in place,
// so running the migration again is harmless.
func (kv *KV) MigrateLegacy(ctx context.Context, identityID string) (int, error) {
	migrated := 0
	for _, key := range legacyKeys {
		legacy, err := kv.store.Get(ctx, key)
		if err != nil {
			return migrated, fmt.Errorf("read legacy %s: %w", key, err)
		}
		if legacy == nil {
			continue
		}
		nsKey := NamespacedKey(identityID, key)
		existing, err := kv.store.Get(ctx, nsKey)
		if err != nil {
			return migrated, fmt.Errorf("read %s: %w", nsKey, err)
		}
		if existing != nil {
			continue
		}
		if err := kv.store.Set(ctx, nsKey, legacy); err != nil {
			return migrated, fmt.Errorf("copy legacy %s: %w", key, err)
		}
		migrated++
	}
	if migrated > 0 {
		slog.InfoContext(ctx, "Migrated legacy state into identity namespace",
			"identity_id", identityID,
			"keys", migrated)
	}
	return migrated, nil
}

func getRaw[T any](ctx context.Context, kv *KV, fullKey string, def T) T {
	raw, err := kv.store.Get(ctx, fullKey)
	if err != nil {
		slog.WarnContext(ctx, "Store read failed, using default", "key", fullKey, "error", err)
		return def
	}
	if raw == nil {
		return def
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		slog.WarnContext(ctx, "Corrupt stored value, using default", "key", fullKey, "error", err)
		return def
	}
	return out
}

func setRaw[T any](ctx context.Context, kv *KV, fullKey string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", fullKey, err)
	}
	if err := kv.store.Set(ctx, fullKey, raw); err != nil {
		return fmt.Errorf("write %s: %w", fullKey, err)
	}
	return nil
}
