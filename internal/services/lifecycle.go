package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BigTvz/Scope/internal/core"
	"github.com/BigTvz/Scope/internal/storage"
)

// Lifecycle applies the monthly-cycle rollover: when the app is activated in
// a different month than it was last active in, one-time expenses from the
// previous cycle are pruned. The check runs once per activation; the
// wall-clock month changing mid-session is not re-evaluated.
type Lifecycle struct {
	kv *storage.KV
}

func NewLifecycle(kv *storage.KV) *Lifecycle {
	return &Lifecycle{kv: kv}
}

// MonthKey renders the persisted cycle marker for a point in time.
func MonthKey(now time.Time) string {
	return fmt.Sprintf("%d-%d", int(now.Month()), now.Year())
}

// Activate compares the persisted month marker against now, prunes one-time
// expenses when a boundary was crossed, and persists the current marker.
// On the very first activation there is nothing to compare against, so only
// the marker is established. Returns how many expenses were pruned.
func (m *Lifecycle) Activate(ctx context.Context, identityID string, now time.Time) (int, error) {
	currentKey := MonthKey(now)
	savedKey := storage.Get(ctx, m.kv, identityID, storage.KeyLastActiveMonth, "")

	pruned := 0
	if savedKey != "" && savedKey != currentKey {
		expenses := storage.Get(ctx, m.kv, identityID, storage.KeyExpenses, []core.Expense(nil))
		kept := expenses[:0]
		for _, e := range expenses {
			if e.Type == core.Recurring {
				kept = append(kept, e)
			}
		}
		pruned = len(expenses) - len(kept)
		if pruned > 0 {
			if err := storage.Set(ctx, m.kv, identityID, storage.KeyExpenses, kept); err != nil {
				return 0, fmt.Errorf("persist pruned expenses: %w", err)
			}
		}
		slog.InfoContext(ctx, "New cycle detected, one-time expenses pruned",
			"identity_id", identityID,
			"previous", savedKey,
			"current", currentKey,
			"pruned", pruned)
	}

	if err := storage.Set(ctx, m.kv, identityID, storage.KeyLastActiveMonth, currentKey); err != nil {
		return pruned, fmt.Errorf("persist month marker: %w", err)
	}
	return pruned, nil
}
