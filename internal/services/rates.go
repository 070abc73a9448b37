package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BigTvz/Scope/internal/core"
	"github.com/BigTvz/Scope/internal/storage"
)

// Fetcher retrieves the current USD-relative rate table.
type Fetcher interface {
	Fetch(ctx context.Context) (core.ExchangeRates, error)
}

// RatesRefresher keeps an identity's persisted rate table fresh. At most one
// refresh is outstanding at a time: a request issued while one is in flight
// is dropped, not queued. A failed fetch leaves the previous rates
// authoritative.
type RatesRefresher struct {
	kv      *storage.KV
	fetcher Fetcher
	ttl     time.Duration

	mu       sync.Mutex
	inFlight bool
}

func NewRatesRefresher(kv *storage.KV, fetcher Fetcher, ttl time.Duration) *RatesRefresher {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RatesRefresher{kv: kv, fetcher: fetcher, ttl: ttl}
}

// Refresh starts an asynchronous refresh and returns a channel closed when
// it finishes. Returns nil when a refresh is already in flight, in which
// case nothing was started.
func (r *RatesRefresher) Refresh(ctx context.Context, identityID string) <-chan struct{} {
	r.mu.Lock()
	if r.inFlight {
		r.mu.Unlock()
		slog.DebugContext(ctx, "Rate refresh already in flight, dropping request",
			"identity_id", identityID)
		return nil
	}
	r.inFlight = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer func() {
			r.mu.Lock()
			r.inFlight = false
			r.mu.Unlock()
			close(done)
		}()
		r.refresh(ctx, identityID)
	}()
	return done
}

// RefreshIfStale triggers a refresh when no refresh ever succeeded or the
// last one is older than the TTL. Called once per activation; staleness is
// not re-checked mid-session.
func (r *RatesRefresher) RefreshIfStale(ctx context.Context, identityID string, now time.Time) <-chan struct{} {
	lastSync := storage.Get(ctx, r.kv, identityID, storage.KeyLastSync, "")
	if lastSync != "" {
		if t, err := time.Parse(time.RFC3339, lastSync); err == nil && now.Sub(t) <= r.ttl {
			return nil
		}
	}
	return r.Refresh(ctx, identityID)
}

func (r *RatesRefresher) refresh(ctx context.Context, identityID string) {
	table, err := r.fetcher.Fetch(ctx)
	if err != nil {
		// Previous cached rates stay authoritative.
		slog.ErrorContext(ctx, "Rate refresh failed, keeping previous rates",
			"identity_id", identityID, "error", err)
		return
	}

	if err := storage.Set(ctx, r.kv, identityID, storage.KeyExchangeRates, table); err != nil {
		slog.ErrorContext(ctx, "Failed to persist refreshed rates",
			"identity_id", identityID, "error", err)
		return
	}
	if err := storage.Set(ctx, r.kv, identityID, storage.KeyLastSync, time.Now().UTC().Format(time.RFC3339)); err != nil {
		slog.ErrorContext(ctx, "Failed to persist last sync timestamp",
			"identity_id", identityID, "error", err)
		return
	}

	slog.InfoContext(ctx, "Exchange rates refreshed",
		"identity_id", identityID, "currencies", len(table))
}
