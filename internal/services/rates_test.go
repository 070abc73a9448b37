package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BigTvz/Scope/internal/core"
	"github.com/BigTvz/Scope/internal/storage"
)

type fakeFetcher struct {
	calls   atomic.Int64
	table   core.ExchangeRates
	err     error
	release chan struct{} // when set, Fetch blocks until closed
}

func (f *fakeFetcher) Fetch(ctx context.Context) (core.ExchangeRates, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

func TestRefreshStoresRatesAndTimestamp(t *testing.T) {
	kv := storage.NewKV(storage.NewMemoryStore())
	fetcher := &fakeFetcher{table: core.ExchangeRates{"USD": 1, "EUR": 0.9}}
	r := NewRatesRefresher(kv, fetcher, time.Hour)
	ctx := context.Background()

	done := r.Refresh(ctx, "u1")
	require.NotNil(t, done)
	<-done

	got := storage.Get(ctx, kv, "u1", storage.KeyExchangeRates, core.ExchangeRates(nil))
	require.Equal(t, fetcher.table, got)

	stamp := storage.Get(ctx, kv, "u1", storage.KeyLastSync, "")
	_, err := time.Parse(time.RFC3339, stamp)
	require.NoError(t, err)
}

func TestRefreshFailureKeepsPreviousRates(t *testing.T) {
	kv := storage.NewKV(storage.NewMemoryStore())
	ctx := context.Background()
	previous := core.ExchangeRates{"USD": 1, "EUR": 0.8}
	require.NoError(t, storage.Set(ctx, kv, "u1", storage.KeyExchangeRates, previous))

	r := NewRatesRefresher(kv, &fakeFetcher{err: errors.New("network down")}, time.Hour)
	done := r.Refresh(ctx, "u1")
	require.NotNil(t, done)
	<-done

	got := storage.Get(ctx, kv, "u1", storage.KeyExchangeRates, core.ExchangeRates(nil))
	require.Equal(t, previous, got)

	// the guard is cleared, a later refresh may start
	require.NotNil(t, r.Refresh(ctx, "u1"))
}

func TestRefreshDropsDuplicateWhileInFlight(t *testing.T) {
	kv := storage.NewKV(storage.NewMemoryStore())
	fetcher := &fakeFetcher{table: core.DefaultRates(), release: make(chan struct{})}
	r := NewRatesRefresher(kv, fetcher, time.Hour)
	ctx := context.Background()

	first := r.Refresh(ctx, "u1")
	require.NotNil(t, first)
	require.Nil(t, r.Refresh(ctx, "u1"), "second request must be dropped, not queued")

	close(fetcher.release)
	<-first
	require.EqualValues(t, 1, fetcher.calls.Load())
}

func TestRefreshIfStale(t *testing.T) {
	kv := storage.NewKV(storage.NewMemoryStore())
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("no prior sync triggers refresh", func(t *testing.T) {
		r := NewRatesRefresher(kv, &fakeFetcher{table: core.DefaultRates()}, time.Hour)
		done := r.RefreshIfStale(ctx, "fresh-user", now)
		require.NotNil(t, done)
		<-done
	})

	t.Run("recent sync is left alone", func(t *testing.T) {
		require.NoError(t, storage.Set(ctx, kv, "u1", storage.KeyLastSync,
			now.Add(-10*time.Minute).Format(time.RFC3339)))
		r := NewRatesRefresher(kv, &fakeFetcher{table: core.DefaultRates()}, time.Hour)
		require.Nil(t, r.RefreshIfStale(ctx, "u1", now))
	})

	t.Run("stale sync triggers refresh", func(t *testing.T) {
		require.NoError(t, storage.Set(ctx, kv, "u2", storage.KeyLastSync,
			now.Add(-2*time.Hour).Format(time.RFC3339)))
		r := NewRatesRefresher(kv, &fakeFetcher{table: core.DefaultRates()}, time.Hour)
		done := r.RefreshIfStale(ctx, "u2", now)
		require.NotNil(t, done)
		<-done
	})

	t.Run("unparsable timestamp triggers refresh", func(t *testing.T) {
		require.NoError(t, storage.Set(ctx, kv, "u3", storage.KeyLastSync, "not a time"))
		r := NewRatesRefresher(kv, &fakeFetcher{table: core.DefaultRates()}, time.Hour)
		done := r.RefreshIfStale(ctx, "u3", now)
		require.NotNil(t, done)
		<-done
	})
}
