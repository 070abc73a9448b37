package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BigTvz/Scope/internal/storage"
)

func TestSeedDemoFillsEmptyLedger(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewKV(storage.NewMemoryStore())
	ledger := NewLedger(kv, nil)

	n, err := ledger.SeedDemo(ctx, "id-1")
	require.NoError(t, err)
	require.Equal(t, 13, n)

	expenses := ledger.Expenses(ctx, "id-1")
	require.Len(t, expenses, 13)
	for i := 1; i < len(expenses); i++ {
		require.LessOrEqual(t, expenses[i-1].DueDay, expenses[i].DueDay)
	}
	for _, e := range expenses {
		require.NotEmpty(t, e.ID)
	}
}

func TestSeedDemoSkipsNonEmptyLedger(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewKV(storage.NewMemoryStore())
	ledger := NewLedger(kv, nil)

	_, err := ledger.Add(ctx, "id-1", draft("Rent", 1))
	require.NoError(t, err)

	n, err := ledger.SeedDemo(ctx, "id-1")
	require.NoError(t, err)
	require.Zero(t, n)
	require.Len(t, ledger.Expenses(ctx, "id-1"), 1)
}
