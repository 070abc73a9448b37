package sheets

import (
	"context"

	"github.com/BigTvz/Scope/internal/core"
)

// LedgerWriter is the outbound port of the export worker: it records one
// ledger change in an external spreadsheet.
type LedgerWriter interface {
	AppendChange(ctx context.Context, identityID string, e core.Expense, action string) (rowRef string, err error)
}
