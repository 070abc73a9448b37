// Package worker exports ledger change events to an external spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BigTvz/Scope/internal/amqp"
	"github.com/BigTvz/Scope/internal/core"
	"github.com/BigTvz/Scope/internal/sheets"
)

// ExpenseFinder looks up a single expense for an identity. A nil result
// means the expense no longer exists.
type ExpenseFinder interface {
	Find(ctx context.Context, identityID, id string) *core.Expense
}

// ExportWorker consumes ledger change events and appends one row per
// event to the configured sheet.
type ExportWorker struct {
	finder ExpenseFinder
	writer sheets.LedgerWriter
}

func NewExportWorker(finder ExpenseFinder, writer sheets.LedgerWriter) *ExportWorker {
	return &ExportWorker{finder: finder, writer: writer}
}

// HandleEvent processes a single ledger event message.
func (w *ExportWorker) HandleEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"identity_id", msg.IdentityID,
		"expense_id", msg.ExpenseID,
		"action", msg.Action)

	var expense core.Expense
	if msg.Action == amqp.ActionRemoved {
		// The expense is gone from storage; export the bare reference.
		expense = core.Expense{ID: msg.ExpenseID}
	} else {
		found := w.finder.Find(ctx, msg.IdentityID, msg.ExpenseID)
		if found == nil {
			slog.WarnContext(ctx, "Expense not found, skipping export",
				"identity_id", msg.IdentityID,
				"expense_id", msg.ExpenseID,
				"action", msg.Action)
			return nil
		}
		expense = *found
	}

	ref, err := w.writer.AppendChange(ctx, msg.IdentityID, expense, msg.Action)
	if err != nil {
		return fmt.Errorf("append ledger change: %w", err)
	}

	slog.InfoContext(ctx, "Exported ledger event",
		"identity_id", msg.IdentityID,
		"expense_id", msg.ExpenseID,
		"action", msg.Action,
		"sheets_ref", ref)

	return nil
}
