// Package services provides the business logic of the ledger: expense
// mutations, monthly-cycle rollover, identity management and rate refresh.
// Every service takes the identity ID explicitly and flushes state to the
// persistence layer before returning.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/BigTvz/Scope/internal/core"
	"github.com/BigTvz/Scope/internal/storage"
)

// EventPublisher announces ledger changes to interested consumers (the
// export worker). A nil publisher is valid and turns publishing off.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, identityID, expenseID, action string) error
}

var ErrExpenseNotFound = errors.New("expense not found")

// Draft is the caller-supplied part of a new expense. ID and paid state are
// assigned by the ledger.
type Draft struct {
	Name          string           `json:"name"`
	Domain        string           `json:"domain"`
	Amount        float64          `json:"amount"`
	Currency      core.Currency    `json:"currency"`
	DueDay        int              `json:"dueDay"`
	Category      string           `json:"category"`
	Type          core.ExpenseType `json:"type"`
	CustomLogoURL string           `json:"customLogoUrl,omitempty"`
}

// Ledger owns one identity's expense collection. The persisted copy is
// rewritten on every mutation; within a session the ledger is the sole
// writer of its identity's expenses.
type Ledger struct {
	kv        *storage.KV
	publisher EventPublisher
}

func NewLedger(kv *storage.KV, publisher EventPublisher) *Ledger {
	return &Ledger{kv: kv, publisher: publisher}
}

// Expenses returns the persisted collection, ordered by due day.
func (l *Ledger) Expenses(ctx context.Context, identityID string) []core.Expense {
	return storage.Get(ctx, l.kv, identityID, storage.KeyExpenses, []core.Expense(nil))
}

// Find returns the expense with the given id, or nil.
func (l *Ledger) Find(ctx context.Context, identityID, id string) *core.Expense {
	for _, e := range l.Expenses(ctx, identityID) {
		if e.ID == id {
			return &e
		}
	}
	return nil
}

// Add validates the draft, assigns a fresh ID, inserts the expense unpaid
// and persists the re-sorted collection.
func (l *Ledger) Add(ctx context.Context, identityID string, d Draft) (core.Expense, error) {
	expense := core.Expense{
		ID:            uuid.NewString(),
		Name:          d.Name,
		Domain:        d.Domain,
		Amount:        d.Amount,
		Currency:      core.NormalizeCurrency(string(d.Currency)),
		DueDay:        d.DueDay,
		IsPaid:        false,
		Category:      d.Category,
		Type:          d.Type,
		CustomLogoURL: d.CustomLogoURL,
	}
	if err := expense.Validate(); err != nil {
		return core.Expense{}, err
	}

	expenses := append(l.Expenses(ctx, identityID), expense)
	core.SortByDueDay(expenses)
	if err := storage.Set(ctx, l.kv, identityID, storage.KeyExpenses, expenses); err != nil {
		return core.Expense{}, fmt.Errorf("persist expenses: %w", err)
	}

	slog.InfoContext(ctx, "Expense added",
		"identity_id", identityID,
		"expense_id", expense.ID,
		"name", expense.Name,
		"amount", expense.Amount,
		"currency", expense.Currency,
		"due_day", expense.DueDay,
		"type", expense.Type)

	l.publish(ctx, identityID, expense.ID, "created")
	return expense, nil
}

// Remove deletes the matching expense. Removing an unknown id reports
// ErrExpenseNotFound and changes nothing.
func (l *Ledger) Remove(ctx context.Context, identityID, id string) error {
	expenses := l.Expenses(ctx, identityID)
	kept := expenses[:0]
	found := false
	for _, e := range expenses {
		if e.ID == id {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return ErrExpenseNotFound
	}
	if err := storage.Set(ctx, l.kv, identityID, storage.KeyExpenses, kept); err != nil {
		return fmt.Errorf("persist expenses: %w", err)
	}

	slog.InfoContext(ctx, "Expense removed", "identity_id", identityID, "expense_id", id)
	l.publish(ctx, identityID, id, "removed")
	return nil
}

// TogglePaid flips the paid flag of the matching expense.
func (l *Ledger) TogglePaid(ctx context.Context, identityID, id string) error {
	expenses := l.Expenses(ctx, identityID)
	found := false
	for i := range expenses {
		if expenses[i].ID == id {
			expenses[i].IsPaid = !expenses[i].IsPaid
			found = true
			break
		}
	}
	if !found {
		return ErrExpenseNotFound
	}
	if err := storage.Set(ctx, l.kv, identityID, storage.KeyExpenses, expenses); err != nil {
		return fmt.Errorf("persist expenses: %w", err)
	}

	l.publish(ctx, identityID, id, "toggled")
	return nil
}

// Stats aggregates the ledger into the identity's display currency using
// its persisted rate table.
func (l *Ledger) Stats(ctx context.Context, identityID string) core.Stats {
	settings := storage.Get(ctx, l.kv, identityID, storage.KeySettings, core.DefaultSettings())
	ratesTable := storage.Get(ctx, l.kv, identityID, storage.KeyExchangeRates, core.DefaultRates())
	target := core.NormalizeCurrency(settings.LocalCurrencySymbol)
	return core.ComputeStats(l.Expenses(ctx, identityID), target, ratesTable)
}

// NextDue returns the unpaid expense whose payment comes up next relative
// to today's day of month, or nil.
func (l *Ledger) NextDue(ctx context.Context, identityID string, today int) *core.Expense {
	return core.SelectNextDue(l.Expenses(ctx, identityID), today)
}

// Settings returns the identity's persisted preferences.
func (l *Ledger) Settings(ctx context.Context, identityID string) core.UserSettings {
	return storage.Get(ctx, l.kv, identityID, storage.KeySettings, core.DefaultSettings())
}

// SetLocalCurrency changes the display/conversion-target currency. The
// legacy single-rate field is carried over untouched.
func (l *Ledger) SetLocalCurrency(ctx context.Context, identityID string, code core.Currency) error {
	settings := storage.Get(ctx, l.kv, identityID, storage.KeySettings, core.DefaultSettings())
	settings.LocalCurrencySymbol = string(core.NormalizeCurrency(string(code)))
	if err := storage.Set(ctx, l.kv, identityID, storage.KeySettings, settings); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	return nil
}

func (l *Ledger) publish(ctx context.Context, identityID, expenseID, action string) {
	if l.publisher == nil {
		return
	}
	// Publishing is best effort: the expense is already persisted locally.
	if err := l.publisher.PublishLedgerEvent(ctx, identityID, expenseID, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"identity_id", identityID,
			"expense_id", expenseID,
			"action", action,
			"error", err)
	}
}
