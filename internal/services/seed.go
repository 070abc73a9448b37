package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/BigTvz/Scope/internal/core"
	"github.com/BigTvz/Scope/internal/storage"
)

var demoExpenses = []core.Expense{
	{Name: "Adobe Creative Cloud", Domain: "adobe.com", Amount: 54.99, Currency: "USD", DueDay: 1, IsPaid: true, Category: "saas", Type: core.Recurring},
	{Name: "Figma Professional", Domain: "figma.com", Amount: 15.00, Currency: "USD", DueDay: 3, IsPaid: true, Category: "saas", Type: core.Recurring},
	{Name: "MacBook Pro 14\"", Domain: "apple.com", Amount: 1999.00, Currency: "USD", DueDay: 5, IsPaid: true, Category: "hardware", Type: core.OneTime},
	{Name: "Netflix Premium", Domain: "netflix.com", Amount: 19.99, Currency: "USD", DueDay: 5, Category: "entertainment", Type: core.Recurring},
	{Name: "Business Lunch", Amount: 65.00, Currency: "USD", DueDay: 8, IsPaid: true, Category: "food", Type: core.OneTime},
	{Name: "Google Workspace", Domain: "google.com", Amount: 12.00, Currency: "USD", DueDay: 15, Category: "saas", Type: core.Recurring},
	{Name: "Vercel Pro", Domain: "vercel.com", Amount: 20.00, Currency: "USD", DueDay: 18, Category: "saas", Type: core.Recurring},
	{Name: "React Course", Domain: "udemy.com", Amount: 24.99, Currency: "USD", DueDay: 12, IsPaid: true, Category: "entertainment", Type: core.OneTime},
	{Name: "Notion Plus", Domain: "notion.so", Amount: 10.00, Currency: "USD", DueDay: 22, Category: "saas", Type: core.Recurring},
	{Name: "ChatGPT Plus", Domain: "openai.com", Amount: 20.00, Currency: "USD", DueDay: 14, IsPaid: true, Category: "saas", Type: core.Recurring},
	{Name: "Conference Ticket", Domain: "reactconf.com", Amount: 450.00, Currency: "USD", DueDay: 20, Category: "travel", Type: core.OneTime},
	{Name: "Amazon Prime", Domain: "amazon.com", Amount: 14.99, Currency: "USD", DueDay: 25, Category: "shopping", Type: core.Recurring},
	{Name: "Coworking Desk", Domain: "wework.com", Amount: 350.00, Currency: "USD", DueDay: 1, IsPaid: true, Category: "office", Type: core.Recurring},
}

// SeedDemo fills an empty ledger with a sample expense set so a fresh
// identity has something to look at. Ledgers with any expenses are left
// untouched. Returns the number of expenses written.
func (l *Ledger) SeedDemo(ctx context.Context, identityID string) (int, error) {
	if len(l.Expenses(ctx, identityID)) > 0 {
		return 0, nil
	}

	seeded := make([]core.Expense, len(demoExpenses))
	for i, e := range demoExpenses {
		e.ID = uuid.NewString()
		seeded[i] = e
	}
	core.SortByDueDay(seeded)

	if err := storage.Set(ctx, l.kv, identityID, storage.KeyExpenses, seeded); err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Seeded demo ledger", "identity_id", identityID, "count", len(seeded))
	return len(seeded), nil
}
