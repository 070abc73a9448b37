package core

import (
	"errors"
	"strings"
)

const (
	OneTime   ExpenseType = "one-time"
	Recurring ExpenseType = "recurring"
)

type (
	// ExpenseType governs lifecycle behavior: one-time expenses are pruned
	// when a new monthly cycle begins, recurring ones roll forward.
	ExpenseType string

	// Currency is an ISO-4217-like code such as "USD" or "EUR".
	Currency string

	// ExchangeRates maps a currency code to its value relative to one unit
	// of USD: rates["EUR"] is how many euro equal 1 USD. A usable table
	// always contains USD -> 1.
	ExchangeRates map[Currency]float64

	// Expense is a single payable obligation within a monthly cycle.
	Expense struct {
		ID            string      `json:"id"`
		Name          string      `json:"name"`
		Domain        string      `json:"domain"` // site used for logo resolution, may be empty
		Amount        float64     `json:"amount"`
		Currency      Currency    `json:"currency"`
		DueDay        int         `json:"dueDay"` // calendar day of month, 1..31
		IsPaid        bool        `json:"isPaid"`
		Category      string      `json:"category"`
		Type          ExpenseType `json:"type"`
		CustomLogoURL string      `json:"customLogoUrl,omitempty"`
	}

	// UserSettings holds the per-identity display preferences.
	// ExchangeRate is a legacy single-rate field kept only so old persisted
	// settings still decode; new code reads the rates table instead and
	// never writes it.
	UserSettings struct {
		ExchangeRate        float64 `json:"exchangeRate"`
		LocalCurrencySymbol string  `json:"localCurrencySymbol"`
	}

	// User is a local identity. The password is stored verbatim: this tool
	// runs on a single machine for a single household and the source system
	// explicitly skipped hashing.
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Password string `json:"password"`
	}

	// Stats are the derived ledger totals in the target display currency.
	Stats struct {
		TotalNeeded     float64 `json:"totalNeeded"`
		TotalPaid       float64 `json:"totalPaid"`
		Remaining       float64 `json:"remaining"`
		ProgressPercent float64 `json:"progressPercent"`
	}
)

var (
	ErrEmptyName       = errors.New("empty expense name")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDueDay   = errors.New("due day out of range")
	ErrInvalidType     = errors.New("invalid expense type")
	ErrInvalidCurrency = errors.New("invalid currency code")
)

// DefaultSettings is the state of a fresh identity before any preference
// has been saved.
func DefaultSettings() UserSettings {
	return UserSettings{ExchangeRate: 1.0, LocalCurrencySymbol: "USD"}
}

// DefaultRates is the rate table used before the first successful refresh.
func DefaultRates() ExchangeRates {
	return ExchangeRates{"USD": 1}
}

// NormalizeCurrency trims and upper-cases a currency code.
func NormalizeCurrency(code string) Currency {
	return Currency(strings.ToUpper(strings.TrimSpace(code)))
}

func (t ExpenseType) Valid() bool {
	switch t {
	case OneTime, Recurring:
		return true
	}
	return false
}

// Validate checks creation-time expectations. Amount positivity is enforced
// here only; later mutations are trusted.
func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Name)) == 0 {
		return ErrEmptyName
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if e.DueDay < 1 || e.DueDay > 31 {
		return ErrInvalidDueDay
	}
	if !e.Type.Valid() {
		return ErrInvalidType
	}
	if len(strings.TrimSpace(string(e.Currency))) == 0 {
		return ErrInvalidCurrency
	}
	return nil
}
