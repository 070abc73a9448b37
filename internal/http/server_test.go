package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BigTvz/Scope/internal/core"
	applog "github.com/BigTvz/Scope/internal/log"
	"github.com/BigTvz/Scope/internal/services"
	"github.com/BigTvz/Scope/internal/storage"
)

type stubFetcher struct {
	rates core.ExchangeRates
}

func (f *stubFetcher) Fetch(context.Context) (core.ExchangeRates, error) {
	return f.rates, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	kv := storage.NewKV(storage.NewMemoryStore())
	identity := services.NewIdentity(kv)
	ledger := services.NewLedger(kv, nil)
	lifecycle := services.NewLifecycle(kv)
	refresher := services.NewRatesRefresher(kv, &stubFetcher{rates: core.ExchangeRates{"USD": 1, "EUR": 0.5}}, time.Hour)
	logger := applog.New(applog.Config{Level: slog.LevelError, Component: applog.ComponentHTTP})

	s := NewServer(":0", identity, ledger, lifecycle, refresher, logger, Options{})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func register(t *testing.T, s *Server, username string) sessionResponse {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/register", credentialsRequest{Username: username, Password: "secret"})
	require.Equal(t, http.StatusCreated, rec.Code)
	return decode[sessionResponse](t, rec)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())

	rec = do(t, s, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestsWithoutSessionAreRejected(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/expenses", "/api/stats", "/api/next-due", "/api/settings"} {
		rec := do(t, s, http.MethodGet, path, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRegisterResponseOmitsPassword(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/register", credentialsRequest{Username: "alice", Password: "secret"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotContains(t, rec.Body.String(), "secret")
	require.NotContains(t, rec.Body.String(), "password")
}

func TestRegisterDuplicateUsername(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "alice")

	rec := do(t, s, http.MethodPost, "/api/register", credentialsRequest{Username: "alice", Password: "other"})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginAndLogout(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "alice")

	rec := do(t, s, http.MethodPost, "/api/logout", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/login", credentialsRequest{Username: "alice", Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/login", credentialsRequest{Username: "alice", Password: "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	session := decode[sessionResponse](t, rec)
	require.Equal(t, "alice", session.Username)
}

func TestExpenseLifecycleOverAPI(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "alice")

	rec := do(t, s, http.MethodGet, "/api/expenses", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())

	rec = do(t, s, http.MethodPost, "/api/expenses", services.Draft{
		Name: "Netflix", Amount: 19.99, Currency: "usd", DueDay: 5, Type: core.Recurring, Category: "entertainment",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[core.Expense](t, rec)
	require.NotEmpty(t, created.ID)
	require.Equal(t, core.Currency("USD"), created.Currency)
	require.False(t, created.IsPaid)

	rec = do(t, s, http.MethodPost, "/api/expenses/"+created.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	toggled := decode[core.Expense](t, rec)
	require.True(t, toggled.IsPaid)

	rec = do(t, s, http.MethodDelete, "/api/expenses/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/expenses/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateExpenseValidation(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "alice")

	rec := do(t, s, http.MethodPost, "/api/expenses", services.Draft{
		Name: "", Amount: 10, Currency: "USD", DueDay: 5, Type: core.Recurring,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/expenses", services.Draft{
		Name: "Rent", Amount: 10, Currency: "USD", DueDay: 32, Type: core.Recurring,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "alice")

	rec := do(t, s, http.MethodPost, "/api/expenses", services.Draft{
		Name: "Rent", Amount: 100, Currency: "USD", DueDay: 1, Type: core.Recurring,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[core.Stats](t, rec)
	require.InDelta(t, 100, stats.TotalNeeded, 1e-9)
	require.Zero(t, stats.TotalPaid)

	// Cached value is served until a mutation invalidates it.
	rec = do(t, s, http.MethodPost, "/api/expenses", services.Draft{
		Name: "Figma", Amount: 15, Currency: "USD", DueDay: 3, Type: core.Recurring,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/stats", nil)
	stats = decode[core.Stats](t, rec)
	require.InDelta(t, 115, stats.TotalNeeded, 1e-9)
}

func TestNextDueEndpoint(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "alice")

	for _, d := range []services.Draft{
		{Name: "Figma", Amount: 15, Currency: "USD", DueDay: 5, Type: core.Recurring},
		{Name: "Netflix", Amount: 19.99, Currency: "USD", DueDay: 15, Type: core.Recurring},
	} {
		rec := do(t, s, http.MethodPost, "/api/expenses", d)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(t, s, http.MethodGet, "/api/next-due?today=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[nextDueResponse](t, rec)
	require.NotNil(t, resp.Expense)
	require.Equal(t, "Netflix", resp.Expense.Name)
	require.Equal(t, "In 5 days", resp.DueLabel)

	rec = do(t, s, http.MethodGet, "/api/next-due?today=40", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNextDueEmptyLedger(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "alice")

	rec := do(t, s, http.MethodGet, "/api/next-due?today=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[nextDueResponse](t, rec)
	require.Nil(t, resp.Expense)
}

func TestSetCurrency(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "alice")

	rec := do(t, s, http.MethodPut, "/api/settings/currency", setCurrencyRequest{Currency: "eur"})
	require.Equal(t, http.StatusOK, rec.Code)
	settings := decode[settingsResponse](t, rec)
	require.Equal(t, "EUR", settings.LocalCurrencySymbol)
	require.Equal(t, "€", settings.CurrencySymbol)

	rec = do(t, s, http.MethodPut, "/api/settings/currency", setCurrencyRequest{Currency: "  "})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRefreshRates(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "alice")

	rec := do(t, s, http.MethodPost, "/api/rates/refresh", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
}

func TestActivateCycle(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "alice")

	rec := do(t, s, http.MethodPost, "/api/cycle/activate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[activateResponse](t, rec)
	require.Zero(t, resp.Pruned)
}
