package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/BigTvz/Scope/internal/core"
	"github.com/BigTvz/Scope/internal/services"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, identityID string) {
	expenses := s.ledger.Expenses(r.Context(), identityID)
	if expenses == nil {
		expenses = []core.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, identityID string) {
	var d services.Draft
	if err := decodeJSON(r, &d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expense, err := s.ledger.Add(r.Context(), identityID, d)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrEmptyName),
			errors.Is(err, core.ErrInvalidAmount),
			errors.Is(err, core.ErrInvalidDueDay),
			errors.Is(err, core.ErrInvalidType),
			errors.Is(err, core.ErrInvalidCurrency):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			slog.ErrorContext(r.Context(), "Create expense failed", "identity_id", identityID, "error", err)
			writeError(w, http.StatusInternalServerError, "could not save expense")
		}
		return
	}

	s.statsCache.Invalidate(identityID)
	writeJSON(w, http.StatusCreated, expense)
}

func (s *Server) handleRemoveExpense(w http.ResponseWriter, r *http.Request, identityID string) {
	id := r.PathValue("id")
	if err := s.ledger.Remove(r.Context(), identityID, id); err != nil {
		if errors.Is(err, services.ErrExpenseNotFound) {
			writeError(w, http.StatusNotFound, "expense not found")
			return
		}
		slog.ErrorContext(r.Context(), "Remove expense failed", "identity_id", identityID, "expense_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not remove expense")
		return
	}

	s.statsCache.Invalidate(identityID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTogglePaid(w http.ResponseWriter, r *http.Request, identityID string) {
	id := r.PathValue("id")
	if err := s.ledger.TogglePaid(r.Context(), identityID, id); err != nil {
		if errors.Is(err, services.ErrExpenseNotFound) {
			writeError(w, http.StatusNotFound, "expense not found")
			return
		}
		slog.ErrorContext(r.Context(), "Toggle paid failed", "identity_id", identityID, "expense_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not update expense")
		return
	}

	s.statsCache.Invalidate(identityID)
	expense := s.ledger.Find(r.Context(), identityID, id)
	writeJSON(w, http.StatusOK, expense)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, identityID string) {
	if stats, ok := s.statsCache.Get(identityID); ok {
		writeJSON(w, http.StatusOK, stats)
		return
	}

	stats := s.ledger.Stats(r.Context(), identityID)
	s.statsCache.Set(identityID, stats)
	writeJSON(w, http.StatusOK, stats)
}

type nextDueResponse struct {
	Expense  *core.Expense `json:"expense"`
	DueLabel string        `json:"dueLabel,omitempty"`
}

func (s *Server) handleNextDue(w http.ResponseWriter, r *http.Request, identityID string) {
	today := time.Now().Day()
	if v := r.URL.Query().Get("today"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 1 || d > 31 {
			writeError(w, http.StatusBadRequest, "invalid today parameter")
			return
		}
		today = d
	}

	resp := nextDueResponse{}
	if next := s.ledger.NextDue(r.Context(), identityID, today); next != nil {
		resp.Expense = next
		resp.DueLabel = core.RelativeDueLabel(next.DueDay, today)
	}
	writeJSON(w, http.StatusOK, resp)
}

type settingsResponse struct {
	core.UserSettings
	CurrencySymbol string `json:"currencySymbol"`
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request, identityID string) {
	settings := s.ledger.Settings(r.Context(), identityID)
	writeJSON(w, http.StatusOK, settingsResponse{
		UserSettings:   settings,
		CurrencySymbol: core.Symbol(core.Currency(settings.LocalCurrencySymbol)),
	})
}

type setCurrencyRequest struct {
	Currency string `json:"currency"`
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request, identityID string) {
	var req setCurrencyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code := core.NormalizeCurrency(req.Currency)
	if code == "" {
		writeError(w, http.StatusUnprocessableEntity, "currency is required")
		return
	}

	if err := s.ledger.SetLocalCurrency(r.Context(), identityID, code); err != nil {
		slog.ErrorContext(r.Context(), "Set currency failed", "identity_id", identityID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not save settings")
		return
	}

	s.statsCache.Invalidate(identityID)
	settings := s.ledger.Settings(r.Context(), identityID)
	writeJSON(w, http.StatusOK, settingsResponse{
		UserSettings:   settings,
		CurrencySymbol: core.Symbol(code),
	})
}

type refreshResponse struct {
	Started bool `json:"started"`
}

func (s *Server) handleRefreshRates(w http.ResponseWriter, r *http.Request, identityID string) {
	done := s.refresher.Refresh(context.WithoutCancel(r.Context()), identityID)
	if done == nil {
		// A refresh for this identity is already running.
		writeJSON(w, http.StatusAccepted, refreshResponse{Started: false})
		return
	}

	s.statsCache.Invalidate(identityID)
	writeJSON(w, http.StatusAccepted, refreshResponse{Started: true})
}

type activateResponse struct {
	Pruned int `json:"pruned"`
}

func (s *Server) handleActivateCycle(w http.ResponseWriter, r *http.Request, identityID string) {
	pruned, err := s.lifecycle.Activate(r.Context(), identityID, time.Now())
	if err != nil {
		slog.ErrorContext(r.Context(), "Cycle activation failed", "identity_id", identityID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not activate cycle")
		return
	}
	if pruned > 0 {
		s.statsCache.Invalidate(identityID)
	}
	writeJSON(w, http.StatusOK, activateResponse{Pruned: pruned})
}
