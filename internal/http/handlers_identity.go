package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/BigTvz/Scope/internal/core"
	"github.com/BigTvz/Scope/internal/services"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func sessionView(user *core.User) sessionResponse {
	return sessionResponse{ID: user.ID, Username: user.Username}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	user, err := s.identity.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUsernameTaken) {
			writeError(w, http.StatusConflict, "username already taken")
			return
		}
		slog.ErrorContext(r.Context(), "Register failed", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	if s.seedDemo {
		if _, err := s.ledger.SeedDemo(r.Context(), user.ID); err != nil {
			slog.WarnContext(r.Context(), "Demo seed failed", "identity_id", user.ID, "error", err)
		}
	}
	s.activateCycle(r, user.ID)

	writeJSON(w, http.StatusCreated, sessionView(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.identity.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrBadCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		slog.ErrorContext(r.Context(), "Login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	s.activateCycle(r, user.ID)

	writeJSON(w, http.StatusOK, sessionView(user))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.identity.Logout(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Logout failed", "error", err)
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	user := s.identity.RestoreSession(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "no active session")
		return
	}

	s.activateCycle(r, user.ID)
	// The refresh outlives the request.
	s.refresher.RefreshIfStale(context.WithoutCancel(r.Context()), user.ID, time.Now())

	writeJSON(w, http.StatusOK, sessionView(user))
}

// activateCycle runs monthly rollover for the identity. A rollover prunes
// one-time expenses, so the cached stats are dropped when anything changed.
func (s *Server) activateCycle(r *http.Request, identityID string) {
	pruned, err := s.lifecycle.Activate(r.Context(), identityID, time.Now())
	if err != nil {
		slog.WarnContext(r.Context(), "Cycle activation failed", "identity_id", identityID, "error", err)
		return
	}
	if pruned > 0 {
		s.statsCache.Invalidate(identityID)
	}
}
