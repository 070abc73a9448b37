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

var (
	ErrUsernameTaken  = errors.New("username already taken")
	ErrBadCredentials = errors.New("invalid username or password")
)

// Identity registers and authenticates local identities and tracks the
// active session. At most one session exists at a time and it survives
// restarts through the persisted session marker.
//
// Passwords are compared and stored verbatim. The source system made that
// simplification deliberately and this port preserves it rather than
// silently hardening a local single-machine tool.
type Identity struct {
	kv *storage.KV
}

func NewIdentity(kv *storage.KV) *Identity {
	return &Identity{kv: kv}
}

func (s *Identity) users(ctx context.Context) []core.User {
	return storage.GetGlobal(ctx, s.kv, storage.KeyUsers, []core.User(nil))
}

// Register creates a new identity, establishes it as the active session and
// migrates any legacy pre-identity state into its namespace. Usernames are
// unique with case-sensitive exact matching.
func (s *Identity) Register(ctx context.Context, username, password string) (*core.User, error) {
	users := s.users(ctx)
	for _, u := range users {
		if u.Username == username {
			return nil, ErrUsernameTaken
		}
	}

	user := core.User{
		ID:       uuid.NewString(),
		Username: username,
		Password: password,
	}
	users = append(users, user)
	if err := storage.SetGlobal(ctx, s.kv, storage.KeyUsers, users); err != nil {
		return nil, fmt.Errorf("persist users: %w", err)
	}
	if err := s.setSession(ctx, &user); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Identity registered", "identity_id", user.ID, "username", username)
	return &user, nil
}

// Login establishes the session for an exact username+password match.
func (s *Identity) Login(ctx context.Context, username, password string) (*core.User, error) {
	for _, u := range s.users(ctx) {
		if u.Username == username && u.Password == password {
			user := u
			if err := s.setSession(ctx, &user); err != nil {
				return nil, err
			}
			slog.InfoContext(ctx, "Identity logged in", "identity_id", user.ID, "username", username)
			return &user, nil
		}
	}
	return nil, ErrBadCredentials
}

// Logout clears the session marker. Identity and ledger data stay intact.
func (s *Identity) Logout(ctx context.Context) error {
	if err := s.kv.RemoveGlobal(ctx, storage.KeyCurrentUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// RestoreSession returns the identity persisted as the active session, or
// nil when nobody is logged in. A restored identity is trusted without
// re-prompting for credentials, and its legacy state migration is re-checked.
func (s *Identity) RestoreSession(ctx context.Context) *core.User {
	user := storage.GetGlobal(ctx, s.kv, storage.KeyCurrentUser, core.User{})
	if user.ID == "" {
		return nil
	}
	if _, err := s.kv.MigrateLegacy(ctx, user.ID); err != nil {
		slog.WarnContext(ctx, "Legacy migration failed on session restore",
			"identity_id", user.ID, "error", err)
	}
	return &user
}

func (s *Identity) setSession(ctx context.Context, user *core.User) error {
	if err := storage.SetGlobal(ctx, s.kv, storage.KeyCurrentUser, user); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if _, err := s.kv.MigrateLegacy(ctx, user.ID); err != nil {
		slog.WarnContext(ctx, "Legacy migration failed", "identity_id", user.ID, "error", err)
	}
	return nil
}
