// Package http exposes the ledger, identity and rates services as a
// JSON API.
package http

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/BigTvz/Scope/internal/cache"
	"github.com/BigTvz/Scope/internal/core"
	applog "github.com/BigTvz/Scope/internal/log"
	"github.com/BigTvz/Scope/internal/services"
)

type Server struct {
	http.Server
	identity  *services.Identity
	ledger    *services.Ledger
	lifecycle *services.Lifecycle
	refresher *services.RatesRefresher

	seedDemo bool

	statsCache  *cache.TTLCache[core.Stats]
	rateLimiter *rateLimiter

	cancelJanitor context.CancelFunc
	shutdownOnce  sync.Once
}

// Options tunes the server beyond its service dependencies.
type Options struct {
	StatsCacheSize int
	StatsCacheTTL  time.Duration
	SeedDemo       bool
}

func defaultOptions(opts Options) Options {
	if opts.StatsCacheSize < 1 {
		opts.StatsCacheSize = 256
	}
	if opts.StatsCacheTTL <= 0 {
		opts.StatsCacheTTL = 30 * time.Second
	}
	return opts
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, identity *services.Identity, ledger *services.Ledger, lifecycle *services.Lifecycle, refresher *services.RatesRefresher, logger *applog.Logger, opts Options) *Server {
	opts = defaultOptions(opts)

	s := &Server{
		identity:    identity,
		ledger:      ledger,
		lifecycle:   lifecycle,
		refresher:   refresher,
		seedDemo:    opts.SeedDemo,
		statsCache:  cache.NewTTLCache[core.Stats](opts.StatsCacheSize, opts.StatsCacheTTL),
		rateLimiter: newRateLimiter(),
	}

	janitorCtx, cancel := context.WithCancel(context.Background())
	s.cancelJanitor = cancel
	go cache.Janitor(janitorCtx, s.statsCache, 10*time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/session", s.handleSession)

	mux.HandleFunc("GET /api/expenses", s.withIdentity(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.withIdentity(s.handleCreateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.withIdentity(s.handleRemoveExpense))
	mux.HandleFunc("POST /api/expenses/{id}/toggle", s.withIdentity(s.handleTogglePaid))

	mux.HandleFunc("GET /api/stats", s.withIdentity(s.handleStats))
	mux.HandleFunc("GET /api/next-due", s.withIdentity(s.handleNextDue))
	mux.HandleFunc("GET /api/settings", s.withIdentity(s.handleSettings))
	mux.HandleFunc("PUT /api/settings/currency", s.withIdentity(s.handleSetCurrency))
	mux.HandleFunc("POST /api/rates/refresh", s.withIdentity(s.handleRefreshRates))
	mux.HandleFunc("POST /api/cycle/activate", s.withIdentity(s.handleActivateCycle))

	handler := applog.RequestMiddleware(logger)(s.withProtection(mux))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Shutdown stops the HTTP server and the cache and rate limiter
// housekeeping goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cancelJanitor()
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// withProtection sets response hardening headers and rate-limits
// mutating requests per client IP.
func (s *Server) withProtection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withIdentity resolves the persisted session and passes the identity id
// to the handler. Requests without a session get 401.
func (s *Server) withIdentity(next func(w http.ResponseWriter, r *http.Request, identityID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.identity.RestoreSession(r.Context())
		if user == nil {
			writeError(w, http.StatusUnauthorized, "no active session")
			return
		}
		next(w, r, user.ID)
	}
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
