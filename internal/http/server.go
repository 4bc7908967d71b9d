// Package http exposes the JSON API: auth, ledger CRUD, recurring
// processing, budgets, and analytics.
package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

const apiVersion = "1.0.0"

// Deps carries everything the server needs. All fields are required except
// where noted.
type Deps struct {
	Auth         *auth.Service
	Ledger       *services.LedgerService
	Materializer *services.Materializer
	Aggregator   *services.Aggregator
	Trends       *services.TrendService
	Alerts       *services.AlertEvaluator
	Logger       *log.Logger
}

// Options tunes server behavior.
type Options struct {
	Addr               string
	RateLimitPerMinute int
}

// Server is the API server. Monthly summaries are memoized in an LRU keyed
// by (user, year, month) and invalidated on writes to that period.
type Server struct {
	http.Server

	deps   Deps
	logger *log.Logger

	summaryCache *cache.LRUCache[core.Summary]
	cacheManager *cache.Manager
	limiter      *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(opts Options, deps Deps) *Server {
	s := &Server{
		deps:         deps,
		logger:       deps.Logger.WithComponent(log.ComponentHTTP),
		summaryCache: cache.NewLRUCache[core.Summary](200, 5*time.Minute),
		cacheManager: cache.NewManager(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
	}
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.HandleFunc("GET /api/{$}", s.handleRoot)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	requireAuth := auth.Middleware(deps.Auth)
	protected := func(h http.HandlerFunc) http.Handler {
		return requireAuth(h)
	}

	mux.Handle("GET /api/auth/me", protected(s.handleMe))

	mux.Handle("POST /api/income", protected(s.handleCreateIncome))
	mux.Handle("GET /api/income", protected(s.handleListIncome))
	mux.Handle("DELETE /api/income/{id}", protected(s.handleDeleteIncome))

	mux.Handle("POST /api/expenses", protected(s.handleCreateExpense))
	mux.Handle("GET /api/expenses", protected(s.handleListExpenses))
	mux.Handle("DELETE /api/expenses/{id}", protected(s.handleDeleteExpense))

	mux.Handle("POST /api/credit-cards", protected(s.handleCreateCard))
	mux.Handle("GET /api/credit-cards", protected(s.handleListCards))
	mux.Handle("DELETE /api/credit-cards/{id}", protected(s.handleDeleteCard))

	mux.Handle("POST /api/recurring", protected(s.handleCreateRecurringItem))
	mux.Handle("GET /api/recurring", protected(s.handleListRecurringItems))
	mux.Handle("PUT /api/recurring/{id}", protected(s.handleUpdateRecurringItem))
	mux.Handle("DELETE /api/recurring/{id}", protected(s.handleDeleteRecurringItem))
	mux.Handle("POST /api/recurring/process", protected(s.handleProcessRecurring))

	mux.Handle("POST /api/budgets", protected(s.handleSaveBudget))
	mux.Handle("GET /api/budgets", protected(s.handleGetBudget))
	mux.Handle("GET /api/budgets/alerts", protected(s.handleBudgetAlerts))

	mux.Handle("GET /api/analytics/summary", protected(s.handleSummary))
	mux.Handle("GET /api/analytics/trends", protected(s.handleTrends))
	mux.Handle("GET /api/analytics/category-trends", protected(s.handleCategoryTrends))

	traceMW := trace.NewMiddleware(deps.Logger, extractClientIP)
	headersMW := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limitMW := s.limiter.Middleware(extractClientIP)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           traceMW.Middleware(headersMW.Middleware(limitMW(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the HTTP server and the background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.cacheManager.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func extractClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if i := strings.IndexByte(ip, ','); i >= 0 {
			ip = ip[:i]
		}
		return strings.TrimSpace(ip)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Expense Tracker API",
		"version": apiVersion,
	})
}

func summaryCacheKey(userID string, year, month int) string {
	return userID + "/" + strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

func (s *Server) invalidateSummary(userID string, year, month int) {
	s.summaryCache.Delete(summaryCacheKey(userID, year, month))
}
