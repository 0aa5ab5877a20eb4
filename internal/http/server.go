// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"conti/internal/core"
	"conti/internal/services"
	"conti/internal/storage"
)

// Store is the slice of the repository the handlers need.
type Store interface {
	Currencies(ctx context.Context) ([]core.Currency, error)
	CreateCurrency(ctx context.Context, c core.Currency) (core.Currency, error)
	UpdateCurrency(ctx context.Context, c core.Currency) (core.Currency, error)
	DeleteCurrency(ctx context.Context, id int64) error

	Categories(ctx context.Context) ([]core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	Classifications(ctx context.Context) ([]core.Classification, error)
	CreateClassification(ctx context.Context, c core.Classification) (core.Classification, error)
	UpdateClassification(ctx context.Context, c core.Classification) (core.Classification, error)
	DeleteClassification(ctx context.Context, id int64) error

	Accounts(ctx context.Context) ([]core.Account, error)
	AccountsDetailed(ctx context.Context) ([]core.Account, error)
	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
	UpdateAccount(ctx context.Context, a core.Account) (core.Account, error)
	DeleteAccount(ctx context.Context, id int64) error
	LinkClassification(ctx context.Context, accountID, classificationID int64) error
	UnlinkClassification(ctx context.Context, accountID, classificationID int64) error

	TransactionSummaries(ctx context.Context, skip, limit int) ([]storage.TransactionSummary, error)
	CountTransactions(ctx context.Context) (int, error)
	Transaction(ctx context.Context, id int64) (core.Transaction, error)
	TransactionLines(ctx context.Context, id int64) ([]core.TransactionLine, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
}

// DashboardComposer builds the consolidated dashboard view.
type DashboardComposer interface {
	Compose(ctx context.Context) (services.Dashboard, error)
}

// EventPublisher pushes ledger mutation events to the message broker.
// Publish failures are logged and never fail the request.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, action string, transactionID int64) error
}

type Server struct {
	http.Server
	store       Store
	dashboard   DashboardComposer
	publisher   EventPublisher
	rateLimiter *rateLimiter
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. publisher may be nil when no broker is configured.
func NewServer(addr string, store Store, dashboard DashboardComposer, publisher EventPublisher, writesPerMinute int) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:       store,
		dashboard:   dashboard,
		publisher:   publisher,
		rateLimiter: newRateLimiter(writesPerMinute),
	}

	mux.HandleFunc("GET /", s.withMiddleware(s.handleRoot))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.withMiddleware(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))
	mux.HandleFunc("GET /api/transactions/{id}/lines", s.withMiddleware(s.handleTransactionLines))

	mux.HandleFunc("GET /api/accounts", s.withMiddleware(s.handleListAccounts))
	mux.HandleFunc("GET /api/accounts/detailed", s.withMiddleware(s.handleListAccountsDetailed))
	mux.HandleFunc("POST /api/accounts", s.withMiddleware(s.handleCreateAccount))
	mux.HandleFunc("PUT /api/accounts/{id}", s.withMiddleware(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.withMiddleware(s.handleDeleteAccount))
	mux.HandleFunc("POST /api/accounts/{id}/classifications/{cid}", s.withMiddleware(s.handleLinkClassification))
	mux.HandleFunc("DELETE /api/accounts/{id}/classifications/{cid}", s.withMiddleware(s.handleUnlinkClassification))

	mux.HandleFunc("GET /api/currencies", s.withMiddleware(s.handleListCurrencies))
	mux.HandleFunc("POST /api/currencies", s.withMiddleware(s.handleCreateCurrency))
	mux.HandleFunc("PUT /api/currencies/{id}", s.withMiddleware(s.handleUpdateCurrency))
	mux.HandleFunc("DELETE /api/currencies/{id}", s.withMiddleware(s.handleDeleteCurrency))

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withMiddleware(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.withMiddleware(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withMiddleware(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/classifications", s.withMiddleware(s.handleListClassifications))
	mux.HandleFunc("POST /api/classifications", s.withMiddleware(s.handleCreateClassification))
	mux.HandleFunc("PUT /api/classifications/{id}", s.withMiddleware(s.handleUpdateClassification))
	mux.HandleFunc("DELETE /api/classifications/{id}", s.withMiddleware(s.handleDeleteClassification))

	mux.HandleFunc("GET /api/dashboard", s.withMiddleware(s.handleDashboard))
	mux.HandleFunc("GET /api/dashboard/balances", s.withMiddleware(s.handleDashboardBalances))
	mux.HandleFunc("GET /api/dashboard/credit-cards", s.withMiddleware(s.handleDashboardCreditCards))

	return s
}

// withMiddleware adds request ids, structured request logging, security
// headers and write rate limiting.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded, try again later"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
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
	if r.URL.Path != "/" {
		respondJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "conti ledger API is running!"})
}

// publishEvent notifies the broker about a mutation, best effort.
func (s *Server) publishEvent(ctx context.Context, action string, transactionID int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, action, transactionID); err != nil {
		slog.WarnContext(ctx, "Event publish failed",
			"action", action, "transaction_id", transactionID, "error", err)
	}
}

// Simple in-memory rate limiter for mutating requests, fixed one-minute
// window per client.
type rateLimiter struct {
	mu        sync.Mutex
	perMinute int
	clients   map[string]*clientInfo
	lastSweep time.Time
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter(perMinute int) *rateLimiter {
	return &rateLimiter{
		perMinute: perMinute,
		clients:   make(map[string]*clientInfo),
	}
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.sweepLocked(now)

	client, exists := rl.clients[clientIP]
	if !exists || now.Sub(client.lastRequest) > time.Minute {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	client.requests++
	client.lastRequest = now
	return client.requests <= rl.perMinute
}

// sweepLocked drops clients idle past their window, at most once a minute,
// so the map does not keep one entry per address forever.
func (rl *rateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < time.Minute {
		return
	}
	rl.lastSweep = now

	cutoff := now.Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}
