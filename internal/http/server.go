package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"tally/internal/classifier"
	"tally/internal/core"
	"tally/internal/middleware/trace"
)

// Consumer-side views of what the handlers need. The service layer and
// the classifier satisfy them; tests drive the handlers with fakes.
type (
	TransactionService interface {
		List(ctx context.Context) ([]core.Transaction, error)
		Create(ctx context.Context, t core.Transaction) (core.Transaction, error)
		FromReceipt(ctx context.Context, data classifier.ReceiptData) (core.Transaction, error)
		Delete(ctx context.Context, id string) error
		Analytics(ctx context.Context) (core.Analytics, error)
	}

	ReceiptClassifier interface {
		Classify(ctx context.Context, imageBase64 string) (classifier.ReceiptData, error)
	}

	// HealthChecker reports whether the store behind the ledger is
	// reachable. The readiness endpoint runs it under a short bound.
	HealthChecker interface {
		Ping(ctx context.Context) error
	}
)

const readinessTimeout = 2 * time.Second

type Server struct {
	http.Server
	transactions TransactionService
	classifier   ReceiptClassifier
	health       HealthChecker
	trace        *trace.Middleware
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. A nil classifier disables the receipt endpoint; a nil health
// checker makes readiness unconditional. Socket timeouts default to
// 10s/20s and can be overridden on the embedded http.Server before Listen.
func NewServer(addr string, ts TransactionService, rc ReceiptClassifier, hc HealthChecker) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 20 * time.Second,
		},
		transactions: ts,
		classifier:   rc,
		health:       hc,
		trace:        trace.NewMiddleware(extractClientIP),
		rateLimiter:  newRateLimiter(),
	}

	mux.HandleFunc("/api/transactions", s.withSecurityHeaders(s.handleTransactions))
	mux.HandleFunc("/api/transactions/", s.withSecurityHeaders(s.handleTransactionByID))
	mux.HandleFunc("/api/analytics", s.withSecurityHeaders(s.handleAnalytics))
	mux.HandleFunc("/api/process-receipt", s.withSecurityHeaders(s.handleProcessReceipt))
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	s.Handler = s.trace.Middleware(mux)

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds conservative response headers and rate-limits
// the receipt endpoint.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/api/process-receipt" {
			clientIP := extractClientIP(r)
			if !s.rateLimiter.allow(clientIP) {
				slog.WarnContext(r.Context(), "Rate limit exceeded",
					"client_ip", clientIP, "path", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
				return
			}
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")

		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		if err := s.health.Ping(ctx); err != nil {
			slog.ErrorContext(r.Context(), "Readiness probe failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "store unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := s.trace.Snapshot()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "tally_requests_total %d\n", m.TotalRequests)
	fmt.Fprintf(w, "tally_responses_2xx %d\n", m.Responses2xx)
	fmt.Fprintf(w, "tally_responses_4xx %d\n", m.Responses4xx)
	fmt.Fprintf(w, "tally_responses_5xx %d\n", m.Responses5xx)
	fmt.Fprintf(w, "tally_requests_in_flight %d\n", m.InFlight)
	fmt.Fprintf(w, "tally_uptime_seconds %d\n", int64(m.Uptime.Seconds()))
}
