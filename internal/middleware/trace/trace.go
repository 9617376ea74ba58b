package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"
)

// Middleware stamps every request with an id, writes the access log and
// keeps the counters served by the metrics endpoint.
type Middleware struct {
	extractIP func(*http.Request) string
	startedAt time.Time
	metrics   metrics
}

// metrics fields are touched with sync/atomic only.
type metrics struct {
	totalRequests int64
	responses2xx  int64
	responses4xx  int64
	responses5xx  int64
	inFlight      int64
}

// Metrics is a point-in-time snapshot of the request counters. The 2xx
// bucket also covers 1xx and 3xx responses.
type Metrics struct {
	TotalRequests int64
	Responses2xx  int64
	Responses4xx  int64
	Responses5xx  int64
	InFlight      int64
	Uptime        time.Duration
}

// NewMiddleware creates a new trace middleware
func NewMiddleware(extractIP func(*http.Request) string) *Middleware {
	return &Middleware{
		extractIP: extractIP,
		startedAt: time.Now(),
	}
}

// Middleware returns HTTP middleware for request tracing
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		// Generate request ID for tracing
		requestID := GenerateRequestID()
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		atomic.AddInt64(&m.metrics.totalRequests, 1)
		atomic.AddInt64(&m.metrics.inFlight, 1)
		defer atomic.AddInt64(&m.metrics.inFlight, -1)

		// Create a custom response writer to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		switch {
		case rw.statusCode >= 500:
			atomic.AddInt64(&m.metrics.responses5xx, 1)
		case rw.statusCode >= 400:
			atomic.AddInt64(&m.metrics.responses4xx, 1)
		default:
			atomic.AddInt64(&m.metrics.responses2xx, 1)
		}

		duration := time.Since(start)

		// Use appropriate log level based on status code
		logLevel := slog.LevelInfo
		if rw.statusCode >= 400 && rw.statusCode < 500 {
			logLevel = slog.LevelWarn
		} else if rw.statusCode >= 500 {
			logLevel = slog.LevelError
		}

		slog.Log(ctx, logLevel, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// Snapshot returns current counter values
func (m *Middleware) Snapshot() Metrics {
	return Metrics{
		TotalRequests: atomic.LoadInt64(&m.metrics.totalRequests),
		Responses2xx:  atomic.LoadInt64(&m.metrics.responses2xx),
		Responses4xx:  atomic.LoadInt64(&m.metrics.responses4xx),
		Responses5xx:  atomic.LoadInt64(&m.metrics.responses5xx),
		InFlight:      atomic.LoadInt64(&m.metrics.inFlight),
		Uptime:        time.Since(m.startedAt),
	}
}
