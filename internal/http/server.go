// Package http serves the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"kas/internal/cache"
	"kas/internal/core"
	"kas/internal/ledger"
	"kas/internal/log"
	"kas/internal/metrics"
	"kas/internal/middleware/ratelimit"
	"kas/internal/middleware/security"
	"kas/internal/middleware/trace"
)

const (
	reportCacheSize      = 100
	cacheCleanupInterval = 10 * time.Minute
)

type Config struct {
	Addr               string
	Currency           string
	RateLimitPerMinute int
	ReportCacheTTL     time.Duration
	TrustedProxies     []string
}

type Server struct {
	http.Server

	book     *ledger.Book
	metrics  *metrics.Metrics
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	reports  *cache.LRUCache[core.ReportTotals]
	caches   *cache.Manager
	present  presenter
	logger   *log.Logger
	ready    func(context.Context) error

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithReadiness sets the check behind /readyz.
func WithReadiness(check func(context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

func NewServer(cfg Config, book *ledger.Book, m *metrics.Metrics, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	if m == nil {
		m = metrics.New()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		book:     book,
		metrics:  m,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector: security.NewDetector(logger),
		reports:  cache.NewLRUCache[core.ReportTotals](reportCacheSize, cfg.ReportCacheTTL),
		caches:   cache.NewManager(logger),
		present:  presenter{currency: cfg.Currency},
		logger:   logger,
	}
	for _, cidr := range cfg.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)

	s.caches.Register(s.reports)
	s.caches.StartCleanup(cacheCleanupInterval)

	mux := http.NewServeMux()
	s.routes(mux)

	limited := s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)(mux)
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			mux.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
	handler = s.tracer.Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	s.handle(mux, "GET /api/dashboard", s.handleDashboard)
	s.handle(mux, "GET /api/activity", s.handleActivity)
	s.handle(mux, "GET /api/series", s.handleSeries)

	s.handle(mux, "GET /api/members", s.handleListMembers)
	s.handle(mux, "GET /api/members/unpaid", s.handleUnpaidMembers)
	s.handle(mux, "POST /api/members", s.handleCreateMember)
	s.handle(mux, "PUT /api/members/{id}", s.handleUpdateMember)
	s.handle(mux, "DELETE /api/members/{id}", s.handleDeleteMember)

	s.handle(mux, "POST /api/payments", s.handleRecordPayment)
	s.handle(mux, "GET /api/expenses", s.handleListExpenses)
	s.handle(mux, "POST /api/expenses", s.handleRecordExpense)
	s.handle(mux, "GET /api/transactions", s.handleListTransactions)
	s.handle(mux, "DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	s.handle(mux, "GET /api/report", s.handleReport)
	s.handle(mux, "GET /api/settings", s.handleGetSettings)
	s.handle(mux, "PUT /api/settings", s.handleUpdateSettings)

	s.handle(mux, "GET /api/export", s.handleExport)
	s.handle(mux, "POST /api/import", s.handleImport)
	s.handle(mux, "POST /api/reset", s.handleReset)
}

// handle registers h and records its latency under the route pattern.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw, status := trace.StatusRecorder(w)
		h(rw, r)
		s.metrics.ObserveHTTP(r.Method, pattern, status(), time.Since(start))
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, errorJSON{Error: "rate limit exceeded, please try again later"})
}

// Shutdown stops background cleanup and the HTTP server. It is safe to call
// more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
