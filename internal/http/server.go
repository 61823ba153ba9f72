package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"dinvox/internal/analytics"
	"dinvox/internal/core"
	applog "dinvox/internal/log"
	"dinvox/internal/middleware/ratelimit"
	"dinvox/internal/middleware/security"
	"dinvox/internal/middleware/trace"
	"dinvox/internal/services"
)

// AnalyticsAPI is the analytics surface the handlers need.
type AnalyticsAPI interface {
	Thirds(ctx context.Context, userID string, month analytics.MonthKey) (*services.ThirdsView, error)
	Pace(ctx context.Context, userID string, month analytics.MonthKey) (*services.PaceView, error)
	Evolution(ctx context.Context, userID string, window analytics.WindowKind, categoryID string) (*services.EvolutionView, error)
	Dashboard(ctx context.Context, req services.DashboardRequest) (*services.DashboardView, error)
	CurrentMonth() analytics.MonthKey
	Today() string
}

// ExpenseAPI records expenses.
type ExpenseAPI interface {
	CreateExpense(ctx context.Context, e core.Expense) (string, error)
}

// ReadyCheck reports whether the backing services can take traffic.
type ReadyCheck func(ctx context.Context) error

// Options configures NewServer.
type Options struct {
	Addr               string
	Analytics          AnalyticsAPI
	Expenses           ExpenseAPI
	Ready              ReadyCheck
	RateLimitPerMinute int
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	analytics AnalyticsAPI
	expenses  ExpenseAPI
	ready     ReadyCheck
	logger    *applog.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	mux := http.NewServeMux()
	detector := security.NewDetector(logger)
	s := &Server{
		analytics: opts.Analytics,
		expenses:  opts.Expenses,
		ready:     opts.Ready,
		logger:    logger.WithComponent(applog.ComponentHTTP),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:  detector,
		tracer:    trace.NewMiddleware(logger, detector.ExtractClientIP),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/users/{user}/thirds", s.handleThirds)
	mux.HandleFunc("GET /api/users/{user}/pace", s.handlePace)
	mux.HandleFunc("GET /api/users/{user}/evolution", s.handleEvolution)
	mux.HandleFunc("GET /api/users/{user}/dashboard", s.handleDashboard)

	limit := s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
			"Rate limit exceeded",
			applog.FieldClientIP, detector.ExtractClientIP(r),
			applog.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})
	mux.Handle("POST /api/users/{user}/expenses", limit(http.HandlerFunc(s.handleCreateExpense)))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w)
	})

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.tracer.Middleware(headers.Middleware(detector.Middleware(mux))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics returns the request, security and rate limit counters.
func (s *Server) Metrics() (trace.Metrics, security.DetectionMetrics, ratelimit.Metrics) {
	return s.tracer.GetMetrics(), s.detector.GetMetrics(), s.limiter.GetMetrics()
}
