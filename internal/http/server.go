package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"spendtrack/internal/auth"
	"spendtrack/internal/log"
	"spendtrack/internal/middleware/cors"
	"spendtrack/internal/middleware/ratelimit"
	"spendtrack/internal/middleware/security"
	"spendtrack/internal/middleware/trace"
	"spendtrack/internal/service"
)

// Options tune the server beyond its collaborators.
type Options struct {
	// TenantScoping restricts reads to the caller's rows and is off by
	// default. Writes are always stamped with the caller's identity.
	TenantScoping bool

	RateLimitPerMinute int
}

// Server is the HTTP front of the expense API.
type Server struct {
	http.Server

	svc      *service.ExpenseService
	verifier auth.Verifier
	logger   *log.Logger
	opts     Options

	traceMW *trace.Middleware
	limiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes and the middleware chain, returning a
// ready-to-run server.
func NewServer(addr string, svc *service.ExpenseService, verifier auth.Verifier, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}

	s := &Server{
		svc:      svc,
		verifier: verifier,
		logger:   logger,
		opts:     opts,
		traceMW:  trace.NewMiddleware(clientIP, logger.WithComponent(log.ComponentTrace)),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.Handle("/api/expenses", s.requireAuth(http.HandlerFunc(s.handleExpenses)))
	mux.Handle("/api/expenses/", s.requireAuth(http.HandlerFunc(s.handleExpenseByID)))
	mux.Handle("/api/stats", s.requireAuth(http.HandlerFunc(s.handleStats)))

	// Outermost first: trace sees every request including preflights,
	// cors answers OPTIONS before auth or limits apply.
	handler := http.Handler(mux)
	handler = s.limiter.Middleware(clientIP, nil)(handler)
	handler = cors.Middleware(cors.DefaultConfig())(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.traceMW.Middleware(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// requireAuth verifies the bearer token and stores the caller identity
// and raw token in the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r.Header.Get("Authorization"))
		if token == "" {
			UnauthorizedError().Write(w)
			return
		}

		user, err := s.verifier.Verify(r.Context(), token)
		if err != nil {
			s.logger.WarnContext(r.Context(), "token rejected",
				log.FieldPath, r.URL.Path,
				log.FieldError, err)
			UnauthorizedError().Write(w)
			return
		}

		ctx := auth.ContextWithUser(r.Context(), user)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		s.logger.WarnContext(r.Context(), "readiness check failed", log.FieldError, err)
		ErrorResponse(http.StatusServiceUnavailable, "store unreachable").Write(w)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.traceMW.GetMetrics()
	rm := s.limiter.GetMetrics()
	NewJSONResponse().Body(map[string]int64{
		"total_requests":       tm.TotalRequests,
		"last_duration_ms":     tm.LastDurationMs,
		"rate_limited_total":   rm.TotalHits,
		"rate_limited_clients": rm.ClientCount,
	}).Write(w)
}

// Shutdown stops the listener and the background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// clientIP resolves the caller address, preferring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
