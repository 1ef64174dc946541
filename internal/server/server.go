// Package server provides the battery HTTP server.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/vpp-platform/battery-service/internal/audit"
	"github.com/vpp-platform/battery-service/internal/auth"
	"github.com/vpp-platform/battery-service/internal/config"
	"github.com/vpp-platform/battery-service/internal/events"
	"github.com/vpp-platform/battery-service/internal/httputil"
	"github.com/vpp-platform/battery-service/internal/rangequery"
	"github.com/vpp-platform/battery-service/internal/store"
	"github.com/vpp-platform/battery-service/internal/telemetry"
	"github.com/vpp-platform/battery-service/pkg/types"
)

const (
	serviceName  = "vpp-battery-service"
	apiPrefix    = "/vpp/v1"
	maxBodyBytes = 1 << 20

	scopeReadBatteries  = "read:batteries"
	scopeWriteBatteries = "write:batteries"
)

// Server wraps HTTP routes and dependencies.
type Server struct {
	store       store.Store
	cfg         config.Config
	version     string
	commit      string
	buildDate   string
	openapiSpec []byte
	metrics     *telemetry.Metrics
	publisher   events.Publisher
	audit       *audit.Logger
	ranges      *rangequery.Evaluator
	router      chi.Router
}

// Option configures server construction.
type Option func(*Server)

// WithOpenAPISpec sets the embedded OpenAPI bytes.
func WithOpenAPISpec(spec []byte) Option {
	return func(s *Server) {
		s.openapiSpec = spec
	}
}

// WithMetrics enables request and domain metrics. /metrics is only mounted
// when metrics are also enabled in config.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithPublisher sets the domain event publisher. Defaults to a no-op.
func WithPublisher(p events.Publisher) Option {
	return func(s *Server) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithAuditLogger sets the audit logger for write operations.
func WithAuditLogger(l *audit.Logger) Option {
	return func(s *Server) {
		s.audit = l
	}
}

// New constructs a battery API server.
func New(st store.Store, cfg config.Config, version, commit, buildDate string, opts ...Option) *Server {
	s := &Server{
		store:     st,
		cfg:       cfg,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		publisher: events.NoopPublisher{},
		ranges:    rangequery.NewEvaluator(st),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the configured router.
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	if s.cfg.TracesEnabled {
		r.Use(telemetry.TracingMiddleware(serviceName))
	}
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(httputil.RequestID)
	r.Use(httputil.RequestLogger(log.Logger))
	r.Use(httputil.Recoverer)
	r.Use(httputil.SecureHeaders)
	r.Use(httputil.BodyLimit(maxBodyBytes))
	r.Use(httputil.ContentType)
	r.Use(httputil.APIVersion(types.APIVersion))
	r.Use(httputil.CacheControl)

	r.Group(func(r chi.Router) {
		r.Method(http.MethodGet, "/health", httputil.HealthHandler())
		r.Method(http.MethodGet, "/readiness", httputil.ReadinessHandler(func(req *http.Request) error {
			return s.store.Ping(req.Context())
		}))
		r.Method(http.MethodGet, "/version", httputil.VersionHandler(s.version, s.commit, s.buildDate))
		if s.cfg.MetricsEnabled && s.metrics != nil {
			r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
		}
		r.Method(http.MethodGet, "/api/docs", httputil.SwaggerHandler())
		r.Method(http.MethodGet, "/api/openapi.yaml", httputil.OpenAPIHandler(s.openapiSpec))
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.JWTMiddleware(auth.MiddlewareConfig{
			Secret:        []byte(s.cfg.JWTSecret),
			InternalToken: s.cfg.InternalToken,
			DevMode:       s.cfg.DevMode,
		}))

		r.Route(apiPrefix, func(r chi.Router) {
			r.With(requireAnyScope(scopeReadBatteries, auth.ScopeAdmin)).Get("/batteries", s.handleListBatteries)
			r.With(requireAnyScope(scopeWriteBatteries, auth.ScopeAdmin)).Post("/batteries", s.handleCreateBattery)
			r.With(requireAnyScope(scopeReadBatteries, auth.ScopeAdmin)).Get("/batteries/range", s.handleBatteryRange)
			r.With(requireAnyScope(scopeReadBatteries, auth.ScopeAdmin)).Get("/batteries/{id}", s.handleGetBattery)
		})
	})

	return r
}
