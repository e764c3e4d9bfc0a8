package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
	"github.com/boddenberg/mortgage-estimator-go/internal/infra/observability"
	"github.com/boddenberg/mortgage-estimator-go/internal/service"
)

var tracer = otel.Tracer("handler")

// Probe is a named dependency check used by /healthz and /readyz.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// RouterConfig holds the HTTP-layer settings.
type RouterConfig struct {
	AllowedOrigins []string
	Probes         []Probe
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc *service.Estimator, cfg RouterConfig, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.AccessLog(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(cfg.Probes))
	r.Get("/readyz", readyzHandler(cfg.Probes, logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/cities", citiesHandler(svc))
		r.Get("/metrics/estimator", estimatorMetricsHandler(metrics))

		r.Post("/mortgage/compute", computeHandler(svc, logger))
		r.Post("/mortgage/compare", compareHandler(svc, logger))
		r.Post("/assumptions", assumptionsHandler(svc, logger))

		r.Post("/sessions", createSessionHandler(svc, logger))
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Use(SessionAuthMiddleware(svc, logger))
			r.Get("/", getSessionHandler(svc, logger))
			r.Put("/input", updateInputHandler(svc, logger))
			r.Post("/calculate", calculateHandler(svc, logger))
			r.Put("/ratio", setRatioHandler(svc, logger))
			r.Put("/params", editParamsHandler(svc, logger))
		})
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func runProbes(ctx context.Context, probes []Probe) []domain.ServiceHealth {
	now := time.Now().Format(time.RFC3339)
	out := []domain.ServiceHealth{{Name: "estimator-api", Status: "healthy", LastChecked: now}}

	for _, p := range probes {
		status, detail := "healthy", ""
		if err := p.Check(ctx); err != nil {
			status, detail = "degraded", err.Error()
		}
		out = append(out, domain.ServiceHealth{Name: p.Name, Status: status, Detail: detail, LastChecked: now})
	}
	return out
}

func overall(services []domain.ServiceHealth) string {
	for _, s := range services {
		if s.Status != "healthy" {
			return "degraded"
		}
	}
	return "healthy"
}

// healthzHandler always answers 200; degraded dependencies are reported
// in the body because the provider falls back when its backend is down.
func healthzHandler(probes []Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		services := runProbes(ctx, probes)
		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall(services), Services: services})
	}
}

func readyzHandler(probes []Probe, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		services := runProbes(ctx, probes)
		if overall(services) != "healthy" {
			logger.Warn("readiness check failed", zap.Any("services", services))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func estimatorMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
