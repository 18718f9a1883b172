/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     zap request log carrying the request ID
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Metrics:    Prometheus request counts and latency (optional)
  5. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/pay/*            Shift and pay-period calculations
  /api/fatigue          Fatigue risk
  /api/super            Superannuation guarantee
  /api/leave            Leave accrual
  /api/audit/*          Labour audits
  /api/employees/*      Employee management
  /api/shifts           Shift management
  /api/holidays/*       Public holiday calendar
  /api/rates            Rate table documents
  /api/scenarios/*      Demo scenarios
  /metrics              Prometheus scrape endpoint
  /                     Endpoint index

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/award/serve.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/warp/award-engine/metrics"
)

// RouterConfig carries the settings NewRouter needs beyond the handler.
type RouterConfig struct {
	AllowedOrigins []string
	// Metrics is optional; without it /metrics is not mounted.
	Metrics *metrics.Collector
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, rc RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	if rc.Metrics != nil {
		r.Use(rc.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rc.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Calculation routes
		r.Route("/pay", func(r chi.Router) {
			r.Post("/shift", h.PayShift)
			r.Post("/weekly", h.PayWeekly)
		})
		r.Post("/fatigue", h.AssessFatigue)
		r.Post("/super", h.CalculateSuper)
		r.Post("/leave", h.CalculateLeave)

		// Audit routes
		r.Route("/audit", func(r chi.Router) {
			r.Post("/", h.Audit)
			r.Post("/run", h.RunAudit)
			r.Get("/runs", h.ListAuditRuns)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/shifts", h.ListEmployeeShifts)
		})
		r.Post("/shifts", h.CreateShift)

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		// Rate table routes
		r.Get("/rates", h.GetRates)
		r.Put("/rates", h.PutRates)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	if rc.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", rc.Metrics.Handler())
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Award Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Award Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/employees">/api/employees</a> - List employees</li>
<li><a href="/api/holidays">/api/holidays</a> - Public holidays</li>
<li><a href="/api/rates">/api/rates</a> - Active rate table</li>
<li><a href="/api/audit/runs">/api/audit/runs</a> - Audit history</li>
<li><a href="/api/scenarios">/api/scenarios</a> - List scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}

// requestLogger logs one line per request at INFO, or WARN for 5xx.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				log := logger.Info
				if status >= http.StatusInternalServerError {
					log = logger.Warn
				}
				log("request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
