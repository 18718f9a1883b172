/*
Package metrics exposes award engine outcomes to Prometheus.

PURPOSE:
  Collector implements award.Recorder so the engine reports every priced
  shift, failure, fatigue assessment and audit without importing
  Prometheus itself. It also carries HTTP request metrics for the API.

METRICS:
  award_shifts_computed_total                 shifts priced successfully
  award_shift_failures_total{reason}          rate_not_found, unknown_classification, ...
  award_data_quality_warnings_total{code}     ZERO_LENGTH_SHIFT, UNMATCHED_BREAK_START, ...
  award_pay_computed_dollars_total            sum of breakdown totals
  award_fatigue_assessments_total{risk}       LOW, MEDIUM, HIGH
  award_audits_total                          completed audits
  award_audit_score                           score of the latest audit
  award_http_requests_total{method,route,status}
  award_http_request_duration_seconds{method,route}

  Every Collector owns its registry so tests and multiple servers in one
  process never collide on registration.

SEE ALSO:
  - award/engine.go: Recorder interface
  - api/server.go: Mounts Handler at /metrics
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/award-engine/award"
)

const namespace = "award"

// Collector is a Prometheus-backed award.Recorder.
type Collector struct {
	registry *prometheus.Registry

	shiftsComputed prometheus.Counter
	shiftFailures  *prometheus.CounterVec
	warnings       *prometheus.CounterVec
	payDollars     prometheus.Counter
	fatigue        *prometheus.CounterVec
	audits         prometheus.Counter
	auditScore     prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

var _ award.Recorder = (*Collector)(nil)

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		shiftsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shifts_computed_total",
			Help:      "Total number of shifts priced successfully",
		}),
		shiftFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shift_failures_total",
			Help:      "Total number of shifts that could not be priced",
		}, []string{"reason"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "data_quality_warnings_total",
			Help:      "Data quality warnings attached to priced shifts",
		}, []string{"code"}),
		payDollars: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pay_computed_dollars_total",
			Help:      "Sum of computed shift totals in dollars",
		}),
		fatigue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fatigue_assessments_total",
			Help:      "Fatigue assessments by risk level",
		}, []string{"risk"}),
		audits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audits_total",
			Help:      "Total number of completed labour audits",
		}),
		auditScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audit_score",
			Help:      "Score of the most recent labour audit",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		c.shiftsComputed, c.shiftFailures, c.warnings, c.payDollars,
		c.fatigue, c.audits, c.auditScore,
		c.httpRequests, c.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// =============================================================================
// award.Recorder
// =============================================================================

func (c *Collector) ShiftComputed(b award.ShiftPayBreakdown) {
	c.shiftsComputed.Inc()
	dollars, _ := b.Total.Decimal().Float64()
	if dollars > 0 {
		c.payDollars.Add(dollars)
	}
	for _, w := range b.Warnings {
		c.warnings.WithLabelValues(string(w.Code)).Inc()
	}
}

func (c *Collector) ShiftFailed(_ string, err error) {
	c.shiftFailures.WithLabelValues(award.ErrorReason(err)).Inc()
}

func (c *Collector) FatigueAssessed(a award.FatigueAssessment) {
	c.fatigue.WithLabelValues(string(a.RiskLevel)).Inc()
}

func (c *Collector) AuditCompleted(r award.LabourAuditResult) {
	c.audits.Inc()
	c.auditScore.Set(float64(r.Score))
}

// =============================================================================
// HTTP
// =============================================================================

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Middleware records request counts and latency labelled by chi route
// pattern, so path parameters do not explode label cardinality.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
