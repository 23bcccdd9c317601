// Package obs метрики Prometheus сервиса.
package obs

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Общие HTTP-метрики
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Доменные метрики
var (
	requestTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutoring_request_transitions_total",
			Help: "Committed tutoring request status transitions.",
		},
		[]string{"action", "to"},
	)

	sessionsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tutoring_sessions_created_total",
		Help: "Tutoring sessions scheduled.",
	})

	quotaRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tutoring_quota_rejections_total",
		Help: "Bookings refused because the tutor's weekly limit would be exceeded.",
	})

	tutorWeeklyHours = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tutoring_tutor_weekly_hours_used",
			Help: "Hours committed by a tutor in the current quota week.",
		},
		[]string{"tutor_id"},
	)
)

var initOnce sync.Once

// Init регистрирует метрики в default-регистре (однократно).
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration,
			requestTransitions, sessionsCreated, quotaRejections, tutorWeeklyHours,
		)
	})
}

// Handler отдаёт метрики Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument считает RPS, латентность и запросы в работе. Метка route это
// шаблон chi, чтобы id не раздували кардинальность.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

// RequestTransition считает закоммиченную смену статуса заявки.
func RequestTransition(action, to string) {
	requestTransitions.WithLabelValues(action, to).Inc()
}

func SessionCreated() {
	sessionsCreated.Inc()
}

func QuotaRejected() {
	quotaRejections.Inc()
}

// SetTutorWeeklyHours публикует снимок занятых часов тутора.
func SetTutorWeeklyHours(tutorID int64, hours float64) {
	tutorWeeklyHours.WithLabelValues(strconv.FormatInt(tutorID, 10)).Set(hours)
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
