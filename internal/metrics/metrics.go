package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exploremore_http_requests_total",
			Help: "HTTP requests by route pattern, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exploremore_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	QuizCompletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exploremore_quiz_completions_total",
			Help: "Completed quizzes by recommended destination.",
		},
		[]string{"destination"},
	)

	QuizGateRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "exploremore_quiz_gate_rejections_total",
			Help: "Advance attempts rejected because the current question had no selection.",
		},
	)

	QuizActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "exploremore_quiz_sessions_active",
			Help: "Quiz sessions held by the in-memory store.",
		},
	)

	FeedbackSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exploremore_feedback_submissions_total",
			Help: "Feedback submissions by filter outcome (clean|filtered).",
		},
		[]string{"outcome"},
	)

	ModerationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exploremore_moderation_actions_total",
			Help: "Admin moderation actions applied to feedback rows.",
		},
		[]string{"action"},
	)

	CurrencyFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exploremore_currency_fetches_total",
			Help: "Exchange-rate lookups by outcome (live|cached|fallback|rejected).",
		},
		[]string{"outcome"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "exploremore_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		},
		[]string{"name"},
	)
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency keyed by the chi route
// pattern, so path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
