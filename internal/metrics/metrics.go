package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashboard_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	// Backend API metrics
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_backend_requests_total",
			Help: "Total requests sent to the agent backend",
		},
		[]string{"code", "method"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashboard_backend_request_duration_seconds",
			Help:    "Agent backend request duration",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"code", "method"},
	)

	FetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_fetch_failures_total",
			Help: "Page slot fetches that ended in the error state",
		},
		[]string{"page", "slot"},
	)

	// Business metrics
	UsersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_users_registered_total",
			Help: "Total dashboard accounts created",
		},
	)

	SignIns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_sign_ins_total",
			Help: "Sign-in attempts",
		},
		[]string{"result"}, // "success" or "failure"
	)

	AgentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_agents_created_total",
			Help: "Agent creation submissions forwarded to the backend",
		},
		[]string{"result"},
	)

	PromptUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_prompt_updates_total",
			Help: "Prompt commits sent to the backend",
		},
		[]string{"result"},
	)

	SuggestionsRequested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_suggestions_requested_total",
			Help: "Improvement suggestion requests",
		},
	)

	SentimentLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_sentiment_loads_total",
			Help: "Sentiment trend loads",
		},
		[]string{"result"}, // "ok", "no_data" or "error"
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"limit"},
	)

	BlockedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_blocked_requests_total",
			Help: "Total blocked requests",
		},
		[]string{"reason"},
	)
)

// InstrumentTransport wraps rt so every backend round trip is counted and
// timed. A nil rt wraps http.DefaultTransport.
func InstrumentTransport(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperCounter(BackendRequestsTotal,
		promhttp.InstrumentRoundTripperDuration(BackendRequestDuration, rt))
}
