package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	apiRequestsTotal   *prometheus.CounterVec
	apiLatencySeconds  *prometheus.HistogramVec
	apiErrorsTotal     *prometheus.CounterVec
	eventsPublished    *prometheus.CounterVec
	websocketClients   prometheus.Gauge
	cacheLookupsTotal  *prometheus.CounterVec
	badgesAwardedTotal *prometheus.CounterVec
	submissionsTotal   *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projeval_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "projeval_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projeval_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		eventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projeval_events_published_total",
			Help: "Realtime events published, by type.",
		}, []string{"type"})

		websocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "projeval_websocket_clients_active",
			Help: "Currently connected realtime event subscribers.",
		})

		cacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projeval_cache_lookups_total",
			Help: "Redis cache lookups, by cache and result.",
		}, []string{"cache", "result"})

		badgesAwardedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projeval_badges_awarded_total",
			Help: "Badges awarded, by badge name.",
		}, []string{"badge"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projeval_submissions_total",
			Help: "Submissions accepted, by timeliness.",
		}, []string{"timeliness"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			eventsPublished,
			websocketClients,
			cacheLookupsTotal,
			badgesAwardedTotal,
			submissionsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublished
}

func WebsocketClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return websocketClients
}

func CacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return cacheLookupsTotal
}

func BadgesAwarded() *prometheus.CounterVec {
	RegisterMetrics()
	return badgesAwardedTotal
}

// Submissions counts accepted submissions labelled "on_time" or "late".
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}
