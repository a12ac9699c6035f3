package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IngestRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_requests_total",
		Help: "Ingest requests by event kind.",
	}, []string{"kind"})
	EventsStored = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_stored_total",
		Help: "Events persisted by kind.",
	}, []string{"kind"})
	EventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_dropped_total",
		Help: "Events not persisted, by kind and reason.",
	}, []string{"kind", "reason"})
	ReportRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_requests_total",
		Help: "Analytics report requests by window and outcome.",
	}, []string{"window", "outcome"})
	ReportDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "report_duration_seconds",
		Help:    "Time spent building analytics reports.",
		Buckets: prometheus.DefBuckets,
	})
	LoginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_login_attempts_total",
		Help: "Admin login attempts by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(IngestRequests, EventsStored, EventsDropped, ReportRequests, ReportDuration, LoginAttempts)
}

func Handler(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}
