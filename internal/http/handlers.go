package httpapi

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/roniherschmann/biolink/internal/config"
	"github.com/roniherschmann/biolink/internal/core"
	"github.com/roniherschmann/biolink/internal/metrics"
)

// maxIngestBody caps how much of an ingest body is read.
const maxIngestBody = 16 << 10

// Authorizer decides whether a request may read analytics.
type Authorizer interface {
	Authorized(r *http.Request) bool
}

// Pinger is the readiness probe for the event store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Router struct {
	cfg   config.Config
	svc   *core.Service
	agg   *core.Aggregator
	auth  Authorizer
	ready Pinger // nil when no store is configured
}

func NewRouter(cfg config.Config, svc *core.Service, agg *core.Aggregator, gate *SessionGate, ready Pinger) http.Handler {
	r := chi.NewRouter()
	// Logging middleware
	r.Use(middleware.RequestID)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, dur time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", dur).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	// An empty origin list allows any origin; the landing page may live elsewhere.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	api := &Router{
		cfg:   cfg,
		svc:   svc,
		agg:   agg,
		auth:  gate,
		ready: ready,
	}

	r.MethodFunc(http.MethodGet, "/healthz", api.handleHealth)
	r.MethodFunc(http.MethodGet, "/readyz", api.handleReady)

	// Metrics
	r.MethodFunc(http.MethodGet, "/metrics", metrics.Handler)

	// Public ingest endpoints
	r.Group(func(r chi.Router) {
		r.MethodFunc(http.MethodPost, "/api/track-visit", api.handleTrackVisit)
		r.MethodFunc(http.MethodPost, "/api/track-click", api.handleTrackClick)
	})

	// Admin
	r.Group(func(r chi.Router) {
		r.With(httprate.Limit(cfg.LoginRateLimit, cfg.LoginRateWindow, httprate.WithKeyFuncs(keyBySocket))).
			MethodFunc(http.MethodPost, "/api/admin/login", gate.handleLogin)
		r.MethodFunc(http.MethodDelete, "/api/admin/login", gate.handleLogout)
		r.MethodFunc(http.MethodGet, "/api/admin/analytics", api.handleAnalytics)
	})

	return r
}

type visitReq struct {
	UserAgent string `json:"userAgent"`
	Referrer  string `json:"referrer"`
}

type clickReq struct {
	LinkName  string `json:"linkName"`
	URL       string `json:"url"`
	UserAgent string `json:"userAgent"`
	Referrer  string `json:"referrer"`
}

type ackResp struct {
	Success bool `json:"success"`
}

var ack = ackResp{Success: true}

// Ingest handlers answer 200 {"success":true} whatever happens to the event,
// including bodies that do not parse.
func (rt *Router) handleTrackVisit(w http.ResponseWriter, r *http.Request) {
	metrics.IngestRequests.WithLabelValues(string(core.KindVisit)).Inc()

	var req visitReq
	if err := decodeBody(r, &req); err != nil {
		rt.logBadBody(r, core.KindVisit, err)
		writeJSON(w, ack, http.StatusOK)
		return
	}
	res := rt.svc.RecordVisit(r.Context(), r.Header, core.VisitInput{
		UserAgent:  req.UserAgent,
		Referrer:   req.Referrer,
		RemoteAddr: r.RemoteAddr,
	})
	rt.logIngest(r, res)
	writeJSON(w, ack, http.StatusOK)
}

func (rt *Router) handleTrackClick(w http.ResponseWriter, r *http.Request) {
	metrics.IngestRequests.WithLabelValues(string(core.KindClick)).Inc()

	var req clickReq
	if err := decodeBody(r, &req); err != nil {
		rt.logBadBody(r, core.KindClick, err)
		writeJSON(w, ack, http.StatusOK)
		return
	}
	res := rt.svc.RecordClick(r.Context(), r.Header, core.ClickInput{
		LinkName:   req.LinkName,
		URL:        req.URL,
		UserAgent:  req.UserAgent,
		Referrer:   req.Referrer,
		RemoteAddr: r.RemoteAddr,
	})
	rt.logIngest(r, res)
	writeJSON(w, ack, http.StatusOK)
}

func (rt *Router) logBadBody(r *http.Request, kind core.Kind, err error) {
	metrics.EventsDropped.WithLabelValues(string(kind), "bad_body").Inc()
	hlog.FromRequest(r).Warn().Err(err).Str("kind", string(kind)).Msg("unparseable ingest body")
}

func (rt *Router) logIngest(r *http.Request, res core.IngestResult) {
	kind := string(res.Kind)
	l := hlog.FromRequest(r)
	switch res.Outcome {
	case core.Stored:
		metrics.EventsStored.WithLabelValues(kind).Inc()
		l.Debug().Str("kind", kind).Int64("id", res.ID).Msg("event stored")
	case core.NotConfigured:
		metrics.EventsDropped.WithLabelValues(kind, string(res.Outcome)).Inc()
		l.Debug().Str("kind", kind).Msg("event store not configured, skipping")
	default:
		metrics.EventsDropped.WithLabelValues(kind, string(res.Outcome)).Inc()
		l.Warn().Err(res.Err).Str("kind", kind).Str("outcome", string(res.Outcome)).Msg("event dropped")
	}
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (rt *Router) handleReady(w http.ResponseWriter, r *http.Request) {
	if rt.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := rt.ready.Ping(ctx); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("readiness ping")
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// keyBySocket keys on the TCP peer and ignores forwarding headers.
func keyBySocket(r *http.Request) (string, error) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr, nil
	}
	return host, nil
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxIngestBody)).Decode(v)
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
