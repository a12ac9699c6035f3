package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/roniherschmann/biolink/internal/core"
	"github.com/roniherschmann/biolink/internal/metrics"
	"github.com/roniherschmann/biolink/internal/store"
)

type errorResp struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

const (
	msgNotConfigured = "Event store is not configured. Set DB_DSN to a SQLite path, a libsql:// URL or a postgres:// URL."
	msgSchemaMissing = "Analytics tables are missing. Run `biolink migrate` or start the server with AUTO_MIGRATE=true."
)

func (rt *Router) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	window := core.ParseWindow(r.URL.Query().Get("timeFilter"))
	if !rt.auth.Authorized(r) {
		metrics.ReportRequests.WithLabelValues(string(window), "unauthorized").Inc()
		writeJSON(w, errorResp{Error: "Unauthorized"}, http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), rt.cfg.ReportTimeout)
	defer cancel()

	start := time.Now()
	rep, err := rt.agg.Report(ctx, window)
	metrics.ReportDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.ReportRequests.WithLabelValues(string(window), "ok").Inc()
		writeJSON(w, rep, http.StatusOK)
	case errors.Is(err, store.ErrNotConfigured):
		metrics.ReportRequests.WithLabelValues(string(window), "not_configured").Inc()
		writeJSON(w, errorResp{Error: "SUPABASE_NOT_CONFIGURED", Message: msgNotConfigured}, http.StatusServiceUnavailable)
	case errors.Is(err, store.ErrSchemaMissing):
		metrics.ReportRequests.WithLabelValues(string(window), "schema_missing").Inc()
		hlog.FromRequest(r).Warn().Err(err).Msg("analytics tables missing")
		writeJSON(w, errorResp{Error: "DATABASE_NOT_SETUP", Message: msgSchemaMissing}, http.StatusServiceUnavailable)
	default:
		metrics.ReportRequests.WithLabelValues(string(window), "error").Inc()
		hlog.FromRequest(r).Error().Err(err).Str("window", string(window)).Msg("build report")
		writeJSON(w, errorResp{Error: "INTERNAL_ERROR", Message: err.Error()}, http.StatusInternalServerError)
	}
}
