package httpapi

import (
	"crypto/subtle"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/roniherschmann/biolink/internal/metrics"
)

const sessionName = "admin-session"

// SessionGate guards the analytics endpoint with a password login backed by
// a signed cookie session.
type SessionGate struct {
	store    *sessions.CookieStore
	password string
}

// NewSessionGate builds the gate. An empty key generates a random one, so
// sessions do not survive a restart. An empty password rejects every login.
func NewSessionGate(password, key string, secure bool) *SessionGate {
	hashKey := []byte(key)
	if key == "" {
		log.Warn().Msg("ADMIN_SESSION_KEY not set, generating an ephemeral session key")
		hashKey = securecookie.GenerateRandomKey(32)
	}
	if password == "" {
		log.Warn().Msg("ADMIN_PASSWORD not set, admin login is disabled")
	}

	store := sessions.NewCookieStore(hashKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400, // 24 hours
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionGate{store: store, password: password}
}

func (g *SessionGate) Authorized(r *http.Request) bool {
	session, err := g.store.Get(r, sessionName)
	if err != nil {
		return false
	}
	auth, ok := session.Values["authenticated"].(bool)
	return ok && auth
}

type loginReq struct {
	Password string `json:"password"`
}

func (g *SessionGate) checkPassword(got string) bool {
	if g.password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(g.password)) == 1
}

func (g *SessionGate) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(io.LimitReader(r.Body, 4<<10)).Decode(&req); err != nil {
		metrics.LoginAttempts.WithLabelValues("bad_request").Inc()
		writeJSON(w, errorResp{Error: "Invalid request body"}, http.StatusBadRequest)
		return
	}
	if !g.checkPassword(req.Password) {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		hlog.FromRequest(r).Warn().Msg("admin login rejected")
		writeJSON(w, errorResp{Error: "Invalid password"}, http.StatusUnauthorized)
		return
	}

	// A stale or foreign cookie yields a fresh session alongside the error.
	session, _ := g.store.Get(r, sessionName)
	session.Values["authenticated"] = true
	if err := session.Save(r, w); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("save session")
		writeJSON(w, errorResp{Error: "Internal server error"}, http.StatusInternalServerError)
		return
	}
	metrics.LoginAttempts.WithLabelValues("ok").Inc()
	writeJSON(w, ack, http.StatusOK)
}

func (g *SessionGate) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := g.store.Get(r, sessionName)
	delete(session.Values, "authenticated")
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("expire session")
	}
	writeJSON(w, ack, http.StatusOK)
}
