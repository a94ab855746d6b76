package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/rs/xid"
	"github.com/sabbir/taskboard/internal/auth"
	"github.com/sabbir/taskboard/internal/config"
	"github.com/sabbir/taskboard/internal/metrics"
	"github.com/sabbir/taskboard/internal/service"
)

const stateCookieName = "oauth_state"

// AuthHandler drives the OAuth handshake and turns its outcome into a
// credential for the active identity model: a signed token handed to the
// frontend (bearer mode) or a session cookie (session mode).
//
// Handshake failures never surface as JSON errors — the user agent is mid
// redirect, so every failure becomes a redirect to the frontend with an
// auth query flag.
type AuthHandler struct {
	mode     string
	provider auth.Provider
	users    *service.AuthService
	tokens   *auth.TokenService   // bearer mode only
	sessions *auth.SessionService // session mode only

	frontendOrigin string
	cookieSecure   bool

	metrics metrics.Recorder
	logger  *slog.Logger
}

// AuthHandlerConfig bundles the dependencies of NewAuthHandler; only the
// service matching the configured mode needs to be non-nil.
type AuthHandlerConfig struct {
	Mode           string
	Provider       auth.Provider
	Users          *service.AuthService
	Tokens         *auth.TokenService
	Sessions       *auth.SessionService
	FrontendOrigin string
	CookieSecure   bool
	Metrics        metrics.Recorder
	Logger         *slog.Logger
}

func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		mode:           cfg.Mode,
		provider:       cfg.Provider,
		users:          cfg.Users,
		tokens:         cfg.Tokens,
		sessions:       cfg.Sessions,
		frontendOrigin: cfg.FrontendOrigin,
		cookieSecure:   cfg.CookieSecure,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
	}
}

// HandleLogin starts the handshake: stores a single-use CSRF state nonce in
// a short-lived cookie and redirects the browser to the provider.
//
// HTTP: GET /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // long enough to approve, short enough to limit replay
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the handshake.
//
// HTTP: GET /auth/callback?code=xxx&state=yyy
//
// On success the user is resolved (or created) and, depending on the mode,
// either a bearer token is appended to the frontend redirect or a session
// cookie is set. On denial or any failure the browser is redirected to the
// frontend failure route — never shown a raw error page.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state missing or mismatched")
		h.failHandshake(w, r, "failed")
		return
	}

	// The state nonce is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		h.failHandshake(w, r, "denied")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.failHandshake(w, r, "failed")
		return
	}

	profile, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: exchange failed", slog.String("error", err.Error()))
		h.failHandshake(w, r, "failed")
		return
	}

	user, err := h.users.CompleteHandshake(r.Context(), profile)
	if err != nil {
		h.logger.Error("auth callback: handshake resolution failed", slog.String("error", err.Error()))
		h.failHandshake(w, r, "failed")
		return
	}

	switch h.mode {
	case config.ModeBearer:
		token, err := h.tokens.Issue(user.ID)
		if err != nil {
			h.logger.Error("auth callback: token issuance failed", slog.String("error", err.Error()))
			h.failHandshake(w, r, "failed")
			return
		}
		h.metrics.RecordHandshake("ok")
		http.Redirect(w, r,
			fmt.Sprintf("%s/auth/callback?token=%s", h.frontendOrigin, url.QueryEscape(token)),
			http.StatusSeeOther)

	case config.ModeSession:
		key, err := h.sessions.Establish(r.Context(), user.ID)
		if err != nil {
			h.logger.Error("auth callback: session establishment failed", slog.String("error", err.Error()))
			h.failHandshake(w, r, "failed")
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     auth.SessionCookieName,
			Value:    key,
			Path:     "/",
			MaxAge:   int(h.sessions.TTL().Seconds()),
			HttpOnly: true,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
		h.metrics.RecordHandshake("ok")
		http.Redirect(w, r, h.frontendOrigin+"/", http.StatusSeeOther)

	default:
		// Auth routes are only registered in bearer and session modes.
		h.failHandshake(w, r, "failed")
	}
}

// failHandshake records the outcome and sends the browser to the frontend
// failure route.
func (h *AuthHandler) failHandshake(w http.ResponseWriter, r *http.Request, outcome string) {
	h.metrics.RecordHandshake(outcome)
	http.Redirect(w, r, h.frontendOrigin+"/?auth="+outcome, http.StatusSeeOther)
}

// HandleMe returns the caller's resolved identity.
//
// HTTP: GET /auth/me (behind the active gate)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		// Unreachable behind the bearer/session gates; kept for safety.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	writeJSON(w, http.StatusOK, identity)
}

// HandleLogout destroys the caller's session and clears the cookie.
// Logging out without a live session is a no-op success; only a store
// failure during destroy is a 500.
//
// HTTP: GET /auth/logout (session mode only)
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if err := h.sessions.Destroy(r.Context(), cookie.Value); err != nil && !errors.Is(err, auth.ErrSessionAbsent) {
			h.logger.Error("logout: session destroy failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "failed to destroy session",
			})
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
