package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sabbir/taskboard/internal/model"
	"github.com/sabbir/taskboard/internal/repository"
)

// SessionCookieName is the cookie carrying the opaque session key.
const SessionCookieName = "taskboard_session"

// Identity is the minimal identity-context value attached to authorized
// requests: the subject ID plus display fields. Handlers never see the full
// stored User through the request context, only this.
type Identity struct {
	ID        string `json:"id"`
	Login     string `json:"login"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl"`
}

// identityOf projects a stored user onto the request-scoped identity value.
func identityOf(u *model.User) *Identity {
	return &Identity{
		ID:        u.ID,
		Login:     u.Login,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}
}

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the identity value.
type contextKey string

const identityKey contextKey = "identity"

// IdentityFromContext returns the resolved identity of the request, if any.
// Under the open gate every request is anonymous and ok is false.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

// ScopeFromContext returns the owner scope for store operations: the
// resolved identity's ID, or the empty (global) scope for anonymous
// requests. This is the only bridge between the gate and the task store.
func ScopeFromContext(ctx context.Context) string {
	if id, ok := IdentityFromContext(ctx); ok {
		return id.ID
	}
	return ""
}

// Gate is the request-scoped access decision point. Exactly one variant is
// active per deployment, selected from configuration at startup. Its
// middleware either attaches a resolved Identity to the request context or
// rejects the request with a uniform 401 before any handler runs.
type Gate interface {
	Middleware(next http.Handler) http.Handler
}

// reject writes the uniform unauthorized response. Deliberately identical
// for every failure kind so a caller cannot learn which check failed.
func reject(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
}

// OpenGate is the no-identity model: every request passes with no identity
// attached, and every store operation runs in the global scope.
type OpenGate struct{}

var _ Gate = OpenGate{}

func (OpenGate) Middleware(next http.Handler) http.Handler {
	return next
}

// BearerGate is the stateless model: a signed token in the Authorization
// header is the caller's entire proof of identity.
type BearerGate struct {
	tokens *TokenService
	users  repository.UserRepository
	logger *slog.Logger
}

var _ Gate = (*BearerGate)(nil)

func NewBearerGate(tokens *TokenService, users repository.UserRepository, logger *slog.Logger) *BearerGate {
	return &BearerGate{tokens: tokens, users: users, logger: logger}
}

// Middleware extracts and verifies the "Authorization: Bearer <token>"
// header, then re-resolves the token's subject against the user store on
// every request — a subject that stops resolving invalidates all of its
// outstanding tokens immediately, with no cache to wait out.
func (g *BearerGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, ok := bearerToken(r)
		if !ok {
			reject(w)
			return
		}

		userID, err := g.tokens.Verify(tokenStr)
		if err != nil {
			g.logger.Debug("bearer gate: token rejected", slog.String("error", err.Error()))
			reject(w)
			return
		}

		user, err := g.users.GetUserByID(r.Context(), userID)
		if err != nil {
			g.logger.Debug("bearer gate: subject not resolved", slog.String("userID", userID))
			reject(w)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identityOf(user))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from the Authorization header.
// Absence of the header or any scheme other than Bearer is a miss.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// SessionGate is the stateful model: the request's session cookie is
// resolved through the session store back to its user.
type SessionGate struct {
	sessions *SessionService
	logger   *slog.Logger
}

var _ Gate = (*SessionGate)(nil)

func NewSessionGate(sessions *SessionService, logger *slog.Logger) *SessionGate {
	return &SessionGate{sessions: sessions, logger: logger}
}

func (g *SessionGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			reject(w)
			return
		}

		user, err := g.sessions.Restore(r.Context(), cookie.Value)
		if err != nil {
			if !errors.Is(err, ErrSessionAbsent) && !errors.Is(err, ErrSessionExpired) {
				g.logger.Error("session gate: restore failed", slog.String("error", err.Error()))
			}
			reject(w)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identityOf(user))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
