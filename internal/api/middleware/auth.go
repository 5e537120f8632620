package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/AdityaTeltia/lyzr-agent-craft/internal/crypto"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/models"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/store"
)

type contextKey string

const (
	UserContextKey    contextKey = "user"
	SessionContextKey contextKey = "session"
)

// SessionCookieName is the cookie holding the signed session token.
const SessionCookieName = "dashboard_session"

// AuthMiddleware gates pages on a signed-in session.
type AuthMiddleware struct {
	signer   *crypto.Signer
	sessions store.SessionStore
	users    store.UserStore
	signIn   http.Handler
}

// NewAuthMiddleware creates a new auth middleware. signIn renders the
// surface shown to unauthenticated visitors.
func NewAuthMiddleware(signer *crypto.Signer, sessions store.SessionStore, users store.UserStore, signIn http.Handler) *AuthMiddleware {
	return &AuthMiddleware{
		signer:   signer,
		sessions: sessions,
		users:    users,
		signIn:   signIn,
	}
}

// RequireSession serves next with the user in the request context, or the
// sign-in surface without invoking next.
func (m *AuthMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, session := m.Identify(r)
		if user == nil {
			m.signIn.ServeHTTP(w, r)
			return
		}

		zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("user_id", user.ID.String())
		})

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		ctx = context.WithValue(ctx, SessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Identify resolves the request's session cookie. Forged, expired and
// unknown sessions all yield nil.
func (m *AuthMiddleware) Identify(r *http.Request) (*models.User, *models.Session) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	logger := zerolog.Ctx(r.Context())

	sessionID, err := m.signer.Verify(cookie.Value)
	if err != nil {
		logger.Debug().Err(err).Msg("rejected session token")
		return nil, nil
	}

	session, err := m.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		logger.Error().Err(err).Msg("session lookup failed")
		return nil, nil
	}
	if session == nil {
		return nil, nil
	}

	user, err := m.users.GetUserByID(r.Context(), session.UserID)
	if err != nil {
		logger.Error().Err(err).Msg("user lookup failed")
		return nil, nil
	}
	if user == nil {
		return nil, nil
	}

	return user, session
}

// UserFromContext retrieves the signed-in user from the request context.
func UserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// SessionFromContext retrieves the current session from the request context.
func SessionFromContext(ctx context.Context) *models.Session {
	session, ok := ctx.Value(SessionContextKey).(*models.Session)
	if !ok {
		return nil
	}
	return session
}

// WithIdentity returns ctx carrying user and session, as RequireSession
// would set them.
func WithIdentity(ctx context.Context, user *models.User, session *models.Session) context.Context {
	ctx = context.WithValue(ctx, UserContextKey, user)
	return context.WithValue(ctx, SessionContextKey, session)
}
