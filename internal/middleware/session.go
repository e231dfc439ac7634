package middleware

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/session"

	"go.uber.org/zap"
)

type contextKey string

const (
	SessionIDKey  contextKey = "session_id"
	newSessionKey contextKey = "new_session"
)

// SessionResolver maps a cookie token to a live session
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (session.Session, error)
}

// SessionCookieConfig controls the cookie carrying the signed session token
type SessionCookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// SessionMiddleware resolves the anonymous cart session for every request,
// minting one on first contact, and refreshes the session cookie
func SessionMiddleware(resolver SessionResolver, cookie SessionCookieConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(cookie.Name); err == nil {
				token = c.Value
			}

			s, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				logger.Error("Failed to resolve session", zap.Error(err))
				RespondWithError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			if s.New {
				logger.Debug("New session", zap.String("session_id", s.ID))
			}

			http.SetCookie(w, &http.Cookie{
				Name:     cookie.Name,
				Value:    s.Token,
				Path:     "/",
				MaxAge:   int(cookie.MaxAge.Seconds()),
				HttpOnly: true,
				Secure:   cookie.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := WithSessionID(r.Context(), s.ID)
			if s.New {
				ctx = context.WithValue(ctx, newSessionKey, true)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithSessionID returns a copy of ctx carrying sessionID
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// IsNewSession reports whether the session in ctx was minted by this request
func IsNewSession(ctx context.Context) bool {
	isNew, _ := ctx.Value(newSessionKey).(bool)
	return isNew
}

// GetSessionID extracts the session ID from request context
func GetSessionID(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(SessionIDKey).(string)
	return sessionID, ok && sessionID != ""
}
