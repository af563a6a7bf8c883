package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/englishhub/englishhub/internal/model"
	"github.com/englishhub/englishhub/internal/service"
)

type contextKeyAuth string

// SessionKey is the context key for the authenticated admin session.
const SessionKey contextKeyAuth = "admin_session"

// SessionValidator checks a bearer token. *service.SessionService
// implements it.
type SessionValidator interface {
	Authenticate(ctx context.Context, token string) (*service.Session, error)
}

// BearerToken returns the token of an "Authorization: Bearer" header, or "".
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireSession rejects requests without a valid admin session token with
// 401 and attaches the session to the context of the rest. Tokens are
// checked on every request; nothing is cached.
func RequireSession(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				writeAuthError(w, "Authentication required. Provide a Bearer session token.")
				return
			}
			sess, err := sessions.Authenticate(r.Context(), token)
			if err != nil {
				writeAuthError(w, "Invalid or expired session")
				return
			}
			ctx := context.WithValue(r.Context(), SessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession extracts the admin session from the context. Returns nil for
// unauthenticated requests.
func GetSession(ctx context.Context) *service.Session {
	if s, ok := ctx.Value(SessionKey).(*service.Session); ok {
		return s
	}
	return nil
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="englishhub"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{
		Error: model.ErrorDetail{Code: http.StatusUnauthorized, Message: message},
	})
}
