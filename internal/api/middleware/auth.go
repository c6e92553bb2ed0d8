package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/dvloznov/finance-insights/internal/logger"
)

// UserIDHeader carries the caller identity when header auth is enabled.
const UserIDHeader = "X-User-ID"

// TokenVerifier verifies Firebase ID tokens. *auth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseAuth requires a valid "Authorization: Bearer <id token>" header and
// stores the token's UID as the user ID.
func FirebaseAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				WriteError(w, http.StatusUnauthorized, "Missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				WriteError(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			token, err := verifier.VerifyIDToken(r.Context(), parts[1])
			if err != nil {
				log := logger.FromContext(r.Context())
				log.Warn().Err(err).Msg("Rejected ID token")
				WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), token.UID)))
		})
	}
}

// HeaderAuth trusts the X-User-ID header. Use only behind a trusted proxy or
// for local development.
func HeaderAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			WriteError(w, http.StatusUnauthorized, "Missing "+UserIDHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// WithUserID stores the authenticated user ID and tags the context logger with it.
func WithUserID(ctx context.Context, userID string) context.Context {
	ctx = logger.WithUser(ctx, userID)
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID returns the authenticated user ID, or "" when the request is anonymous.
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
