package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"hr-service/internal/httputil"
)

type contextKey string

const (
	// SubjectKey is the context key for the token subject
	SubjectKey contextKey = "subject"
	// EmailKey is the context key for email
	EmailKey contextKey = "email"
)

// Claims injected when the demo token is presented
const (
	demoSubject = "demo|test-user"
	demoEmail   = "swagger@test.com"
)

// Middleware validates the Bearer token and adds claims to the request context.
// The static demo token is accepted as a shortcut for exercising protected
// routes from the documentation UI; anything else must be a valid JWT.
func Middleware(demoToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extractBearerToken(r)
			if err != nil {
				logger.Warn("missing or malformed authorization header", "path", r.URL.Path)
				httputil.RespondWithError(w, http.StatusUnauthorized, err.Error())
				return
			}

			if demoToken != "" && token == demoToken {
				ctx := context.WithValue(r.Context(), SubjectKey, demoSubject)
				ctx = context.WithValue(ctx, EmailKey, demoEmail)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			claims, err := ValidateAccessToken(token)
			if err != nil {
				logger.Warn("invalid token", "error", err)
				httputil.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), SubjectKey, claims.Subject)
			ctx = context.WithValue(ctx, EmailKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingAuthHeader
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMalformedAuthHeader
	}
	return parts[1], nil
}

// GetSubject extracts the token subject from context
func GetSubject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(SubjectKey).(string)
	return subject, ok
}

// GetEmail extracts email from context
func GetEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok
}
