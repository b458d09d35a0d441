package middleware

import (
	"fmt"
	"net/http"
	"strings"

	authproviders "github.com/cbodonnell/matchrelay/pkg/auth/providers"
	"github.com/cbodonnell/matchrelay/pkg/log"
)

// TokenQueryParam carries the ID token for clients that cannot set headers,
// such as browser WebSocket clients.
const TokenQueryParam = "token"

// NewAuthMiddleware rejects requests without a valid ID token and stores the
// verified claims in the request context.
func NewAuthMiddleware(authProvider authproviders.AuthProvider) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idToken, err := parseToken(r)
			if err != nil {
				log.Debug("failed to parse token: %v", err)
				http.Error(w, "failed to parse token", http.StatusUnauthorized)
				return
			}

			claims, err := authProvider.VerifyToken(r.Context(), idToken)
			if err != nil {
				log.Warn("failed to verify ID token: %v", err)
				http.Error(w, "failed to verify ID token", http.StatusUnauthorized)
				return
			}

			ctx := authproviders.WithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseToken reads the token query parameter, falling back to the bearer token
// in the Authorization header.
func parseToken(r *http.Request) (string, error) {
	if token := r.URL.Query().Get(TokenQueryParam); token != "" {
		return token, nil
	}
	return parseBearerToken(r)
}

// parseBearerToken parses the bearer token from the Authorization header
func parseBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header is missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", fmt.Errorf("invalid Authorization header format")
	}

	return parts[1], nil
}
