package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/openreel/gateway/internal/auth"
	"github.com/openreel/gateway/internal/logging"
)

type claimsCtxKey int

const sessionClaimsKey claimsCtxKey = iota

// ClaimsFromContext returns the validated session claims, if any.
func ClaimsFromContext(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(sessionClaimsKey).(auth.Claims)
	return claims, ok
}

func withClaims(ctx context.Context, claims auth.Claims) context.Context {
	return context.WithValue(ctx, sessionClaimsKey, claims)
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// RequireSession rejects requests that do not carry a valid access token.
func RequireSession(sessions SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := bearerToken(r)
			if token == "" {
				respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
				return
			}

			claims, err := sessions.Validate(ctx, token)
			if err != nil {
				logging.FromContext(ctx).Warn("access token rejected", "error", err)
				respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid or revoked session"})
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(ctx, claims)))
		})
	}
}

// OptionalSession attaches claims when a valid token is present and lets the
// request through either way. Signal updates use this: a browser whose
// session was already cleared still needs a render decision.
func OptionalSession(sessions SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if token := bearerToken(r); token != "" {
				if claims, err := sessions.Validate(ctx, token); err == nil {
					ctx = withClaims(ctx, claims)
				} else {
					logging.FromContext(ctx).Debug("ignoring invalid access token", "error", err)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
