package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vpp-platform/battery-service/internal/httputil"
)

type contextKey string

const claimsContextKey contextKey = "auth.claims"

// Subjects assigned to callers that do not present a JWT.
const (
	DevSubject      = "dev-mode"
	InternalSubject = "internal"
)

// MiddlewareConfig configures JWTMiddleware.
type MiddlewareConfig struct {
	// Secret validates HS256 tokens.
	Secret []byte
	// InternalToken is a pre-shared bearer accepted with admin scope.
	InternalToken string
	// DevMode skips authentication and grants admin scope.
	DevMode bool
}

// WithClaims returns ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext extracts the authenticated claims.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	if ctx == nil {
		return nil, false
	}
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

// SubjectFromContext returns the caller subject, or "" when unauthenticated.
func SubjectFromContext(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.Subject
	}
	return ""
}

// ParseBearerToken extracts the token from an Authorization header value.
func ParseBearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// JWTMiddleware authenticates requests and stores claims in the context.
// Missing or invalid credentials answer 401.
func JWTMiddleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.DevMode {
				claims := &Claims{Scopes: []string{ScopeAdmin}}
				claims.Subject = DevSubject
				next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
				return
			}

			token := ParseBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="vpp"`)
				httputil.RespondProblem(w, r, http.StatusUnauthorized, "missing bearer token")
				return
			}

			if cfg.InternalToken != "" &&
				subtle.ConstantTimeCompare([]byte(token), []byte(cfg.InternalToken)) == 1 {
				claims := &Claims{Scopes: []string{ScopeAdmin}}
				claims.Subject = InternalSubject
				next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
				return
			}

			claims, err := ParseToken(token, cfg.Secret)
			if err != nil {
				log.Ctx(r.Context()).Debug().Err(err).Msg("rejected bearer token")
				w.Header().Set("WWW-Authenticate", `Bearer realm="vpp", error="invalid_token"`)
				httputil.RespondProblem(w, r, http.StatusUnauthorized, "invalid bearer token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}
