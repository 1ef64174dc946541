package server

import (
	"net/http"

	"github.com/vpp-platform/battery-service/internal/auth"
	"github.com/vpp-platform/battery-service/internal/httputil"
)

// requireAnyScope admits the request when the caller holds at least one of
// scopes.
func requireAnyScope(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				httputil.RespondProblem(w, r, http.StatusForbidden, "no claims in context")
				return
			}

			for _, scope := range scopes {
				if claims.HasScope(scope) {
					next.ServeHTTP(w, r)
					return
				}
			}
			httputil.RespondProblemf(w, r, http.StatusForbidden, "missing required scope: %s", scopes[0])
		})
	}
}

func callerSubject(r *http.Request) string {
	if subject := auth.SubjectFromContext(r.Context()); subject != "" {
		return subject
	}
	return "unknown"
}
