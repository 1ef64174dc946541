package httputil

import (
	"net/http"
)

// HealthHandler is the liveness probe.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// ReadinessHandler answers 200 while check succeeds and 503 otherwise.
func ReadinessHandler(check func(r *http.Request) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := check(r); err != nil {
			RespondProblem(w, r, http.StatusServiceUnavailable, "database is not reachable")
			return
		}
		RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
}

// VersionHandler reports build information.
func VersionHandler(version, commit, buildDate string) http.Handler {
	body := map[string]string{
		"version":   version,
		"commit":    commit,
		"buildDate": buildDate,
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RespondJSON(w, http.StatusOK, body)
	})
}

// OpenAPIHandler serves the embedded OpenAPI document.
func OpenAPIHandler(spec []byte) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(spec) == 0 {
			RespondProblem(w, r, http.StatusNotFound, "OpenAPI document is not available")
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(spec)
	})
}

const swaggerPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Battery API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({ url: "/api/openapi.yaml", dom_id: "#swagger-ui" });
  </script>
</body>
</html>
`

// SwaggerHandler serves a Swagger UI page bound to /api/openapi.yaml.
func SwaggerHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(swaggerPage))
	})
}
