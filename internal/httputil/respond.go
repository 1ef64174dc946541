// Package httputil holds the HTTP response helpers, problem details and
// middleware shared by the battery API.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/vpp-platform/battery-service/pkg/types"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeProblem = "application/problem+json"
)

// RespondJSON writes v as a JSON body with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode JSON response")
	}
}

// RespondProblem writes an RFC 9457 problem response.
func RespondProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeProblem(w, types.ProblemDetail{
		Type:     "about:blank",
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	})
}

// RespondProblemf is RespondProblem with a formatted detail.
func RespondProblemf(w http.ResponseWriter, r *http.Request, status int, format string, args ...any) {
	RespondProblem(w, r, status, fmt.Sprintf(format, args...))
}

// RespondValidationProblem writes a 422 problem listing field errors.
func RespondValidationProblem(w http.ResponseWriter, r *http.Request, errs []types.ValidationError) {
	writeProblem(w, types.ProblemDetail{
		Type:     "about:blank",
		Title:    http.StatusText(http.StatusUnprocessableEntity),
		Status:   http.StatusUnprocessableEntity,
		Detail:   "request validation failed",
		Instance: r.URL.Path,
		Errors:   errs,
	})
}

func writeProblem(w http.ResponseWriter, problem types.ProblemDetail) {
	w.Header().Set("Content-Type", contentTypeProblem)
	w.WriteHeader(problem.Status)
	if err := json.NewEncoder(w).Encode(problem); err != nil {
		log.Warn().Err(err).Msg("failed to encode problem response")
	}
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields
// and trailing data.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxBytesErr.Limit)
		}
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
