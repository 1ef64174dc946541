package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/vpp-platform/battery-service/pkg/types"
)

// APIError is a non-2xx response. Problem responses fill Title, Detail and
// Errors; range query failures fill Detail from their "error" field.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
	Errors     []types.ValidationError
}

func (e *APIError) Error() string {
	detail := e.Detail
	if detail == "" {
		detail = e.Title
	}
	if detail == "" {
		detail = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, detail)
}

// IsNotFound reports whether err is a 404 APIError.
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// IsConflict reports whether err is a 409 APIError.
func IsConflict(err error) bool {
	return statusOf(err) == http.StatusConflict
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// do sends one logical request, retrying network errors and 5xx answers
// with exponential backoff.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxInterval = 2 * time.Second

	maxTries := uint(1)
	if c.cfg.MaxRetries > 0 {
		maxTries += uint(c.cfg.MaxRetries)
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, c.attempt(ctx, method, path, payload, out)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(maxTries),
	)
	return err
}

func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := strings.TrimSpace(c.cfg.Token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := decodeAPIError(resp.StatusCode, raw)
		if resp.StatusCode >= http.StatusInternalServerError {
			return apiErr
		}
		return backoff.Permanent(apiErr)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return backoff.Permanent(fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

func decodeAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var body struct {
		types.ProblemDetail
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		apiErr.Detail = strings.TrimSpace(string(raw))
		return apiErr
	}
	apiErr.Title = body.Title
	apiErr.Detail = body.Detail
	apiErr.Errors = body.Errors
	if apiErr.Detail == "" {
		apiErr.Detail = body.Error
	}
	return apiErr
}
