// Package client provides a typed HTTP client SDK for the battery service.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vpp-platform/battery-service/pkg/types"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxRetries  = 3
	batteriesPath      = "/vpp/v1/batteries"
	batteriesRangePath = "/vpp/v1/batteries/range"
)

// Config holds battery client configuration.
type Config struct {
	// BaseURL is the root URL of the battery API (for example: http://localhost:8080).
	BaseURL string
	// Token is the bearer token used for API requests.
	Token string
	// Timeout is the per-request timeout. Defaults to 30s.
	Timeout time.Duration
	// MaxRetries is the number of retry attempts for transient errors.
	// Defaults to 3; a negative value disables retries.
	MaxRetries int
	// HTTPClient overrides the underlying transport.
	HTTPClient *http.Client
}

// Client is the typed HTTP SDK for battery APIs.
type Client struct {
	http    *http.Client
	baseURL string
	cfg     Config
}

// ListBatteriesOptions configures GET /vpp/v1/batteries.
type ListBatteriesOptions struct {
	Limit     int
	Offset    int
	Sort      string
	Direction string
}

// RangeQuery holds the raw bounds of a range query. Capacity bounds are
// optional.
type RangeQuery struct {
	StartPostcode string
	EndPostcode   string
	StartCapacity string
	EndCapacity   string
}

// New creates a new battery client.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("client: BaseURL is required")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	cfg.BaseURL = baseURL

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		http:    httpClient,
		baseURL: baseURL,
		cfg:     cfg,
	}, nil
}

// CreateBattery registers a new battery.
func (c *Client) CreateBattery(
	ctx context.Context,
	req types.CreateBatteryRequest,
) (*types.Resource[types.Battery], error) {
	var result types.Resource[types.Battery]
	if err := c.do(ctx, http.MethodPost, batteriesPath, req, &result); err != nil {
		return nil, fmt.Errorf("creating battery: %w", err)
	}
	return &result, nil
}

// ListBatteries returns one page of batteries.
func (c *Client) ListBatteries(
	ctx context.Context,
	opts ListBatteriesOptions,
) (*types.ResourceList[types.Battery], error) {
	var result types.ResourceList[types.Battery]
	if err := c.do(ctx, http.MethodGet, buildListBatteriesPath(opts), nil, &result); err != nil {
		return nil, fmt.Errorf("listing batteries: %w", err)
	}
	return &result, nil
}

// GetBattery returns one battery by ID.
func (c *Client) GetBattery(ctx context.Context, id int64) (*types.Resource[types.Battery], error) {
	if id <= 0 {
		return nil, fmt.Errorf("battery id must be positive")
	}

	var result types.Resource[types.Battery]
	path := batteriesPath + "/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, fmt.Errorf("getting battery %d: %w", id, err)
	}
	return &result, nil
}

// QueryRange runs a postcode/capacity range query. An empty match is not an
// error; check Empty on the result.
func (c *Client) QueryRange(ctx context.Context, q RangeQuery) (*types.BatteryRangeResult, error) {
	var result types.BatteryRangeResult
	if err := c.do(ctx, http.MethodGet, buildRangePath(q), nil, &result); err != nil {
		return nil, fmt.Errorf("querying battery range: %w", err)
	}
	return &result, nil
}

func buildListBatteriesPath(opts ListBatteriesOptions) string {
	values := url.Values{}
	if opts.Limit > 0 {
		values.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		values.Set("offset", strconv.Itoa(opts.Offset))
	}
	if sort := strings.TrimSpace(opts.Sort); sort != "" {
		values.Set("sort", sort)
	}
	if direction := strings.TrimSpace(opts.Direction); direction != "" {
		values.Set("direction", direction)
	}
	if len(values) == 0 {
		return batteriesPath
	}
	return batteriesPath + "?" + values.Encode()
}

func buildRangePath(q RangeQuery) string {
	values := url.Values{}
	values.Set("startPostCode", strings.TrimSpace(q.StartPostcode))
	values.Set("endPostCode", strings.TrimSpace(q.EndPostcode))
	if v := strings.TrimSpace(q.StartCapacity); v != "" {
		values.Set("startCapacity", v)
	}
	if v := strings.TrimSpace(q.EndCapacity); v != "" {
		values.Set("endCapacity", v)
	}
	return batteriesRangePath + "?" + values.Encode()
}
