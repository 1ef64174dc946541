//go:build smoke

package client_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpp-platform/battery-service/pkg/client"
	"github.com/vpp-platform/battery-service/pkg/types"
)

const (
	defaultBatteryURL    = "http://127.0.0.1:8080"
	defaultHealthTimeout = 10 * time.Second
)

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func waitForHealthy(t *testing.T, baseURL string, timeout time.Duration) {
	t.Helper()

	httpClient := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(timeout)
	lastError := "no attempt"
	for time.Now().Before(deadline) {
		resp, err := httpClient.Get(strings.TrimRight(baseURL, "/") + "/health")
		if err == nil {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
			lastError = fmt.Sprintf("status=%d body=%q", resp.StatusCode, strings.TrimSpace(string(body)))
		} else {
			lastError = err.Error()
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("battery service not healthy within %s: %s", timeout, lastError)
}

// uniquePostcode returns an 18-digit postcode no fixture data uses.
func uniquePostcode(offset int64) string {
	return fmt.Sprintf("9%017d", time.Now().UnixNano()%1e16+offset)
}

func TestSmoke_BatteryLifecycle(t *testing.T) {
	baseURL := envOrDefault("VPP_TEST_BATTERY_URL", defaultBatteryURL)
	waitForHealthy(t, baseURL, defaultHealthTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	sdk, err := client.New(client.Config{
		BaseURL:    baseURL,
		Token:      os.Getenv("VPP_INTERNAL_TOKEN"),
		Timeout:    5 * time.Second,
		MaxRetries: 1,
	})
	require.NoError(t, err)

	low := uniquePostcode(0)
	lowValue, err := strconv.ParseInt(low, 10, 64)
	require.NoError(t, err)
	high := strconv.FormatInt(lowValue+1, 10)

	suffix := time.Now().UnixNano()
	first, err := sdk.CreateBattery(ctx, types.CreateBatteryRequest{
		Name: fmt.Sprintf("smoke-a-%d", suffix), Postcode: low, Capacity: 10000,
	})
	require.NoError(t, err)
	second, err := sdk.CreateBattery(ctx, types.CreateBatteryRequest{
		Name: fmt.Sprintf("smoke-b-%d", suffix), Postcode: high, Capacity: 5000,
	})
	require.NoError(t, err)

	_, err = sdk.CreateBattery(ctx, types.CreateBatteryRequest{
		Name: first.Spec.Name, Postcode: low, Capacity: 1,
	})
	require.Error(t, err)
	assert.True(t, client.IsConflict(err))

	id, err := strconv.ParseInt(first.Metadata.ID, 10, 64)
	require.NoError(t, err)
	got, err := sdk.GetBattery(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first.Spec, got.Spec)

	result, err := sdk.QueryRange(ctx, client.RangeQuery{StartPostcode: low, EndPostcode: high})
	require.NoError(t, err)
	assert.Equal(t, []string{first.Spec.Name, second.Spec.Name}, result.Batteries)
	assert.Equal(t, int64(15000), result.TotalCapacity)
	assert.InDelta(t, 7500.0, result.AverageCapacity, 1e-9)

	filtered, err := sdk.QueryRange(ctx, client.RangeQuery{StartPostcode: low, EndPostcode: high, StartCapacity: "6000"})
	require.NoError(t, err)
	assert.Equal(t, []string{first.Spec.Name}, filtered.Batteries)

	empty, err := sdk.QueryRange(ctx, client.RangeQuery{StartPostcode: high, EndPostcode: high, EndCapacity: "1"})
	require.NoError(t, err)
	assert.True(t, empty.Empty())
	assert.Equal(t, types.RangeEmptyMessage, empty.Message)
}
