// Package audit writes one structured log entry per battery write operation.
package audit

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Event names recorded by the service.
const (
	EventBatteryCreate = "vpp.battery.create"
)

var (
	bearerTokenPattern = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9\-._~+/]+=*`)
	keyValuePattern    = regexp.MustCompile(`(?i)\b(token|secret|password|authorization)\s*[:=]\s*([^\s,;]+)`)
)

// Completion captures one finished write operation.
type Completion struct {
	Event        string
	RequestID    string
	CallerSub    string
	BatteryID    string
	BatteryName  string
	Result       string
	ErrorDetail  string
	Duration     time.Duration
	ResponseCode int
}

// Logger emits audit entries tagged component=audit.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates an audit logger.
func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Complete writes a single entry for c. A nil Logger is a no-op.
func (l *Logger) Complete(c Completion) {
	if l == nil {
		return
	}

	result := strings.TrimSpace(c.Result)
	if result == "" {
		result = "error"
	}
	event := strings.TrimSpace(c.Event)
	if event == "" {
		event = "unknown"
	}
	caller := strings.TrimSpace(c.CallerSub)
	if caller == "" {
		caller = "anonymous"
	}

	duration := c.Duration
	if duration < 0 {
		duration = 0
	}

	entry := l.logger.Info().
		Str("event", event).
		Str("request_id", strings.TrimSpace(c.RequestID)).
		Str("caller_subject", caller).
		Str("result", result).
		Int64("duration_ms", duration.Milliseconds())

	if c.BatteryID != "" {
		entry = entry.Str("battery_id", c.BatteryID)
	}
	if name := strings.TrimSpace(c.BatteryName); name != "" {
		entry = entry.Str("battery_name", name)
	}
	if c.ResponseCode > 0 {
		entry = entry.Int("response_code", c.ResponseCode)
	}
	if redacted := RedactSensitiveText(c.ErrorDetail); redacted != "" {
		entry = entry.Str("error_detail", redacted)
	}

	entry.Msg("write operation completed")
}

// RedactSensitiveText removes obvious secrets from free-text error details.
func RedactSensitiveText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	redacted := bearerTokenPattern.ReplaceAllString(trimmed, "Bearer [REDACTED]")
	redacted = keyValuePattern.ReplaceAllStringFunc(redacted, func(match string) string {
		if key, _, ok := strings.Cut(match, ":"); ok {
			return fmt.Sprintf("%s: [REDACTED]", strings.TrimSpace(key))
		}
		if key, _, ok := strings.Cut(match, "="); ok {
			return fmt.Sprintf("%s=[REDACTED]", strings.TrimSpace(key))
		}
		return "[REDACTED]"
	})
	return redacted
}
