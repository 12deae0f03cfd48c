package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrAuth          = errors.New("authentication error")
	ErrNetwork       = errors.New("network error")
	ErrTimeout       = errors.New("timeout")
)

// Wrap builds an error message that includes the step and operation while
// tagging it with marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, step, operation, message string, err error) error {
	detail := buildDetail(step, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureKind maps an error to the short label used for metrics and
// notifications.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrNetwork):
		return "network"
	default:
		return "external_tool"
	}
}

// Hint returns an operator-facing next step for a classified error.
func Hint(err error) string {
	switch FailureKind(err) {
	case "configuration":
		return "check config.toml and run `breathein config validate`"
	case "not_found":
		return "check asset and output directories"
	case "auth":
		return "re-run `breathein auth` to refresh YouTube credentials"
	case "timeout":
		return "raise the relevant timeout or check network reachability"
	case "network":
		return "check network connectivity"
	default:
		return "check ffmpeg output and logs"
	}
}

func buildDetail(step, operation, message string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{step, operation, message} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
