package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StatusOverloaded is the status the Anthropic API uses for an overloaded endpoint.
const StatusOverloaded = 529

// ConfigError reports a missing key or model. It is raised before any
// network call is made.
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("llm is not configured: %s is required", e.Field)
}

// APIError is a non-success response from the completion endpoint.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("llm api error (status %d, %s): %s", e.Status, e.Type, e.Message)
	}
	return fmt.Sprintf("llm api error (status %d): %s", e.Status, e.Message)
}

func (e *APIError) overloaded() bool {
	return e.Status == StatusOverloaded ||
		e.Type == "overloaded_error" ||
		strings.Contains(strings.ToLower(e.Message), "overloaded")
}

// OverloadedError is returned once the retry budget is spent.
type OverloadedError struct {
	Attempts int
	Last     error
}

func (e *OverloadedError) Error() string {
	return fmt.Sprintf("llm endpoint overloaded after %d attempts", e.Attempts)
}

func (e *OverloadedError) Unwrap() error {
	return e.Last
}

// IsOverloaded reports whether err is an overload signal or an exhausted retry.
func IsOverloaded(err error) bool {
	var oe *OverloadedError
	if errors.As(err, &oe) {
		return true
	}
	var ae *APIError
	return errors.As(err, &ae) && ae.overloaded()
}

// HTTPStatus maps an llm error to the status the dashboard API should return.
func HTTPStatus(err error) int {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return http.StatusServiceUnavailable
	}
	var oe *OverloadedError
	var ae *APIError
	if errors.As(err, &oe) || errors.As(err, &ae) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// userMessage is the short Korean text shown in a channel slot on failure.
func userMessage(err error) string {
	var ce *ConfigError
	var oe *OverloadedError
	var ae *APIError
	switch {
	case errors.As(err, &ce):
		return "API 키가 설정되지 않았습니다"
	case errors.As(err, &oe):
		return "AI 서버가 혼잡합니다. 잠시 후 다시 시도해 주세요"
	case errors.As(err, &ae):
		return fmt.Sprintf("API 오류 (%d): %s", ae.Status, ae.Message)
	default:
		return err.Error()
	}
}
