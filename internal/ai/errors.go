package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// Provider call failure kinds. Match them with errors.Is against an *APIError.
var (
	ErrAuth              = errors.New("authentication failed")
	ErrRateLimit         = errors.New("rate limited")
	ErrTimeout           = errors.New("request timed out")
	ErrTransport         = errors.New("transport failure")
	ErrRejected          = errors.New("request rejected")
	ErrEmptyResponse     = errors.New("empty response")
	ErrMalformedResponse = errors.New("malformed response")
)

// Configuration failure kinds. Any of them aborts startup.
var (
	ErrUnknownRole       = errors.New("unknown role")
	ErrDuplicateRole     = errors.New("duplicate role")
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidConfig     = errors.New("invalid agent config")
)

// APIError is returned by provider calls.
type APIError struct {
	Kind       error
	Provider   Provider
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		b.WriteString(string(e.Provider))
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Retryable reports whether the backoff loop may try the call again.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case ErrRateLimit, ErrTimeout, ErrTransport:
		return true
	default:
		return false
	}
}

// ConfigError is returned while building the agent registry.
type ConfigError struct {
	Kind     error
	Role     string
	Provider Provider
	Err      error
}

func (e *ConfigError) Error() string {
	msg := e.Kind.Error()
	if e.Role != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Role)
	}
	if e.Provider != "" {
		msg = fmt.Sprintf("%s (provider %s)", msg, e.Provider)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindForStatus maps an HTTP status code to a failure kind.
func KindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrAuth
	case status == http.StatusTooManyRequests:
		return ErrRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrTimeout
	case status >= 500:
		return ErrTransport
	case status >= 400:
		return ErrRejected
	default:
		return ErrTransport
	}
}

// NewStatusError builds an APIError from an HTTP status code.
func NewStatusError(provider Provider, status int, err error) *APIError {
	return &APIError{Kind: KindForStatus(status), Provider: provider, StatusCode: status, Err: err}
}

// Classify turns an arbitrary backend error into an APIError. SDKs that do
// not expose a typed status get their code sniffed from the message.
func Classify(provider Provider, err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &APIError{Kind: ErrTimeout, Provider: provider, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &APIError{Kind: ErrTimeout, Provider: provider, Err: err}
	}

	if status := StatusFromMessage(err.Error()); status != 0 {
		return NewStatusError(provider, status, err)
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "invalid api key"),
		strings.Contains(lower, "unauthorized"),
		strings.Contains(lower, "authentication_error"),
		strings.Contains(lower, "permission_error"),
		strings.Contains(lower, "permission denied"):
		return &APIError{Kind: ErrAuth, Provider: provider, Err: err}
	case strings.Contains(lower, "rate limit"),
		strings.Contains(lower, "rate_limit"),
		strings.Contains(lower, "too many requests"):
		return &APIError{Kind: ErrRateLimit, Provider: provider, Err: err}
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline"):
		return &APIError{Kind: ErrTimeout, Provider: provider, Err: err}
	}

	return &APIError{Kind: ErrTransport, Provider: provider, Err: err}
}

var sniffedStatuses = []int{
	http.StatusUnauthorized,
	http.StatusForbidden,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
	http.StatusRequestTimeout,
	http.StatusBadRequest,
	http.StatusNotFound,
}

// StatusFromMessage looks for a well-known HTTP status code in an error text.
func StatusFromMessage(msg string) int {
	lower := strings.ToLower(msg)
	for _, status := range sniffedStatuses {
		code := strconv.Itoa(status)
		for _, pattern := range []string{"status code: " + code, "status code " + code, "status: " + code, "status " + code, "http " + code} {
			if strings.Contains(lower, pattern) {
				return status
			}
		}
	}
	return 0
}

var (
	errEmptyRole = errors.New("role name is empty")
	errNoFactory = errors.New("no backend factory configured")
)
