package models

import (
	"fmt"
	"strings"
)

// ErrModelUnavailable indicates the provider endpoint could not serve the
// request at all (network failure, non-JSON proxy error, 5xx).
type ErrModelUnavailable struct {
	Provider string
	Status   int
	Body     string
	Cause    error
}

func (e *ErrModelUnavailable) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("model provider %s unavailable: %v", e.Provider, e.Cause)
	}
	return fmt.Sprintf("model provider %s unavailable: status %d: %s", e.Provider, e.Status, e.Body)
}

func (e *ErrModelUnavailable) Unwrap() error { return e.Cause }

// HandleError converts common SDK errors to user-friendly errors.
func HandleError(err error) error {
	if err == nil {
		return nil
	}

	errStr := strings.ToLower(err.Error())

	if containsAny(errStr, "401", "403", "unauthorized", "invalid api key", "api key", "forbidden") {
		return fmt.Errorf("authentication failed: %w", err)
	}

	if containsAny(errStr, "429", "rate limit", "quota", "too many requests") {
		return fmt.Errorf("rate limited: %w", err)
	}

	if containsAny(errStr, "context length", "too many tokens", "max tokens", "token limit") {
		return fmt.Errorf("context too long: %w", err)
	}

	if containsAny(errStr, "model not found", "404", "not found") {
		return fmt.Errorf("model not found: %w", err)
	}

	if containsAny(errStr, "connection", "eof", "timeout", "dial", "refused") {
		return fmt.Errorf("connection error: %w", err)
	}

	return err
}

// IsTransient reports whether an error is worth retrying with backoff:
// rate limits, transport failures, and server-side unavailability.
// Authentication, bad-request, and context-length errors are not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	if containsAny(errStr, "401", "403", "unauthorized", "forbidden", "invalid api key") {
		return false
	}
	if containsAny(errStr, "context length", "too many tokens", "token limit") {
		return false
	}

	return containsAny(errStr,
		"429", "rate limit", "quota", "too many requests",
		"500", "502", "503", "504", "overloaded", "unavailable",
		"connection", "eof", "timeout", "dial", "refused", "reset by peer",
	)
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
