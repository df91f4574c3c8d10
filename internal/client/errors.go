package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/musui/musui-server/internal/model"
)

// Category decides whether a failed call is retried.
type Category int

const (
	// Recoverable failures are retried with exponential backoff.
	Recoverable Category = iota
	// Irrecoverable failures are returned immediately.
	Irrecoverable
)

func (c Category) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// APIError is a classified failure of one API call. Underlying wraps the
// model sentinel matching the status so callers can use errors.Is.
type APIError struct {
	Category   Category
	StatusCode int
	Message    string
	Underlying error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] HTTP %d: %v", e.Category, e.StatusCode, e.Underlying)
	}
	return fmt.Sprintf("[%s] %v", e.Category, e.Underlying)
}

func (e *APIError) Unwrap() error { return e.Underlying }

// errorBody is the server's error envelope.
type errorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// classifyStatus maps a non-2xx response. 408, 429 and 5xx other than 503 are
// retried; everything else fails fast.
func classifyStatus(op string, status int, message string) *APIError {
	var sentinel error
	category := Irrecoverable
	switch {
	case status == http.StatusBadRequest, status == http.StatusRequestEntityTooLarge:
		sentinel = model.ErrValidation
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		sentinel = model.ErrUnauthenticated
	case status == http.StatusNotFound:
		sentinel = model.ErrNotFound
	case status == http.StatusConflict:
		sentinel = model.ErrConflict
	case status == http.StatusServiceUnavailable:
		sentinel = model.ErrNotConfigured
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		sentinel = model.ErrStorage
		category = Recoverable
	default:
		sentinel = model.ErrStorage
		category = Recoverable
	}
	return &APIError{
		Category:   category,
		StatusCode: status,
		Message:    message,
		Underlying: fmt.Errorf("%s: %w: %s", op, sentinel, message),
	}
}

// networkError wraps a transport failure. The backend being unreachable is
// treated like a storage failure and retried.
func networkError(op string, err error) *APIError {
	return &APIError{
		Category:   Recoverable,
		Underlying: fmt.Errorf("%s: %w: %w", op, model.ErrStorage, err),
	}
}

func isIrrecoverable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Category == Irrecoverable
}

// ShouldFallback reports whether a failed remote write should be kept locally
// instead: the backend is down, not configured, or the caller is not signed in.
func ShouldFallback(err error) bool {
	return errors.Is(err, model.ErrStorage) ||
		errors.Is(err, model.ErrNotConfigured) ||
		errors.Is(err, model.ErrUnauthenticated)
}
