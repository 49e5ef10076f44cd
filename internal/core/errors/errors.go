package errors

import (
	"errors"
	"fmt"
)

// Domain errors - these represent invalid inputs to the core services
var (
	ErrInvalidWindow    = errors.New("report window is empty or inverted")
	ErrWindowTooLarge   = errors.New("report window exceeds the maximum span")
	ErrCategoryRequired = errors.New("category is required")
	ErrTicketIDRequired = errors.New("ticket ID is required")
)

// Acquisition errors - terminal failures of the remote helpdesk API
var (
	// ErrRouteNotFound marks a 404 whose body is not JSON: the base URL or
	// route is misconfigured, retrying would only burn quota.
	ErrRouteNotFound = errors.New("remote endpoint not found: response is not JSON, check the API base URL")

	// ErrRetriesExhausted wraps the last transient failure after all
	// retry attempts were spent.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// Category classifies a remote API failure per the error-handling design:
// transient failures are retried, configuration and authorization failures
// are terminal, partial failures degrade to empty results.
type Category int

const (
	CategoryTransient Category = iota
	CategoryConfiguration
	CategoryAuthorization
	CategoryNotFound
	CategoryAPI
)

func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryConfiguration:
		return "configuration"
	case CategoryAuthorization:
		return "authorization"
	case CategoryNotFound:
		return "not_found"
	default:
		return "api"
	}
}

// APIError is a classified failure response from the remote helpdesk API.
type APIError struct {
	StatusCode int
	Category   Category
	Message    string

	// RetryAfter is the server-provided backoff in seconds for 429/503
	// responses; zero when the header was absent.
	RetryAfter int
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote API error %d (%s): %s", e.StatusCode, e.Category, e.Message)
	}
	return fmt.Sprintf("remote API error %d (%s)", e.StatusCode, e.Category)
}

// IsTransient reports whether the failure is expected to succeed on retry.
func (e *APIError) IsTransient() bool {
	return e.Category == CategoryTransient
}

// NewAPIError classifies a non-success status into an APIError.
func NewAPIError(statusCode int, message string) *APIError {
	e := &APIError{StatusCode: statusCode, Message: message, Category: CategoryAPI}
	switch {
	case statusCode == 429 || statusCode == 503:
		e.Category = CategoryTransient
	case statusCode == 401 || statusCode == 403:
		e.Category = CategoryAuthorization
	case statusCode == 404:
		e.Category = CategoryNotFound
	}
	return e
}

// AsAPIError unwraps err into an APIError if it carries one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsAuthorization reports whether err is a 401/403 from the remote API.
func IsAuthorization(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Category == CategoryAuthorization
}
