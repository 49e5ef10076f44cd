package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	mw "github.com/lorrc/helpdesk-metrics-backend/internal/adapters/primary/http/middleware"
	apperrors "github.com/lorrc/helpdesk-metrics-backend/internal/core/errors"
)

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	return mw.GetRequestID(ctx)
}

// ErrorResponse is the standard JSON error response format
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler with the given logger
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle processes an error and writes the appropriate HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	statusCode, response := h.mapDomainError(err)

	logAttrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status", statusCode,
		"error", err,
	}
	if requestID := GetRequestID(r.Context()); requestID != "" {
		logAttrs = append(logAttrs, "request_id", requestID)
	}
	if statusCode >= 500 {
		h.logger.Error("request failed", logAttrs...)
	} else {
		h.logger.Warn("request failed", logAttrs...)
	}

	WriteJSON(w, statusCode, response)
}

// mapDomainError converts domain and acquisition errors to HTTP responses.
// Upstream failures surface as gateway errors: the remote helpdesk API is a
// dependency of this service, never the caller's fault.
func (h *ErrorHandler) mapDomainError(err error) (int, ErrorResponse) {
	switch {
	// Invalid input
	case errors.Is(err, apperrors.ErrInvalidWindow):
		return http.StatusBadRequest, ErrorResponse{
			Error: "Report window is empty or inverted",
			Code:  "INVALID_WINDOW",
		}
	case errors.Is(err, apperrors.ErrWindowTooLarge):
		return http.StatusBadRequest, ErrorResponse{
			Error: "Report window exceeds the maximum span",
			Code:  "WINDOW_TOO_LARGE",
		}
	case errors.Is(err, apperrors.ErrTicketIDRequired):
		return http.StatusBadRequest, ErrorResponse{
			Error: "A valid ticket id is required",
			Code:  "TICKET_ID_REQUIRED",
		}
	case errors.Is(err, apperrors.ErrCategoryRequired):
		return http.StatusBadRequest, ErrorResponse{
			Error: "A non-empty category is required",
			Code:  "CATEGORY_REQUIRED",
		}

	// Upstream helpdesk API failures
	case errors.Is(err, apperrors.ErrRouteNotFound):
		return http.StatusBadGateway, ErrorResponse{
			Error: "The helpdesk API base URL appears to be misconfigured",
			Code:  "UPSTREAM_MISCONFIGURED",
		}
	case errors.Is(err, apperrors.ErrRetriesExhausted):
		return http.StatusGatewayTimeout, ErrorResponse{
			Error: "The helpdesk API did not recover within the retry budget",
			Code:  "UPSTREAM_UNAVAILABLE",
		}
	}

	if apiErr, ok := apperrors.AsAPIError(err); ok {
		switch apiErr.Category {
		case apperrors.CategoryAuthorization:
			return http.StatusBadGateway, ErrorResponse{
				Error: "The helpdesk API rejected this service's credentials",
				Code:  "UPSTREAM_UNAUTHORIZED",
			}
		case apperrors.CategoryNotFound:
			return http.StatusNotFound, ErrorResponse{
				Error: "The requested resource does not exist upstream",
				Code:  "NOT_FOUND",
			}
		default:
			return http.StatusBadGateway, ErrorResponse{
				Error: "The helpdesk API returned an unexpected error",
				Code:  "UPSTREAM_ERROR",
			}
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, ErrorResponse{
			Error: "The operation timed out or was canceled",
			Code:  "TIMEOUT",
		}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Error: "An unexpected error occurred",
		Code:  "INTERNAL_ERROR",
	}
}
