package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

func NewAPIErrorWithDetails(code int, message, details string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

var (
	ErrInvalidRequest = NewAPIError(http.StatusBadRequest, "Invalid request")
	ErrUnauthorized   = NewAPIError(http.StatusUnauthorized, "Unauthorized")
	ErrForbidden      = NewAPIError(http.StatusForbidden, "Forbidden")
	ErrNotFound       = NewAPIError(http.StatusNotFound, "Resource not found")
	ErrInternalServer = NewAPIError(http.StatusInternalServerError, "Internal server error")
)

var (
	ErrBackendUnavailable = NewAPIError(http.StatusBadGateway, "Document backend unreachable")
	ErrBackendTimeout     = NewAPIError(http.StatusGatewayTimeout, "Document backend timed out")
	ErrBackendRejected    = NewAPIError(http.StatusUnprocessableEntity, "Document backend rejected the request")
)

var (
	ErrSecondaryUnavailable = NewAPIError(http.StatusServiceUnavailable, "Secondary store not configured")
	ErrSessionExpired       = NewAPIError(http.StatusUnauthorized, "Session expired or not found")
)

func WrapError(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

func GetHTTPStatusFromError(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}

	msg := err.Error()
	if strings.Contains(msg, "not found") {
		return http.StatusNotFound
	}
	if strings.Contains(msg, "unauthorized") {
		return http.StatusUnauthorized
	}
	if strings.Contains(msg, "timeout") {
		return http.StatusGatewayTimeout
	}

	return http.StatusInternalServerError
}

func LogError(ctx context.Context, err error, message string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}

	fields["error"] = err.Error()

	Error(ctx, message, fields)
}
