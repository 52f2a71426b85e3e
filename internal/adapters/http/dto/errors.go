// Package dto provides Data Transfer Objects for HTTP request/response handling.
package dto

import "net/http"

// ErrorResponse is the error envelope of every non-2xx API response.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	// Code is a machine-readable error code such as "FORMAT_ERROR".
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// Details carries field-level messages for validation errors.
	Details map[string]string `json:"details,omitempty"`

	// Placeholder is the quote shown when nothing matched the filter.
	Placeholder *QuoteResponse `json:"placeholder,omitempty"`
}

// Error codes.
const (
	ErrorCodeValidation  = "VALIDATION_ERROR"
	ErrorCodeFormat      = "FORMAT_ERROR"
	ErrorCodeBadRequest  = "BAD_REQUEST"
	ErrorCodeNoQuotes    = "NO_QUOTES"
	ErrorCodeNotFound    = "NOT_FOUND"
	ErrorCodeTooLarge    = "PAYLOAD_TOO_LARGE"
	ErrorCodeUnavailable = "SERVICE_UNAVAILABLE"
	ErrorCodeStorage     = "STORAGE_ERROR"
	ErrorCodeTimeout     = "TIMEOUT"
	ErrorCodeInternal    = "INTERNAL_ERROR"
)

// NewErrorResponse creates a new error response with the given code and message.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithDetails creates an error response with field details.
func NewErrorResponseWithDetails(code, message string, details map[string]string) *ErrorResponse {
	resp := NewErrorResponse(code, message)
	resp.Error.Details = details

	return resp
}

// WithTraceID sets the trace ID and returns e.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

// HTTPStatusFromCode maps error codes to HTTP status codes.
func HTTPStatusFromCode(code string) int {
	switch code {
	case ErrorCodeValidation, ErrorCodeFormat, ErrorCodeBadRequest:
		return http.StatusBadRequest
	case ErrorCodeNoQuotes, ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
