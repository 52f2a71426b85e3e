package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/quotegen/internal/adapters/clients"
	"github.com/jsamuelsen/quotegen/internal/domain"
)

// maxErrorBody bounds how much of an error response is read for context.
const maxErrorBody = 4 << 10

// ErrorResponse is a remote error body in either nested
// ({"error":{"code","message"}}) or flat ({"code","message"}) form.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorDetail is the nested error object.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GetCode returns the nested code, falling back to the flat one.
func (e *ErrorResponse) GetCode() string {
	if e.Error.Code != "" {
		return e.Error.Code
	}

	return e.Code
}

// GetMessage returns the nested message, falling back to the flat one.
func (e *ErrorResponse) GetMessage() string {
	if e.Error.Message != "" {
		return e.Error.Message
	}

	return e.Message
}

// ParseErrorResponse decodes an error body.
// Returns nil when the body is absent, unparseable or carries neither code nor message.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&errResp); err != nil {
		return nil
	}

	if errResp.GetCode() == "" && errResp.GetMessage() == "" {
		return nil
	}

	return &errResp
}

// MapHTTPError translates a failed exchange into a domain.UnavailableError.
// clientErr takes precedence over resp. A 2xx response maps to nil.
func MapHTTPError(resp *http.Response, clientErr error, serviceName, operation string) error {
	if clientErr != nil {
		return mapClientError(clientErr, serviceName, operation)
	}

	if resp == nil {
		return domain.NewUnavailableError(serviceName, "no response received")
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	reason := defaultReason(resp.StatusCode, operation)
	if errResp := ParseErrorResponse(resp.Body); errResp != nil {
		if msg := errResp.GetMessage(); msg != "" {
			reason = fmt.Sprintf("%s: %s", reason, msg)
		}
	}

	return domain.NewUnavailableError(serviceName, reason)
}

func mapClientError(err error, serviceName, operation string) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(serviceName, "circuit breaker open during "+operation)
	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return domain.NewUnavailableError(serviceName, "max retries exceeded during "+operation)
	default:
		return domain.NewUnavailableError(serviceName, fmt.Sprintf("%s failed: %v", operation, err))
	}
}

func defaultReason(status int, operation string) string {
	switch status {
	case http.StatusNotFound:
		return operation + ": resource not found"
	case http.StatusTooManyRequests:
		return operation + ": rate limit exceeded"
	case http.StatusUnauthorized, http.StatusForbidden:
		return operation + ": access denied"
	case http.StatusServiceUnavailable:
		return operation + ": service temporarily unavailable"
	default:
		return fmt.Sprintf("%s failed with status %d", operation, status)
	}
}
