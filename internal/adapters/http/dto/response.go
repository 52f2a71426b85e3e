package dto

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotegen/internal/domain"
	"github.com/jsamuelsen/quotegen/internal/platform/logging"
)

// MapDomainError maps err to a status code and error envelope.
// Errors outside the domain taxonomy become a generic 500.
func MapDomainError(err error) (int, *ErrorResponse) {
	var maxBytes *http.MaxBytesError

	switch {
	case err == nil:
		return http.StatusOK, nil

	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, NewErrorResponse(ErrorCodeTooLarge, "request body too large")

	case domain.IsValidation(err):
		resp := NewErrorResponse(ErrorCodeValidation, err.Error())

		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) && validationErr.Field != "" {
			resp.Error.Details = map[string]string{validationErr.Field: validationErr.Message}
		}

		return http.StatusBadRequest, resp

	case domain.IsFormat(err):
		return http.StatusBadRequest, NewErrorResponse(ErrorCodeFormat, err.Error())

	case domain.IsNoQuotes(err):
		placeholder := FromQuote(domain.PlaceholderQuote)
		resp := NewErrorResponse(ErrorCodeNoQuotes, domain.PlaceholderQuote.Text)
		resp.Error.Placeholder = &placeholder

		return http.StatusNotFound, resp

	case domain.IsUnavailable(err):
		return http.StatusServiceUnavailable, NewErrorResponse(ErrorCodeUnavailable, err.Error())

	case domain.IsStorage(err):
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeStorage, "unable to save quotes")

	default:
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeInternal, "an internal error occurred")
	}
}

// HandleError writes the mapped error response for err.
// 5xx errors are logged with their cause.
func HandleError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)
	resp.WithTraceID(GetTraceID(c))

	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("request failed",
			slog.Int("status", status),
			slog.Any("error", err),
			slog.String("trace_id", resp.TraceID),
		)
	}

	c.AbortWithStatusJSON(status, resp)
}

// RespondWithCode writes an error response for an adapter-level failure.
func RespondWithCode(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(HTTPStatusFromCode(code), NewErrorResponse(code, message).WithTraceID(GetTraceID(c)))
}

// RespondWithValidationErrors writes a 400 with field-level messages.
func RespondWithValidationErrors(c *gin.Context, fieldErrors map[string]string) {
	resp := NewErrorResponseWithDetails(ErrorCodeValidation, "request validation failed", fieldErrors)
	c.AbortWithStatusJSON(http.StatusBadRequest, resp.WithTraceID(GetTraceID(c)))
}

// RespondWithBindError writes a 400 for a request that failed to bind or validate.
func RespondWithBindError(c *gin.Context, err error) {
	if IsValidationError(err) {
		RespondWithValidationErrors(c, ValidationErrors(err))
		return
	}

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		RespondWithCode(c, ErrorCodeTooLarge, err.Error())
		return
	}

	RespondWithCode(c, ErrorCodeBadRequest, err.Error())
}

// GetTraceID returns the OpenTelemetry trace ID of the request, falling back to
// a "trace_id" context value and then to the X-Request-ID header.
func GetTraceID(c *gin.Context) string {
	if c.Request != nil {
		if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.HasTraceID() {
			return sc.TraceID().String()
		}
	}

	if v, ok := c.Get("trace_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}

		return ""
	}

	if c.Request != nil {
		return c.Request.Header.Get("X-Request-ID")
	}

	return ""
}
