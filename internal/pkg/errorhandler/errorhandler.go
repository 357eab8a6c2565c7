package errorhandler

import (
	"context"
	"net/http"

	"github.com/lumenai/companion-api/internal/pkg/logger"
	"github.com/lumenai/companion-api/internal/pkg/response"
)

// HandleError logs err with the request-scoped logger and writes a generic
// error body. The underlying error never reaches the client.
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	event := logger.FromContext(ctx).Error().
		Str("error_code", code).
		Int("status_code", status)
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(message)

	response.Error(w, status, code, message)
}

// Internal is HandleError for unexpected failures.
func Internal(ctx context.Context, w http.ResponseWriter, op string, err error) {
	logger.FromContext(ctx).Error().Err(err).Str("operation", op).Msg("Request failed")
	response.InternalError(w)
}

// LogValidationError logs validation errors with details
func LogValidationError(ctx context.Context, fieldErrors map[string]string) {
	logger.FromContext(ctx).Warn().
		Interface("validation_errors", fieldErrors).
		Msg("Validation error")
}

// LogExternalServiceError logs errors from external service calls
func LogExternalServiceError(ctx context.Context, service, operation string, err error) {
	logger.FromContext(ctx).Error().
		Str("external_service", service).
		Str("operation", operation).
		Err(err).
		Msg("External service error")
}
