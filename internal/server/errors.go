package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hyperifyio/postforge/internal/content"
)

// Stable error codes returned in the "code" field.
const (
	codeValidation      = "validation_failure"
	codeExtraction      = "extraction_failure"
	codeGeneration      = "generation_failure"
	codeImageGeneration = "image_generation_failure"
	codeTimeout         = "timeout"
	codeNotFound        = "not_found"
	codeMethod          = "method_not_allowed"
	codeRateLimited     = "too_many_requests"
	codeUnavailable     = "unavailable"
	codeInternal        = "internal_error"
)

// ErrorBody is the error envelope: {"error":{"code","message"}}.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// StatusFor maps a pipeline error onto an HTTP status and code. Deadlines
// win over the wrapping kind so a timed-out generation reads as 504.
func StatusFor(err error) (int, string) {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, codeTimeout
	}
	switch content.KindOf(err) {
	case content.KindValidation:
		return http.StatusBadRequest, codeValidation
	case content.KindExtraction:
		return http.StatusUnprocessableEntity, codeExtraction
	case content.KindGeneration:
		return http.StatusBadGateway, codeGeneration
	case content.KindImageGeneration:
		return http.StatusBadGateway, codeImageGeneration
	}
	return http.StatusInternalServerError, codeInternal
}

// fail writes the mapped error. Messages of unclassified errors are not
// echoed to the client.
func fail(c *gin.Context, err error) {
	status, code := StatusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		loggerFrom(c).Error().Err(err).Int("status", status).Str("code", code).Msg("api error")
		if code == codeInternal {
			msg = "internal server error"
		}
	}
	abortJSON(c, status, code, msg)
}

func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorBody{Error: ErrorDetail{
		Code:      code,
		Message:   msg,
		RequestID: c.Writer.Header().Get(requestIDHeader),
	}})
}
