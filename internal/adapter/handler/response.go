package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/serial-registry/internal/core/domain"
	"github.com/rl1809/serial-registry/internal/core/service"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	BatchID   string `json:"batch_id,omitempty"`
	Committed *int   `json:"committed,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	body := APIError{Message: msg, Code: code}

	var genErr *service.GenerationError
	if errors.As(err, &genErr) {
		committed := genErr.Committed
		body.BatchID = genErr.BatchID
		body.Committed = &committed
	}
	c.JSON(status, ErrorEnvelope{Error: body})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// classify maps service errors onto an HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig):
		return http.StatusBadRequest, "invalid_config"
	case errors.Is(err, domain.ErrInvalidRange):
		return http.StatusBadRequest, "invalid_range"
	case errors.Is(err, service.ErrVerificationUnavailable):
		return http.StatusServiceUnavailable, "verification_unavailable"
	case errors.Is(err, service.ErrStatisticsUnavailable):
		return http.StatusServiceUnavailable, "statistics_unavailable"
	case errors.Is(err, service.ErrRetriesExhausted):
		return http.StatusServiceUnavailable, "retries_exhausted"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "timeout"
	case errors.Is(err, service.ErrGenerationFailed):
		return http.StatusServiceUnavailable, "generation_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
