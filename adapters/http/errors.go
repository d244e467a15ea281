package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vivatalk/mediator/domain"
	"github.com/vivatalk/mediator/security"
	"github.com/vivatalk/mediator/utils/log"
)

// failure holds the user-facing labels of one gateway.
type failure struct {
	unavailable string
	failed      string
}

var (
	textFailure = failure{
		unavailable: "Conversation service is not available",
		failed:      "Failed to generate response",
	}
	videoFailure = failure{
		unavailable: "Video conversations are not available",
		failed:      "Failed to create video conversation",
	}
)

// statusFor maps a gateway error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownPersona):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusServiceUnavailable
	}

	var pe *domain.ProviderError
	if !errors.As(err, &pe) {
		return http.StatusInternalServerError
	}
	switch pe.Category {
	case domain.CategoryAuth, domain.CategoryNetwork:
		return http.StatusServiceUnavailable
	case domain.CategoryRateLimited:
		return http.StatusTooManyRequests
	case domain.CategoryTimeout:
		return http.StatusGatewayTimeout
	case domain.CategoryContractViolation:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// gatewayFailure logs err in full and answers with a generic message.
func (h *ConversationHandler) gatewayFailure(ctx context.Context, c echo.Context, err error, f failure) error {
	status := statusFor(err)
	log.WithCtx(ctx).Error("Gateway call failed",
		zap.Int("status", status),
		zap.String("category", string(domain.CategoryOf(err))),
		zap.Error(err))

	switch status {
	case http.StatusBadRequest:
		re := security.UnknownPersona(h.personas)
		return security.RespondError(c, status, re.Label, re.Details)
	case http.StatusServiceUnavailable:
		details := "The service is temporarily unavailable. Please try again later."
		if errors.Is(err, domain.ErrNotConfigured) {
			details = "The service is not configured. Please contact support."
		}
		return security.RespondError(c, status, f.unavailable, details)
	case http.StatusTooManyRequests:
		return security.RespondError(c, status, "Service is busy", "The upstream service is handling too many requests. Please try again shortly.")
	case http.StatusGatewayTimeout:
		return security.RespondError(c, status, "Request timed out", "The upstream service took too long to respond. Please try again.")
	case http.StatusBadGateway:
		return security.RespondError(c, status, f.failed, "The upstream service returned an unexpected response.")
	}
	return security.RespondError(c, status, f.failed, "An unexpected error occurred. Please try again later.")
}

// ErrorHandler renders framework errors (unknown routes, body limit,
// recovered panics) with the same body as every other error.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	details := "An unexpected error occurred. Please try again later."
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" {
			details = msg
		}
	}
	label := http.StatusText(status)
	if label == "" {
		label = "Error"
	}

	if status >= http.StatusInternalServerError {
		log.WithCtx(c.Request().Context()).Error("Request failed", zap.Int("status", status), zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = security.RespondError(c, status, label, details)
	}
	if err != nil {
		log.WithCtx(c.Request().Context()).Error("Failed to write error response", zap.Error(err))
	}
}
