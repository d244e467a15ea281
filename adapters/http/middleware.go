package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/vivatalk/mediator/security"
	"github.com/vivatalk/mediator/utils/log"
)

// retryMessages tell the caller which action to retry later.
var retryMessages = map[string]string{
	"intro": "Please wait a moment before starting a new conversation.",
	"chat":  "Please wait a moment before sending another message.",
	"video": "Please wait a moment before creating another video conversation.",
}

// identifyClient tags the request context with the client identifier.
func identifyClient(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := context.WithValue(req.Context(), log.ClientIDKey, security.Identify(req))
		c.SetRequest(req.WithContext(ctx))
		return next(c)
	}
}

// GuardOrigin rejects requests whose Origin or Referer is not allow-listed.
func (h *ConversationHandler) GuardOrigin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		if !h.origins.IsAllowed(req) {
			log.WithCtx(req.Context()).Warn("Rejected request from disallowed origin",
				zap.String("origin", req.Header.Get(echo.HeaderOrigin)),
				zap.String("referer", req.Referer()))
			return security.RespondError(c, http.StatusForbidden, "Forbidden", "Request origin is not allowed.")
		}
		return next(c)
	}
}

// Limit applies store to the route, keyed by the client identifier.
func Limit(store *security.FixedWindow) echo.MiddlewareFunc {
	retry, ok := retryMessages[store.Class]
	if !ok {
		retry = "Please wait a moment before trying again."
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return security.Identify(c.Request()), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			log.WithCtx(c.Request().Context()).Warn("Rate limit exceeded",
				zap.String("class", store.Class),
				zap.String("limit", store.String()))
			return security.RespondError(c, http.StatusTooManyRequests, "Too many requests", retry)
		},
	})
}

// Authenticate verifies the bearer token when a verifier is configured and
// tags the request context with its subject. Requests without a token pass
// through anonymously.
func (h *ConversationHandler) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		subject, err := h.tokens.Authenticate(req.Header.Get(echo.HeaderAuthorization))
		if err != nil {
			log.WithCtx(req.Context()).Warn("Rejected access token", zap.Error(err))
			return security.RespondError(c, http.StatusUnauthorized, "Authentication required", "A valid access token is required.")
		}
		if subject != "" {
			c.SetRequest(req.WithContext(context.WithValue(req.Context(), log.SubjectKey, subject)))
		}
		return next(c)
	}
}

// guards is the per-route pipeline ahead of a conversation handler.
func (h *ConversationHandler) guards(store *security.FixedWindow) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{h.GuardOrigin, Limit(store), h.Authenticate}
}
