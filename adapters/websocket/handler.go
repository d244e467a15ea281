package websocket

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vivatalk/mediator/security"
	"github.com/vivatalk/mediator/utils/log"
)

// Handler upgrades GET /conversation/ws and serves the connection until it
// closes.
func (s *Server) Handler(c echo.Context) error {
	req := c.Request()
	if !s.origins.IsAllowed(req) {
		log.WithCtx(req.Context()).Warn("Rejected websocket from disallowed origin",
			zap.String("origin", req.Header.Get(echo.HeaderOrigin)))
		return security.RespondError(c, http.StatusForbidden, "Forbidden", "Request origin is not allowed.")
	}

	subject, err := s.tokens.Authenticate(req.Header.Get(echo.HeaderAuthorization))
	if err != nil {
		log.WithCtx(req.Context()).Warn("Rejected websocket access token", zap.Error(err))
		return security.RespondError(c, http.StatusUnauthorized, "Authentication required", "A valid access token is required.")
	}

	conn, err := s.upgrader.Upgrade(c.Response(), req, nil)
	if err != nil {
		return err
	}

	client := NewClient(conn, uuid.NewString(), security.Identify(req), subject, s.handleTurn)
	s.hub.Register(client)
	defer s.hub.Unregister(client)

	client.Run()

	// Block until the connection is closed.
	<-client.Context().Done()
	return nil
}
