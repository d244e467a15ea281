package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vivatalk/mediator/domain"
	"github.com/vivatalk/mediator/security"
)

func decodeBody(c echo.Context) (map[string]any, error) {
	return security.DecodeJSON(c.Request().Body)
}

func (h *ConversationHandler) conversationType(body map[string]any) (string, error) {
	return security.ConversationType(body, h.personas)
}

func (h *ConversationHandler) chatRequest(c echo.Context) (string, []domain.ChatMessage, error) {
	body, err := decodeBody(c)
	if err != nil {
		return "", nil, err
	}
	personaID, err := h.conversationType(body)
	if err != nil {
		return "", nil, err
	}
	history, err := security.Messages(body)
	if err != nil {
		return "", nil, err
	}
	return personaID, history, nil
}

// reject answers a request shape error with 400.
func reject(c echo.Context, err error) error {
	var re *security.RequestError
	if errors.As(err, &re) {
		return security.RespondError(c, http.StatusBadRequest, re.Label, re.Details)
	}
	return err
}
