package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vivatalk/mediator/domain"
	"github.com/vivatalk/mediator/security"
	"github.com/vivatalk/mediator/usecase"
	"github.com/vivatalk/mediator/utils/log"
)

const streamContentType = "text/plain; charset=utf-8"

// Limits holds one fixed-window limiter per action class.
type Limits struct {
	Intro *security.FixedWindow
	Chat  *security.FixedWindow
	Video *security.FixedWindow
}

// ClientCounter reports open long-lived connections.
type ClientCounter interface {
	ClientCount() int
}

type Options struct {
	Personas   *domain.PersonaRegistry
	Completion *usecase.CompletionGateway
	Video      *usecase.VideoGateway
	Origins    *security.OriginGuard
	Limits     Limits
	Tokens     *security.TokenVerifier
	APIKey     *security.APIKeyGuard
	Clients    ClientCounter
}

// ConversationHandler serves the conversation endpoints. Handlers only
// orchestrate: guard, limit, sanitize, validate, then call a gateway.
type ConversationHandler struct {
	personas   *domain.PersonaRegistry
	completion *usecase.CompletionGateway
	video      *usecase.VideoGateway
	origins    *security.OriginGuard
	limits     Limits
	tokens     *security.TokenVerifier
	apiKey     *security.APIKeyGuard
	clients    ClientCounter
}

func NewConversationHandler(opts Options) *ConversationHandler {
	return &ConversationHandler{
		personas:   opts.Personas,
		completion: opts.Completion,
		video:      opts.Video,
		origins:    opts.Origins,
		limits:     opts.Limits,
		tokens:     opts.Tokens,
		apiKey:     opts.APIKey,
		clients:    opts.Clients,
	}
}

type IntroResponse struct {
	Intro string `json:"intro"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

// Intro handles POST /conversation/intro.
func (h *ConversationHandler) Intro(c echo.Context) error {
	body, err := decodeBody(c)
	if err != nil {
		return reject(c, err)
	}
	personaID, err := h.conversationType(body)
	if err != nil {
		return reject(c, err)
	}

	ctx := withPersona(c.Request().Context(), personaID)
	log.WithCtx(ctx).Info("Generating introduction")

	intro, err := h.completion.Introduce(ctx, personaID)
	if err != nil {
		return h.gatewayFailure(ctx, c, err, textFailure)
	}
	return security.Respond(c, http.StatusOK, IntroResponse{Intro: intro})
}

// Chat handles POST /conversation/chat.
func (h *ConversationHandler) Chat(c echo.Context) error {
	personaID, history, err := h.chatRequest(c)
	if err != nil {
		return reject(c, err)
	}

	ctx := withPersona(c.Request().Context(), personaID)
	log.WithCtx(ctx).Info("Generating chat response", zap.Int("messages", len(history)))

	reply, err := h.completion.Converse(ctx, personaID, history)
	if err != nil {
		return h.gatewayFailure(ctx, c, err, textFailure)
	}
	return security.Respond(c, http.StatusOK, ChatResponse{Response: reply})
}

// Stream handles POST /conversation/stream. The reply is written as plain
// text and flushed chunk by chunk.
func (h *ConversationHandler) Stream(c echo.Context) error {
	personaID, history, err := h.chatRequest(c)
	if err != nil {
		return reject(c, err)
	}

	ctx := withPersona(c.Request().Context(), personaID)
	log.WithCtx(ctx).Info("Streaming chat response", zap.Int("messages", len(history)))

	res := c.Response()
	security.SetSecureHeaders(res.Header())
	res.Header().Set(echo.HeaderContentType, streamContentType)
	res.WriteHeader(http.StatusOK)

	err = h.completion.ConverseStream(ctx, personaID, history, func(chunk string) error {
		if _, err := res.Write([]byte(chunk)); err != nil {
			return err
		}
		res.Flush()
		return nil
	})
	if err != nil {
		log.WithCtx(ctx).Warn("Stream ended early", zap.Error(err))
	}
	return nil
}

// Video handles POST /conversation/video.
func (h *ConversationHandler) Video(c echo.Context) error {
	body, err := decodeBody(c)
	if err != nil {
		return reject(c, err)
	}
	personaID, err := h.conversationType(body)
	if err != nil {
		return reject(c, err)
	}
	userName, err := security.UserName(body)
	if err != nil {
		return reject(c, err)
	}

	ctx := withPersona(c.Request().Context(), personaID)
	log.WithCtx(ctx).Info("Creating video conversation")

	session, err := h.video.CreateSession(ctx, personaID, userName)
	if err != nil {
		return h.gatewayFailure(ctx, c, err, videoFailure)
	}

	log.WithCtx(ctx).Info("Video conversation created",
		zap.String("conversation_id", session.ConversationID),
		zap.String("status", session.Status))
	return security.Respond(c, http.StatusOK, session)
}

// HealthCheck handles GET /health.
func (h *ConversationHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "conversation-mediator",
	})
}

type ProviderStatus struct {
	Configured bool   `json:"configured"`
	Reason     string `json:"reason,omitempty"`
}

type StatusResponse struct {
	Completion       ProviderStatus `json:"completion"`
	Video            ProviderStatus `json:"video"`
	Personas         []string       `json:"personas"`
	WebsocketClients int            `json:"websocket_clients"`
	Timestamp        time.Time      `json:"timestamp"`
}

// Status handles GET /internal/status for operators holding the internal key.
func (h *ConversationHandler) Status(c echo.Context) error {
	if !h.apiKey.Valid(c.Request().Header.Get("X-API-Key")) {
		log.WithCtx(c.Request().Context()).Warn("Rejected internal status request")
		return security.RespondError(c, http.StatusUnauthorized, "Unauthorized", "A valid internal API key is required.")
	}

	resp := StatusResponse{
		Personas:  h.personas.IDs(),
		Timestamp: time.Now().UTC(),
	}
	resp.Completion.Configured, resp.Completion.Reason = h.completion.Availability()
	resp.Video.Configured, resp.Video.Reason = h.video.Availability()
	if h.clients != nil {
		resp.WebsocketClients = h.clients.ClientCount()
	}
	return security.Respond(c, http.StatusOK, resp)
}

func withPersona(ctx context.Context, personaID string) context.Context {
	return context.WithValue(ctx, log.PersonaKey, personaID)
}
