package websocket

import (
	"bytes"
	"context"
	"errors"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vivatalk/mediator/domain"
	"github.com/vivatalk/mediator/security"
	"github.com/vivatalk/mediator/usecase"
	"github.com/vivatalk/mediator/utils/log"
)

// Server streams chat replies over websocket connections. Each inbound
// frame is one chat turn with the same body as POST /conversation/stream.
type Server struct {
	upgrader   websocket.Upgrader
	personas   *domain.PersonaRegistry
	completion *usecase.CompletionGateway
	origins    *security.OriginGuard
	limiter    *security.FixedWindow
	tokens     *security.TokenVerifier
	hub        *Hub
}

func NewServer(personas *domain.PersonaRegistry, completion *usecase.CompletionGateway, origins *security.OriginGuard, limiter *security.FixedWindow, tokens *security.TokenVerifier) *Server {
	return &Server{
		upgrader:   websocket.Upgrader{CheckOrigin: origins.IsAllowed},
		personas:   personas,
		completion: completion,
		origins:    origins,
		limiter:    limiter,
		tokens:     tokens,
		hub:        NewHub(),
	}
}

func (s *Server) GetHub() *Hub {
	return s.hub
}

// Shutdown closes every open connection.
func (s *Server) Shutdown() {
	s.hub.CloseAll()
}

// handleTurn validates one frame and streams the reply as delta frames
// followed by a done frame.
func (s *Server) handleTurn(c *Client, frame []byte) {
	ctx := c.Context()

	if allowed, _ := s.limiter.Allow(c.Identifier()); !allowed {
		log.WithCtx(ctx).Warn("Rate limit exceeded", zap.String("limit", s.limiter.String()))
		c.SendReply(Reply{
			Type:    ReplyError,
			Error:   "Too many requests",
			Details: "Please wait a moment before sending another message.",
		})
		return
	}

	personaID, history, err := s.parseTurn(frame)
	if err != nil {
		var re *security.RequestError
		if errors.As(err, &re) {
			c.SendReply(Reply{Type: ReplyError, Error: re.Label, Details: re.Details})
		}
		return
	}

	ctx = context.WithValue(ctx, log.PersonaKey, personaID)
	log.WithCtx(ctx).Info("Streaming chat response", zap.Int("messages", len(history)))

	err = s.completion.ConverseStream(ctx, personaID, history, func(chunk string) error {
		return c.SendReply(Reply{Type: ReplyDelta, Text: chunk})
	})
	if err != nil {
		log.WithCtx(ctx).Warn("Stream ended early", zap.Error(err))
		return
	}
	c.SendReply(Reply{Type: ReplyDone})
}

func (s *Server) parseTurn(frame []byte) (string, []domain.ChatMessage, error) {
	body, err := security.DecodeJSON(bytes.NewReader(frame))
	if err != nil {
		return "", nil, err
	}
	personaID, err := security.ConversationType(body, s.personas)
	if err != nil {
		return "", nil, err
	}
	history, err := security.Messages(body)
	if err != nil {
		return "", nil, err
	}
	return personaID, history, nil
}
