package usecase

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/vivatalk/mediator/domain"
	"github.com/vivatalk/mediator/utils/log"
)

const (
	introInstruction = "Please introduce yourself and welcome me to our conversation. Be warm, professional, and set the tone for our interaction based on your role. Make it personal and engaging."

	standingInstruction = "\n\nIMPORTANT: Always provide unique, contextual responses. Never repeat the same response. Engage with the specific content of each message."

	// GenerationHistory is how many recent messages are sent upstream.
	GenerationHistory = 8
)

// CompletionGateway turns persona selections and conversation history into
// text-completion calls. Introduce and Converse never fail because of the
// provider: a canned persona reply replaces any upstream failure.
type CompletionGateway struct {
	personas *domain.PersonaRegistry
	llm      domain.Provider[domain.Completer]
}

func NewCompletionGateway(personas *domain.PersonaRegistry, llm domain.Provider[domain.Completer]) *CompletionGateway {
	return &CompletionGateway{personas: personas, llm: llm}
}

// Availability reports whether a text provider is configured, and why not.
func (g *CompletionGateway) Availability() (bool, string) {
	return g.llm.IsConfigured(), g.llm.Reason()
}

// Introduce returns the persona's opening message.
func (g *CompletionGateway) Introduce(ctx context.Context, personaID string) (string, error) {
	persona, err := g.personas.Get(personaID)
	if err != nil {
		return "", err
	}

	completer, err := g.llm.Get()
	if err != nil {
		log.WithCtx(ctx).Warn("Text provider not available, using canned introduction",
			zap.String("persona", persona.ID))
		return persona.Greeting, nil
	}

	intro, err := completer.Complete(ctx, domain.CompletionRequest{
		Messages: []domain.ChatMessage{
			{Role: domain.SystemRole, Content: persona.SystemPrompt},
			{Role: domain.UserRole, Content: introInstruction},
		},
		Temperature: 0.8,
		TopP:        0.9,
		MaxTokens:   300,
	})
	return g.orFallback(ctx, persona, "introduction", intro, err), nil
}

// Converse returns the persona's reply to history.
func (g *CompletionGateway) Converse(ctx context.Context, personaID string, history []domain.ChatMessage) (string, error) {
	persona, err := g.personas.Get(personaID)
	if err != nil {
		return "", err
	}

	completer, err := g.llm.Get()
	if err != nil {
		log.WithCtx(ctx).Error("Text provider not available, using fallback reply",
			zap.String("persona", persona.ID))
		return persona.Fallback, nil
	}

	reply, err := completer.Complete(ctx, conversationRequest(persona, history))
	return g.orFallback(ctx, persona, "reply", reply, err), nil
}

// ConverseStream sends the persona's reply to emit as it is generated. If
// the provider cannot be reached, or fails part way, the fallback reply is
// emitted instead so the stream always ends with usable text. The upstream
// stream is closed before ConverseStream returns. An error from emit aborts
// the stream and is returned.
func (g *CompletionGateway) ConverseStream(ctx context.Context, personaID string, history []domain.ChatMessage, emit func(string) error) error {
	persona, err := g.personas.Get(personaID)
	if err != nil {
		return err
	}

	completer, err := g.llm.Get()
	if err != nil {
		log.WithCtx(ctx).Error("Text provider not available, streaming fallback reply",
			zap.String("persona", persona.ID))
		return emit(persona.Fallback)
	}

	stream, err := completer.Stream(ctx, conversationRequest(persona, history))
	if err != nil {
		log.WithCtx(ctx).Error("Failed to open completion stream",
			zap.String("persona", persona.ID),
			zap.String("category", string(domain.CategoryOf(err))),
			zap.Error(err))
		return emit(persona.Fallback)
	}
	defer stream.Close()

	emitted := false
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithCtx(ctx).Error("Completion stream failed",
				zap.String("persona", persona.ID),
				zap.String("category", string(domain.CategoryOf(err))),
				zap.Error(err))
			return emit(persona.Fallback)
		}
		if chunk == "" {
			continue
		}
		if err := emit(chunk); err != nil {
			return err
		}
		emitted = true
	}

	if !emitted {
		log.WithCtx(ctx).Warn("Empty completion stream, using fallback reply", zap.String("persona", persona.ID))
		return emit(persona.Fallback)
	}
	log.WithCtx(ctx).Debug("Streaming response completed", zap.String("persona", persona.ID))
	return nil
}

func (g *CompletionGateway) orFallback(ctx context.Context, persona domain.Persona, what, text string, err error) string {
	if err != nil {
		log.WithCtx(ctx).Error("Completion failed, using fallback",
			zap.String("persona", persona.ID),
			zap.String("kind", what),
			zap.String("category", string(domain.CategoryOf(err))),
			zap.Error(err))
		return persona.Fallback
	}
	if strings.TrimSpace(text) == "" {
		log.WithCtx(ctx).Warn("Empty completion, using fallback",
			zap.String("persona", persona.ID),
			zap.String("kind", what))
		return persona.Fallback
	}
	log.WithCtx(ctx).Debug("Completion generated",
		zap.String("persona", persona.ID),
		zap.String("kind", what),
		zap.String("preview", log.Preview(text, 100)))
	return text
}

func conversationRequest(persona domain.Persona, history []domain.ChatMessage) domain.CompletionRequest {
	recent := history
	if len(recent) > GenerationHistory {
		recent = recent[len(recent)-GenerationHistory:]
	}

	messages := make([]domain.ChatMessage, 0, len(recent)+1)
	messages = append(messages, domain.ChatMessage{
		Role:    domain.SystemRole,
		Content: persona.SystemPrompt + standingInstruction,
	})
	messages = append(messages, recent...)

	return domain.CompletionRequest{
		Messages:         messages,
		Temperature:      0.7,
		TopP:             0.9,
		MaxTokens:        1024,
		FrequencyPenalty: 0.3,
		PresencePenalty:  0.3,
	}
}
