package llm

import (
	"context"

	"go.uber.org/zap"

	"github.com/vivatalk/mediator/config"
	"github.com/vivatalk/mediator/domain"
	"github.com/vivatalk/mediator/utils/log"
)

// NewProvider builds the text-completion client selected by cfg. A missing
// key or a client that fails to initialise yields an unconfigured provider.
func NewProvider(ctx context.Context, cfg config.LLMConfig) domain.Provider[domain.Completer] {
	name := cfg.Provider
	if name == "" {
		switch {
		case cfg.GroqAPIKey != "":
			name = groqProvider
		case cfg.GeminiAPIKey != "":
			name = geminiProvider
		default:
			log.WithCtx(ctx).Error("No text-completion API key configured, serving canned replies")
			return domain.Unconfigured[domain.Completer]("no text-completion API key configured")
		}
	}

	switch name {
	case groqProvider:
		client, err := NewGroqClient(GroqConfig{
			APIKey:  cfg.GroqAPIKey,
			BaseURL: cfg.GroqBaseURL,
			Model:   cfg.GroqModel,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			log.WithCtx(ctx).Error("Failed to initialise groq client", zap.Error(err))
			return domain.Unconfigured[domain.Completer]("groq client unavailable")
		}
		log.WithCtx(ctx).Info("Text completion via groq", zap.String("model", cfg.GroqModel))
		return domain.Configured[domain.Completer](client)

	case geminiProvider:
		if cfg.GeminiAPIKey == "" {
			log.WithCtx(ctx).Error("GEMINI_API_KEY is not configured")
			return domain.Unconfigured[domain.Completer]("gemini api key missing")
		}
		client, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Timeout)
		if err != nil {
			log.WithCtx(ctx).Error("Failed to initialise gemini client", zap.Error(err))
			return domain.Unconfigured[domain.Completer]("gemini client unavailable")
		}
		log.WithCtx(ctx).Info("Text completion via gemini", zap.String("model", cfg.GeminiModel))
		return domain.Configured[domain.Completer](client)
	}

	return domain.Unconfigured[domain.Completer]("unsupported provider " + name)
}
