package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/vivatalk/mediator/adapters/avatar"
	"github.com/vivatalk/mediator/adapters/hasher"
	httpadapter "github.com/vivatalk/mediator/adapters/http"
	"github.com/vivatalk/mediator/adapters/llm"
	"github.com/vivatalk/mediator/adapters/websocket"
	"github.com/vivatalk/mediator/config"
	"github.com/vivatalk/mediator/domain"
	"github.com/vivatalk/mediator/security"
	"github.com/vivatalk/mediator/usecase"
	"github.com/vivatalk/mediator/utils/log"
)

func main() {
	gotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.L().Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	personas := domain.DefaultPersonas()
	completion := usecase.NewCompletionGateway(personas, llm.NewProvider(ctx, cfg.LLM))
	video := usecase.NewVideoGateway(personas, avatar.NewProvider(ctx, cfg.Avatar), cfg.Avatar.ReplicaID, completion)

	origins := security.NewOriginGuard(cfg.AllowedOrigins)
	limits := httpadapter.Limits{
		Intro: security.NewFixedWindow("intro", cfg.IntroLimit.Window, cfg.IntroLimit.Max),
		Chat:  security.NewFixedWindow("chat", cfg.ChatLimit.Window, cfg.ChatLimit.Max),
		Video: security.NewFixedWindow("video", cfg.VideoLimit.Window, cfg.VideoLimit.Max),
	}

	if !cfg.Production && cfg.InternalAPIKey == "" {
		log.L().Warn("INTERNAL_API_KEY not set, internal endpoints are open in development")
	}

	tokens := security.NewTokenVerifier(cfg.AuthJWTSecret)
	server := websocket.NewServer(personas, completion, origins, limits.Chat, tokens)

	handler := httpadapter.NewConversationHandler(httpadapter.Options{
		Personas:   personas,
		Completion: completion,
		Video:      video,
		Origins:    origins,
		Limits:     limits,
		Tokens:     tokens,
		APIKey:     security.NewAPIKeyGuard(hasher.New(), cfg.InternalAPIKey, cfg.Production),
		Clients:    server.GetHub(),
	})

	e := httpadapter.NewEcho(cfg.AllowedOrigins)
	handler.Register(e)
	e.GET("/conversation/ws", server.Handler)

	go func() {
		log.L().Info("Starting server",
			zap.String("port", cfg.Port),
			zap.Bool("production", cfg.Production),
			zap.Strings("allowed_origins", cfg.AllowedOrigins),
			zap.String("intro_limit", cfg.IntroLimit.String()),
			zap.String("chat_limit", cfg.ChatLimit.String()),
			zap.String("video_limit", cfg.VideoLimit.String()))
		log.L().Info("Available endpoints:")
		log.L().Info("  POST /conversation/intro   - Persona introduction")
		log.L().Info("  POST /conversation/chat    - Chat reply")
		log.L().Info("  POST /conversation/stream  - Streaming chat reply")
		log.L().Info("  POST /conversation/video   - Create video conversation")
		log.L().Info("  GET  /conversation/ws      - WebSocket streaming chat")
		log.L().Info("  GET  /health               - Health check")
		log.L().Info("  GET  /internal/status      - Provider status (X-API-Key)")

		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.L().Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.L().Info("Shutting down")

	server.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.L().Error("Graceful shutdown failed", zap.Error(err))
	}
	log.L().Sync()
}
