package http

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/vivatalk/mediator/utils/log"
)

const (
	maxBodySize = "512K"
	corsMaxAge  = 86400 // 24 hours
)

// NewEcho builds the echo instance with the shared middleware stack.
// Routes are added with Register.
func NewEcho(allowedOrigins []string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(context.WithValue(req.Context(), log.RequestIDKey, id)))
		},
	}))
	e.Use(identifyClient)
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			log.WithCtx(c.Request().Context()).Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"X-API-Key",
		},
		MaxAge: corsMaxAge,
	}))

	e.Use(middleware.BodyLimit(maxBodySize))

	return e
}

// Register adds the conversation, health and status routes.
func (h *ConversationHandler) Register(e *echo.Echo) {
	e.GET("/health", h.HealthCheck)
	e.GET("/internal/status", h.Status)

	conv := e.Group("/conversation")
	conv.POST("/intro", h.Intro, h.guards(h.limits.Intro)...)
	conv.POST("/chat", h.Chat, h.guards(h.limits.Chat)...)
	conv.POST("/stream", h.Stream, h.guards(h.limits.Chat)...)
	conv.POST("/video", h.Video, h.guards(h.limits.Video)...)
}
