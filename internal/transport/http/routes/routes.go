package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lfariabr/wedstack-sub000/internal/core/port"
	"github.com/lfariabr/wedstack-sub000/internal/infra/config"
	"github.com/lfariabr/wedstack-sub000/internal/transport/http/handlers"
	"github.com/lfariabr/wedstack-sub000/internal/transport/http/middleware"
	"github.com/lfariabr/wedstack-sub000/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Guests *usecase.GuestService
	Chat   port.ChatResponder
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS([]string{"*"}))

	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	authMiddleware := middleware.RequireAuth(deps.Config.Auth.JWTSecret)

	healthHandler := handlers.NewHealthHandler(deps.Logger)
	if deps.Database != nil {
		healthHandler.WithCheck("postgres", handlers.PingFunc(deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthHandler.WithCheck("redis", handlers.PingFunc(deps.Cache.HealthCheck))
	}

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		guestHandler := handlers.NewGuestHandler(deps.Services.Guests, deps.Logger)

		guestGroup := api.Group("/guests")
		guestGroup.GET("", guestHandler.List)
		guestGroup.GET("/:phone", guestHandler.Get)

		rsvpHandlers := append(buildRSVPMiddlewares(deps), guestHandler.AnswerRSVP)
		guestGroup.POST("/:phone/rsvp", rsvpHandlers...)

		if deps.Services.Chat != nil {
			chatHandler := handlers.NewChatHandler(deps.Services.Chat, deps.Logger)

			chatHandlers := []gin.HandlerFunc{authMiddleware}
			chatHandlers = append(chatHandlers, buildChatMiddlewares(deps)...)
			chatHandlers = append(chatHandlers, chatHandler.Ask)
			api.POST("/chat", chatHandlers...)
		}
	}

	return r
}

func buildChatMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.ChatMaxRequests
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.ChatWindow
	if window <= 0 {
		window = time.Hour
	}

	rule := middleware.RateLimitRule{
		Name:       "chat",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.UserIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}

func buildRSVPMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.RSVPMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.RSVPWindow
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       "rsvp_ip",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
