package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/lfariabr/wedstack-sub000/internal/core/port"
	"github.com/lfariabr/wedstack-sub000/internal/infra/chat"
	"github.com/lfariabr/wedstack-sub000/internal/infra/config"
	"github.com/lfariabr/wedstack-sub000/internal/infra/database"
	kafkainfra "github.com/lfariabr/wedstack-sub000/internal/infra/kafka"
	"github.com/lfariabr/wedstack-sub000/internal/infra/logger"
	redisinfra "github.com/lfariabr/wedstack-sub000/internal/infra/redis"
	postgresrepo "github.com/lfariabr/wedstack-sub000/internal/repository/postgres"
	redisrepo "github.com/lfariabr/wedstack-sub000/internal/repository/redis"
	"github.com/lfariabr/wedstack-sub000/internal/transport/http/middleware"
	"github.com/lfariabr/wedstack-sub000/internal/transport/http/routes"
	"github.com/lfariabr/wedstack-sub000/internal/usecase"
)

type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	guestRepo := postgresrepo.NewGuestRepository(pool)
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), cfg.Redis.RateLimitPrefix)

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	guestService := usecase.NewGuestService(guestRepo, eventPublisher, log)
	rateLimiter := usecase.NewRateLimiter(rateLimitStore, log)

	rateLimitMiddleware := middleware.NewRateLimiter(rateLimiter, log)
	if decisions, err := middleware.NewRateLimitDecisionCounter(nil, "wedding"); err != nil {
		log.Warn("failed to register rate limit metrics", zap.Error(err))
	} else {
		rateLimitMiddleware = rateLimitMiddleware.WithDecisionCounter(decisions)
	}

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		log.Warn("failed to register http metrics", zap.Error(err))
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimitMiddleware,
		Metrics:     httpMetrics,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Guests: guestService,
			Chat:   chat.NewScriptedResponder(log),
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting wedding platform API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
