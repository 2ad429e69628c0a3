package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/core-crm/internal/api/http"
	"github.com/spec-kit/core-crm/internal/api/http/handlers"
	"github.com/spec-kit/core-crm/internal/auth"
	"github.com/spec-kit/core-crm/internal/config"
	"github.com/spec-kit/core-crm/internal/events"
	"github.com/spec-kit/core-crm/internal/identity"
	"github.com/spec-kit/core-crm/internal/observability"
	"github.com/spec-kit/core-crm/internal/persistence"
	"github.com/spec-kit/core-crm/internal/repository"
	"github.com/spec-kit/core-crm/internal/service"
	"github.com/spec-kit/core-crm/internal/worker"
)

const (
	serviceName    = "core-crm"
	serviceVersion = "1.0.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewTicketMessageRepository(pool)
	articleRepo := repository.NewArticleRepository(pool)

	verifier := identity.NewCachedVerifier(
		identity.NewKratosVerifier(cfg.Kratos.BaseURL, cfg.Kratos.RequestTimeout()),
		redis.Client,
		cfg.Kratos.SessionCacheTTL(),
		logger,
	)
	resolver := identity.NewResolver(verifier, userRepo, logger)
	authMiddleware := auth.NewMiddleware(resolver)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		MessageRepo: messageRepo,
		UserRepo:    userRepo,
		Dispatcher:  dispatcher,
	})
	userService := service.NewUserService(userRepo, dispatcher)
	articleService := service.NewArticleService(articleRepo)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.CORS.AllowedOrigin, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(serviceName, serviceVersion, pg, redis),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Users:          handlers.NewUsersHandler(userService),
		Articles:       handlers.NewArticlesHandler(articleService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
