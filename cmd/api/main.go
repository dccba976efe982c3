package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-assistant/internal/api/http"
	"github.com/spec-kit/ticket-assistant/internal/api/http/handlers"
	"github.com/spec-kit/ticket-assistant/internal/auth"
	"github.com/spec-kit/ticket-assistant/internal/completion"
	"github.com/spec-kit/ticket-assistant/internal/config"
	"github.com/spec-kit/ticket-assistant/internal/document"
	"github.com/spec-kit/ticket-assistant/internal/events"
	"github.com/spec-kit/ticket-assistant/internal/locking"
	"github.com/spec-kit/ticket-assistant/internal/observability"
	"github.com/spec-kit/ticket-assistant/internal/persistence"
	"github.com/spec-kit/ticket-assistant/internal/repository"
	"github.com/spec-kit/ticket-assistant/internal/service"
	"github.com/spec-kit/ticket-assistant/internal/ticketing"
	"github.com/spec-kit/ticket-assistant/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envFile := pflag.String("env-file", "", "additional .env file loaded before .env")
	addr := pflag.String("addr", "", "listen address, overrides APP_HOST and APP_PORT")
	migrate := pflag.Bool("migrate", false, "apply database migrations and exit")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
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

	if cfg.Postgres.RunMigrations || *migrate {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}
	if *migrate {
		return
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var locker locking.Locker = locking.NewMemoryLocker(cfg.Locking.Wait())
	if redis != nil {
		pingCtx, cancelPing := context.WithTimeout(ctx, 3*time.Second)
		if err := redis.Ping(pingCtx); err != nil {
			logger.Warn("redis unreachable; reconciliation locks stay in-process", zap.Error(err))
		} else {
			locker = locking.NewRedisLocker(redis.Client, cfg.Locking.TTL(), cfg.Locking.Wait())
			logger.Info("reconciliation locks backed by redis")
		}
		cancelPing()
	}

	auditDeps := service.AuditDependencies{Logger: logger}
	if pg.Enabled() {
		auditDeps.AuditRepo = repository.NewTicketAuditRepository(pg.PoolHandle())
		auditDeps.UsageRepo = repository.NewUsageRepository(pg.PoolHandle())
	}

	dispatcher := events.NewInMemoryDispatcher()
	auditService := service.NewAuditService(auditDeps)
	auditWorker := worker.StartAuditWorker(auditService, dispatcher, logger, cfg.App.AuditQueueSize)

	catalog, err := completion.LoadCatalog(cfg.Completion.ProvidersFile)
	if err != nil {
		logger.Fatal("failed to load provider catalog", zap.Error(err))
	}
	completions := completion.NewRouter(cfg.Completion, catalog, logger)
	tickets := ticketing.NewFactory(cfg.Ticketing, logger)

	reconciler := service.NewReconciliationService(service.ReconciliationDependencies{
		Locker:       locker,
		Dispatcher:   dispatcher,
		Logger:       logger,
		DefaultGroup: cfg.Ticketing.DefaultGroup,
	})
	queries := service.NewTicketQueryService(logger)
	assistant := service.NewAssistantService(service.AssistantDependencies{
		Providers:  completions,
		Prompts:    completion.Prompts{Language: cfg.Completion.ResponseLanguage},
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(cfg.Auth, tokens, logger)
	if !authService.Enabled() {
		logger.Warn("AUTH_STAFF_ACCOUNTS empty; API is unauthenticated")
	}
	authMiddleware := auth.NewAuthMiddleware(tokens, authService.Enabled())

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.App.MaxUploadBytes + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(handlers.HealthDependencies{
			ServiceName: cfg.App.Name,
			Version:     cfg.App.Version,
			Postgres:    pg,
			Redis:       redis,
			Tickets:     tickets,
			Completions: completions,
			Metrics:     metrics,
		}),
		Auth: handlers.NewAuthHandler(authService),
		Ticketing: handlers.NewTicketingHandler(handlers.TicketingDependencies{
			Factory:    tickets,
			Reconciler: reconciler,
			Queries:    queries,
			Assistant:  assistant,
			Logger:     logger,
		}),
		Assistant:      handlers.NewAssistantHandler(assistant, tickets, completions, logger),
		Documents:      handlers.NewDocumentHandler(document.NewExtractor(logger)),
		Audit:          handlers.NewAuditHandler(auditService),
		AuthMiddleware: authMiddleware,
	})

	listenAddr := cfg.App.Addr()
	if *addr != "" {
		listenAddr = *addr
	}
	go func() {
		if err := app.Listen(listenAddr); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelDrain()
	if err := auditWorker.Stop(drainCtx); err != nil {
		logger.Warn("audit queue not drained", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
