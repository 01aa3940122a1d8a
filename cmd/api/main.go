package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/org-hierarchy/internal/api/http"
	"github.com/spec-kit/org-hierarchy/internal/api/http/handlers"
	"github.com/spec-kit/org-hierarchy/internal/auth"
	"github.com/spec-kit/org-hierarchy/internal/config"
	"github.com/spec-kit/org-hierarchy/internal/events"
	"github.com/spec-kit/org-hierarchy/internal/observability"
	"github.com/spec-kit/org-hierarchy/internal/persistence"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	"github.com/spec-kit/org-hierarchy/internal/repository/memstore"
	"github.com/spec-kit/org-hierarchy/internal/service"
	"github.com/spec-kit/org-hierarchy/internal/worker"
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

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartEventRelay(cfg.Events, redis.Client, dispatcher, logger)

	var store repository.Store
	if pool := pg.PoolHandle(); pool != nil {
		store = repository.NewPostgresStore(pool)
	} else {
		logger.Warn("no postgres pool; org data is kept in memory and lost on restart")
		store = memstore.New()
	}
	uow := service.NewUnitOfWork(store, dispatcher, logger)
	deps := service.Dependencies{
		Logger:   logger,
		Recorder: service.NewAuditRecorder(logger),
		Cycles:   service.NewCycleDetector(),
	}
	orgService := service.NewOrgService(deps)
	cascadeService := service.NewCascadeService(deps)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.Import.MaxFileBytes + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Employees:      handlers.NewEmployeesHandler(uow, orgService, cascadeService),
		CEO:            handlers.NewCEOHandler(uow, orgService, service.NewCEOService(deps)),
		Teams:          handlers.NewTeamsHandler(uow, orgService, cascadeService),
		Departments:    handlers.NewDepartmentsHandler(uow, orgService, cascadeService),
		AuditLogs:      handlers.NewAuditLogsHandler(uow, deps.Recorder),
		Imports:        handlers.NewImportsHandler(uow, service.NewImportService(deps), cfg.Import.MaxRows, cfg.Import.MaxFileBytes),
		Search:         handlers.NewSearchHandler(uow, orgService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Gatherer:       prometheus.DefaultGatherer,
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
