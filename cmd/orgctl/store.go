package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/spec-kit/org-hierarchy/internal/config"
	"github.com/spec-kit/org-hierarchy/internal/observability"
	"github.com/spec-kit/org-hierarchy/internal/persistence"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	"github.com/spec-kit/org-hierarchy/internal/service"
)

// env is what every database-backed command needs.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	uow    *service.UnitOfWork
	deps   service.Dependencies
	close  func()
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	if cfg.Postgres.DSN == "" {
		return nil, withCode(exitUsage, errors.New("POSTGRES_DSN is required"))
	}
	// stdout carries the command's JSON result.
	cfg.Logger.Output = "stderr"
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, withCode(exitUsage, fmt.Errorf("init logger: %w", err))
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, withCode(exitDB, fmt.Errorf("connect postgres: %w", err))
	}
	return newEnv(cfg, logger, repository.NewPostgresStore(pg.PoolHandle()), func() {
		pg.Close()
		_ = logger.Sync()
	}), nil
}

func newEnv(cfg *config.Config, logger *zap.Logger, store repository.Store, closeFn func()) *env {
	return &env{
		cfg:    cfg,
		logger: logger,
		uow:    service.NewUnitOfWork(store, nil, logger),
		deps: service.Dependencies{
			Logger:   logger,
			Recorder: service.NewAuditRecorder(logger),
			Cycles:   service.NewCycleDetector(),
		},
		close: closeFn,
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}
