package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/org-hierarchy/internal/events"
	"github.com/spec-kit/org-hierarchy/internal/repository"
)

// UnitOfWork owns transaction boundaries for request handlers and commands.
// Hierarchy services never commit; the caller runs them through Do, which
// commits on success, rolls back on error and then counts and announces the
// committed audit entries.
type UnitOfWork struct {
	store      repository.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewUnitOfWork constructs the runner. dispatcher may be nil.
func NewUnitOfWork(store repository.Store, dispatcher events.Dispatcher, logger *zap.Logger) *UnitOfWork {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnitOfWork{store: store, dispatcher: dispatcher, logger: logger}
}

// Do runs fn in a new transaction.
func (u *UnitOfWork) Do(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := u.store.Begin(ctx)
	if err != nil {
		return err
	}
	captured := events.Capture(tx)
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(captured); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	committed = true
	recordCommittedAudit(captured.Entries())

	if err := events.PublishCommitted(ctx, u.dispatcher, captured); err != nil {
		u.logger.Warn("publishing org events failed", zap.Error(err))
	}
	return nil
}
