package events

import (
	"context"

	"github.com/spec-kit/org-hierarchy/internal/domain"
	"github.com/spec-kit/org-hierarchy/internal/repository"
)

// CapturingTx wraps a unit of work and remembers every audit entry written
// through it so the changes can be announced once the work commits.
type CapturingTx struct {
	repository.Tx
	entries []domain.AuditLog
}

// Capture wraps tx.
func Capture(tx repository.Tx) *CapturingTx {
	return &CapturingTx{Tx: tx}
}

// AuditLogs returns a repository that records created entries.
func (t *CapturingTx) AuditLogs() repository.AuditLogRepository {
	return &capturingAuditLogs{AuditLogRepository: t.Tx.AuditLogs(), owner: t}
}

// Entries returns the audit entries written so far.
func (t *CapturingTx) Entries() []domain.AuditLog {
	return append([]domain.AuditLog(nil), t.entries...)
}

type capturingAuditLogs struct {
	repository.AuditLogRepository
	owner *CapturingTx
}

func (r *capturingAuditLogs) Create(ctx context.Context, entry *domain.AuditLog) error {
	if err := r.AuditLogRepository.Create(ctx, entry); err != nil {
		return err
	}
	r.owner.entries = append(r.owner.entries, *entry)
	return nil
}

// PublishCommitted announces each captured entry on dispatcher.
func PublishCommitted(ctx context.Context, dispatcher Dispatcher, tx *CapturingTx) error {
	if dispatcher == nil || tx == nil {
		return nil
	}
	for _, entry := range tx.entries {
		if err := dispatcher.Publish(ctx, FromAuditLog(entry)); err != nil {
			return err
		}
	}
	return nil
}
