package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/spec-kit/org-hierarchy/internal/domain"
	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

var (
	orgMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "org",
		Subsystem: "hierarchy",
		Name:      "mutations_total",
		Help:      "Total number of hierarchy mutations broken down by operation and result code.",
	}, []string{"operation", "result"})

	orgAuditEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "org",
		Subsystem: "audit",
		Name:      "entries_total",
		Help:      "Total number of audit entries written broken down by entity and change type.",
	}, []string{"entity_type", "change_type"})

	orgImportRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "org",
		Subsystem: "import",
		Name:      "rows_total",
		Help:      "Total number of bulk import rows broken down by outcome.",
	}, []string{"outcome"})
)

func recordMutation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = apperrors.ToDomainError(err).Code
	}
	orgMutations.WithLabelValues(operation, result).Inc()
}

// recordCommittedAudit counts entries once their transaction has committed.
func recordCommittedAudit(entries []domain.AuditLog) {
	for i := range entries {
		orgAuditEntries.WithLabelValues(string(entries[i].EntityType), string(entries[i].ChangeType)).Inc()
	}
}

func recordImportRows(outcome string, n int) {
	if n <= 0 {
		return
	}
	orgImportRows.WithLabelValues(outcome).Add(float64(n))
}
