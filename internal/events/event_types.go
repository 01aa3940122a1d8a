package events

import (
	"time"

	"github.com/spec-kit/org-hierarchy/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEmployeeChanged   EventType = "employee_changed"
	EventTeamChanged       EventType = "team_changed"
	EventDepartmentChanged EventType = "department_changed"
	EventUserChanged       EventType = "user_changed"
)

// AllEventTypes lists every event type the hierarchy emits.
var AllEventTypes = []EventType{
	EventEmployeeChanged,
	EventTeamChanged,
	EventDepartmentChanged,
	EventUserChanged,
}

// Event represents a committed change to an org record.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	EntityID  string    `json:"entity_id"`
	ActorID   *string   `json:"actor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// ChangePayload carries the audit snapshots of a change.
type ChangePayload struct {
	ChangeType    domain.ChangeType `json:"change_type"`
	PreviousState map[string]any    `json:"previous_state,omitempty"`
	NewState      map[string]any    `json:"new_state,omitempty"`
}

// FromAuditLog derives the event announcing an audited change.
func FromAuditLog(entry domain.AuditLog) Event {
	return Event{
		ID:        entry.ID,
		Type:      eventTypeFor(entry.EntityType),
		EntityID:  entry.EntityID,
		ActorID:   entry.ChangedByUserID,
		Timestamp: entry.CreatedAt,
		Payload: ChangePayload{
			ChangeType:    entry.ChangeType,
			PreviousState: entry.PreviousState,
			NewState:      entry.NewState,
		},
	}
}

func eventTypeFor(entityType domain.EntityType) EventType {
	switch entityType {
	case domain.EntityTeam:
		return EventTeamChanged
	case domain.EntityDepartment:
		return EventDepartmentChanged
	case domain.EntityUser:
		return EventUserChanged
	default:
		return EventEmployeeChanged
	}
}
