package domain

import "time"

// EntityType names the kind of record an audit entry describes.
type EntityType string

const (
	EntityEmployee   EntityType = "EMPLOYEE"
	EntityDepartment EntityType = "DEPARTMENT"
	EntityTeam       EntityType = "TEAM"
	EntityUser       EntityType = "USER"
)

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	switch t {
	case EntityEmployee, EntityDepartment, EntityTeam, EntityUser:
		return true
	}
	return false
}

// ChangeType captures what happened to the entity.
type ChangeType string

const (
	ChangeCreate     ChangeType = "CREATE"
	ChangeUpdate     ChangeType = "UPDATE"
	ChangeDelete     ChangeType = "DELETE"
	ChangeBulkUpdate ChangeType = "BULK_UPDATE"
)

// Valid reports whether c is a known change type.
func (c ChangeType) Valid() bool {
	switch c {
	case ChangeCreate, ChangeUpdate, ChangeDelete, ChangeBulkUpdate:
		return true
	}
	return false
}

// AuditLog is an immutable record of one entity change. PreviousState is nil
// for creates and NewState is nil for deletes. ChangedByUserID is nil for
// system-initiated changes.
type AuditLog struct {
	ID              string
	EntityType      EntityType
	EntityID        string
	ChangeType      ChangeType
	PreviousState   map[string]any
	NewState        map[string]any
	ChangedByUserID *string
	CreatedAt       time.Time
}
