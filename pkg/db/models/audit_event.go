package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/lexbid/lexbid-backend/pkg/enums"
)

// AuditEvent is an append-only record of a core operation. Writes are fire
// and forget; failures never abort the operation being audited.
type AuditEvent struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ActorID      uuid.UUID         `gorm:"column:actor_id;type:uuid;not null;index"`
	ActorRole    enums.ActorRole   `gorm:"column:actor_role;type:actor_role;not null"`
	Action       enums.AuditAction `gorm:"column:action;not null;index"`
	ResourceType string            `gorm:"column:resource_type;not null"`
	ResourceID   uuid.UUID         `gorm:"column:resource_id;type:uuid;not null;index"`
	Changes      json.RawMessage   `gorm:"column:changes;type:jsonb"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
