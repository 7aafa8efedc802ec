package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lexbid/lexbid-backend/pkg/db/models"
	"github.com/lexbid/lexbid-backend/pkg/enums"
	"github.com/lexbid/lexbid-backend/pkg/logger"
)

// Service records audit events for core operations. Recording is fire and
// forget: failures are logged and never abort the operation being audited.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Record(ctx context.Context, entry Entry)
	ListByResource(ctx context.Context, resourceID uuid.UUID) ([]models.AuditEvent, error)
}

// Entry captures the immutable data an audit event requires.
type Entry struct {
	ActorID      uuid.UUID
	ActorRole    enums.ActorRole
	Action       enums.AuditAction
	ResourceType string
	ResourceID   uuid.UUID
	Changes      json.RawMessage
}

type service struct {
	repo   Repository
	logger *logger.Logger
}

// NewService wires an audit service with the provided repository.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("audit logger required")
	}
	return &service{repo: repo, logger: logg}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx), logger: s.logger}
}

func (s *service) Record(ctx context.Context, entry Entry) {
	if err := s.validate(entry); err != nil {
		s.logger.Warn(s.logger.WithField(ctx, "audit_action", string(entry.Action)), fmt.Sprintf("dropping invalid audit entry: %v", err))
		return
	}

	event := &models.AuditEvent{
		ID:           uuid.New(),
		ActorID:      entry.ActorID,
		ActorRole:    entry.ActorRole,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Changes:      entry.Changes,
	}

	if err := s.repo.Create(ctx, event); err != nil {
		ctx = s.logger.WithFields(ctx, map[string]any{
			"audit_action": string(entry.Action),
			"resource_id":  entry.ResourceID.String(),
		})
		s.logger.Error(ctx, "recording audit event", err)
	}
}

func (s *service) ListByResource(ctx context.Context, resourceID uuid.UUID) ([]models.AuditEvent, error) {
	if resourceID == uuid.Nil {
		return nil, fmt.Errorf("resource id is required")
	}
	return s.repo.ListByResourceID(ctx, resourceID)
}

func (s *service) validate(entry Entry) error {
	if entry.ActorID == uuid.Nil {
		return fmt.Errorf("actor id is required")
	}
	if !entry.ActorRole.IsValid() {
		return fmt.Errorf("invalid actor role %q", entry.ActorRole)
	}
	if !entry.Action.IsValid() {
		return fmt.Errorf("invalid audit action %q", entry.Action)
	}
	if entry.ResourceType == "" {
		return fmt.Errorf("resource type is required")
	}
	if entry.ResourceID == uuid.Nil {
		return fmt.Errorf("resource id is required")
	}
	return nil
}
