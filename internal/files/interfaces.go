package files

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lexbid/lexbid-backend/pkg/db/models"
)

// Repository persists case file records. File bytes never pass through this
// service; only opaque storage keys do.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, file *models.CaseFile) (*models.CaseFile, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CaseFile, error)
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.CaseFile, error)
}
