package cases

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lexbid/lexbid-backend/pkg/db/models"
	"github.com/lexbid/lexbid-backend/pkg/enums"
	"github.com/lexbid/lexbid-backend/pkg/pagination"
)

// Repository defines persistence operations for cases.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, c *models.Case) (*models.Case, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Case, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, params pagination.Params) ([]models.Case, *pagination.Cursor, error)
	ListOpen(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Case, *pagination.Cursor, error)
	// TransitionFrom updates status only when the row still holds the expected
	// current status, reporting whether the guarded write landed.
	TransitionFrom(ctx context.Context, id uuid.UUID, from, to enums.CaseStatus, acceptedQuoteID *uuid.UUID) (bool, error)
}

// ListFilters describe the inputs supported by the open-case listing.
type ListFilters struct {
	Category *enums.CaseCategory
}
