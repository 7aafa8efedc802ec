package quotes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lexbid/lexbid-backend/pkg/db/models"
	"github.com/lexbid/lexbid-backend/pkg/enums"
	"github.com/lexbid/lexbid-backend/pkg/pagination"
)

// Repository defines persistence operations for quotes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, quote *models.Quote) (*models.Quote, error)
	Update(ctx context.Context, quote *models.Quote) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	FindByIDWithCase(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	FindProposed(ctx context.Context, caseID, lawyerID uuid.UUID) (*models.Quote, error)
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.Quote, error)
	ListByLawyer(ctx context.Context, lawyerID uuid.UUID, params pagination.Params) ([]models.Quote, *pagination.Cursor, error)
	// DeleteProposed removes the quote only while it is still proposed and
	// owned by the lawyer, reporting whether a row was deleted.
	DeleteProposed(ctx context.Context, id, lawyerID uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.QuoteStatus) error
	// RejectProposedByCase flips every remaining proposed quote on the case
	// to rejected, sparing the accepted one.
	RejectProposedByCase(ctx context.Context, caseID, exceptID uuid.UUID) (int64, error)
}
