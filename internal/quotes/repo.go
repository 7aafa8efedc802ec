package quotes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lexbid/lexbid-backend/pkg/db/models"
	"github.com/lexbid/lexbid-backend/pkg/enums"
	"github.com/lexbid/lexbid-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a quotes repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, quote *models.Quote) (*models.Quote, error) {
	if err := r.db.WithContext(ctx).Create(quote).Error; err != nil {
		return nil, err
	}
	return quote, nil
}

func (r *repository) Update(ctx context.Context, quote *models.Quote) error {
	return r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("id = ?", quote.ID).
		Updates(map[string]any{
			"amount":        quote.Amount,
			"duration_days": quote.DurationDays,
			"note":          quote.Note,
		}).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&quote).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *repository) FindByIDWithCase(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	err := r.db.WithContext(ctx).
		Preload("Case").
		Where("id = ?", id).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *repository) FindProposed(ctx context.Context, caseID, lawyerID uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	err := r.db.WithContext(ctx).
		Where("case_id = ? AND lawyer_id = ? AND status = ?", caseID, lawyerID, enums.QuoteStatusProposed).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *repository) ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.Quote, error) {
	var quotes []models.Quote
	err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at ASC").
		Find(&quotes).Error
	if err != nil {
		return nil, err
	}
	return quotes, nil
}

func (r *repository) ListByLawyer(ctx context.Context, lawyerID uuid.UUID, params pagination.Params) ([]models.Quote, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Quote{}).Where("lawyer_id = ?", lawyerID)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var quotes []models.Quote
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&quotes).Error; err != nil {
		return nil, nil, err
	}

	if len(quotes) > normalized {
		next := quotes[normalized]
		quotes = quotes[:normalized]
		return quotes, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return quotes, nil, nil
}

func (r *repository) DeleteProposed(ctx context.Context, id, lawyerID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND lawyer_id = ? AND status = ?", id, lawyerID, enums.QuoteStatusProposed).
		Delete(&models.Quote{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.QuoteStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) RejectProposedByCase(ctx context.Context, caseID, exceptID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("case_id = ? AND id <> ? AND status = ?", caseID, exceptID, enums.QuoteStatusProposed).
		Update("status", enums.QuoteStatusRejected)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
