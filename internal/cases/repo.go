package cases

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

// NewRepository builds a cases repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, c *models.Case) (*models.Case, error) {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	var c models.Case
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) ListByClient(ctx context.Context, clientID uuid.UUID, params pagination.Params) ([]models.Case, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Case{}).Where("client_id = ?", clientID)
	return r.list(ctx, query, params)
}

func (r *repository) ListOpen(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Case, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Case{}).Where("status = ?", enums.CaseStatusOpen)
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	return r.list(ctx, query, params)
}

func (r *repository) list(ctx context.Context, query *gorm.DB, params pagination.Params) ([]models.Case, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var records []models.Case
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, nil, err
	}

	if len(records) > normalized {
		next := records[normalized]
		records = records[:normalized]
		return records, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return records, nil, nil
}

func (r *repository) TransitionFrom(ctx context.Context, id uuid.UUID, from, to enums.CaseStatus, acceptedQuoteID *uuid.UUID) (bool, error) {
	updates := map[string]any{"status": to}
	if acceptedQuoteID != nil {
		updates["accepted_quote_id"] = *acceptedQuoteID
	}
	result := r.db.WithContext(ctx).
		Model(&models.Case{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
