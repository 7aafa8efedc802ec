package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lexbid/lexbid-backend/pkg/enums"
)

// Quote is one lawyer's bid on one case. A partial unique index
// (ux_quotes_case_lawyer_proposed) keeps at most one proposed quote per
// (case, lawyer) pair; re-submitting updates the row in place.
type Quote struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CaseID       uuid.UUID         `gorm:"column:case_id;type:uuid;not null;index"`
	LawyerID     uuid.UUID         `gorm:"column:lawyer_id;type:uuid;not null;index"`
	Amount       decimal.Decimal   `gorm:"column:amount;type:numeric(12,2);not null"`
	DurationDays int               `gorm:"column:duration_days;not null"`
	Note         *string           `gorm:"column:note"`
	Status       enums.QuoteStatus `gorm:"column:status;type:quote_status;not null;default:'proposed'"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Case *Case `gorm:"foreignKey:CaseID;references:ID"`
}

func (Quote) TableName() string {
	return "quotes"
}
