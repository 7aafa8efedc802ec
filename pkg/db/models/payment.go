package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lexbid/lexbid-backend/pkg/enums"
)

// Payment records one provider-side charge attempt tied to exactly one quote.
// ProviderIntentID is unique across all payments and doubles as the webhook
// deduplication key. Client and lawyer ids are denormalized for audit.
type Payment struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CaseID           uuid.UUID           `gorm:"column:case_id;type:uuid;not null;index"`
	QuoteID          uuid.UUID           `gorm:"column:quote_id;type:uuid;not null;index"`
	ClientID         uuid.UUID           `gorm:"column:client_id;type:uuid;not null"`
	LawyerID         uuid.UUID           `gorm:"column:lawyer_id;type:uuid;not null"`
	AmountCents      int64               `gorm:"column:amount_cents;not null"`
	Currency         string              `gorm:"column:currency;not null;default:'usd'"`
	ProviderIntentID string              `gorm:"column:provider_intent_id;not null;unique"`
	Status           enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	FailureReason    *string             `gorm:"column:failure_reason"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Payment) TableName() string {
	return "payments"
}
