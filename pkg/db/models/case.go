package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lexbid/lexbid-backend/pkg/enums"
)

// Case is a client's posted legal matter seeking lawyer quotes.
//
// AcceptedQuoteID is set if and only if Status is engaged, and then references
// a quote on this case whose own status is accepted. Only the quote lifecycle
// (open -> closed/cancelled, owner action) and payment reconciliation
// (open -> engaged) may mutate Status.
type Case struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID        uuid.UUID          `gorm:"column:client_id;type:uuid;not null;index"`
	Category        enums.CaseCategory `gorm:"column:category;type:case_category;not null"`
	Description     string             `gorm:"column:description;not null"`
	Status          enums.CaseStatus   `gorm:"column:status;type:case_status;not null;default:'open'"`
	AcceptedQuoteID *uuid.UUID         `gorm:"column:accepted_quote_id;type:uuid"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Case) TableName() string {
	return "cases"
}
