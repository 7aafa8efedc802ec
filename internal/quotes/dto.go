package quotes

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lexbid/lexbid-backend/pkg/db/models"
)

// SubmitQuoteInput carries the fields a lawyer supplies when bidding.
type SubmitQuoteInput struct {
	CaseID       uuid.UUID
	LawyerID     uuid.UUID
	Amount       decimal.Decimal
	DurationDays int
	Note         *string
}

// SubmitOutcome reports whether the submission created a new quote or
// updated an existing proposed one in place.
type SubmitOutcome struct {
	Quote   *models.Quote `json:"quote"`
	Updated bool          `json:"updated"`
}

// QuoteList wraps a lawyer's paginated quotes plus the next page cursor.
type QuoteList struct {
	Quotes     []models.Quote `json:"quotes"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
