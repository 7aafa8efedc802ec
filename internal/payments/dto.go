package payments

import (
	"github.com/google/uuid"

	"github.com/lexbid/lexbid-backend/pkg/db/models"
)

// CreateIntentInput carries the fields a client supplies when paying a quote.
type CreateIntentInput struct {
	ClientID uuid.UUID
	QuoteID  uuid.UUID
}

// IntentResult pairs the pending payment row with the provider token the
// client needs to complete the charge.
type IntentResult struct {
	Payment     *models.Payment `json:"payment"`
	ClientToken string          `json:"client_token"`
}
