package cases

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lexbid/lexbid-backend/pkg/access"
	"github.com/lexbid/lexbid-backend/pkg/db/models"
	"github.com/lexbid/lexbid-backend/pkg/enums"
)

// CreateCaseInput captures the fields a client supplies when posting a case.
type CreateCaseInput struct {
	ClientID    uuid.UUID
	Category    enums.CaseCategory
	Description string
}

// CaseSummary is the listing-safe projection of a case. It never exposes
// quotes or files.
type CaseSummary struct {
	ID        uuid.UUID          `json:"id"`
	Category  enums.CaseCategory `json:"category"`
	Status    enums.CaseStatus   `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

// CaseView is the access-filtered projection of a case. ClientID is present
// only for actors allowed full detail: the owner and the engaged accepted
// lawyer. Browsing lawyers get the anonymized shape.
type CaseView struct {
	ID              uuid.UUID          `json:"id"`
	ClientID        *uuid.UUID         `json:"client_id,omitempty"`
	Category        enums.CaseCategory `json:"category"`
	Description     string             `json:"description"`
	Status          enums.CaseStatus   `json:"status"`
	AcceptedQuoteID *uuid.UUID         `json:"accepted_quote_id,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// QuoteView hides the bidding lawyer's identity. LawyerID is present only
// for the quote's own author and, once the case is engaged, on the accepted
// quote; competing proposed quotes stay anonymous even to the case owner.
type QuoteView struct {
	ID           uuid.UUID         `json:"id"`
	CaseID       uuid.UUID         `json:"case_id"`
	LawyerID     *uuid.UUID        `json:"lawyer_id,omitempty"`
	Amount       decimal.Decimal   `json:"amount"`
	DurationDays int               `json:"duration_days"`
	Note         *string           `json:"note,omitempty"`
	Status       enums.QuoteStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// CaseDetail is the detail-page projection. Quotes are pre-filtered to what
// the requesting actor may see, and both the case and each quote carry only
// the identities that actor is allowed to learn.
type CaseDetail struct {
	Case         CaseView    `json:"case"`
	Quotes       []QuoteView `json:"quotes"`
	FilesVisible bool        `json:"files_visible"`
}

// CaseList wraps paginated summaries plus the next page cursor.
type CaseList struct {
	Cases      []CaseSummary `json:"cases"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func toSummary(c models.Case) CaseSummary {
	return CaseSummary{
		ID:        c.ID,
		Category:  c.Category,
		Status:    c.Status,
		CreatedAt: c.CreatedAt,
	}
}

func toCaseView(c models.Case, revealClient bool) CaseView {
	view := CaseView{
		ID:              c.ID,
		Category:        c.Category,
		Description:     c.Description,
		Status:          c.Status,
		AcceptedQuoteID: c.AcceptedQuoteID,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	if revealClient {
		clientID := c.ClientID
		view.ClientID = &clientID
	}
	return view
}

func toQuoteView(actor access.Actor, c models.Case, q models.Quote) QuoteView {
	view := QuoteView{
		ID:           q.ID,
		CaseID:       q.CaseID,
		Amount:       q.Amount,
		DurationDays: q.DurationDays,
		Note:         q.Note,
		Status:       q.Status,
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    q.UpdatedAt,
	}
	ownQuote := actor.Role == enums.ActorRoleLawyer && actor.ID == q.LawyerID
	accepted := c.Status == enums.CaseStatusEngaged &&
		c.AcceptedQuoteID != nil && *c.AcceptedQuoteID == q.ID
	if ownQuote || accepted {
		lawyerID := q.LawyerID
		view.LawyerID = &lawyerID
	}
	return view
}
