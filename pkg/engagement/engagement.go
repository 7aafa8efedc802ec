// Package engagement holds the pure state-transition logic that moves a case
// from open bidding to a single engaged lawyer. The transition is expressed as
// a function from a pre-transition snapshot of {case, quotes, payment} to the
// full post-transition state, so the invariants can be tested without a
// database; callers apply the resulting writes atomically.
package engagement

import (
	"time"

	"github.com/google/uuid"

	"github.com/lexbid/lexbid-backend/pkg/db/models"
	"github.com/lexbid/lexbid-backend/pkg/enums"
	pkgerrors "github.com/lexbid/lexbid-backend/pkg/errors"
)

// Snapshot is the state of one case at transaction start: the case row, every
// quote on it, and the payment whose charge succeeded.
type Snapshot struct {
	Case    models.Case
	Quotes  []models.Quote
	Payment models.Payment
	Now     time.Time
}

// Result is the complete post-engagement state. Accepted is the payment's
// quote, Rejected are every other previously proposed quote on the case.
type Result struct {
	Case     models.Case
	Accepted models.Quote
	Rejected []models.Quote
	Payment  models.Payment
}

// Engage computes the atomic engagement transition for a succeeded charge.
//
// It returns a CONFLICT error when the case is no longer open (the documented
// webhook race: a sibling quote already engaged the case) and a state conflict
// when the snapshot itself is inconsistent. Callers must short-circuit
// already-terminal payments before invoking Engage; a terminal payment here is
// treated as a conflict, not a duplicate.
func Engage(snap Snapshot) (*Result, error) {
	if snap.Payment.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment is required")
	}
	if err := EnsurePaymentTransition(snap.Payment.Status, enums.PaymentStatusSucceeded); err != nil {
		return nil, err
	}
	if snap.Payment.CaseID != snap.Case.ID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment does not belong to this case").
			WithDetails(map[string]any{"case_id": snap.Case.ID, "payment_case_id": snap.Payment.CaseID})
	}

	if snap.Case.Status != enums.CaseStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "case is no longer open for engagement").
			WithDetails(map[string]any{"case_id": snap.Case.ID, "current_status": snap.Case.Status.String()})
	}

	target, siblings, found := splitQuotes(snap.Quotes, snap.Payment.QuoteID)
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "paid quote is missing from the case").
			WithDetails(map[string]any{"quote_id": snap.Payment.QuoteID})
	}
	if target.CaseID != snap.Case.ID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "paid quote belongs to a different case").
			WithDetails(map[string]any{"quote_id": target.ID, "quote_case_id": target.CaseID})
	}
	if err := EnsureQuoteTransition(target.Status, enums.QuoteStatusAccepted); err != nil {
		return nil, err
	}

	now := snap.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	payment := snap.Payment
	payment.Status = enums.PaymentStatusSucceeded
	payment.UpdatedAt = now

	accepted := target
	accepted.Status = enums.QuoteStatusAccepted
	accepted.UpdatedAt = now

	rejected := make([]models.Quote, 0, len(siblings))
	for _, sibling := range siblings {
		if sibling.Status != enums.QuoteStatusProposed {
			continue
		}
		sibling.Status = enums.QuoteStatusRejected
		sibling.UpdatedAt = now
		rejected = append(rejected, sibling)
	}

	engaged := snap.Case
	engaged.Status = enums.CaseStatusEngaged
	acceptedID := accepted.ID
	engaged.AcceptedQuoteID = &acceptedID
	engaged.UpdatedAt = now

	return &Result{
		Case:     engaged,
		Accepted: accepted,
		Rejected: rejected,
		Payment:  payment,
	}, nil
}

func splitQuotes(quotes []models.Quote, targetID uuid.UUID) (models.Quote, []models.Quote, bool) {
	var target models.Quote
	found := false
	siblings := make([]models.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.ID == targetID {
			target = q
			found = true
			continue
		}
		siblings = append(siblings, q)
	}
	return target, siblings, found
}
