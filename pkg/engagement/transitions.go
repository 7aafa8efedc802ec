package engagement

import (
	"fmt"

	"github.com/lexbid/lexbid-backend/pkg/enums"
	pkgerrors "github.com/lexbid/lexbid-backend/pkg/errors"
)

var caseTransitions = map[enums.CaseStatus][]enums.CaseStatus{
	enums.CaseStatusOpen: {
		enums.CaseStatusEngaged,
		enums.CaseStatusClosed,
		enums.CaseStatusCancelled,
	},
}

var quoteTransitions = map[enums.QuoteStatus][]enums.QuoteStatus{
	enums.QuoteStatusProposed: {
		enums.QuoteStatusAccepted,
		enums.QuoteStatusRejected,
	},
}

var paymentTransitions = map[enums.PaymentStatus][]enums.PaymentStatus{
	enums.PaymentStatusPending: {
		enums.PaymentStatusSucceeded,
		enums.PaymentStatusFailed,
	},
}

// EnsureCaseTransition validates a case status change against the transition
// table. Illegal transitions fail with a state conflict naming the entity and
// its current status; they are never silently ignored.
func EnsureCaseTransition(from, to enums.CaseStatus) error {
	if allowed(caseTransitions[from], to) {
		return nil
	}
	return transitionError("case", from.String(), to.String())
}

// EnsureQuoteTransition validates a quote status change.
func EnsureQuoteTransition(from, to enums.QuoteStatus) error {
	if allowed(quoteTransitions[from], to) {
		return nil
	}
	return transitionError("quote", from.String(), to.String())
}

// EnsurePaymentTransition validates a payment status change.
func EnsurePaymentTransition(from, to enums.PaymentStatus) error {
	if allowed(paymentTransitions[from], to) {
		return nil
	}
	return transitionError("payment", from.String(), to.String())
}

func allowed[T comparable](targets []T, to T) bool {
	for _, candidate := range targets {
		if candidate == to {
			return true
		}
	}
	return false
}

func transitionError(entity, from, to string) *pkgerrors.Error {
	return pkgerrors.New(
		pkgerrors.CodeStateConflict,
		fmt.Sprintf("%s cannot transition from %s to %s", entity, from, to),
	).WithDetails(map[string]any{
		"entity":         entity,
		"current_status": from,
		"target_status":  to,
	})
}
