// Package reconciliation consumes payment provider notifications and applies
// their consequences to the marketplace. A succeeded charge is the single
// trigger that engages a case: the winning quote is accepted, every other
// proposed quote is rejected, and the case leaves open bidding. All four
// writes happen in one transaction or not at all.
package reconciliation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lexbid/lexbid-backend/internal/audit"
	"github.com/lexbid/lexbid-backend/internal/cases"
	"github.com/lexbid/lexbid-backend/internal/payments"
	"github.com/lexbid/lexbid-backend/internal/quotes"
	"github.com/lexbid/lexbid-backend/pkg/engagement"
	"github.com/lexbid/lexbid-backend/pkg/enums"
	pkgerrors "github.com/lexbid/lexbid-backend/pkg/errors"
	"github.com/lexbid/lexbid-backend/pkg/logger"
	"github.com/lexbid/lexbid-backend/pkg/metrics"
	"github.com/lexbid/lexbid-backend/pkg/provider"
)

// Reconciliation outcomes reported to metrics.
const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeConflict  = "conflict"
	OutcomeError     = "error"
	OutcomeIgnored   = "ignored"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service applies provider notifications to payments, quotes, and cases.
type Service interface {
	HandleNotification(ctx context.Context, notif *provider.Notification) error
}

type service struct {
	db       txRunner
	payments payments.Repository
	cases    cases.Repository
	quotes   quotes.Repository
	audit    audit.Service
	guard    *Guard
	metrics  *metrics.ReconciliationMetrics
	logger   *logger.Logger
}

func NewService(
	db txRunner,
	paymentsRepo payments.Repository,
	casesRepo cases.Repository,
	quotesRepo quotes.Repository,
	auditSvc audit.Service,
	guard *Guard,
	m *metrics.ReconciliationMetrics,
	logg *logger.Logger,
) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if paymentsRepo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if casesRepo == nil {
		return nil, fmt.Errorf("cases repository required")
	}
	if quotesRepo == nil {
		return nil, fmt.Errorf("quotes repository required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		db:       db,
		payments: paymentsRepo,
		cases:    casesRepo,
		quotes:   quotesRepo,
		audit:    auditSvc,
		guard:    guard,
		metrics:  m,
		logger:   logg,
	}, nil
}

func (s *service) HandleNotification(ctx context.Context, notif *provider.Notification) error {
	if notif == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification required")
	}
	if notif.IntentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification intent id required")
	}

	ctx = s.logger.WithFields(ctx, map[string]any{
		"notification_id":   notif.ID,
		"notification_type": notif.Type,
		"intent_id":         notif.IntentID,
	})

	switch notif.Type {
	case provider.NotificationChargeSucceeded:
		return s.instrumented(ctx, notif, s.applyChargeSucceeded)
	case provider.NotificationChargeFailed:
		return s.instrumented(ctx, notif, s.applyChargeFailed)
	default:
		// Unknown types are acknowledged so the provider stops retrying.
		s.logger.Warn(ctx, "ignoring unrecognized provider notification type")
		s.metrics.IncOutcome(notif.Type, OutcomeIgnored)
		return nil
	}
}

// instrumented wraps a handler with the dedupe guard and metrics. The guard
// claim is released on error so the provider's retry is processed again.
func (s *service) instrumented(ctx context.Context, notif *provider.Notification, handle func(ctx context.Context, notif *provider.Notification) (string, error)) error {
	start := time.Now()

	deliveryID := notif.ID
	if deliveryID == "" {
		deliveryID = notif.IntentID
	}
	if !s.guard.Acquire(ctx, deliveryID) {
		s.logger.Info(ctx, "skipping already-claimed webhook delivery")
		s.metrics.IncOutcome(notif.Type, OutcomeDuplicate)
		return nil
	}

	outcome, err := handle(ctx, notif)
	if err != nil {
		s.guard.Release(ctx, deliveryID)
	}
	s.metrics.ObserveDuration(notif.Type, time.Since(start))
	s.metrics.IncOutcome(notif.Type, outcome)
	return err
}

// applyChargeSucceeded runs the engagement transaction. The guarded case
// update is the linchpin: when two succeeded charges race on one case, only
// the first conditional UPDATE lands and the loser's transaction rolls back.
func (s *service) applyChargeSucceeded(ctx context.Context, notif *provider.Notification) (string, error) {
	duplicate := false

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		paymentsRepo := s.payments.WithTx(tx)
		payment, err := paymentsRepo.FindByProviderIntentID(ctx, notif.IntentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no payment for provider intent").
					WithDetails(map[string]any{"intent_id": notif.IntentID})
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payment")
		}
		if payment.Status == enums.PaymentStatusSucceeded {
			// Redelivery of an already-applied notification.
			duplicate = true
			return nil
		}

		casesRepo := s.cases.WithTx(tx)
		record, err := casesRepo.FindByID(ctx, payment.CaseID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading case")
		}
		quotesRepo := s.quotes.WithTx(tx)
		caseQuotes, err := quotesRepo.ListByCase(ctx, payment.CaseID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading case quotes")
		}

		result, err := engagement.Engage(engagement.Snapshot{
			Case:    *record,
			Quotes:  caseQuotes,
			Payment: *payment,
		})
		if err != nil {
			return err
		}

		moved, err := casesRepo.TransitionFrom(ctx, record.ID, enums.CaseStatusOpen, enums.CaseStatusEngaged, &result.Accepted.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "engaging case")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeConflict, "case was engaged or resolved by a concurrent transaction").
				WithDetails(map[string]any{"case_id": record.ID})
		}
		if err := quotesRepo.UpdateStatus(ctx, result.Accepted.ID, enums.QuoteStatusAccepted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "accepting quote")
		}
		if _, err := quotesRepo.RejectProposedByCase(ctx, record.ID, result.Accepted.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rejecting sibling quotes")
		}
		moved, err = paymentsRepo.TransitionFrom(ctx, payment.ID, enums.PaymentStatusPending, enums.PaymentStatusSucceeded, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking payment succeeded")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeConflict, "payment left pending during reconciliation").
				WithDetails(map[string]any{"payment_id": payment.ID})
		}

		auditTx := s.audit.WithTx(tx)
		auditTx.Record(ctx, audit.Entry{
			ActorID:      payment.ClientID,
			ActorRole:    enums.ActorRoleClient,
			Action:       enums.AuditActionPaymentSucceeded,
			ResourceType: "payment",
			ResourceID:   payment.ID,
		})
		auditTx.Record(ctx, audit.Entry{
			ActorID:      payment.ClientID,
			ActorRole:    enums.ActorRoleClient,
			Action:       enums.AuditActionCaseStatusChanged,
			ResourceType: "case",
			ResourceID:   record.ID,
			Changes:      statusChange(enums.CaseStatusOpen.String(), enums.CaseStatusEngaged.String()),
		})
		return nil
	})

	switch {
	case err == nil && duplicate:
		s.logger.Info(ctx, "charge already reconciled, acknowledging redelivery")
		return OutcomeDuplicate, nil
	case err == nil:
		s.logger.Info(ctx, "case engaged from succeeded charge")
		return OutcomeApplied, nil
	case isConflict(err):
		s.logger.Warn(ctx, fmt.Sprintf("charge reconciliation conflicted: %v", err))
		return OutcomeConflict, err
	default:
		s.logger.Error(ctx, "charge reconciliation failed", err)
		return OutcomeError, err
	}
}

// applyChargeFailed marks the pending payment failed. The case and its quotes
// are untouched: a failed charge leaves the quote proposed and biddable.
func (s *service) applyChargeFailed(ctx context.Context, notif *provider.Notification) (string, error) {
	payment, err := s.payments.FindByProviderIntentID(ctx, notif.IntentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OutcomeError, pkgerrors.New(pkgerrors.CodeNotFound, "no payment for provider intent").
				WithDetails(map[string]any{"intent_id": notif.IntentID})
		}
		return OutcomeError, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payment")
	}

	switch payment.Status {
	case enums.PaymentStatusFailed:
		s.logger.Info(ctx, "payment already failed, acknowledging redelivery")
		return OutcomeDuplicate, nil
	case enums.PaymentStatusSucceeded:
		return OutcomeConflict, pkgerrors.New(pkgerrors.CodeConflict, "failure reported for an already-succeeded payment").
			WithDetails(map[string]any{"payment_id": payment.ID})
	}

	var reason *string
	if notif.Reason != "" {
		reason = &notif.Reason
	}
	moved, err := s.payments.TransitionFrom(ctx, payment.ID, enums.PaymentStatusPending, enums.PaymentStatusFailed, reason)
	if err != nil {
		return OutcomeError, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking payment failed")
	}
	if !moved {
		// Lost a race against the succeeded webhook or another failure.
		return OutcomeConflict, pkgerrors.New(pkgerrors.CodeConflict, "payment changed status during reconciliation").
			WithDetails(map[string]any{"payment_id": payment.ID})
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:      payment.ClientID,
		ActorRole:    enums.ActorRoleClient,
		Action:       enums.AuditActionPaymentFailed,
		ResourceType: "payment",
		ResourceID:   payment.ID,
	})
	s.logger.Info(ctx, "payment marked failed from provider notification")
	return OutcomeApplied, nil
}

func isConflict(err error) bool {
	code := pkgerrors.As(err).Code()
	return code == pkgerrors.CodeConflict || code == pkgerrors.CodeStateConflict
}

func statusChange(from, to string) json.RawMessage {
	raw, err := json.Marshal(map[string]string{"from": from, "to": to})
	if err != nil {
		return nil
	}
	return raw
}
