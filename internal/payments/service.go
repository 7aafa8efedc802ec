package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lexbid/lexbid-backend/internal/audit"
	"github.com/lexbid/lexbid-backend/pkg/access"
	"github.com/lexbid/lexbid-backend/pkg/db/models"
	"github.com/lexbid/lexbid-backend/pkg/enums"
	pkgerrors "github.com/lexbid/lexbid-backend/pkg/errors"
	"github.com/lexbid/lexbid-backend/pkg/provider"
)

var centsFactor = decimal.NewFromInt(100)

// Service defines the client-facing payment operations.
type Service interface {
	CreateIntent(ctx context.Context, input CreateIntentInput) (*IntentResult, error)
	Status(ctx context.Context, actor access.Actor, paymentID uuid.UUID) (*models.Payment, error)
}

type service struct {
	repo     Repository
	quotes   quoteReader
	provider chargeIntentCreator
	audit    audit.Service
}

// NewService builds a payment service with the required dependencies.
func NewService(repo Repository, quotes quoteReader, providerClient chargeIntentCreator, auditSvc audit.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if quotes == nil {
		return nil, fmt.Errorf("quote reader required")
	}
	if providerClient == nil {
		return nil, fmt.Errorf("provider client required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit service required")
	}
	return &service{
		repo:     repo,
		quotes:   quotes,
		provider: providerClient,
		audit:    auditSvc,
	}, nil
}

// CreateIntent registers a charge with the provider for an accepted-to-be
// quote and persists the pending payment row. The provider call happens
// first so a provider failure never leaves a dangling pending payment.
func (s *service) CreateIntent(ctx context.Context, input CreateIntentInput) (*IntentResult, error) {
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "client identity missing")
	}
	if input.QuoteID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote id required")
	}

	quote, err := s.quotes.FindByIDWithCase(ctx, input.QuoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading quote")
	}
	if quote.Case == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "quote is missing its case")
	}
	if quote.Case.ClientID != input.ClientID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the case owner may pay a quote")
	}
	if quote.Case.Status != enums.CaseStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "case is not open for engagement").
			WithDetails(map[string]any{"case_status": quote.Case.Status})
	}
	if quote.Status != enums.QuoteStatusProposed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "quote is no longer proposed").
			WithDetails(map[string]any{"quote_status": quote.Status})
	}

	paymentID := uuid.New()
	amountCents := quote.Amount.Mul(centsFactor).Round(0).IntPart()

	intent, err := s.provider.CreateChargeIntent(ctx, provider.ChargeIntentParams{
		AmountMinorUnits: amountCents,
		Currency:         s.provider.Currency(),
		Metadata: map[string]string{
			"payment_id": paymentID.String(),
			"case_id":    quote.CaseID.String(),
			"quote_id":   quote.ID.String(),
			"client_id":  input.ClientID.String(),
			"lawyer_id":  quote.LawyerID.String(),
		},
	})
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ID:               paymentID,
		CaseID:           quote.CaseID,
		QuoteID:          quote.ID,
		ClientID:         input.ClientID,
		LawyerID:         quote.LawyerID,
		AmountCents:      amountCents,
		Currency:         s.provider.Currency(),
		ProviderIntentID: intent.IntentID,
		Status:           enums.PaymentStatusPending,
	}
	created, err := s.repo.Create(ctx, payment)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting payment")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:      input.ClientID,
		ActorRole:    enums.ActorRoleClient,
		Action:       enums.AuditActionPaymentIntentCreated,
		ResourceType: "payment",
		ResourceID:   created.ID,
	})
	return &IntentResult{Payment: created, ClientToken: intent.ClientToken}, nil
}

// Status reads one payment. Only the paying client and the quoted lawyer
// may see it.
func (s *service) Status(ctx context.Context, actor access.Actor, paymentID uuid.UUID) (*models.Payment, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payment")
	}
	if payment.ClientID != actor.ID && payment.LawyerID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment belongs to another engagement")
	}
	return payment, nil
}
