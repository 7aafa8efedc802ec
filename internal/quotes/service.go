package quotes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lexbid/lexbid-backend/internal/audit"
	"github.com/lexbid/lexbid-backend/pkg/config"
	"github.com/lexbid/lexbid-backend/pkg/db"
	"github.com/lexbid/lexbid-backend/pkg/db/models"
	"github.com/lexbid/lexbid-backend/pkg/enums"
	pkgerrors "github.com/lexbid/lexbid-backend/pkg/errors"
	"github.com/lexbid/lexbid-backend/pkg/pagination"
)

const proposedQuoteConstraint = "ux_quotes_case_lawyer_proposed"

type caseReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Case, error)
}

// Service defines the quote lifecycle operations.
type Service interface {
	SubmitOrUpdate(ctx context.Context, input SubmitQuoteInput) (*SubmitOutcome, error)
	Withdraw(ctx context.Context, quoteID, lawyerID uuid.UUID) error
	ListMine(ctx context.Context, lawyerID uuid.UUID, params pagination.Params) (*QuoteList, error)
}

type service struct {
	repo        Repository
	cases       caseReader
	audit       audit.Service
	maxAmount   decimal.Decimal
	maxDuration int
}

// NewService builds a quote service with the configured submission ceilings.
func NewService(repo Repository, cases caseReader, auditSvc audit.Service, cfg config.QuotesConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("quotes repository required")
	}
	if cases == nil {
		return nil, fmt.Errorf("case reader required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit service required")
	}
	maxAmount, err := decimal.NewFromString(cfg.MaxAmount)
	if err != nil {
		return nil, fmt.Errorf("parsing quote max amount %q: %w", cfg.MaxAmount, err)
	}
	if !maxAmount.IsPositive() {
		return nil, fmt.Errorf("quote max amount must be positive")
	}
	if cfg.MaxDurationDays <= 0 {
		return nil, fmt.Errorf("quote max duration days must be positive")
	}
	return &service{
		repo:        repo,
		cases:       cases,
		audit:       auditSvc,
		maxAmount:   maxAmount,
		maxDuration: cfg.MaxDurationDays,
	}, nil
}

func (s *service) SubmitOrUpdate(ctx context.Context, input SubmitQuoteInput) (*SubmitOutcome, error) {
	if input.LawyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "lawyer identity missing")
	}
	if input.CaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "case id required")
	}
	if err := s.validateTerms(input.Amount, input.DurationDays); err != nil {
		return nil, err
	}

	record, err := s.cases.FindByID(ctx, input.CaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "case not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading case")
	}
	if record.Status != enums.CaseStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "case is not open for quotes").
			WithDetails(map[string]any{"case_status": record.Status})
	}

	existing, err := s.repo.FindProposed(ctx, input.CaseID, input.LawyerID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up proposed quote")
	}
	if existing != nil {
		return s.updateInPlace(ctx, existing, input)
	}

	quote := &models.Quote{
		ID:           uuid.New(),
		CaseID:       input.CaseID,
		LawyerID:     input.LawyerID,
		Amount:       input.Amount,
		DurationDays: input.DurationDays,
		Note:         input.Note,
		Status:       enums.QuoteStatusProposed,
	}
	created, err := s.repo.Create(ctx, quote)
	if err != nil {
		if db.IsUniqueViolation(err, proposedQuoteConstraint) {
			// A concurrent submission won the insert; fold into an update.
			winner, findErr := s.repo.FindProposed(ctx, input.CaseID, input.LawyerID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "resolving concurrent quote submission")
			}
			return s.updateInPlace(ctx, winner, input)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating quote")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:      input.LawyerID,
		ActorRole:    enums.ActorRoleLawyer,
		Action:       enums.AuditActionQuoteSubmitted,
		ResourceType: "quote",
		ResourceID:   created.ID,
	})
	return &SubmitOutcome{Quote: created}, nil
}

func (s *service) updateInPlace(ctx context.Context, existing *models.Quote, input SubmitQuoteInput) (*SubmitOutcome, error) {
	existing.Amount = input.Amount
	existing.DurationDays = input.DurationDays
	existing.Note = input.Note
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating quote")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:      input.LawyerID,
		ActorRole:    enums.ActorRoleLawyer,
		Action:       enums.AuditActionQuoteUpdated,
		ResourceType: "quote",
		ResourceID:   existing.ID,
	})
	return &SubmitOutcome{Quote: existing, Updated: true}, nil
}

// Withdraw deletes the lawyer's own proposed quote. Accepted and rejected
// quotes are already in the payment pipeline and are never deletable; that
// failure is indistinguishable from a missing quote on purpose.
func (s *service) Withdraw(ctx context.Context, quoteID, lawyerID uuid.UUID) error {
	if lawyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "lawyer identity missing")
	}
	if quoteID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "quote id required")
	}

	deleted, err := s.repo.DeleteProposed(ctx, quoteID, lawyerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "withdrawing quote")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no withdrawable quote found")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:      lawyerID,
		ActorRole:    enums.ActorRoleLawyer,
		Action:       enums.AuditActionQuoteWithdrawn,
		ResourceType: "quote",
		ResourceID:   quoteID,
	})
	return nil
}

func (s *service) ListMine(ctx context.Context, lawyerID uuid.UUID, params pagination.Params) (*QuoteList, error) {
	if lawyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "lawyer identity missing")
	}
	quotes, cursor, err := s.repo.ListByLawyer(ctx, lawyerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing quotes")
	}
	list := &QuoteList{Quotes: quotes}
	if cursor != nil {
		list.NextCursor = pagination.EncodeCursor(*cursor)
	}
	return list, nil
}

func (s *service) validateTerms(amount decimal.Decimal, durationDays int) error {
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "quote amount must be positive")
	}
	if amount.GreaterThan(s.maxAmount) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quote amount exceeds the %s ceiling", s.maxAmount))
	}
	if durationDays <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quote duration must be positive")
	}
	if durationDays > s.maxDuration {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quote duration exceeds the %d day ceiling", s.maxDuration))
	}
	return nil
}
