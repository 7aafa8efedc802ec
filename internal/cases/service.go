package cases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lexbid/lexbid-backend/internal/audit"
	"github.com/lexbid/lexbid-backend/pkg/access"
	"github.com/lexbid/lexbid-backend/pkg/db/models"
	"github.com/lexbid/lexbid-backend/pkg/engagement"
	"github.com/lexbid/lexbid-backend/pkg/enums"
	pkgerrors "github.com/lexbid/lexbid-backend/pkg/errors"
	"github.com/lexbid/lexbid-backend/pkg/pagination"
)

const maxDescriptionLength = 10000

type quotesReader interface {
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.Quote, error)
}

// Service defines case-level operations beyond repository reads.
type Service interface {
	Create(ctx context.Context, input CreateCaseInput) (*models.Case, error)
	Detail(ctx context.Context, actor access.Actor, caseID uuid.UUID) (*CaseDetail, error)
	Close(ctx context.Context, actor access.Actor, caseID uuid.UUID) (*models.Case, error)
	Cancel(ctx context.Context, actor access.Actor, caseID uuid.UUID) (*models.Case, error)
	ListMine(ctx context.Context, actor access.Actor, params pagination.Params) (*CaseList, error)
	ListOpen(ctx context.Context, params pagination.Params, filters ListFilters) (*CaseList, error)
}

type service struct {
	repo   Repository
	quotes quotesReader
	audit  audit.Service
}

// NewService builds a case service with the required dependencies.
func NewService(repo Repository, quotes quotesReader, auditSvc audit.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cases repository required")
	}
	if quotes == nil {
		return nil, fmt.Errorf("quotes reader required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit service required")
	}
	return &service{repo: repo, quotes: quotes, audit: auditSvc}, nil
}

func (s *service) Create(ctx context.Context, input CreateCaseInput) (*models.Case, error) {
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "client identity missing")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown case category %q", input.Category))
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if len(description) > maxDescriptionLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is too long")
	}

	record := &models.Case{
		ID:          uuid.New(),
		ClientID:    input.ClientID,
		Category:    input.Category,
		Description: description,
		Status:      enums.CaseStatusOpen,
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating case")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:      input.ClientID,
		ActorRole:    enums.ActorRoleClient,
		Action:       enums.AuditActionCaseCreated,
		ResourceType: "case",
		ResourceID:   created.ID,
	})
	return created, nil
}

func (s *service) Detail(ctx context.Context, actor access.Actor, caseID uuid.UUID) (*CaseDetail, error) {
	record, err := s.find(ctx, caseID)
	if err != nil {
		return nil, err
	}

	quotes, err := s.quotes.ListByCase(ctx, caseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading case quotes")
	}

	// Browsing lawyers may read an open case but never the client's
	// identity; only the owner and the engaged accepted lawyer get the full
	// projection.
	fullDetail := access.CanViewCaseDetail(actor, *record, quotes).Allowed
	if !fullDetail {
		if decision := access.CanViewCaseSummary(actor, *record); !decision.Allowed {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, decision.Reason)
		}
	}

	visible := make([]QuoteView, 0, len(quotes))
	for _, quote := range quotes {
		if access.CanViewQuote(actor, *record, quote).Allowed {
			visible = append(visible, toQuoteView(actor, *record, quote))
		}
	}

	return &CaseDetail{
		Case:         toCaseView(*record, fullDetail),
		Quotes:       visible,
		FilesVisible: access.CanViewFiles(actor, *record, quotes).Allowed,
	}, nil
}

func (s *service) Close(ctx context.Context, actor access.Actor, caseID uuid.UUID) (*models.Case, error) {
	return s.resolve(ctx, actor, caseID, enums.CaseStatusClosed)
}

func (s *service) Cancel(ctx context.Context, actor access.Actor, caseID uuid.UUID) (*models.Case, error) {
	return s.resolve(ctx, actor, caseID, enums.CaseStatusCancelled)
}

// resolve performs the owner-initiated open -> closed/cancelled transition.
// The guarded update keeps a concurrent engagement from being overwritten.
func (s *service) resolve(ctx context.Context, actor access.Actor, caseID uuid.UUID, target enums.CaseStatus) (*models.Case, error) {
	record, err := s.find(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if actor.Role != enums.ActorRoleClient || record.ClientID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the case owner may resolve a case")
	}
	if err := engagement.EnsureCaseTransition(record.Status, target); err != nil {
		return nil, err
	}

	updated, err := s.repo.TransitionFrom(ctx, caseID, enums.CaseStatusOpen, target, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating case status")
	}
	if !updated {
		// Lost the race to another transition. Re-read so the error carries
		// the status that won.
		current, findErr := s.find(ctx, caseID)
		if findErr != nil {
			return nil, findErr
		}
		return nil, engagement.EnsureCaseTransition(current.Status, target)
	}

	record.Status = target
	s.audit.Record(ctx, audit.Entry{
		ActorID:      actor.ID,
		ActorRole:    actor.Role,
		Action:       enums.AuditActionCaseStatusChanged,
		ResourceType: "case",
		ResourceID:   caseID,
		Changes:      statusChange(enums.CaseStatusOpen, target),
	})
	return record, nil
}

func (s *service) ListMine(ctx context.Context, actor access.Actor, params pagination.Params) (*CaseList, error) {
	if actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	records, cursor, err := s.repo.ListByClient(ctx, actor.ID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing cases")
	}
	return buildList(records, cursor), nil
}

func (s *service) ListOpen(ctx context.Context, params pagination.Params, filters ListFilters) (*CaseList, error) {
	if filters.Category != nil && !filters.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown case category %q", *filters.Category))
	}
	records, cursor, err := s.repo.ListOpen(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing open cases")
	}
	return buildList(records, cursor), nil
}

func (s *service) find(ctx context.Context, caseID uuid.UUID) (*models.Case, error) {
	if caseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "case id required")
	}
	record, err := s.repo.FindByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "case not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading case")
	}
	return record, nil
}

func buildList(records []models.Case, cursor *pagination.Cursor) *CaseList {
	list := &CaseList{Cases: make([]CaseSummary, 0, len(records))}
	for _, record := range records {
		list.Cases = append(list.Cases, toSummary(record))
	}
	if cursor != nil {
		list.NextCursor = pagination.EncodeCursor(*cursor)
	}
	return list
}

func statusChange(from, to enums.CaseStatus) []byte {
	return []byte(fmt.Sprintf(`{"from":%q,"to":%q}`, from, to))
}
