package cases

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lexbid/lexbid-backend/internal/audit"
	"github.com/lexbid/lexbid-backend/pkg/access"
	"github.com/lexbid/lexbid-backend/pkg/db/models"
	"github.com/lexbid/lexbid-backend/pkg/enums"
	pkgerrors "github.com/lexbid/lexbid-backend/pkg/errors"
	"github.com/lexbid/lexbid-backend/pkg/logger"
	"github.com/lexbid/lexbid-backend/pkg/pagination"
)

type stubRepository struct {
	createFn     func(ctx context.Context, c *models.Case) (*models.Case, error)
	findFn       func(ctx context.Context, id uuid.UUID) (*models.Case, error)
	transitionFn func(ctx context.Context, id uuid.UUID, from, to enums.CaseStatus, acceptedQuoteID *uuid.UUID) (bool, error)
}

func (s *stubRepository) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepository) Create(ctx context.Context, c *models.Case) (*models.Case, error) {
	if s.createFn != nil {
		return s.createFn(ctx, c)
	}
	return c, nil
}

func (s *stubRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	if s.findFn != nil {
		return s.findFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepository) ListByClient(ctx context.Context, clientID uuid.UUID, params pagination.Params) ([]models.Case, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (s *stubRepository) ListOpen(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Case, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (s *stubRepository) TransitionFrom(ctx context.Context, id uuid.UUID, from, to enums.CaseStatus, acceptedQuoteID *uuid.UUID) (bool, error) {
	if s.transitionFn != nil {
		return s.transitionFn(ctx, id, from, to, acceptedQuoteID)
	}
	return true, nil
}

type stubQuotesReader struct {
	quotes []models.Quote
}

func (s *stubQuotesReader) ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.Quote, error) {
	return s.quotes, nil
}

type noopAuditRepo struct{}

func (noopAuditRepo) WithTx(tx *gorm.DB) audit.Repository { return noopAuditRepo{} }
func (noopAuditRepo) Create(ctx context.Context, event *models.AuditEvent) error {
	return nil
}
func (noopAuditRepo) ListByResourceID(ctx context.Context, resourceID uuid.UUID) ([]models.AuditEvent, error) {
	return nil, nil
}

func newAuditService(t *testing.T) audit.Service {
	t.Helper()
	svc, err := audit.NewService(noopAuditRepo{}, logger.New(logger.Options{ServiceName: "cases-test", Output: io.Discard}))
	require.NoError(t, err)
	return svc
}

func newService(t *testing.T, repo Repository, quotes quotesReader) Service {
	t.Helper()
	svc, err := NewService(repo, quotes, newAuditService(t))
	require.NoError(t, err)
	return svc
}

func TestServiceCreateValidatesInput(t *testing.T) {
	svc := newService(t, &stubRepository{}, &stubQuotesReader{})

	_, err := svc.Create(context.Background(), CreateCaseInput{
		Category:    enums.CaseCategoryFamily,
		Description: "help",
	})
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	_, err = svc.Create(context.Background(), CreateCaseInput{
		ClientID:    uuid.New(),
		Category:    "astrology",
		Description: "help",
	})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(context.Background(), CreateCaseInput{
		ClientID: uuid.New(),
		Category: enums.CaseCategoryFamily,
	})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestServiceCreateAssignsIDAndOpens(t *testing.T) {
	var created *models.Case
	repo := &stubRepository{
		createFn: func(ctx context.Context, c *models.Case) (*models.Case, error) {
			created = c
			return c, nil
		},
	}
	svc := newService(t, repo, &stubQuotesReader{})

	clientID := uuid.New()
	got, err := svc.Create(context.Background(), CreateCaseInput{
		ClientID:    clientID,
		Category:    enums.CaseCategoryCriminal,
		Description: "  DUI defense  ",
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, enums.CaseStatusOpen, got.Status)
	assert.Equal(t, "DUI defense", got.Description)
	assert.Equal(t, clientID, got.ClientID)
}

func TestServiceDetailFiltersQuotesPerActor(t *testing.T) {
	owner := uuid.New()
	lawyerA := uuid.New()
	lawyerB := uuid.New()
	record := &models.Case{
		ID:       uuid.New(),
		ClientID: owner,
		Category: enums.CaseCategoryCorporate,
		Status:   enums.CaseStatusOpen,
	}
	quotes := []models.Quote{
		{ID: uuid.New(), CaseID: record.ID, LawyerID: lawyerA, Status: enums.QuoteStatusProposed},
		{ID: uuid.New(), CaseID: record.ID, LawyerID: lawyerB, Status: enums.QuoteStatusProposed},
	}
	repo := &stubRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Case, error) {
			return record, nil
		},
	}
	svc := newService(t, repo, &stubQuotesReader{quotes: quotes})

	// Owner sees every quote, but bidders stay anonymous while proposed.
	detail, err := svc.Detail(context.Background(), access.Actor{ID: owner, Role: enums.ActorRoleClient}, record.ID)
	require.NoError(t, err)
	require.Len(t, detail.Quotes, 2)
	assert.Nil(t, detail.Quotes[0].LawyerID)
	assert.Nil(t, detail.Quotes[1].LawyerID)
	assert.True(t, detail.FilesVisible)

	// A bidding lawyer sees only their own quote, never the files.
	detail, err = svc.Detail(context.Background(), access.Actor{ID: lawyerA, Role: enums.ActorRoleLawyer}, record.ID)
	require.NoError(t, err)
	require.Len(t, detail.Quotes, 1)
	require.NotNil(t, detail.Quotes[0].LawyerID)
	assert.Equal(t, lawyerA, *detail.Quotes[0].LawyerID)
	assert.False(t, detail.FilesVisible)

	// A stranger client is denied outright.
	_, err = svc.Detail(context.Background(), access.Actor{ID: uuid.New(), Role: enums.ActorRoleClient}, record.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestServiceDetailHidesClientFromBrowsingLawyer(t *testing.T) {
	owner := uuid.New()
	record := &models.Case{
		ID:          uuid.New(),
		ClientID:    owner,
		Category:    enums.CaseCategoryFamily,
		Description: "custody dispute",
		Status:      enums.CaseStatusOpen,
	}
	repo := &stubRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Case, error) {
			return record, nil
		},
	}
	svc := newService(t, repo, &stubQuotesReader{})

	detail, err := svc.Detail(context.Background(), access.Actor{ID: uuid.New(), Role: enums.ActorRoleLawyer}, record.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Case.ClientID)
	assert.Equal(t, "custody dispute", detail.Case.Description)

	payload, err := json.Marshal(detail)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), owner.String())

	// The owner still gets their own identity back.
	detail, err = svc.Detail(context.Background(), access.Actor{ID: owner, Role: enums.ActorRoleClient}, record.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Case.ClientID)
	assert.Equal(t, owner, *detail.Case.ClientID)
}

func TestServiceDetailAnonymizesCompetingQuotes(t *testing.T) {
	owner := uuid.New()
	winner := uuid.New()
	rival := uuid.New()
	acceptedQuoteID := uuid.New()
	record := &models.Case{
		ID:              uuid.New(),
		ClientID:        owner,
		Category:        enums.CaseCategoryCorporate,
		Status:          enums.CaseStatusEngaged,
		AcceptedQuoteID: &acceptedQuoteID,
	}
	quotes := []models.Quote{
		{ID: acceptedQuoteID, CaseID: record.ID, LawyerID: winner, Status: enums.QuoteStatusAccepted},
		{ID: uuid.New(), CaseID: record.ID, LawyerID: rival, Status: enums.QuoteStatusProposed},
	}
	repo := &stubRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Case, error) {
			return record, nil
		},
	}
	svc := newService(t, repo, &stubQuotesReader{quotes: quotes})

	detail, err := svc.Detail(context.Background(), access.Actor{ID: owner, Role: enums.ActorRoleClient}, record.ID)
	require.NoError(t, err)
	require.Len(t, detail.Quotes, 2)

	payload, err := json.Marshal(detail)
	require.NoError(t, err)
	assert.Contains(t, string(payload), winner.String())
	assert.NotContains(t, string(payload), rival.String())

	for _, q := range detail.Quotes {
		if q.ID == acceptedQuoteID {
			require.NotNil(t, q.LawyerID)
			assert.Equal(t, winner, *q.LawyerID)
		} else {
			assert.Nil(t, q.LawyerID)
		}
	}

	// The engaged lawyer sees the client they now represent.
	detail, err = svc.Detail(context.Background(), access.Actor{ID: winner, Role: enums.ActorRoleLawyer}, record.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Case.ClientID)
	assert.Equal(t, owner, *detail.Case.ClientID)
}

func TestServiceCloseRequiresOwner(t *testing.T) {
	record := &models.Case{
		ID:       uuid.New(),
		ClientID: uuid.New(),
		Status:   enums.CaseStatusOpen,
	}
	repo := &stubRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Case, error) {
			return record, nil
		},
	}
	svc := newService(t, repo, &stubQuotesReader{})

	_, err := svc.Close(context.Background(), access.Actor{ID: uuid.New(), Role: enums.ActorRoleClient}, record.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	_, err = svc.Close(context.Background(), access.Actor{ID: record.ClientID, Role: enums.ActorRoleLawyer}, record.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestServiceCloseRejectsNonOpenCase(t *testing.T) {
	record := &models.Case{
		ID:       uuid.New(),
		ClientID: uuid.New(),
		Status:   enums.CaseStatusEngaged,
	}
	repo := &stubRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Case, error) {
			return record, nil
		},
	}
	svc := newService(t, repo, &stubQuotesReader{})

	_, err := svc.Close(context.Background(), access.Actor{ID: record.ClientID, Role: enums.ActorRoleClient}, record.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestServiceCloseReportsConcurrentTransition(t *testing.T) {
	clientID := uuid.New()
	caseID := uuid.New()
	status := enums.CaseStatusOpen
	repo := &stubRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Case, error) {
			return &models.Case{ID: caseID, ClientID: clientID, Status: status}, nil
		},
		transitionFn: func(ctx context.Context, id uuid.UUID, from, to enums.CaseStatus, acceptedQuoteID *uuid.UUID) (bool, error) {
			// Simulate a webhook engaging the case between read and write.
			status = enums.CaseStatusEngaged
			return false, nil
		},
	}
	svc := newService(t, repo, &stubQuotesReader{})

	_, err := svc.Cancel(context.Background(), access.Actor{ID: clientID, Role: enums.ActorRoleClient}, caseID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestServiceCloseSucceeds(t *testing.T) {
	clientID := uuid.New()
	record := &models.Case{ID: uuid.New(), ClientID: clientID, Status: enums.CaseStatusOpen}
	repo := &stubRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Case, error) {
			copied := *record
			return &copied, nil
		},
	}
	svc := newService(t, repo, &stubQuotesReader{})

	got, err := svc.Close(context.Background(), access.Actor{ID: clientID, Role: enums.ActorRoleClient}, record.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CaseStatusClosed, got.Status)
}

func TestServiceDetailNotFound(t *testing.T) {
	svc := newService(t, &stubRepository{}, &stubQuotesReader{})
	_, err := svc.Detail(context.Background(), access.Actor{ID: uuid.New(), Role: enums.ActorRoleClient}, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
