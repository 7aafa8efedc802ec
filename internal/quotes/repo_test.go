package quotes

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lexbid/lexbid-backend/pkg/db/models"
	"github.com/lexbid/lexbid-backend/pkg/enums"
	"github.com/lexbid/lexbid-backend/pkg/pagination"
)

func setupQuotesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	cases := `
CREATE TABLE IF NOT EXISTS cases (
  id TEXT PRIMARY KEY,
  client_id TEXT NOT NULL,
  category TEXT NOT NULL,
  description TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'open',
  accepted_quote_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	quotes := `
CREATE TABLE IF NOT EXISTS quotes (
  id TEXT PRIMARY KEY,
  case_id TEXT NOT NULL,
  lawyer_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  duration_days INTEGER NOT NULL,
  note TEXT,
  status TEXT NOT NULL DEFAULT 'proposed',
  created_at DATETIME,
  updated_at DATETIME
);`
	uniqueProposed := `
CREATE UNIQUE INDEX IF NOT EXISTS ux_quotes_case_lawyer_proposed
  ON quotes (case_id, lawyer_id) WHERE status = 'proposed';`
	require.NoError(t, db.Exec(cases).Error)
	require.NoError(t, db.Exec(quotes).Error)
	require.NoError(t, db.Exec(uniqueProposed).Error)
	return db
}

func newQuote(t *testing.T, db *gorm.DB, caseID, lawyerID uuid.UUID, status enums.QuoteStatus, created time.Time) *models.Quote {
	t.Helper()

	quote := &models.Quote{
		ID:           uuid.New(),
		CaseID:       caseID,
		LawyerID:     lawyerID,
		Amount:       decimal.NewFromInt(1500),
		DurationDays: 30,
		Status:       status,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	require.NoError(t, db.Create(quote).Error)
	return quote
}

func TestRepositoryCreateEnforcesSingleProposed(t *testing.T) {
	db := setupQuotesTestDB(t)
	repo := NewRepository(db)
	caseID := uuid.New()
	lawyerID := uuid.New()

	_, err := repo.Create(context.Background(), &models.Quote{
		ID:           uuid.New(),
		CaseID:       caseID,
		LawyerID:     lawyerID,
		Amount:       decimal.NewFromInt(1000),
		DurationDays: 14,
		Status:       enums.QuoteStatusProposed,
	})
	require.NoError(t, err)

	_, err = repo.Create(context.Background(), &models.Quote{
		ID:           uuid.New(),
		CaseID:       caseID,
		LawyerID:     lawyerID,
		Amount:       decimal.NewFromInt(2000),
		DurationDays: 30,
		Status:       enums.QuoteStatusProposed,
	})
	require.Error(t, err)
}

func TestRepositoryFindProposedAndUpdate(t *testing.T) {
	db := setupQuotesTestDB(t)
	repo := NewRepository(db)
	caseID := uuid.New()
	lawyerID := uuid.New()
	created := newQuote(t, db, caseID, lawyerID, enums.QuoteStatusProposed, time.Now().UTC())

	found, err := repo.FindProposed(context.Background(), caseID, lawyerID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	found.Amount = decimal.NewFromInt(4200)
	found.DurationDays = 60
	note := "includes court filings"
	found.Note = &note
	require.NoError(t, repo.Update(context.Background(), found))

	reloaded, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Amount.Equal(decimal.NewFromInt(4200)))
	assert.Equal(t, 60, reloaded.DurationDays)
	require.NotNil(t, reloaded.Note)
	assert.Equal(t, note, *reloaded.Note)

	// Rejected quotes do not satisfy the proposed lookup.
	require.NoError(t, repo.UpdateStatus(context.Background(), created.ID, enums.QuoteStatusRejected))
	_, err = repo.FindProposed(context.Background(), caseID, lawyerID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryDeleteProposedGuards(t *testing.T) {
	db := setupQuotesTestDB(t)
	repo := NewRepository(db)
	caseID := uuid.New()
	lawyerID := uuid.New()
	quote := newQuote(t, db, caseID, lawyerID, enums.QuoteStatusProposed, time.Now().UTC())

	// Wrong lawyer deletes nothing.
	deleted, err := repo.DeleteProposed(context.Background(), quote.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, deleted)

	// Accepted quotes are not deletable.
	require.NoError(t, repo.UpdateStatus(context.Background(), quote.ID, enums.QuoteStatusAccepted))
	deleted, err = repo.DeleteProposed(context.Background(), quote.ID, lawyerID)
	require.NoError(t, err)
	assert.False(t, deleted)

	require.NoError(t, repo.UpdateStatus(context.Background(), quote.ID, enums.QuoteStatusProposed))
	deleted, err = repo.DeleteProposed(context.Background(), quote.ID, lawyerID)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestRepositoryRejectProposedByCase(t *testing.T) {
	db := setupQuotesTestDB(t)
	repo := NewRepository(db)
	caseID := uuid.New()
	now := time.Now().UTC()

	winner := newQuote(t, db, caseID, uuid.New(), enums.QuoteStatusProposed, now)
	loserA := newQuote(t, db, caseID, uuid.New(), enums.QuoteStatusProposed, now)
	loserB := newQuote(t, db, caseID, uuid.New(), enums.QuoteStatusProposed, now)
	otherCase := newQuote(t, db, uuid.New(), uuid.New(), enums.QuoteStatusProposed, now)

	rejected, err := repo.RejectProposedByCase(context.Background(), caseID, winner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rejected)

	for _, loser := range []*models.Quote{loserA, loserB} {
		got, err := repo.FindByID(context.Background(), loser.ID)
		require.NoError(t, err)
		assert.Equal(t, enums.QuoteStatusRejected, got.Status)
	}

	// The winner and quotes on other cases are untouched.
	got, err := repo.FindByID(context.Background(), winner.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.QuoteStatusProposed, got.Status)

	got, err = repo.FindByID(context.Background(), otherCase.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.QuoteStatusProposed, got.Status)
}

func TestRepositoryListByLawyerPaginates(t *testing.T) {
	db := setupQuotesTestDB(t)
	repo := NewRepository(db)
	lawyerID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 3; i++ {
		newQuote(t, db, uuid.New(), lawyerID, enums.QuoteStatusProposed, base.Add(time.Duration(i)*time.Minute))
	}
	newQuote(t, db, uuid.New(), uuid.New(), enums.QuoteStatusProposed, base)

	first, cursor, err := repo.ListByLawyer(context.Background(), lawyerID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotNil(t, cursor)

	second, next, err := repo.ListByLawyer(context.Background(), lawyerID, pagination.Params{
		Limit:  2,
		Cursor: pagination.EncodeCursor(*cursor),
	})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Nil(t, next)
}
