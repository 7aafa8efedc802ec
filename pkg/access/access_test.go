package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/lexbid/lexbid-backend/pkg/db/models"
	"github.com/lexbid/lexbid-backend/pkg/enums"
)

type fixture struct {
	owner    Actor
	winner   Actor
	loser    Actor
	caseRow  models.Case
	accepted models.Quote
	rejected models.Quote
}

func engagedFixture() fixture {
	owner := Actor{ID: uuid.New(), Role: enums.ActorRoleClient}
	winner := Actor{ID: uuid.New(), Role: enums.ActorRoleLawyer}
	loser := Actor{ID: uuid.New(), Role: enums.ActorRoleLawyer}

	caseID := uuid.New()
	accepted := models.Quote{ID: uuid.New(), CaseID: caseID, LawyerID: winner.ID, Status: enums.QuoteStatusAccepted}
	rejected := models.Quote{ID: uuid.New(), CaseID: caseID, LawyerID: loser.ID, Status: enums.QuoteStatusRejected}
	acceptedID := accepted.ID

	return fixture{
		owner:    owner,
		winner:   winner,
		loser:    loser,
		accepted: accepted,
		rejected: rejected,
		caseRow: models.Case{
			ID:              caseID,
			ClientID:        owner.ID,
			Status:          enums.CaseStatusEngaged,
			AcceptedQuoteID: &acceptedID,
		},
	}
}

func TestOwnerAlwaysSeesOwnCase(t *testing.T) {
	f := engagedFixture()
	quotes := []models.Quote{f.accepted, f.rejected}

	assert.True(t, CanViewCaseSummary(f.owner, f.caseRow).Allowed)
	assert.True(t, CanViewCaseDetail(f.owner, f.caseRow, quotes).Allowed)
	assert.True(t, CanViewFiles(f.owner, f.caseRow, quotes).Allowed)
	assert.True(t, CanViewQuote(f.owner, f.caseRow, f.rejected).Allowed)
}

func TestEngagedLawyerSeesDetailAndFiles(t *testing.T) {
	f := engagedFixture()
	quotes := []models.Quote{f.accepted, f.rejected}

	assert.True(t, CanViewCaseDetail(f.winner, f.caseRow, quotes).Allowed)
	assert.True(t, CanViewFiles(f.winner, f.caseRow, quotes).Allowed)
}

func TestRejectedLawyerDeniedFilesOnEngagedCase(t *testing.T) {
	f := engagedFixture()
	quotes := []models.Quote{f.accepted, f.rejected}

	assert.False(t, CanViewFiles(f.loser, f.caseRow, quotes).Allowed)
	assert.False(t, CanViewCaseDetail(f.loser, f.caseRow, quotes).Allowed)
	// Engaged cases are no longer browsable summaries for other lawyers.
	assert.False(t, CanViewCaseSummary(f.loser, f.caseRow).Allowed)
}

func TestLawyerSeesOpenCaseSummariesOnly(t *testing.T) {
	lawyer := Actor{ID: uuid.New(), Role: enums.ActorRoleLawyer}
	open := models.Case{ID: uuid.New(), ClientID: uuid.New(), Status: enums.CaseStatusOpen}

	assert.True(t, CanViewCaseSummary(lawyer, open).Allowed)
	assert.False(t, CanViewCaseDetail(lawyer, open, nil).Allowed)
	assert.False(t, CanViewFiles(lawyer, open, nil).Allowed)

	closed := open
	closed.Status = enums.CaseStatusClosed
	assert.False(t, CanViewCaseSummary(lawyer, closed).Allowed)
}

func TestOtherClientDenied(t *testing.T) {
	f := engagedFixture()
	stranger := Actor{ID: uuid.New(), Role: enums.ActorRoleClient}

	assert.False(t, CanViewCaseSummary(stranger, f.caseRow).Allowed)
	assert.False(t, CanViewCaseDetail(stranger, f.caseRow, nil).Allowed)
	assert.False(t, CanViewFiles(stranger, f.caseRow, nil).Allowed)
}

func TestQuoteVisibility(t *testing.T) {
	f := engagedFixture()

	assert.True(t, CanViewQuote(f.loser, f.caseRow, f.rejected).Allowed, "lawyer sees own quote")
	assert.False(t, CanViewQuote(f.loser, f.caseRow, f.accepted).Allowed, "competing quote hidden")

	foreign := models.Quote{ID: uuid.New(), CaseID: uuid.New(), LawyerID: f.loser.ID}
	assert.False(t, CanViewQuote(f.owner, f.caseRow, foreign).Allowed, "cross-case quote denied")
}

func TestAcceptedQuoteReferenceMustMatch(t *testing.T) {
	f := engagedFixture()
	otherID := uuid.New()
	f.caseRow.AcceptedQuoteID = &otherID

	quotes := []models.Quote{f.accepted, f.rejected}
	assert.False(t, CanViewFiles(f.winner, f.caseRow, quotes).Allowed)
}
