// Package access centralizes every visibility rule for cases, quotes, and
// case files into pure decision functions. Handlers and the file-serving path
// call these on every request with freshly loaded state; decisions are never
// cached because engagement can change between two reads.
package access

import (
	"github.com/google/uuid"

	"github.com/lexbid/lexbid-backend/pkg/db/models"
	"github.com/lexbid/lexbid-backend/pkg/enums"
)

// Actor is the explicit request identity passed into every core operation.
type Actor struct {
	ID   uuid.UUID
	Role enums.ActorRole
}

// Decision is a tagged allow/deny result. Reason is only set on denial and is
// meant for logs, not for API responses.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// CanViewCaseSummary decides whether the actor may see the anonymized case
// summary. Owners always can; lawyers only while the case is open for bidding.
func CanViewCaseSummary(actor Actor, c models.Case) Decision {
	if isOwner(actor, c) {
		return allow()
	}
	if actor.Role == enums.ActorRoleLawyer && c.Status == enums.CaseStatusOpen {
		return allow()
	}
	return deny("case summary restricted to the owner or lawyers browsing open cases")
}

// CanViewCaseDetail decides whether the actor may see the full case detail.
// Owners always can; a lawyer only once engaged as the accepted lawyer.
func CanViewCaseDetail(actor Actor, c models.Case, quotes []models.Quote) Decision {
	if isOwner(actor, c) {
		return allow()
	}
	if isEngagedLawyer(actor, c, quotes) {
		return allow()
	}
	return deny("case detail restricted to the owner and the engaged lawyer")
}

// CanViewFiles decides whether the actor may be issued signed URLs for the
// case's documents. Identical population to full case detail: the owner and
// the engaged accepted lawyer. A lawyer holding only a rejected quote is
// denied even though they once bid on the case.
func CanViewFiles(actor Actor, c models.Case, quotes []models.Quote) Decision {
	if isOwner(actor, c) {
		return allow()
	}
	if isEngagedLawyer(actor, c, quotes) {
		return allow()
	}
	return deny("files restricted to the owner and the engaged lawyer")
}

// CanViewQuote decides whether the actor may see an individual quote: the
// case owner (competing lawyer identities are anonymized separately) or the
// quote's own lawyer.
func CanViewQuote(actor Actor, c models.Case, q models.Quote) Decision {
	if q.CaseID != c.ID {
		return deny("quote does not belong to the case")
	}
	if isOwner(actor, c) {
		return allow()
	}
	if actor.Role == enums.ActorRoleLawyer && q.LawyerID == actor.ID {
		return allow()
	}
	return deny("quote restricted to the case owner and its author")
}

func isOwner(actor Actor, c models.Case) bool {
	return actor.Role == enums.ActorRoleClient && c.ClientID == actor.ID
}

// isEngagedLawyer requires the full chain: engaged case, an accepted quote
// authored by the actor, and the case's accepted-quote reference pointing at
// that same quote.
func isEngagedLawyer(actor Actor, c models.Case, quotes []models.Quote) bool {
	if actor.Role != enums.ActorRoleLawyer {
		return false
	}
	if c.Status != enums.CaseStatusEngaged || c.AcceptedQuoteID == nil {
		return false
	}
	for _, q := range quotes {
		if q.LawyerID != actor.ID || q.Status != enums.QuoteStatusAccepted {
			continue
		}
		if q.CaseID == c.ID && q.ID == *c.AcceptedQuoteID {
			return true
		}
	}
	return false
}
