package enums

// AuditAction names the operations recorded in the audit trail.
type AuditAction string

const (
	AuditActionCaseCreated          AuditAction = "case.created"
	AuditActionCaseStatusChanged    AuditAction = "case.status_changed"
	AuditActionFileAttached         AuditAction = "file.attached"
	AuditActionQuoteSubmitted       AuditAction = "quote.submitted"
	AuditActionQuoteUpdated         AuditAction = "quote.updated"
	AuditActionQuoteWithdrawn       AuditAction = "quote.withdrawn"
	AuditActionPaymentIntentCreated AuditAction = "payment.intent_created"
	AuditActionPaymentSucceeded     AuditAction = "payment.succeeded"
	AuditActionPaymentFailed        AuditAction = "payment.failed"
)

var validAuditActions = []AuditAction{
	AuditActionCaseCreated,
	AuditActionCaseStatusChanged,
	AuditActionFileAttached,
	AuditActionQuoteSubmitted,
	AuditActionQuoteUpdated,
	AuditActionQuoteWithdrawn,
	AuditActionPaymentIntentCreated,
	AuditActionPaymentSucceeded,
	AuditActionPaymentFailed,
}

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// IsValid reports whether the action is one of the recorded operations.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if a == candidate {
			return true
		}
	}
	return false
}
