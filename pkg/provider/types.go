package provider

// Notification event types emitted by the payment provider.
const (
	NotificationChargeSucceeded = "charge.succeeded"
	NotificationChargeFailed    = "charge.failed"
)

// ChargeIntentParams carries the inputs for creating a charge intent.
type ChargeIntentParams struct {
	AmountMinorUnits int64
	Currency         string
	IdempotencyKey   string
	Metadata         map[string]string
}

// ChargeIntent is the provider's handle for a pending charge.
type ChargeIntent struct {
	IntentID    string `json:"id"`
	ClientToken string `json:"client_token"`
	Status      string `json:"status"`
}

// Notification is the decoded body of a provider webhook delivery.
type Notification struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	IntentID string            `json:"intent_id"`
	Reason   string            `json:"reason,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
