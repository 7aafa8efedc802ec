package provider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lexbid/lexbid-backend/pkg/config"
	pkgerrors "github.com/lexbid/lexbid-backend/pkg/errors"
	"github.com/lexbid/lexbid-backend/pkg/logger"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw webhook body.
const SignatureHeader = "X-Provider-Signature"

const maxResponseBytes = 1 << 20

var (
	errBaseURLRequired       = errors.New("provider base url is required")
	errAPIKeyRequired        = errors.New("provider api key is required")
	errWebhookSecretRequired = errors.New("provider webhook secret is required")
	errLoggerRequired        = errors.New("provider logger is required")
)

// Client wraps the payment provider's HTTP API with centralized auth,
// logging, idempotency, and error mapping.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	webhookSecret string
	currency      string
	logger        *logger.Logger
}

// NewClient validates the credentials and builds the provider wrapper.
func NewClient(ctx context.Context, cfg config.ProviderConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		return nil, errWebhookSecretRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       baseURL,
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		currency:      strings.ToLower(strings.TrimSpace(cfg.Currency)),
		logger:        logg,
	}

	logg.Info(ctx, "payment provider client initialized")
	return c, nil
}

// Currency reports the configured settlement currency.
func (c *Client) Currency() string {
	if c == nil {
		return ""
	}
	return c.currency
}

// NewIdempotencyKey returns a unique key for provider operations.
func (c *Client) NewIdempotencyKey(prefix string) string {
	key := strings.TrimSpace(prefix)
	if key == "" {
		key = "lx"
	}
	return fmt.Sprintf("%s-%s", key, uuid.NewString())
}

// CreateChargeIntent registers a pending charge with the provider and
// returns the intent handle the client uses to complete payment.
func (c *Client) CreateChargeIntent(ctx context.Context, params ChargeIntentParams) (*ChargeIntent, error) {
	if params.AmountMinorUnits <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge amount must be positive")
	}
	currency := strings.ToLower(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = c.currency
	}

	body := map[string]any{
		"amount":   params.AmountMinorUnits,
		"currency": currency,
	}
	if len(params.Metadata) > 0 {
		body["metadata"] = params.Metadata
	}

	c.log(ctx, "request", "create_charge_intent", map[string]any{
		"amount":   params.AmountMinorUnits,
		"currency": currency,
	})

	intent := &ChargeIntent{}
	idempotencyKey := c.ensureIdempotencyKey("charge_intent.create", params.IdempotencyKey)
	if err := c.post(ctx, "/v1/charge_intents", idempotencyKey, body, intent); err != nil {
		c.log(ctx, "error", "create_charge_intent", map[string]any{"error": err.Error()})
		return nil, err
	}
	if strings.TrimSpace(intent.IntentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "provider returned charge intent without id")
	}

	c.log(ctx, "response", "create_charge_intent", map[string]any{
		"intent_id": intent.IntentID,
		"status":    intent.Status,
	})
	return intent, nil
}

// VerifyAndParseNotification authenticates a raw webhook payload against the
// shared secret and decodes it. The signature covers the exact raw body.
func (c *Client) VerifyAndParseNotification(payload []byte, signature string) (*Notification, error) {
	sig := strings.TrimSpace(signature)
	if sig == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing webhook signature")
	}
	provided, err := hex.DecodeString(sig)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "malformed webhook signature")
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(payload)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature mismatch")
	}

	notification := &Notification{}
	if err := json.Unmarshal(payload, notification); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding webhook payload")
	}
	if strings.TrimSpace(notification.Type) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook payload missing type")
	}
	return notification, nil
}

// SignPayload computes the signature the provider would attach to payload.
func (c *Client) SignPayload(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) post(ctx context.Context, path, idempotencyKey string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding provider request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building provider request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling payment provider")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading provider response")
	}

	if resp.StatusCode >= 400 {
		return c.mapProviderError(resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding provider response")
		}
	}
	return nil
}

func (c *Client) ensureIdempotencyKey(prefix, provided string) string {
	if strings.TrimSpace(provided) != "" {
		return provided
	}
	return c.NewIdempotencyKey(prefix)
}

func (c *Client) mapProviderError(status int, raw []byte) error {
	message := "payment provider request failed"
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if trimmed := strings.TrimSpace(payload.Error.Message); trimmed != "" {
			message = trimmed
		}
	}
	return pkgerrors.New(domainCodeForStatus(status), message)
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("provider %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("provider %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "key", "signature"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
