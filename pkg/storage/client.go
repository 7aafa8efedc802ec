package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lexbid/lexbid-backend/pkg/config"
	pkgerrors "github.com/lexbid/lexbid-backend/pkg/errors"
	"github.com/lexbid/lexbid-backend/pkg/logger"
)

const (
	pingTimeout      = 5 * time.Second
	maxResponseBytes = 1 << 20
)

var (
	errBaseURLRequired = errors.New("storage base url is required")
	errAPIKeyRequired  = errors.New("storage api key is required")
)

// SignedURL is a time-limited URL granting access to a stored object.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UploadTarget pairs a signed PUT URL with the key the object lands under.
type UploadTarget struct {
	StorageKey string    `json:"key"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Client talks to the document storage gateway. The gateway owns the
// underlying buckets; this service only ever handles signed URLs, never
// file bytes.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	defaultExpiry time.Duration
	logger        *logger.Logger
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func NewClient(ctx context.Context, cfg config.StorageConfig, logg *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	expiry := cfg.DownloadURLExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	client := &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       baseURL,
		apiKey:        apiKey,
		defaultExpiry: expiry,
		logger:        logg,
	}

	if logg != nil {
		logg.Info(ctx, "storage client initialized")
	}
	return client, nil
}

// DefaultExpiry reports the TTL used when callers do not provide one.
func (c *Client) DefaultExpiry() time.Duration {
	if c == nil {
		return 0
	}
	return c.defaultExpiry
}

// IssueDownloadURL asks the gateway for a time-limited GET URL for key.
func (c *Client) IssueDownloadURL(ctx context.Context, storageKey string, ttl time.Duration) (*SignedURL, error) {
	key := strings.TrimSpace(storageKey)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage key is required")
	}
	if ttl <= 0 {
		ttl = c.defaultExpiry
	}

	signed := &SignedURL{}
	body := map[string]any{
		"key":         key,
		"method":      http.MethodGet,
		"ttl_seconds": int64(ttl.Seconds()),
	}
	if err := c.post(ctx, "/v1/signed_urls", body, signed); err != nil {
		return nil, err
	}
	if strings.TrimSpace(signed.URL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "storage gateway returned empty download url")
	}
	return signed, nil
}

// IssueUploadURL asks the gateway for a signed PUT URL under keyPrefix.
func (c *Client) IssueUploadURL(ctx context.Context, keyPrefix, fileName, contentType string, ttl time.Duration) (*UploadTarget, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file name is required")
	}
	if ttl <= 0 {
		ttl = c.defaultExpiry
	}

	target := &UploadTarget{}
	body := map[string]any{
		"key_prefix":   strings.TrimSpace(keyPrefix),
		"file_name":    strings.TrimSpace(fileName),
		"content_type": strings.TrimSpace(contentType),
		"method":       http.MethodPut,
		"ttl_seconds":  int64(ttl.Seconds()),
	}
	if err := c.post(ctx, "/v1/signed_urls", body, target); err != nil {
		return nil, err
	}
	if strings.TrimSpace(target.StorageKey) == "" || strings.TrimSpace(target.URL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "storage gateway returned incomplete upload target")
	}
	return target, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.httpClient == nil {
		return errors.New("storage client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("building storage ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storage ping: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("storage ping returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) Close() error {
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding storage request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building storage request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling storage gateway")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading storage response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, "stored object not found")
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("storage gateway rejected request with status %d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("storage gateway returned status %d", resp.StatusCode))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding storage response")
		}
	}
	return nil
}
