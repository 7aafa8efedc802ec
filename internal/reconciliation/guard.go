package reconciliation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lexbid/lexbid-backend/pkg/logger"
)

const dedupeScope = "provider-webhook"

type dedupeStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Guard is a best-effort deduplication filter for webhook deliveries. It is
// deliberately not authoritative: the payment row's status transition is.
// Redis outages therefore fail open rather than blocking reconciliation.
type Guard struct {
	store  dedupeStore
	ttl    time.Duration
	logger *logger.Logger
}

func NewGuard(store dedupeStore, ttl time.Duration, logg *logger.Logger) *Guard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Guard{store: store, ttl: ttl, logger: logg}
}

// Acquire claims the delivery id, returning false when another delivery with
// the same id already claimed it inside the TTL window.
func (g *Guard) Acquire(ctx context.Context, deliveryID string) bool {
	if g == nil || g.store == nil || strings.TrimSpace(deliveryID) == "" {
		return true
	}
	ok, err := g.store.SetNX(ctx, g.store.IdempotencyKey(dedupeScope, deliveryID), time.Now().UTC().Format(time.RFC3339), g.ttl)
	if err != nil {
		if g.logger != nil {
			g.logger.Warn(ctx, fmt.Sprintf("webhook dedupe store unavailable, proceeding without it: %v", err))
		}
		return true
	}
	return ok
}

// Release frees the claim so the provider's retry of a failed delivery is not
// swallowed as a duplicate.
func (g *Guard) Release(ctx context.Context, deliveryID string) {
	if g == nil || g.store == nil || strings.TrimSpace(deliveryID) == "" {
		return
	}
	if err := g.store.Del(ctx, g.store.IdempotencyKey(dedupeScope, deliveryID)); err != nil && g.logger != nil {
		g.logger.Warn(ctx, fmt.Sprintf("releasing webhook dedupe claim: %v", err))
	}
}
