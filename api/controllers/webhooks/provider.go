package webhooks

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/lexbid/lexbid-backend/api/responses"
	pkgerrors "github.com/lexbid/lexbid-backend/pkg/errors"
	"github.com/lexbid/lexbid-backend/pkg/logger"
	"github.com/lexbid/lexbid-backend/pkg/provider"
)

const maxWebhookBodyBytes = 1 << 20

type reconciler interface {
	HandleNotification(ctx context.Context, notif *provider.Notification) error
}

type notificationVerifier interface {
	VerifyAndParseNotification(payload []byte, signature string) (*provider.Notification, error)
}

// ProviderWebhook receives charge outcome notifications. Signature
// verification happens before anything touches the database. Permanent
// failures (conflicts, unknown intents) are acknowledged with 200 so the
// provider stops retrying deliveries that can never succeed; transient
// failures return their error status to trigger a retry.
func ProviderWebhook(svc reconciler, verifier notificationVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciliation service unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "provider client unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		notif, err := verifier.VerifyAndParseNotification(payload, r.Header.Get(provider.SignatureHeader))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.HandleNotification(ctx, notif); err != nil {
			if isPermanent(err) {
				if logg != nil {
					logg.Warn(ctx, fmt.Sprintf("acknowledging unprocessable notification %s: %v", notif.ID, err))
				}
				responses.WriteSuccess(w, map[string]string{"status": "acknowledged"})
				return
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("provider notification %s processed", notif.ID))
		}
		responses.WriteSuccess(w, map[string]string{"status": "processed"})
	}
}

// isPermanent reports whether retrying the delivery could ever change the
// outcome. A conflict means another charge already engaged the case; an
// unknown intent means the payment was never created here.
func isPermanent(err error) bool {
	switch pkgerrors.As(err).Code() {
	case pkgerrors.CodeConflict, pkgerrors.CodeStateConflict, pkgerrors.CodeNotFound:
		return true
	}
	return false
}
