package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/lexbid/lexbid-backend/api/middleware"
	"github.com/lexbid/lexbid-backend/api/responses"
	"github.com/lexbid/lexbid-backend/api/validators"
	"github.com/lexbid/lexbid-backend/internal/payments"
	pkgerrors "github.com/lexbid/lexbid-backend/pkg/errors"
	"github.com/lexbid/lexbid-backend/pkg/logger"
)

type createIntentPayload struct {
	QuoteID string `json:"quote_id" validate:"required,uuid"`
}

// PaymentIntentCreate opens a provider charge for the selected quote and
// returns the client token needed to complete checkout.
func PaymentIntentCreate(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}

		var payload createIntentPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		quoteID, err := parseUUIDField(payload.QuoteID, "quote_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.CreateIntent(ctx, payments.CreateIntentInput{
			ClientID: actor.ID,
			QuoteID:  quoteID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PaymentStatus returns a payment visible to its client or lawyer.
func PaymentStatus(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}
		paymentID, err := validators.ParseUUIDParam(r, "paymentId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payment, err := svc.Status(ctx, actor, paymentID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

func parseUUIDField(raw, field string) (uuid.UUID, error) {
	value, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "field must be a uuid").
			WithDetails(map[string]any{"field": field})
	}
	return value, nil
}
