package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/lexbid/lexbid-backend/api/middleware"
	"github.com/lexbid/lexbid-backend/api/responses"
	"github.com/lexbid/lexbid-backend/api/validators"
	"github.com/lexbid/lexbid-backend/internal/cases"
	"github.com/lexbid/lexbid-backend/pkg/access"
	"github.com/lexbid/lexbid-backend/pkg/db/models"
	"github.com/lexbid/lexbid-backend/pkg/enums"
	pkgerrors "github.com/lexbid/lexbid-backend/pkg/errors"
	"github.com/lexbid/lexbid-backend/pkg/logger"
	"github.com/lexbid/lexbid-backend/pkg/pagination"
)

type createCasePayload struct {
	Category    string `json:"category" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// CaseCreate posts a new case for the authenticated client.
func CaseCreate(svc cases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "case service unavailable"))
			return
		}
		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}

		var payload createCasePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		category, err := enums.ParseCaseCategory(payload.Category)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown case category").
				WithDetails(map[string]any{"category": payload.Category}))
			return
		}

		record, err := svc.Create(ctx, cases.CreateCaseInput{
			ClientID:    actor.ID,
			Category:    category,
			Description: payload.Description,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// CaseDetail returns the case with quotes filtered to the requesting actor.
func CaseDetail(svc cases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "case service unavailable"))
			return
		}
		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}
		caseID, err := validators.ParseUUIDParam(r, "caseId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		detail, err := svc.Detail(ctx, actor, caseID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// CaseClose resolves an open case as completed.
func CaseClose(svc cases.Service, logg *logger.Logger) http.HandlerFunc {
	return resolveCase(svc, logg, func(ctx context.Context, actor access.Actor, caseID uuid.UUID) (*models.Case, error) {
		return svc.Close(ctx, actor, caseID)
	})
}

// CaseCancel resolves an open case as abandoned.
func CaseCancel(svc cases.Service, logg *logger.Logger) http.HandlerFunc {
	return resolveCase(svc, logg, func(ctx context.Context, actor access.Actor, caseID uuid.UUID) (*models.Case, error) {
		return svc.Cancel(ctx, actor, caseID)
	})
}

func resolveCase(svc cases.Service, logg *logger.Logger, resolve func(context.Context, access.Actor, uuid.UUID) (*models.Case, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "case service unavailable"))
			return
		}
		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}
		caseID, err := validators.ParseUUIDParam(r, "caseId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		record, err := resolve(ctx, actor, caseID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// CaseListMine returns the authenticated client's cases, newest first.
func CaseListMine(svc cases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "case service unavailable"))
			return
		}
		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}
		params, err := listParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := svc.ListMine(ctx, actor, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// CaseListOpen returns anonymized open cases for browsing lawyers.
func CaseListOpen(svc cases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "case service unavailable"))
			return
		}
		params, err := listParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var filters cases.ListFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			category, err := enums.ParseCaseCategory(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown case category").
					WithDetails(map[string]any{"category": raw}))
				return
			}
			filters.Category = &category
		}

		list, err := svc.ListOpen(ctx, params, filters)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func listParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
