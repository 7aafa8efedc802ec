package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lexbid/lexbid-backend/api/middleware"
	casesvc "github.com/lexbid/lexbid-backend/internal/cases"
	"github.com/lexbid/lexbid-backend/pkg/access"
	"github.com/lexbid/lexbid-backend/pkg/db/models"
	"github.com/lexbid/lexbid-backend/pkg/enums"
	pkgerrors "github.com/lexbid/lexbid-backend/pkg/errors"
	"github.com/lexbid/lexbid-backend/pkg/pagination"
)

type stubCaseService struct {
	created *casesvc.CreateCaseInput
	record  *models.Case
	list    *casesvc.CaseList
	err     error
}

func (s *stubCaseService) Create(_ context.Context, input casesvc.CreateCaseInput) (*models.Case, error) {
	s.created = &input
	return s.record, s.err
}

func (s *stubCaseService) Detail(context.Context, access.Actor, uuid.UUID) (*casesvc.CaseDetail, error) {
	return nil, s.err
}

func (s *stubCaseService) Close(context.Context, access.Actor, uuid.UUID) (*models.Case, error) {
	return s.record, s.err
}

func (s *stubCaseService) Cancel(context.Context, access.Actor, uuid.UUID) (*models.Case, error) {
	return s.record, s.err
}

func (s *stubCaseService) ListMine(context.Context, access.Actor, pagination.Params) (*casesvc.CaseList, error) {
	return s.list, s.err
}

func (s *stubCaseService) ListOpen(_ context.Context, _ pagination.Params, filters casesvc.ListFilters) (*casesvc.CaseList, error) {
	return s.list, s.err
}

func withChiParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func clientRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	actor := access.Actor{ID: uuid.New(), Role: enums.ActorRoleClient}
	return req.WithContext(middleware.WithActor(req.Context(), actor))
}

func TestCaseCreateSuccess(t *testing.T) {
	svc := &stubCaseService{record: &models.Case{
		ID:       uuid.New(),
		Category: enums.CaseCategoryFamily,
		Status:   enums.CaseStatusOpen,
	}}
	handler := CaseCreate(svc, nil)

	body := `{"category":"family","description":"Divorce filing with shared custody"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, clientRequest(http.MethodPost, "/api/v1/cases", body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.created == nil {
		t.Fatal("expected service called")
	}
	if svc.created.Category != enums.CaseCategoryFamily {
		t.Fatalf("unexpected category %s", svc.created.Category)
	}

	var envelope struct {
		Data models.Case `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != svc.record.ID {
		t.Fatalf("unexpected case id %s", envelope.Data.ID)
	}
}

func TestCaseCreateRejectsUnknownCategory(t *testing.T) {
	svc := &stubCaseService{}
	handler := CaseCreate(svc, nil)

	body := `{"category":"astrology","description":"reading the stars"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, clientRequest(http.MethodPost, "/api/v1/cases", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.created != nil {
		t.Fatal("expected service not called")
	}
}

func TestCaseCreateRejectsMissingFields(t *testing.T) {
	handler := CaseCreate(&stubCaseService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, clientRequest(http.MethodPost, "/api/v1/cases", `{"category":"family"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCaseCreateRequiresIdentity(t *testing.T) {
	handler := CaseCreate(&stubCaseService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cases", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCaseListOpenRejectsBadLimit(t *testing.T) {
	handler := CaseListOpen(&stubCaseService{list: &casesvc.CaseList{}}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, clientRequest(http.MethodGet, "/api/v1/open-cases?limit=9999", ""))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCaseListOpenFiltersByCategory(t *testing.T) {
	svc := &stubCaseService{list: &casesvc.CaseList{Cases: []casesvc.CaseSummary{}}}
	handler := CaseListOpen(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, clientRequest(http.MethodGet, "/api/v1/open-cases?category=family", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCaseCloseMapsServiceErrors(t *testing.T) {
	handler := CaseClose(&stubCaseService{
		err: pkgerrors.New(pkgerrors.CodeStateConflict, "case is not open"),
	}, nil)

	target := "/api/v1/cases/" + uuid.NewString() + "/close"
	req := clientRequest(http.MethodPost, target, "")
	req = withChiParam(req, "caseId", uuid.NewString())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}
