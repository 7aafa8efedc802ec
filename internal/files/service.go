package files

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lexbid/lexbid-backend/internal/audit"
	"github.com/lexbid/lexbid-backend/pkg/access"
	"github.com/lexbid/lexbid-backend/pkg/db"
	"github.com/lexbid/lexbid-backend/pkg/db/models"
	"github.com/lexbid/lexbid-backend/pkg/enums"
	pkgerrors "github.com/lexbid/lexbid-backend/pkg/errors"
	"github.com/lexbid/lexbid-backend/pkg/storage"
)

const (
	storageKeyConstraint = "ux_case_files_storage_key"

	maxFileNameLength = 255
	maxFileSizeBytes  = 100 << 20
)

type caseReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Case, error)
}

type quotesReader interface {
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.Quote, error)
}

type urlIssuer interface {
	IssueDownloadURL(ctx context.Context, storageKey string, ttl time.Duration) (*storage.SignedURL, error)
	IssueUploadURL(ctx context.Context, keyPrefix, fileName, contentType string, ttl time.Duration) (*storage.UploadTarget, error)
	DefaultExpiry() time.Duration
}

// Service manages documents attached to cases. Access to every file follows
// the owning case: the client owner always, the accepted lawyer once engaged.
type Service interface {
	PrepareUpload(ctx context.Context, input PrepareUploadInput) (*storage.UploadTarget, error)
	Attach(ctx context.Context, input AttachInput) (*models.CaseFile, error)
	ListForCase(ctx context.Context, actor access.Actor, caseID uuid.UUID) ([]models.CaseFile, error)
	DownloadURL(ctx context.Context, actor access.Actor, fileID uuid.UUID) (*storage.SignedURL, error)
}

type service struct {
	repo    Repository
	cases   caseReader
	quotes  quotesReader
	storage urlIssuer
	audit   audit.Service
}

func NewService(repo Repository, cases caseReader, quotes quotesReader, storageClient urlIssuer, auditSvc audit.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("files repository required")
	}
	if cases == nil {
		return nil, fmt.Errorf("case reader required")
	}
	if quotes == nil {
		return nil, fmt.Errorf("quotes reader required")
	}
	if storageClient == nil {
		return nil, fmt.Errorf("storage client required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit service required")
	}
	return &service{
		repo:    repo,
		cases:   cases,
		quotes:  quotes,
		storage: storageClient,
		audit:   auditSvc,
	}, nil
}

// PrepareUpload hands the owner a signed PUT URL scoped under the case. The
// record itself is only written once Attach confirms the upload landed.
func (s *service) PrepareUpload(ctx context.Context, input PrepareUploadInput) (*storage.UploadTarget, error) {
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "client identity missing")
	}
	fileName := strings.TrimSpace(input.FileName)
	contentType := strings.TrimSpace(input.ContentType)
	if err := validateFileMeta(fileName, contentType); err != nil {
		return nil, err
	}

	record, err := s.loadOwnedCase(ctx, input.CaseID, input.ClientID)
	if err != nil {
		return nil, err
	}

	target, err := s.storage.IssueUploadURL(ctx, uploadKeyPrefix(record.ID), fileName, contentType, s.storage.DefaultExpiry())
	if err != nil {
		return nil, err
	}
	return target, nil
}

func (s *service) Attach(ctx context.Context, input AttachInput) (*models.CaseFile, error) {
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "client identity missing")
	}
	storageKey := strings.TrimSpace(input.StorageKey)
	if storageKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage key required")
	}
	fileName := strings.TrimSpace(input.FileName)
	contentType := strings.TrimSpace(input.ContentType)
	if err := validateFileMeta(fileName, contentType); err != nil {
		return nil, err
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file size must be positive")
	}
	if input.SizeBytes > maxFileSizeBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file exceeds the maximum allowed size")
	}

	record, err := s.loadOwnedCase(ctx, input.CaseID, input.ClientID)
	if err != nil {
		return nil, err
	}

	file := &models.CaseFile{
		ID:          uuid.New(),
		CaseID:      record.ID,
		StorageKey:  storageKey,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   input.SizeBytes,
		UploadedBy:  input.ClientID,
	}
	created, err := s.repo.Create(ctx, file)
	if err != nil {
		if db.IsUniqueViolation(err, storageKeyConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "storage key is already attached to a case")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "attaching file")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:      input.ClientID,
		ActorRole:    enums.ActorRoleClient,
		Action:       enums.AuditActionFileAttached,
		ResourceType: "case_file",
		ResourceID:   created.ID,
	})
	return created, nil
}

func (s *service) ListForCase(ctx context.Context, actor access.Actor, caseID uuid.UUID) ([]models.CaseFile, error) {
	if caseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "case id required")
	}
	if err := s.authorizeFileAccess(ctx, actor, caseID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListByCase(ctx, caseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing case files")
	}
	return list, nil
}

// DownloadURL authorizes against freshly loaded case state on every call;
// engagement can flip between two requests and grants are never cached.
func (s *service) DownloadURL(ctx context.Context, actor access.Actor, fileID uuid.UUID) (*storage.SignedURL, error) {
	if fileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file id required")
	}
	file, err := s.repo.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "file not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading file")
	}
	if err := s.authorizeFileAccess(ctx, actor, file.CaseID); err != nil {
		return nil, err
	}

	signed, err := s.storage.IssueDownloadURL(ctx, file.StorageKey, s.storage.DefaultExpiry())
	if err != nil {
		return nil, err
	}
	return signed, nil
}

func (s *service) authorizeFileAccess(ctx context.Context, actor access.Actor, caseID uuid.UUID) error {
	record, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "case not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading case")
	}
	quotes, err := s.quotes.ListByCase(ctx, caseID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading case quotes")
	}
	if decision := access.CanViewFiles(actor, *record, quotes); !decision.Allowed {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to access this case's files").
			WithDetails(map[string]any{"reason": decision.Reason})
	}
	return nil
}

func (s *service) loadOwnedCase(ctx context.Context, caseID, clientID uuid.UUID) (*models.Case, error) {
	if caseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "case id required")
	}
	record, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "case not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading case")
	}
	if record.ClientID != clientID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the case owner may attach files")
	}
	if record.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "case no longer accepts files").
			WithDetails(map[string]any{"case_status": record.Status})
	}
	return record, nil
}

func validateFileMeta(fileName, contentType string) error {
	if fileName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "file name required")
	}
	if len(fileName) > maxFileNameLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "file name too long")
	}
	if contentType == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "content type required")
	}
	return nil
}

func uploadKeyPrefix(caseID uuid.UUID) string {
	return "cases/" + caseID.String()
}
