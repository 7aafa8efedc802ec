package files

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lexbid/lexbid-backend/internal/audit"
	"github.com/lexbid/lexbid-backend/pkg/access"
	"github.com/lexbid/lexbid-backend/pkg/db/models"
	"github.com/lexbid/lexbid-backend/pkg/enums"
	pkgerrors "github.com/lexbid/lexbid-backend/pkg/errors"
	"github.com/lexbid/lexbid-backend/pkg/logger"
	"github.com/lexbid/lexbid-backend/pkg/storage"
)

type stubRepository struct {
	createFn func(ctx context.Context, file *models.CaseFile) (*models.CaseFile, error)
	findFn   func(ctx context.Context, id uuid.UUID) (*models.CaseFile, error)
	listFn   func(ctx context.Context, caseID uuid.UUID) ([]models.CaseFile, error)
}

func (s *stubRepository) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepository) Create(ctx context.Context, file *models.CaseFile) (*models.CaseFile, error) {
	if s.createFn != nil {
		return s.createFn(ctx, file)
	}
	return file, nil
}

func (s *stubRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.CaseFile, error) {
	if s.findFn != nil {
		return s.findFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepository) ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.CaseFile, error) {
	if s.listFn != nil {
		return s.listFn(ctx, caseID)
	}
	return nil, nil
}

type stubCaseReader struct {
	record *models.Case
	err    error
}

func (s *stubCaseReader) FindByID(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.record, nil
}

type stubQuotesReader struct {
	quotes []models.Quote
}

func (s *stubQuotesReader) ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.Quote, error) {
	return s.quotes, nil
}

type stubStorage struct {
	downloadFn func(ctx context.Context, storageKey string, ttl time.Duration) (*storage.SignedURL, error)
	uploadFn   func(ctx context.Context, keyPrefix, fileName, contentType string, ttl time.Duration) (*storage.UploadTarget, error)
}

func (s *stubStorage) IssueDownloadURL(ctx context.Context, storageKey string, ttl time.Duration) (*storage.SignedURL, error) {
	if s.downloadFn != nil {
		return s.downloadFn(ctx, storageKey, ttl)
	}
	return &storage.SignedURL{URL: "https://signed.example/" + storageKey, ExpiresAt: time.Now().Add(ttl)}, nil
}

func (s *stubStorage) IssueUploadURL(ctx context.Context, keyPrefix, fileName, contentType string, ttl time.Duration) (*storage.UploadTarget, error) {
	if s.uploadFn != nil {
		return s.uploadFn(ctx, keyPrefix, fileName, contentType, ttl)
	}
	return &storage.UploadTarget{StorageKey: keyPrefix + "/" + fileName, URL: "https://upload.example"}, nil
}

func (s *stubStorage) DefaultExpiry() time.Duration { return 15 * time.Minute }

type noopAuditRepo struct{}

func (noopAuditRepo) WithTx(tx *gorm.DB) audit.Repository { return noopAuditRepo{} }
func (noopAuditRepo) Create(ctx context.Context, event *models.AuditEvent) error {
	return nil
}
func (noopAuditRepo) ListByResourceID(ctx context.Context, resourceID uuid.UUID) ([]models.AuditEvent, error) {
	return nil, nil
}

func newTestService(t *testing.T, repo Repository, cases caseReader, quotes quotesReader, store urlIssuer) Service {
	t.Helper()
	auditSvc, err := audit.NewService(noopAuditRepo{}, logger.New(logger.Options{ServiceName: "files-test", Output: io.Discard}))
	require.NoError(t, err)

	svc, err := NewService(repo, cases, quotes, store, auditSvc)
	require.NoError(t, err)
	return svc
}

func openCase(clientID uuid.UUID) *models.Case {
	return &models.Case{
		ID:       uuid.New(),
		ClientID: clientID,
		Status:   enums.CaseStatusOpen,
	}
}

func TestAttachRecordsFileForOwner(t *testing.T) {
	clientID := uuid.New()
	record := openCase(clientID)

	var persisted *models.CaseFile
	repo := &stubRepository{
		createFn: func(ctx context.Context, file *models.CaseFile) (*models.CaseFile, error) {
			persisted = file
			return file, nil
		},
	}
	svc := newTestService(t, repo, &stubCaseReader{record: record}, &stubQuotesReader{}, &stubStorage{})

	created, err := svc.Attach(context.Background(), AttachInput{
		CaseID:      record.ID,
		ClientID:    clientID,
		StorageKey:  "cases/" + record.ID.String() + "/contract.pdf",
		FileName:    "  contract.pdf  ",
		ContentType: "application/pdf",
		SizeBytes:   4096,
	})
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "contract.pdf", created.FileName)
	assert.Equal(t, clientID, created.UploadedBy)
	assert.Equal(t, record.ID, created.CaseID)
}

func TestAttachRejectsNonOwner(t *testing.T) {
	record := openCase(uuid.New())
	svc := newTestService(t, &stubRepository{}, &stubCaseReader{record: record}, &stubQuotesReader{}, &stubStorage{})

	_, err := svc.Attach(context.Background(), AttachInput{
		CaseID:      record.ID,
		ClientID:    uuid.New(),
		StorageKey:  "cases/x/contract.pdf",
		FileName:    "contract.pdf",
		ContentType: "application/pdf",
		SizeBytes:   4096,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestAttachRejectsTerminalCase(t *testing.T) {
	clientID := uuid.New()
	record := openCase(clientID)
	record.Status = enums.CaseStatusCancelled
	svc := newTestService(t, &stubRepository{}, &stubCaseReader{record: record}, &stubQuotesReader{}, &stubStorage{})

	_, err := svc.Attach(context.Background(), AttachInput{
		CaseID:      record.ID,
		ClientID:    clientID,
		StorageKey:  "cases/x/contract.pdf",
		FileName:    "contract.pdf",
		ContentType: "application/pdf",
		SizeBytes:   4096,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestAttachValidation(t *testing.T) {
	clientID := uuid.New()
	record := openCase(clientID)
	svc := newTestService(t, &stubRepository{}, &stubCaseReader{record: record}, &stubQuotesReader{}, &stubStorage{})

	base := AttachInput{
		CaseID:      record.ID,
		ClientID:    clientID,
		StorageKey:  "cases/x/contract.pdf",
		FileName:    "contract.pdf",
		ContentType: "application/pdf",
		SizeBytes:   4096,
	}

	missingKey := base
	missingKey.StorageKey = "   "
	_, err := svc.Attach(context.Background(), missingKey)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	zeroSize := base
	zeroSize.SizeBytes = 0
	_, err = svc.Attach(context.Background(), zeroSize)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	oversize := base
	oversize.SizeBytes = maxFileSizeBytes + 1
	_, err = svc.Attach(context.Background(), oversize)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDownloadURLForOwner(t *testing.T) {
	clientID := uuid.New()
	record := openCase(clientID)
	file := &models.CaseFile{ID: uuid.New(), CaseID: record.ID, StorageKey: "cases/k/contract.pdf"}

	repo := &stubRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.CaseFile, error) {
			return file, nil
		},
	}
	svc := newTestService(t, repo, &stubCaseReader{record: record}, &stubQuotesReader{}, &stubStorage{})

	signed, err := svc.DownloadURL(context.Background(), access.Actor{ID: clientID, Role: enums.ActorRoleClient}, file.ID)
	require.NoError(t, err)
	assert.Contains(t, signed.URL, file.StorageKey)
}

func TestDownloadURLDeniesRejectedLawyer(t *testing.T) {
	lawyerID := uuid.New()
	record := openCase(uuid.New())
	acceptedQuote := models.Quote{ID: uuid.New(), CaseID: record.ID, LawyerID: uuid.New(), Status: enums.QuoteStatusAccepted}
	record.Status = enums.CaseStatusEngaged
	record.AcceptedQuoteID = &acceptedQuote.ID
	rejectedQuote := models.Quote{ID: uuid.New(), CaseID: record.ID, LawyerID: lawyerID, Status: enums.QuoteStatusRejected}

	file := &models.CaseFile{ID: uuid.New(), CaseID: record.ID, StorageKey: "cases/k/contract.pdf"}
	repo := &stubRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.CaseFile, error) {
			return file, nil
		},
	}
	quotes := &stubQuotesReader{quotes: []models.Quote{acceptedQuote, rejectedQuote}}
	svc := newTestService(t, repo, &stubCaseReader{record: record}, quotes, &stubStorage{})

	// The lawyer bid on this case but lost; the engaged lawyer alone may read
	// its documents.
	_, err := svc.DownloadURL(context.Background(), access.Actor{ID: lawyerID, Role: enums.ActorRoleLawyer}, file.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	signed, err := svc.DownloadURL(context.Background(), access.Actor{ID: acceptedQuote.LawyerID, Role: enums.ActorRoleLawyer}, file.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, signed.URL)
}

func TestDownloadURLMissingFile(t *testing.T) {
	svc := newTestService(t, &stubRepository{}, &stubCaseReader{record: openCase(uuid.New())}, &stubQuotesReader{}, &stubStorage{})

	_, err := svc.DownloadURL(context.Background(), access.Actor{ID: uuid.New(), Role: enums.ActorRoleClient}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestPrepareUploadScopesKeyToCase(t *testing.T) {
	clientID := uuid.New()
	record := openCase(clientID)

	var gotPrefix string
	store := &stubStorage{
		uploadFn: func(ctx context.Context, keyPrefix, fileName, contentType string, ttl time.Duration) (*storage.UploadTarget, error) {
			gotPrefix = keyPrefix
			return &storage.UploadTarget{StorageKey: keyPrefix + "/" + fileName, URL: "https://upload.example"}, nil
		},
	}
	svc := newTestService(t, &stubRepository{}, &stubCaseReader{record: record}, &stubQuotesReader{}, store)

	target, err := svc.PrepareUpload(context.Background(), PrepareUploadInput{
		CaseID:      record.ID,
		ClientID:    clientID,
		FileName:    "evidence.png",
		ContentType: "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, "cases/"+record.ID.String(), gotPrefix)
	assert.NotEmpty(t, target.StorageKey)
}

func TestListForCaseGatesOnAccess(t *testing.T) {
	clientID := uuid.New()
	record := openCase(clientID)
	repo := &stubRepository{
		listFn: func(ctx context.Context, caseID uuid.UUID) ([]models.CaseFile, error) {
			return []models.CaseFile{{ID: uuid.New(), CaseID: caseID}}, nil
		},
	}
	svc := newTestService(t, repo, &stubCaseReader{record: record}, &stubQuotesReader{}, &stubStorage{})

	list, err := svc.ListForCase(context.Background(), access.Actor{ID: clientID, Role: enums.ActorRoleClient}, record.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.ListForCase(context.Background(), access.Actor{ID: uuid.New(), Role: enums.ActorRoleLawyer}, record.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}
