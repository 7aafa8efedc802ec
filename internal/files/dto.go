package files

import "github.com/google/uuid"

// AttachInput records an uploaded object against a case. StorageKey is the
// opaque key the storage gateway returned from the upload handshake.
type AttachInput struct {
	CaseID      uuid.UUID
	ClientID    uuid.UUID
	StorageKey  string
	FileName    string
	ContentType string
	SizeBytes   int64
}

// PrepareUploadInput requests a signed PUT URL for a pending upload.
type PrepareUploadInput struct {
	CaseID      uuid.UUID
	ClientID    uuid.UUID
	FileName    string
	ContentType string
}
