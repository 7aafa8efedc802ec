package models

import (
	"time"

	"github.com/google/uuid"
)

// CaseFile references an object-store document attached to a case. The core
// never inspects file contents; StorageKey is opaque and the external storage
// component issues signed URLs once access is granted.
type CaseFile struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CaseID      uuid.UUID `gorm:"column:case_id;type:uuid;not null;index"`
	StorageKey  string    `gorm:"column:storage_key;not null;unique"`
	FileName    string    `gorm:"column:file_name;not null"`
	ContentType string    `gorm:"column:content_type;not null"`
	SizeBytes   int64     `gorm:"column:size_bytes;not null"`
	UploadedBy  uuid.UUID `gorm:"column:uploaded_by;type:uuid;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (CaseFile) TableName() string {
	return "case_files"
}
