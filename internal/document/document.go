package document

import (
	"errors"
	"time"
)

// Document is a metadata reference to an externally stored file. Upload and
// storage mechanics live outside this service.
type Document struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	PermitID   string    `json:"permit_id" gorm:"column:permit_id;not null;index"`
	FileName   string    `json:"file_name" gorm:"column:file_name;not null"`
	FileURL    string    `json:"file_url" gorm:"column:file_url;not null"`
	Category   string    `json:"category" gorm:"column:category;not null"`
	SizeBytes  int64     `json:"size_bytes" gorm:"column:size_bytes"`
	UploadedBy string    `json:"uploaded_by" gorm:"column:uploaded_by;not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (Document) TableName() string {
	return "permit_documents"
}

const (
	CategoryInsurance  = "insurance"
	CategoryContract   = "contract"
	CategoryMethodPlan = "method_plan"
	CategoryOther      = "other"
)

func ValidCategories() []string {
	return []string{CategoryInsurance, CategoryContract, CategoryMethodPlan, CategoryOther}
}

var ErrDocumentNotFound = errors.New("document not found")

// AttachDocumentDTO is the request payload for attaching a document
// reference to a permit.
type AttachDocumentDTO struct {
	FileName  string `json:"file_name"`
	FileURL   string `json:"file_url"`
	Category  string `json:"category"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}
