package postgres

import (
	"gorm.io/gorm"

	"github.com/permitworks/permit-management/internal/document"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *document.Document) error {
	return r.db.Create(doc).Error
}

func (r *DocumentRepository) ListByPermit(permitID string) ([]*document.Document, error) {
	var docs []*document.Document
	err := r.db.Where("permit_id = ?", permitID).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}

func (r *DocumentRepository) HasDocument(permitID, category string) (bool, error) {
	var count int64
	err := r.db.Model(&document.Document{}).
		Where("permit_id = ? AND category = ?", permitID, category).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
