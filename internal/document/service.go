package document

import (
	"log/slog"

	errors "github.com/permitworks/permit-management/internal"
	"github.com/permitworks/permit-management/internal/auth"
	"github.com/permitworks/permit-management/internal/core/common/validation"
)

type Repository interface {
	Create(doc *Document) error
	ListByPermit(permitID string) ([]*Document, error)
	HasDocument(permitID, category string) (bool, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Attach records a document reference against a permit. Route-level
// ownership middleware has already established that the actor may touch the
// permit.
func (s *Service) Attach(actor *auth.Actor, permitID string, dto AttachDocumentDTO) (*Document, error) {
	v := validation.NewValidator()
	v.Field("file_name", dto.FileName).Required().MaxLength(255)
	v.Field("file_url", dto.FileURL).Required().MaxLength(2000)
	v.Field("category", dto.Category).Required().OneOf(ValidCategories(), errors.ErrCodeValidationFailed)
	if err := v.Validate(); err != nil {
		return nil, err
	}

	doc := &Document{
		PermitID:   permitID,
		FileName:   dto.FileName,
		FileURL:    dto.FileURL,
		Category:   dto.Category,
		SizeBytes:  dto.SizeBytes,
		UploadedBy: actor.Email,
	}

	if err := s.repo.Create(doc); err != nil {
		s.logger.Error("failed to attach document", "permit_id", permitID, "error", err)
		return nil, errors.NewInternalError("failed to attach document", err)
	}

	s.logger.Info("document attached",
		"permit_id", permitID, "category", doc.Category, "uploaded_by", doc.UploadedBy)
	return doc, nil
}

func (s *Service) ListByPermit(permitID string) ([]*Document, error) {
	docs, err := s.repo.ListByPermit(permitID)
	if err != nil {
		s.logger.Error("failed to list documents", "permit_id", permitID, "error", err)
		return nil, errors.NewInternalError("failed to list documents", err)
	}
	return docs, nil
}

// HasDocument backs the heavy-work insurance gate in the permit workflow.
func (s *Service) HasDocument(permitID, category string) (bool, error) {
	return s.repo.HasDocument(permitID, category)
}
