package memo

import (
	errors "github.com/permitworks/permit-management/internal"
	"github.com/permitworks/permit-management/internal/core/common/validation"
)

type CreateMemoDTO struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Category   string   `json:"category,omitempty"`
	Priority   string   `json:"priority,omitempty"`
	Recipients []string `json:"recipients"`
}

func (dto *CreateMemoDTO) Validate() *errors.AppError {
	if dto.Category == "" {
		dto.Category = CategoryGeneral
	}
	if dto.Priority == "" {
		dto.Priority = PriorityMedium
	}

	v := validation.NewValidator()
	v.Field("title", dto.Title).Required().MaxLength(200)
	v.Field("content", dto.Content).Required().MaxLength(2000)
	v.Field("category", dto.Category).
		OneOf([]string{CategoryGeneral, CategoryPermit, CategorySecurity}, errors.ErrCodeValidationFailed)
	v.Field("priority", dto.Priority).
		OneOf([]string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}, errors.ErrCodeValidationFailed)
	if err := v.Validate(); err != nil {
		return err
	}

	if len(dto.Recipients) == 0 {
		return errors.NewValidationFieldError("recipients", "at least one recipient is required", errors.ErrCodeValidationFailed)
	}
	return nil
}
