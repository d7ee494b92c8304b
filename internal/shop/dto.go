package shop

import (
	errors "github.com/permitworks/permit-management/internal"
	"github.com/permitworks/permit-management/internal/core/common/validation"
)

type CreateShopDTO struct {
	Name         string `json:"name"`
	ShopNumber   string `json:"shop_number"`
	Floor        string `json:"floor,omitempty"`
	Category     string `json:"category,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	SystemEmail  string `json:"system_email"`
}

func (dto CreateShopDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(120)
	v.Field("shop_number", dto.ShopNumber).Required().MaxLength(20)
	v.Field("system_email", dto.SystemEmail).Required().MaxLength(255)
	return v.Validate()
}

type UpdateShopDTO struct {
	Name         *string `json:"name,omitempty"`
	Floor        *string `json:"floor,omitempty"`
	Category     *string `json:"category,omitempty"`
	ContactName  *string `json:"contact_name,omitempty"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
	Status       *string `json:"status,omitempty"`
}

func (dto UpdateShopDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if dto.Status != nil {
		v.Field("status", *dto.Status).OneOf(ValidStatuses(), errors.ErrCodeValidationFailed)
	}
	if dto.Name != nil {
		v.Field("name", *dto.Name).Required().MaxLength(120)
	}
	return v.Validate()
}

// UpdateContactDTO is the tenant-editable subset of shop fields.
type UpdateContactDTO struct {
	ContactName  *string `json:"contact_name,omitempty"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
}

// CreateShopResponse returns the new shop together with the generated
// credentials of its paired tenant account. The password is shown once.
type CreateShopResponse struct {
	Shop           *Shop  `json:"shop"`
	TenantEmail    string `json:"tenant_email"`
	TenantPassword string `json:"tenant_password"`
}
