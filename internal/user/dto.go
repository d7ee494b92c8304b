package user

import (
	errors "github.com/permitworks/permit-management/internal"
	"github.com/permitworks/permit-management/internal/auth"
	"github.com/permitworks/permit-management/internal/core/common/validation"
)

type CreateUserDTO struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password,omitempty"`
}

func (dto CreateUserDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("email", dto.Email).Required().MaxLength(255)
	v.Field("name", dto.Name).Required().MaxLength(120)
	v.Field("role", dto.Role).
		Required().
		OneOf(staffRoles(), errors.ErrCodeValidationFailed)
	if dto.Password != "" {
		v.Field("password", dto.Password).MinLength(8).MaxLength(72)
	}
	return v.Validate()
}

// staffRoles excludes tenant: tenant accounts are provisioned through shop
// creation, never directly.
func staffRoles() []string {
	return []string{
		string(auth.RoleAdmin),
		string(auth.RoleOperations),
		string(auth.RoleTechnical),
		string(auth.RoleSecurity),
	}
}

type ResetPasswordResponse struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}
