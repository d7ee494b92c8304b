package user

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"

	errors "github.com/permitworks/permit-management/internal"
	"github.com/permitworks/permit-management/internal/auth"
)

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ23456789!@#$%"
const generatedPasswordLength = 16

type Repository interface {
	Create(u *User) error
	GetByID(id int64) (*User, error)
	GetByEmail(email string) (*User, error)
	List(limit, offset int) ([]*User, error)
	Update(u *User) error
}

// PasswordHasher abstracts bcrypt so the auth service owns the cost setting.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type Service struct {
	repo   Repository
	hasher PasswordHasher
	logger *slog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, logger *slog.Logger) *Service {
	return &Service{repo: repo, hasher: hasher, logger: logger}
}

// CreateUser registers a staff account. Tenant accounts come only from shop
// provisioning.
func (s *Service) CreateUser(actor *auth.Actor, dto CreateUserDTO) (*User, string, error) {
	if !actor.HasPermission(auth.PermManageUsers) {
		return nil, "", errors.NewForbiddenError("not allowed to manage users", errors.ErrCodeNotPermitted)
	}
	if err := dto.Validate(); err != nil {
		return nil, "", err
	}

	if existing, err := s.repo.GetByEmail(dto.Email); err == nil && existing != nil {
		return nil, "", errors.NewConflictError("email already in use", errors.ErrCodeDuplicateUser)
	}

	password := dto.Password
	generated := false
	if password == "" {
		var err error
		password, err = generatePassword()
		if err != nil {
			return nil, "", errors.NewInternalError("failed to generate password", err)
		}
		generated = true
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, "", errors.NewInternalError("failed to hash password", err)
	}

	u := &User{
		Email:        dto.Email,
		Name:         dto.Name,
		Role:         auth.Role(dto.Role),
		PasswordHash: hash,
		IsActive:     true,
	}

	if err := s.repo.Create(u); err != nil {
		s.logger.Error("failed to create user", "email", dto.Email, "error", err)
		return nil, "", errors.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user created", "user_id", u.ID, "role", u.Role, "by", actor.Email)

	if generated {
		return u, password, nil
	}
	return u, "", nil
}

// ProvisionTenant creates the paired tenant login for a new shop. Satisfies
// the shop service's provisioner interface.
func (s *Service) ProvisionTenant(shopID int64, shopName, systemEmail string) (string, error) {
	password, err := generatePassword()
	if err != nil {
		return "", err
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return "", err
	}

	u := &User{
		Email:        systemEmail,
		Name:         shopName,
		Role:         auth.RoleTenant,
		ShopID:       &shopID,
		PasswordHash: hash,
		IsActive:     true,
	}

	if err := s.repo.Create(u); err != nil {
		return "", fmt.Errorf("create tenant user: %w", err)
	}

	s.logger.Info("tenant account provisioned", "user_id", u.ID, "shop_id", shopID)
	return password, nil
}

func (s *Service) GetUser(actor *auth.Actor, id int64) (*User, error) {
	if actor.UserID != id && !actor.HasPermission(auth.PermManageUsers) {
		return nil, errors.NewForbiddenError("not allowed to view this user", errors.ErrCodeNotPermitted)
	}

	u, err := s.repo.GetByID(id)
	if err != nil {
		if err == ErrUserNotFound {
			return nil, errors.NewNotFoundError("user not found", errors.ErrCodeUserNotFound)
		}
		return nil, errors.NewInternalError("failed to load user", err)
	}
	return u, nil
}

func (s *Service) ListUsers(actor *auth.Actor, limit, offset int) ([]*User, error) {
	if !actor.HasPermission(auth.PermManageUsers) {
		return nil, errors.NewForbiddenError("not allowed to list users", errors.ErrCodeNotPermitted)
	}

	users, err := s.repo.List(limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, errors.NewInternalError("failed to list users", err)
	}
	return users, nil
}

// DeactivateUser disables a login. Accounts are never deleted so permit
// history keeps its author references.
func (s *Service) DeactivateUser(actor *auth.Actor, id int64) (*User, error) {
	if !actor.HasPermission(auth.PermManageUsers) {
		return nil, errors.NewForbiddenError("not allowed to manage users", errors.ErrCodeNotPermitted)
	}
	if actor.UserID == id {
		return nil, errors.NewConflictError("cannot deactivate your own account", errors.ErrCodeSelfDisable)
	}

	u, err := s.repo.GetByID(id)
	if err != nil {
		if err == ErrUserNotFound {
			return nil, errors.NewNotFoundError("user not found", errors.ErrCodeUserNotFound)
		}
		return nil, errors.NewInternalError("failed to load user", err)
	}

	u.IsActive = false
	if err := s.repo.Update(u); err != nil {
		s.logger.Error("failed to deactivate user", "user_id", id, "error", err)
		return nil, errors.NewInternalError("failed to deactivate user", err)
	}

	s.logger.Info("user deactivated", "user_id", id, "by", actor.Email)
	return u, nil
}

// ResetPassword replaces the user's credential with a fresh random one and
// returns it for one-time display.
func (s *Service) ResetPassword(actor *auth.Actor, id int64) (*ResetPasswordResponse, error) {
	if !actor.HasPermission(auth.PermManageUsers) {
		return nil, errors.NewForbiddenError("not allowed to manage users", errors.ErrCodeNotPermitted)
	}

	u, err := s.repo.GetByID(id)
	if err != nil {
		if err == ErrUserNotFound {
			return nil, errors.NewNotFoundError("user not found", errors.ErrCodeUserNotFound)
		}
		return nil, errors.NewInternalError("failed to load user", err)
	}

	password, err := generatePassword()
	if err != nil {
		return nil, errors.NewInternalError("failed to generate password", err)
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, errors.NewInternalError("failed to hash password", err)
	}

	u.PasswordHash = hash
	if err := s.repo.Update(u); err != nil {
		s.logger.Error("failed to reset password", "user_id", id, "error", err)
		return nil, errors.NewInternalError("failed to reset password", err)
	}

	s.logger.Info("password reset", "user_id", id, "by", actor.Email)
	return &ResetPasswordResponse{Email: u.Email, NewPassword: password}, nil
}

func generatePassword() (string, error) {
	password := make([]byte, generatedPasswordLength)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range password {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		password[i] = passwordAlphabet[n.Int64()]
	}
	return string(password), nil
}
