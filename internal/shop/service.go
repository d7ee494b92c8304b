package shop

import (
	"log/slog"

	errors "github.com/permitworks/permit-management/internal"
	"github.com/permitworks/permit-management/internal/auth"
)

type Repository interface {
	Create(s *Shop) error
	GetByID(id int64) (*Shop, error)
	List(limit, offset int) ([]*Shop, error)
	Update(s *Shop) error
	ExistsByNumberOrEmail(shopNumber, systemEmail string) (bool, error)
}

// TenantProvisioner creates the paired tenant login for a new shop and
// returns its generated password.
type TenantProvisioner interface {
	ProvisionTenant(shopID int64, shopName, systemEmail string) (password string, err error)
}

type Service struct {
	repo        Repository
	provisioner TenantProvisioner
	logger      *slog.Logger
}

func NewService(repo Repository, provisioner TenantProvisioner, logger *slog.Logger) *Service {
	return &Service{repo: repo, provisioner: provisioner, logger: logger}
}

// CreateShop registers a shop and provisions its tenant account in one
// operation.
func (s *Service) CreateShop(actor *auth.Actor, dto CreateShopDTO) (*CreateShopResponse, error) {
	if !actor.HasPermission(auth.PermManageShops) {
		return nil, errors.NewForbiddenError("not allowed to manage shops", errors.ErrCodeNotPermitted)
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByNumberOrEmail(dto.ShopNumber, dto.SystemEmail)
	if err != nil {
		return nil, errors.NewInternalError("failed to check shop uniqueness", err)
	}
	if exists {
		return nil, errors.NewConflictError("shop number or system email already in use", errors.ErrCodeDuplicateShop)
	}

	shop := &Shop{
		Name:         dto.Name,
		ShopNumber:   dto.ShopNumber,
		Floor:        dto.Floor,
		Category:     dto.Category,
		ContactName:  dto.ContactName,
		ContactPhone: dto.ContactPhone,
		ContactEmail: dto.ContactEmail,
		SystemEmail:  dto.SystemEmail,
		Status:       StatusActive,
	}

	if err := s.repo.Create(shop); err != nil {
		s.logger.Error("failed to create shop", "shop_number", dto.ShopNumber, "error", err)
		return nil, errors.NewInternalError("failed to create shop", err)
	}

	password, err := s.provisioner.ProvisionTenant(shop.ID, shop.Name, shop.SystemEmail)
	if err != nil {
		s.logger.Error("failed to provision tenant account", "shop_id", shop.ID, "error", err)
		return nil, errors.NewInternalError("failed to provision tenant account", err)
	}

	s.logger.Info("shop created", "shop_id", shop.ID, "shop_number", shop.ShopNumber, "by", actor.Email)

	return &CreateShopResponse{
		Shop:           shop,
		TenantEmail:    shop.SystemEmail,
		TenantPassword: password,
	}, nil
}

func (s *Service) GetShop(actor *auth.Actor, id int64) (*Shop, error) {
	if actor.Role == auth.RoleTenant && !actor.IsTenantOf(id) {
		return nil, errors.NewForbiddenError("not allowed to view this shop", errors.ErrCodeNotPermitted)
	}

	shop, err := s.repo.GetByID(id)
	if err != nil {
		if err == ErrShopNotFound {
			return nil, errors.NewNotFoundError("shop not found", errors.ErrCodeShopNotFound)
		}
		return nil, errors.NewInternalError("failed to load shop", err)
	}
	return shop, nil
}

func (s *Service) ListShops(actor *auth.Actor, limit, offset int) ([]*Shop, error) {
	if actor.Role == auth.RoleTenant {
		return nil, errors.NewForbiddenError("not allowed to list shops", errors.ErrCodeNotPermitted)
	}

	shops, err := s.repo.List(limit, offset)
	if err != nil {
		s.logger.Error("failed to list shops", "error", err)
		return nil, errors.NewInternalError("failed to list shops", err)
	}
	return shops, nil
}

func (s *Service) UpdateShop(actor *auth.Actor, id int64, dto UpdateShopDTO) (*Shop, error) {
	if !actor.HasPermission(auth.PermManageShops) {
		return nil, errors.NewForbiddenError("not allowed to manage shops", errors.ErrCodeNotPermitted)
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	shop, err := s.repo.GetByID(id)
	if err != nil {
		if err == ErrShopNotFound {
			return nil, errors.NewNotFoundError("shop not found", errors.ErrCodeShopNotFound)
		}
		return nil, errors.NewInternalError("failed to load shop", err)
	}

	if dto.Name != nil {
		shop.Name = *dto.Name
	}
	if dto.Floor != nil {
		shop.Floor = *dto.Floor
	}
	if dto.Category != nil {
		shop.Category = *dto.Category
	}
	if dto.ContactName != nil {
		shop.ContactName = *dto.ContactName
	}
	if dto.ContactPhone != nil {
		shop.ContactPhone = *dto.ContactPhone
	}
	if dto.ContactEmail != nil {
		shop.ContactEmail = *dto.ContactEmail
	}
	if dto.Status != nil {
		shop.Status = *dto.Status
	}

	if err := s.repo.Update(shop); err != nil {
		s.logger.Error("failed to update shop", "shop_id", id, "error", err)
		return nil, errors.NewInternalError("failed to update shop", err)
	}

	s.logger.Info("shop updated", "shop_id", id, "by", actor.Email)
	return shop, nil
}

// UpdateContact lets a tenant maintain its own shop's contact subfields.
func (s *Service) UpdateContact(actor *auth.Actor, id int64, dto UpdateContactDTO) (*Shop, error) {
	if !actor.IsTenantOf(id) && !actor.HasPermission(auth.PermManageShops) {
		return nil, errors.NewForbiddenError("not allowed to edit this shop", errors.ErrCodeNotPermitted)
	}

	shop, err := s.repo.GetByID(id)
	if err != nil {
		if err == ErrShopNotFound {
			return nil, errors.NewNotFoundError("shop not found", errors.ErrCodeShopNotFound)
		}
		return nil, errors.NewInternalError("failed to load shop", err)
	}

	if dto.ContactName != nil {
		shop.ContactName = *dto.ContactName
	}
	if dto.ContactPhone != nil {
		shop.ContactPhone = *dto.ContactPhone
	}
	if dto.ContactEmail != nil {
		shop.ContactEmail = *dto.ContactEmail
	}

	if err := s.repo.Update(shop); err != nil {
		s.logger.Error("failed to update shop contact", "shop_id", id, "error", err)
		return nil, errors.NewInternalError("failed to update shop", err)
	}

	return shop, nil
}

// GetShopName satisfies the permit service's directory lookup.
func (s *Service) GetShopName(shopID int64) (string, error) {
	shop, err := s.repo.GetByID(shopID)
	if err != nil {
		return "", err
	}
	return shop.Name, nil
}
