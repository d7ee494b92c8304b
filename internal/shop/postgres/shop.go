package postgres

import (
	"gorm.io/gorm"

	"github.com/permitworks/permit-management/internal/shop"
)

type ShopRepository struct {
	db *gorm.DB
}

func NewShopRepository(db *gorm.DB) *ShopRepository {
	return &ShopRepository{db: db}
}

func (r *ShopRepository) Create(s *shop.Shop) error {
	return r.db.Create(s).Error
}

func (r *ShopRepository) GetByID(id int64) (*shop.Shop, error) {
	var s shop.Shop
	err := r.db.Where("id = ?", id).First(&s).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shop.ErrShopNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *ShopRepository) List(limit, offset int) ([]*shop.Shop, error) {
	var shops []*shop.Shop
	err := r.db.Order("name ASC").
		Limit(limit).
		Offset(offset).
		Find(&shops).Error
	return shops, err
}

func (r *ShopRepository) Update(s *shop.Shop) error {
	return r.db.Save(s).Error
}

func (r *ShopRepository) ExistsByNumberOrEmail(shopNumber, systemEmail string) (bool, error) {
	var count int64
	err := r.db.Model(&shop.Shop{}).
		Where("shop_number = ? OR system_email = ?", shopNumber, systemEmail).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
