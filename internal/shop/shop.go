package shop

import (
	"errors"
	"time"
)

const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

var (
	ErrShopNotFound  = errors.New("shop not found")
	ErrDuplicateShop = errors.New("shop number or system email already in use")
)

type Shop struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"column:name;not null"`
	ShopNumber   string    `json:"shop_number" gorm:"column:shop_number;uniqueIndex;not null"`
	Floor        string    `json:"floor" gorm:"column:floor"`
	Category     string    `json:"category" gorm:"column:category"`
	ContactName  string    `json:"contact_name" gorm:"column:contact_name"`
	ContactPhone string    `json:"contact_phone" gorm:"column:contact_phone"`
	ContactEmail string    `json:"contact_email" gorm:"column:contact_email"`
	SystemEmail  string    `json:"system_email" gorm:"column:system_email;uniqueIndex;not null"`
	Status       string    `json:"status" gorm:"column:status;default:active"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Shop) TableName() string {
	return "shops"
}

func ValidStatuses() []string {
	return []string{StatusActive, StatusInactive, StatusSuspended}
}
