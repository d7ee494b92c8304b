package user

import (
	"errors"
	"time"

	"github.com/permitworks/permit-management/internal/auth"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already in use")
)

// User is an account in the system. ShopID is set exactly for tenant users;
// staff roles have none.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"column:email;uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"column:name;not null"`
	Role         auth.Role `json:"role" gorm:"column:role;not null"`
	ShopID       *int64    `json:"shop_id,omitempty" gorm:"column:shop_id"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	IsActive     bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) ToActor() *auth.Actor {
	return &auth.Actor{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
		ShopID: u.ShopID,
	}
}
