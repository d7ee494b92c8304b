package auth

import (
	"database/sql"
	"fmt"

	"github.com/permitworks/permit-management/internal/auth"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetPasswordForEmail(email string) (string, string, error) {
	var passwordHash string
	var userID string
	query := `SELECT id, password_hash FROM users WHERE email = ? AND is_active = true`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&userID, &passwordHash); err != nil {
		if err == sql.ErrNoRows {
			return "", "", fmt.Errorf("user not found")
		}
		return "", "", err
	}
	return passwordHash, userID, nil
}

func (r *Repository) GetActor(userID int64) (*auth.Actor, error) {
	var actor auth.Actor
	var role string
	query := `SELECT id, email, name, role, shop_id FROM users WHERE id = ? AND is_active = true`

	row := r.db.Raw(query, userID).Row()
	if err := row.Scan(&actor.UserID, &actor.Email, &actor.Name, &role, &actor.ShopID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}

	actor.Role = auth.Role(role)
	if !actor.Role.IsValid() {
		return nil, fmt.Errorf("unknown role %q for user %d", role, userID)
	}
	return &actor, nil
}
