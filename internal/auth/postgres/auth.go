package postgres

import (
	"database/sql"
	"fmt"

	"github.com/regulariza/process-management/internal/auth"
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

func (r *Repository) GetUserWithRole(userID int64) (*auth.User, error) {
	var user auth.User
	var roleStr string

	query := `SELECT id, name, email, role FROM users WHERE id = ? AND is_active = true`

	row := r.db.Raw(query, userID).Row()
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &roleStr); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}

	role, ok := auth.ParseRole(roleStr)
	if !ok {
		// unknown roles resolve to the zero capability set downstream
		role = auth.Role(roleStr)
	}
	user.Role = role
	return &user, nil
}
