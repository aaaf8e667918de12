package user

import (
	"errors"
	"time"

	userDatamodel "github.com/regulariza/process-management/internal/core/datamodel/user"
)

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CPF       string    `json:"cpf,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	SMSOptIn  bool      `json:"sms_opt_in"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Repository interface {
	Create(u *User, passwordHash string) error
	GetByID(id int64) (*User, error)
	GetByEmail(email string) (*User, error)
	List(role string, limit, offset int) ([]*User, error)
	Update(u *User) error
	Deactivate(id int64) error
}

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrUserInactive   = errors.New("user is deactivated")
	ErrInvalidRole    = errors.New("invalid role")
	ErrSelfDeactivate = errors.New("cannot deactivate your own account")
)

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CPF:       u.CPF,
		Phone:     u.Phone,
		Role:      u.Role,
		SMSOptIn:  u.SMSOptIn,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
