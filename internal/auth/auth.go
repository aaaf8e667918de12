package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Role is the closed set of principal categories. A principal has exactly
// one role; capabilities derive from it through CapabilitiesOf.
type Role string

const (
	RoleCliente     Role = "cliente"
	RoleAdminViewer Role = "admin_viewer"
	RoleAdminEditor Role = "admin_editor"
	RoleAdmin       Role = "admin"
	RoleAdminMaster Role = "admin_master"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleCliente, RoleAdminViewer, RoleAdminEditor, RoleAdmin, RoleAdminMaster:
		return Role(s), true
	}
	return "", false
}

// CapabilitySet is the fixed boolean capability vector for a role. Gating
// here is advisory for the API surface; row-level enforcement stays with
// the database.
type CapabilitySet struct {
	CanView              bool `json:"can_view"`
	CanEdit              bool `json:"can_edit"`
	CanDelete            bool `json:"can_delete"`
	CanManageProcesses   bool `json:"can_manage_processes"`
	CanManageUsers       bool `json:"can_manage_users"`
	CanCreateUsers       bool `json:"can_create_users"`
	CanManagePermissions bool `json:"can_manage_permissions"`
}

// CapabilitiesOf is total over Role: any value outside the closed set maps
// to the zero set, which denies everything.
func CapabilitiesOf(role Role) CapabilitySet {
	switch role {
	case RoleAdminViewer:
		return CapabilitySet{CanView: true}
	case RoleAdminEditor:
		return CapabilitySet{CanView: true, CanEdit: true, CanManageProcesses: true}
	case RoleAdmin:
		return CapabilitySet{CanView: true, CanEdit: true, CanDelete: true, CanManageProcesses: true, CanManageUsers: true, CanCreateUsers: true}
	case RoleAdminMaster:
		return CapabilitySet{CanView: true, CanEdit: true, CanDelete: true, CanManageProcesses: true, CanManageUsers: true, CanCreateUsers: true, CanManagePermissions: true}
	case RoleCliente:
		// clients see their own records only; no admin capabilities
		return CapabilitySet{}
	default:
		return CapabilitySet{}
	}
}

type User struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Role         Role          `json:"role"`
	Capabilities CapabilitySet `json:"capabilities"`
}

func (u *User) IsAdminRole() bool {
	switch u.Role {
	case RoleAdminViewer, RoleAdminEditor, RoleAdmin, RoleAdminMaster:
		return true
	}
	return false
}

func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleAdminMaster
}

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUserWithRole(userID int64) (*User, error)
	HashPassword(password string) (string, error)
}

type RepositoryAPI interface {
	GetPasswordForEmail(email string) (passwordHash string, userID string, err error)
	GetUserWithRole(userID int64) (*User, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(userID string, email string) (token string, err error)
	GenerateRefreshToken(userID string, email string) (token string, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUserInactive       = errors.New("user is inactive")
	ErrInsufficientRole   = errors.New("insufficient role for this operation")
)

type ctxKey string

const ContextUserKey ctxKey = "authUser"

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok
}

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
