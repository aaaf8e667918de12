package user

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"github.com/regulariza/process-management/internal/audit"
	"github.com/regulariza/process-management/internal/auth"
)

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// SMSSender queues the welcome message for newly created clients.
type SMSSender interface {
	Send(to, template string, params map[string]string) error
}

type Service struct {
	repo       Repository
	auditor    AuditRecorder
	sms        SMSSender
	portalURL  string
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, auditor AuditRecorder, sms SMSSender, portalURL string, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		auditor:    auditor,
		sms:        sms,
		portalURL:  portalURL,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

const tempPasswordAlphabet = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ23456789"
const tempPasswordLength = 10

func generateTempPassword() (string, error) {
	buf := make([]byte, tempPasswordLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tempPasswordAlphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		buf[i] = tempPasswordAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// CreateClient registers a new user with a generated temporary password
// and sends the welcome SMS when the client opted in. The plaintext
// password only ever travels through the SMS; it is not returned to the
// caller and never logged.
func (s *Service) CreateClient(ctx context.Context, actor *auth.User, dto CreateClientDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByEmail(dto.Email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		s.logger.Error("failed to generate temporary password", "error", err)
		return nil, err
	}

	hash, err := auth.HashPassword(tempPassword, s.bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash temporary password", "error", err)
		return nil, err
	}

	now := time.Now()
	u := &User{
		Name:      dto.Name,
		Email:     dto.Email,
		CPF:       dto.CPF,
		Phone:     dto.Phone,
		Role:      dto.Role,
		SMSOptIn:  dto.SMSOptIn,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(u, hash); err != nil {
		s.logger.Error("failed to create user", "error", err, "email", dto.Email)
		return nil, err
	}

	s.recordAudit(ctx, actor, "CREATE_USER", u, map[string]interface{}{
		"role": u.Role,
	})

	if s.sms != nil && u.SMSOptIn && u.Phone != "" {
		err := s.sms.Send(u.Phone, "welcome", map[string]string{
			"nome":  u.Name,
			"senha": tempPassword,
			"link":  s.portalURL,
		})
		if err != nil {
			s.logger.Error("welcome sms failed", "error", err, "user_id", u.ID)
		}
	}

	s.logger.Info("client created", "user_id", u.ID, "role", u.Role, "admin_id", actor.ID)

	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, role string, limit, offset int) ([]*User, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	if role != "" {
		if _, ok := auth.ParseRole(role); !ok {
			return nil, ErrInvalidRole
		}
	}

	users, err := s.repo.List(role, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, err
	}
	return users, nil
}

func (s *Service) Update(ctx context.Context, actor *auth.User, id int64, dto UpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	// role changes need the permission-management capability
	if dto.Role != nil && !actor.Capabilities.CanManagePermissions {
		return nil, auth.ErrInsufficientRole
	}

	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if dto.Name != nil {
		u.Name = *dto.Name
	}
	if dto.Phone != nil {
		u.Phone = *dto.Phone
	}
	if dto.Role != nil {
		u.Role = *dto.Role
	}
	if dto.SMSOptIn != nil {
		u.SMSOptIn = *dto.SMSOptIn
	}
	u.UpdatedAt = time.Now()

	if err := s.repo.Update(u); err != nil {
		s.logger.Error("failed to update user", "error", err, "user_id", id)
		return nil, err
	}

	s.recordAudit(ctx, actor, "UPDATE_USER", u, map[string]interface{}{
		"role_changed": dto.Role != nil,
	})

	return u, nil
}

func (s *Service) Deactivate(ctx context.Context, actor *auth.User, id int64) error {
	if actor.ID == id {
		return ErrSelfDeactivate
	}

	u, err := s.repo.GetByID(id)
	if err != nil {
		return ErrUserNotFound
	}

	if err := s.repo.Deactivate(id); err != nil {
		s.logger.Error("failed to deactivate user", "error", err, "user_id", id)
		return err
	}

	s.recordAudit(ctx, actor, "DEACTIVATE_USER", u, nil)

	s.logger.Info("user deactivated", "user_id", id, "admin_id", actor.ID)

	return nil
}

// GetContactInfo resolves the SMS leg for the notification dispatcher.
func (s *Service) GetContactInfo(userID int64) (string, string, bool, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return "", "", false, ErrUserNotFound
	}
	return u.Name, u.Phone, u.SMSOptIn, nil
}

func (s *Service) recordAudit(ctx context.Context, actor *auth.User, action string, target *User, details map[string]interface{}) {
	if s.auditor == nil {
		return
	}
	entry := audit.Entry{
		AdminID:    actor.ID,
		Action:     action,
		TargetType: audit.TargetTypeUser,
		TargetID:   strconv.FormatInt(target.ID, 10),
		TargetName: target.Name,
		Details:    details,
	}
	if err := s.auditor.Record(ctx, entry); err != nil {
		s.logger.Error("audit record failed", "error", err, "action", action, "user_id", target.ID)
	}
}
