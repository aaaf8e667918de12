package user

import (
	"errors"
	"strings"

	"github.com/regulariza/process-management/internal/auth"
	"github.com/regulariza/process-management/internal/core/common/validation"
)

type CreateClientDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	CPF      string `json:"cpf"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role,omitempty"`
	SMSOptIn bool   `json:"sms_opt_in"`
}

func (dto *CreateClientDTO) Validate() error {
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if dto.Email == "" || !strings.Contains(dto.Email, "@") {
		return errors.New("a valid email is required")
	}
	if dto.CPF != "" && !validation.IsValidCPF(dto.CPF) {
		return errors.New("invalid CPF")
	}
	if dto.Role == "" {
		dto.Role = string(auth.RoleCliente)
	}
	if _, ok := auth.ParseRole(dto.Role); !ok {
		return ErrInvalidRole
	}
	return nil
}

type UpdateUserDTO struct {
	Name     *string `json:"name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Role     *string `json:"role,omitempty"`
	SMSOptIn *bool   `json:"sms_opt_in,omitempty"`
}

func (dto UpdateUserDTO) Validate() error {
	if dto.Name != nil && *dto.Name == "" {
		return errors.New("name cannot be empty")
	}
	if dto.Role != nil {
		if _, ok := auth.ParseRole(*dto.Role); !ok {
			return ErrInvalidRole
		}
	}
	return nil
}
