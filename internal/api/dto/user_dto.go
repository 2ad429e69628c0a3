package dto

import (
	"time"

	"github.com/spec-kit/core-crm/internal/domain"
)

// AssignRoleRequest payload.
type AssignRoleRequest struct {
	Role string `json:"role"`
}

// UserResponse mirrors the stored user, minus the external identity id.
type UserResponse struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	DisplayName *string     `json:"name"`
	Role        domain.Role `json:"role"`
	IsActive    bool        `json:"isActive"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}
