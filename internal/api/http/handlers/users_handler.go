package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/core-crm/internal/api/dto"
	"github.com/spec-kit/core-crm/internal/auth"
	"github.com/spec-kit/core-crm/internal/domain"
	"github.com/spec-kit/core-crm/internal/service"
	apperrors "github.com/spec-kit/core-crm/pkg/util/errorutil"
)

// UsersHandler manages user endpoints.
type UsersHandler struct {
	service *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{service: userService}
}

// Me GET /api/users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	user, err := h.service.CurrentUser(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(userResponse(user))
}

// AssignRole POST /api/users/:id/role.
func (h *UsersHandler) AssignRole(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	var req dto.AssignRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.service.AssignRole(c.UserContext(), actor, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(userResponse(user))
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}
