package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/core-crm/internal/authz"
	"github.com/spec-kit/core-crm/internal/domain"
	"github.com/spec-kit/core-crm/internal/events"
	"github.com/spec-kit/core-crm/internal/repository"
	apperrors "github.com/spec-kit/core-crm/pkg/util/errorutil"
)

// UserService handles user-facing account operations.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher) *UserService {
	return &UserService{users: users, dispatcher: dispatcher}
}

// AssignRole changes a user's role. Manager only; the role value is
// validated before the permission error so an invalid role string is a
// 400 even for managers, and a 403 precedes it for everyone else.
func (s *UserService) AssignRole(ctx context.Context, actor *domain.User, targetUserID, roleValue string) (*domain.User, error) {
	if !authz.CanAssignRoles(actor) {
		return nil, apperrors.NewForbidden("insufficient permissions")
	}
	role, ok := domain.ParseRole(roleValue)
	if !ok {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"field": "role", "value": roleValue})
	}

	updated, err := s.users.UpdateRole(ctx, targetUserID, role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:    uuid.NewString(),
			Type:  events.EventRoleAssigned,
			Actor: actorOf(actor),
			Payload: events.RoleAssignedPayload{
				TargetUserID: updated.ID,
				NewRole:      updated.Role,
			},
		})
	}
	return updated, nil
}

// CurrentUser returns the already-resolved actor. The lookup is kept so
// the handler reflects fresh role/active state, not the cached session.
func (s *UserService) CurrentUser(ctx context.Context, actor *domain.User) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
