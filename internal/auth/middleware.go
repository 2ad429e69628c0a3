package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/core-crm/internal/domain"
	"github.com/spec-kit/core-crm/internal/identity"
	apperrors "github.com/spec-kit/core-crm/pkg/util/errorutil"
)

const actorKey = "auth_actor"

// Middleware resolves the session cookie to a local user and stores it
// for downstream handlers. Authorization is not decided here; handlers
// call into the policy with the resolved actor.
type Middleware struct {
	resolver *identity.Resolver
}

// NewMiddleware constructs middleware.
func NewMiddleware(resolver *identity.Resolver) *Middleware {
	return &Middleware{resolver: resolver}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	user, err := m.resolver.Resolve(c.UserContext(), c.Get(fiber.HeaderCookie))
	if err != nil {
		return err
	}
	if !user.IsActive {
		return apperrors.NewForbidden("account disabled")
	}
	c.Locals(actorKey, user)
	return c.Next()
}

// ActorFromContext retrieves the authenticated user.
func ActorFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(actorKey)
	if val == nil {
		return nil, false
	}
	actor, ok := val.(*domain.User)
	return actor, ok
}

// RequireRole ensures the actor holds one of the allowed roles. With no
// roles listed it only checks that authentication happened.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("not authenticated")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[actor.Role]; !exists {
			return apperrors.NewForbidden("insufficient permissions")
		}
		return c.Next()
	}
}
