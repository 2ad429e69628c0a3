package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/core-crm/internal/domain"
	"github.com/spec-kit/core-crm/internal/repository"
	apperrors "github.com/spec-kit/core-crm/pkg/util/errorutil"
)

// Resolver exchanges a verified session for a local user record,
// provisioning one with role CLIENT on first contact.
type Resolver struct {
	verifier Verifier
	users    repository.UserRepository
	logger   *zap.Logger
}

// NewResolver constructs the resolver.
func NewResolver(verifier Verifier, users repository.UserRepository, logger *zap.Logger) *Resolver {
	return &Resolver{verifier: verifier, users: users, logger: logger}
}

// Resolve maps a session cookie to a local user. A missing cookie
// short-circuits without contacting the provider.
func (r *Resolver) Resolve(ctx context.Context, cookie string) (*domain.User, error) {
	if cookie == "" {
		return nil, apperrors.NewUnauthorized("no session cookie found")
	}

	identity, err := r.verifier.Whoami(ctx, cookie)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return nil, apperrors.NewUnauthorized("invalid session")
		}
		return nil, apperrors.MapError(err)
	}

	user, err := r.users.GetByExternalIdentityID(ctx, identity.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	return r.provision(ctx, identity)
}

// provision lazily creates the local record. Two concurrent first
// requests can both reach the insert; the unique constraint on
// external_identity_id decides the winner and the loser re-fetches.
func (r *Resolver) provision(ctx context.Context, identity *Identity) (*domain.User, error) {
	user := &domain.User{
		ExternalIdentityID: identity.ID,
		Email:              identity.Email,
		DisplayName:        identity.DisplayName,
		Role:               domain.RoleClient,
		IsActive:           true,
	}

	err := r.users.Create(ctx, user)
	if err == nil {
		r.logger.Info("provisioned user",
			zap.String("user_id", user.ID),
			zap.String("email", user.Email))
		return user, nil
	}

	if repository.IsUniqueViolation(err) {
		existing, fetchErr := r.users.GetByExternalIdentityID(ctx, identity.ID)
		if fetchErr != nil {
			return nil, apperrors.MapError(fetchErr)
		}
		return existing, nil
	}
	return nil, apperrors.MapError(err)
}
