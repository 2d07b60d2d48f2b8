package ports

import (
	"context"

	"github.com/madeeasy/coursehub/internal/core/domain"
)

// ProfileInput is the payload of a profile creation. Password may be either
// plaintext (direct client call) or an already-hashed secret forwarded by the
// auth service.
type ProfileInput struct {
	ID       string
	FullName string
	Email    string
	Password string
	Phone    string
	Roles    []string
}

// UserUpdateResult is the outcome of a profile partial update. Pair is set
// only when the auth service regenerated tokens for an identity change.
type UserUpdateResult struct {
	User *domain.User
	Pair *domain.TokenPair
}

// UserService owns profile records in the user service's store.
type UserService interface {
	CreateProfile(ctx context.Context, in ProfileInput) (*domain.User, error)
	GetAll(ctx context.Context) ([]*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	PartialUpdate(ctx context.Context, email string, patch UserPatch) (*UserUpdateResult, error)
	Delete(ctx context.Context, email string) error
}
