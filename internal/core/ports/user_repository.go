package ports

import (
	"context"

	"github.com/madeeasy/coursehub/internal/core/domain"
)

// UserRepository is the durable user store. The auth service and the user
// service each own an independent instance of this interface backed by their
// own collection; there is no shared database between them.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindAll(ctx context.Context) ([]*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	DeleteByEmail(ctx context.Context, email string) error
}
