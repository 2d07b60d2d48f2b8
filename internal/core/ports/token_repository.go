package ports

import (
	"context"

	"github.com/madeeasy/coursehub/internal/core/domain"
)

// TokenRepository persists issued token records for the lifecycle manager.
type TokenRepository interface {
	Create(ctx context.Context, token *domain.Token) error
	// FindByValue looks a token up by exact string match. A missing row is
	// domain.KindTokenNotFound, distinct from a revoked or expired one.
	FindByValue(ctx context.Context, value string) (*domain.Token, error)
	// FindAllUsable returns the user's tokens with revoked=false and
	// expired=false, across both kinds.
	FindAllUsable(ctx context.Context, userID string) ([]*domain.Token, error)
	// MarkUnusable sets revoked and expired true on the given token IDs.
	// Safe to call with an empty slice.
	MarkUnusable(ctx context.Context, ids []string) error
}
