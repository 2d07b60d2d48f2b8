package ports

import (
	"context"

	"github.com/madeeasy/coursehub/internal/core/domain"
)

// SignUpInput carries the fields of a registration request.
type SignUpInput struct {
	FullName string
	Email    string
	Password string
	Phone    string
	Roles    []string
}

// UserPatch is a partial update. Empty strings and nil slices mean
// "unchanged"; only supplied fields are applied.
type UserPatch struct {
	FullName string
	Email    string
	Password string
	Phone    string
	Roles    []string
}

// IdentityChanged reports whether the patch touches identity or role data,
// which forces token regeneration.
func (p UserPatch) IdentityChanged() bool {
	return p.Email != "" || len(p.Roles) > 0
}

// AuthUpdateResult is the outcome of an authoritative partial update. Pair is
// nil when the patch touched neither identity nor roles.
type AuthUpdateResult struct {
	Pair    *domain.TokenPair
	Message string
}

// AuthService is the authentication core: signup coordination, credential
// checks, token pair lifecycle, and store-backed validation.
type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (*domain.TokenPair, error)
	SignIn(ctx context.Context, email, password string) (*domain.TokenPair, error)
	LogOut(ctx context.Context, email, accessToken string) error
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	ValidateAccessToken(ctx context.Context, accessToken string) (bool, error)
	PartialUpdate(ctx context.Context, email string, patch UserPatch) (*AuthUpdateResult, error)
}
