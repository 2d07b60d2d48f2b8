package client

import (
	"context"

	"github.com/madeeasy/coursehub/internal/core/ports"
	"github.com/madeeasy/coursehub/internal/resilience"
)

// GuardedValidator wraps a remote token validator in the resilience layer.
// Validation is read-only, so exhausted retries fall back to unavailable
// rather than to an "invalid" verdict: a broken auth service must never look
// like a revoked token.
type GuardedValidator struct {
	inner  ports.TokenValidator
	remote *resilience.Caller[bool]
}

func NewGuardedValidator(inner ports.TokenValidator, remote *resilience.Caller[bool]) *GuardedValidator {
	return &GuardedValidator{inner: inner, remote: remote}
}

func (v *GuardedValidator) ValidateAccessToken(ctx context.Context, accessToken string) (bool, error) {
	return v.remote.DoRetry(ctx, func(ctx context.Context) (bool, error) {
		return v.inner.ValidateAccessToken(ctx, accessToken)
	}, resilience.Unavailable[bool]("token validation failed as auth service is unavailable, please try again later"))
}
