package ports

import (
	"context"

	"github.com/madeeasy/coursehub/internal/core/domain"
)

// ProfileClient is the auth service's view of the user service: profile
// creation during the signup saga.
type ProfileClient interface {
	CreateProfile(ctx context.Context, in ProfileInput) error
}

// AuthSyncClient is the user service's view of the auth service: propagating
// a profile patch to the authoritative identity record.
type AuthSyncClient interface {
	PartialUpdate(ctx context.Context, email string, patch UserPatch) (*AuthUpdateResult, error)
}

// TokenValidator answers "is this access token currently usable". The auth
// service implements it locally; every other service implements it with a
// remote call to the auth service wrapped in the resilience layer.
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, accessToken string) (bool, error)
}

// InstanceCleanupClient is the course service's view of the instance
// service: bulk deletion of a course's instances during the cascade.
type InstanceCleanupClient interface {
	DeleteByCourse(ctx context.Context, courseID string) error
}

// CourseLookupClient is the instance service's view of the course service:
// existence check before creating an instance.
type CourseLookupClient interface {
	GetCourse(ctx context.Context, id string) (*domain.Course, error)
}
