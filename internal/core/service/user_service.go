package service

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/madeeasy/coursehub/internal/cache"
	"github.com/madeeasy/coursehub/internal/core/domain"
	"github.com/madeeasy/coursehub/internal/core/ports"
	"github.com/madeeasy/coursehub/internal/resilience"
)

const (
	usersAllKey     = "users:all"
	usersEmailKeyPf = "users:email:"
)

// UserService owns the profile store. Profile mutations that touch identity
// or roles are propagated to the auth service; a failed propagation leaves
// the local update committed and surfaces as sync-pending rather than being
// rolled back.
type UserService struct {
	users    ports.UserRepository
	authSync ports.AuthSyncClient
	remote   *resilience.Caller[*ports.AuthUpdateResult]
	kv       cache.KeyValue
	log      zerolog.Logger
}

func NewUserService(
	users ports.UserRepository,
	authSync ports.AuthSyncClient,
	remote *resilience.Caller[*ports.AuthUpdateResult],
	kv cache.KeyValue,
	log zerolog.Logger,
) *UserService {
	return &UserService{users: users, authSync: authSync, remote: remote, kv: kv, log: log}
}

// CreateProfile stores a profile record. The auth service forwards an
// already-hashed password during signup; a direct call may carry plaintext,
// which is hashed here before it ever reaches the store.
func (s *UserService) CreateProfile(ctx context.Context, in ports.ProfileInput) (*domain.User, error) {
	roles, err := domain.ParseRoles(in.Roles)
	if err != nil {
		return nil, err
	}

	if err := s.checkDuplicates(ctx, in.Email, in.Phone); err != nil {
		return nil, err
	}

	passwordHash := in.Password
	if bcryptCostOf(passwordHash) < 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, domain.Wrap(domain.KindStoreUnavailable, err, "password hashing failed")
		}
		passwordHash = string(hash)
	}

	user := &domain.User{
		ID:                    in.ID,
		FullName:              in.FullName,
		Email:                 in.Email,
		PasswordHash:          passwordHash,
		Phone:                 in.Phone,
		Roles:                 roles,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
		Enabled:               true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	evict(ctx, s.kv, s.log, usersAllKey)
	return user, nil
}

func (s *UserService) GetAll(ctx context.Context) ([]*domain.User, error) {
	return cached(ctx, s.kv, usersAllKey, s.log, s.users.FindAll)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return cached(ctx, s.kv, usersEmailKeyPf+email, s.log, func(ctx context.Context) (*domain.User, error) {
		return s.users.FindByEmail(ctx, email)
	})
}

// PartialUpdate applies the patch locally first, then syncs the auth
// service. A failed sync is a documented eventual-consistency window: the
// caller gets sync-pending and retries the auth sync, not the whole update.
func (s *UserService) PartialUpdate(ctx context.Context, email string, patch ports.UserPatch) (*ports.UserUpdateResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if len(patch.Roles) > 0 {
		roles, err := domain.ParseRoles(patch.Roles)
		if err != nil {
			return nil, err
		}
		user.Roles = roles
	}
	if patch.Email != "" && patch.Email != user.Email {
		exists, err := s.users.ExistsByEmail(ctx, patch.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.E(domain.KindConflict, "user with email %s already exists", patch.Email)
		}
	}
	if patch.Phone != "" && patch.Phone != user.Phone {
		exists, err := s.users.ExistsByPhone(ctx, patch.Phone)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.E(domain.KindConflict, "user with phone %s already exists", patch.Phone)
		}
	}

	if patch.FullName != "" {
		user.FullName = patch.FullName
	}
	oldEmail := user.Email
	if patch.Email != "" {
		user.Email = patch.Email
	}
	if patch.Phone != "" {
		user.Phone = patch.Phone
	}
	if patch.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, domain.Wrap(domain.KindStoreUnavailable, err, "password hashing failed")
		}
		user.PasswordHash = string(hash)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	evict(ctx, s.kv, s.log, usersAllKey, usersEmailKeyPf+oldEmail, usersEmailKeyPf+user.Email)

	// The auth partial-update is safely repeatable, but it is guarded by the
	// breaker only: the local write already committed and a retry storm here
	// just widens the inconsistency window.
	syncPatch := patch
	result, err := s.remote.Do(ctx, func(ctx context.Context) (*ports.AuthUpdateResult, error) {
		return s.authSync.PartialUpdate(ctx, email, syncPatch)
	}, func(ctx context.Context, cause error) (*ports.AuthUpdateResult, error) {
		s.log.Warn().Err(cause).Str("email", email).Msg("auth sync failed after local profile update")
		return nil, domain.Wrap(domain.KindSyncPending, cause,
			"profile updated, credentials not yet in sync, retry the credential sync")
	})
	if err != nil {
		return nil, err
	}

	return &ports.UserUpdateResult{User: user, Pair: result.Pair}, nil
}

func (s *UserService) Delete(ctx context.Context, email string) error {
	if err := s.users.DeleteByEmail(ctx, email); err != nil {
		return err
	}
	evict(ctx, s.kv, s.log, usersAllKey, usersEmailKeyPf+email)
	return nil
}

func (s *UserService) checkDuplicates(ctx context.Context, email, phone string) error {
	emailExists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	phoneExists, err := s.users.ExistsByPhone(ctx, phone)
	if err != nil {
		return err
	}

	switch {
	case emailExists && phoneExists:
		return domain.E(domain.KindConflict, "user with email %s and phone %s already exists", email, phone)
	case emailExists:
		return domain.E(domain.KindConflict, "user with email %s already exists", email)
	case phoneExists:
		return domain.E(domain.KindConflict, "user with phone %s already exists", phone)
	}
	return nil
}

// bcryptCostOf returns the hash cost, or -1 when the input is not a bcrypt
// hash at all.
func bcryptCostOf(candidate string) int {
	cost, err := bcrypt.Cost([]byte(candidate))
	if err != nil {
		return -1
	}
	return cost
}
