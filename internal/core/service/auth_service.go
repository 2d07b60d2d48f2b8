package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/madeeasy/coursehub/internal/cache"
	"github.com/madeeasy/coursehub/internal/core/domain"
	"github.com/madeeasy/coursehub/internal/core/ports"
	"github.com/madeeasy/coursehub/internal/resilience"
	"github.com/madeeasy/coursehub/internal/token"
)

// AuthService implements the authentication core: the signup saga, credential
// checks, token rotation, and cached store-backed validation. Cache evictions
// are explicit calls placed inside each mutating operation; the operation is
// not complete until its evictions are.
type AuthService struct {
	users     ports.UserRepository
	lifecycle *TokenLifecycle
	codec     *token.Codec
	vcache    *cache.Validation
	profiles  ports.ProfileClient
	remote    *resilience.Caller[struct{}]
	log       zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	lifecycle *TokenLifecycle,
	codec *token.Codec,
	vcache *cache.Validation,
	profiles ports.ProfileClient,
	remote *resilience.Caller[struct{}],
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		lifecycle: lifecycle,
		codec:     codec,
		vcache:    vcache,
		profiles:  profiles,
		remote:    remote,
		log:       log,
	}
}

// SignUp coordinates registration across the auth and user stores. Ordering:
// validate roles, duplicate checks, mint the pair, remote profile create,
// and only on a 2xx from the user service persist the local user and token
// rows and evict the subject's cache entries. A failed remote leg leaves no
// local writes behind. The create-profile call is non-idempotent, so it goes
// through the breaker without blind retry.
func (s *AuthService) SignUp(ctx context.Context, in ports.SignUpInput) (*domain.TokenPair, error) {
	sg := newSaga("signup", s.log)

	roles, err := domain.ParseRoles(in.Roles)
	if err != nil {
		return nil, sg.abort(err)
	}

	if err := s.checkDuplicates(ctx, in.Email, in.Phone); err != nil {
		return nil, sg.abort(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, sg.abort(domain.Wrap(domain.KindStoreUnavailable, err, "password hashing failed"))
	}

	user := &domain.User{
		ID:                    uuid.NewString(),
		FullName:              in.FullName,
		Email:                 in.Email,
		PasswordHash:          string(hash),
		Phone:                 in.Phone,
		Roles:                 roles,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
		Enabled:               true,
	}

	pair, err := s.lifecycle.Mint(user)
	if err != nil {
		return nil, sg.abort(err)
	}

	sg.to(sagaRemotePending)
	_, err = s.remote.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.profiles.CreateProfile(ctx, ports.ProfileInput{
			ID:       user.ID,
			FullName: user.FullName,
			Email:    user.Email,
			Password: user.PasswordHash,
			Phone:    user.Phone,
			Roles:    domain.RoleNames(user.Roles),
		})
	}, resilience.Unavailable[struct{}]("token creation failed as user service is unavailable, please try again later"))
	if err != nil {
		// No local writes happened; the auth store must not hold a user or
		// token without a matching profile.
		return nil, sg.abort(err)
	}

	sg.to(sagaLocalCommitted)
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.lifecycle.Persist(ctx, user.ID, pair); err != nil {
		return nil, err
	}
	if err := s.vcache.EvictSubject(ctx, user.Email); err != nil {
		return nil, err
	}

	return pair, nil
}

// SignIn verifies credentials and rotates the user's token pair. Eviction
// precedes issuance so no stale verdict survives the rotation.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !user.CanAuthenticate() {
		return nil, domain.E(domain.KindBadCredentials, "bad credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.E(domain.KindBadCredentials, "bad credentials")
	}

	if err := s.vcache.EvictSubject(ctx, user.Email); err != nil {
		return nil, err
	}
	return s.lifecycle.IssuePair(ctx, user)
}

// LogOut revokes every usable token the user holds. The presented access
// token must verify and belong to the user being logged out.
func (s *AuthService) LogOut(ctx context.Context, email, accessToken string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	identity, err := s.codec.Parse(domain.TokenAccess, accessToken)
	if err != nil {
		return err
	}
	if identity.Subject != user.Email {
		return domain.E(domain.KindBadCredentials, "token does not belong to this user")
	}

	if err := s.vcache.EvictSubject(ctx, user.Email); err != nil {
		return err
	}
	return s.lifecycle.RevokeAllFor(ctx, user.ID)
}

// Refresh rotates the pair given a valid refresh token. The refresh secret
// differs from the access secret, so an access token presented here fails
// signature verification. The token must also be a usable store row: a
// logout or credential rotation kills a refresh token long before its
// signature expires.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	identity, err := s.codec.Parse(domain.TokenRefresh, refreshToken)
	if err != nil {
		return nil, err
	}

	usable, err := s.lifecycle.Validate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if !usable {
		return nil, domain.E(domain.KindTokenUnusable, "token is revoked or expired")
	}

	user, err := s.users.FindByEmail(ctx, identity.Subject)
	if err != nil {
		return nil, err
	}

	if err := s.vcache.EvictSubject(ctx, user.Email); err != nil {
		return nil, err
	}
	return s.lifecycle.IssuePair(ctx, user)
}

// ValidateAccessToken answers through the read-through cache, keyed by the
// token's subject so revocations evict deterministically. Parse failures and
// TokenNotFound are never memoized.
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (bool, error) {
	subject, err := s.codec.Subject(domain.TokenAccess, accessToken)
	if err != nil {
		return false, err
	}
	return s.vcache.GetOrCompute(ctx, subject, domain.TokenAccess, func(ctx context.Context) (bool, error) {
		return s.lifecycle.Validate(ctx, accessToken)
	})
}

// PartialUpdate applies a patch to the authoritative identity record. When
// the patch touches identity or roles, every prior token is revoked and a
// fresh pair is returned; otherwise the tokens stand.
func (s *AuthService) PartialUpdate(ctx context.Context, email string, patch ports.UserPatch) (*ports.AuthUpdateResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
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

	if len(patch.Roles) > 0 {
		roles, err := domain.ParseRoles(patch.Roles)
		if err != nil {
			return nil, err
		}
		user.Roles = roles
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

	// Evict under both the old and (if changed) new subject; tokens signed
	// before the update still carry the old email as their subject.
	if err := s.vcache.EvictSubject(ctx, oldEmail); err != nil {
		return nil, err
	}
	if user.Email != oldEmail {
		if err := s.vcache.EvictSubject(ctx, user.Email); err != nil {
			return nil, err
		}
	}

	if !patch.IdentityChanged() {
		return &ports.AuthUpdateResult{Message: "user updated successfully"}, nil
	}

	pair, err := s.lifecycle.IssuePair(ctx, user)
	if err != nil {
		return nil, err
	}
	return &ports.AuthUpdateResult{Pair: pair}, nil
}

func (s *AuthService) checkDuplicates(ctx context.Context, email, phone string) error {
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
