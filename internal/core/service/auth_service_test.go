package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/madeeasy/coursehub/internal/cache"
	"github.com/madeeasy/coursehub/internal/core/domain"
	"github.com/madeeasy/coursehub/internal/core/ports"
	"github.com/madeeasy/coursehub/internal/resilience"
	"github.com/madeeasy/coursehub/internal/token"
)

// --- Stubs shared by the service tests ---

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	clone.Roles = append([]domain.Role(nil), u.Roles...)
	return &clone
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[email]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.E(domain.KindNotFound, "user with email %s not found", email)
}

func (r *stubUserRepo) FindAll(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *stubUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[email]
	return ok, nil
}

func (r *stubUserRepo) ExistsByPhone(_ context.Context, phone string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		return domain.E(domain.KindConflict, "user with email %s already exists", user.Email)
	}
	r.users[user.Email] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, u := range r.users {
		if u.ID == user.ID {
			delete(r.users, email)
			r.users[user.Email] = cloneUser(user)
			return nil
		}
	}
	return domain.E(domain.KindNotFound, "user with email %s not found", user.Email)
}

func (r *stubUserRepo) DeleteByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[email]; !ok {
		return domain.E(domain.KindNotFound, "user with email %s not found", email)
	}
	delete(r.users, email)
	return nil
}

type stubTokenRepo struct {
	mu     sync.Mutex
	tokens []*domain.Token
}

func (r *stubTokenRepo) Create(_ context.Context, t *domain.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *t
	r.tokens = append(r.tokens, &clone)
	return nil
}

func (r *stubTokenRepo) FindByValue(_ context.Context, value string) (*domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.Value == value {
			clone := *t
			return &clone, nil
		}
	}
	return nil, domain.E(domain.KindTokenNotFound, "token not found")
}

func (r *stubTokenRepo) FindAllUsable(_ context.Context, userID string) ([]*domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Token
	for _, t := range r.tokens {
		if t.UserID == userID && !t.Revoked && !t.Expired {
			clone := *t
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubTokenRepo) MarkUnusable(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	marked := make(map[string]bool, len(ids))
	for _, id := range ids {
		marked[id] = true
	}
	for _, t := range r.tokens {
		if marked[t.ID] {
			t.Revoked = true
			t.Expired = true
		}
	}
	return nil
}

func (r *stubTokenRepo) usableCount(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tokens {
		if t.UserID == userID && !t.Revoked && !t.Expired {
			n++
		}
	}
	return n
}

type stubProfileClient struct {
	mu    sync.Mutex
	calls []ports.ProfileInput
	err   error
}

func (c *stubProfileClient) CreateProfile(_ context.Context, in ports.ProfileInput) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.calls = append(c.calls, in)
	return nil
}

type kvStub struct {
	mu   sync.Mutex
	data map[string]string
}

func newKVStub() *kvStub {
	return &kvStub{data: make(map[string]string)}
}

func (m *kvStub) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *kvStub) Put(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *kvStub) Evict(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func testCaller[T any](name string) *resilience.Caller[T] {
	return testRetryCaller[T](name, 1)
}

func testRetryCaller[T any](name string, attempts uint64) *resilience.Caller[T] {
	return resilience.NewCaller[T](name,
		resilience.Policy{MaxAttempts: attempts, BaseDelay: time.Millisecond},
		resilience.BreakerConfig{MinRequests: 1000},
		zerolog.Nop())
}

type authFixture struct {
	svc      *AuthService
	users    *stubUserRepo
	tokens   *stubTokenRepo
	profiles *stubProfileClient
	kv       *kvStub
	codec    *token.Codec
}

func newAuthFixture() *authFixture {
	users := newStubUserRepo()
	tokens := &stubTokenRepo{}
	profiles := &stubProfileClient{}
	kv := newKVStub()
	codec := token.NewCodec("access-secret", "refresh-secret", time.Hour, 2*time.Hour)
	lifecycle := NewTokenLifecycle(tokens, codec, zerolog.Nop())
	vcache := cache.NewValidation(kv, time.Minute, zerolog.Nop())

	svc := NewAuthService(users, lifecycle, codec, vcache, profiles, testCaller[struct{}]("user-service"), zerolog.Nop())
	return &authFixture{svc: svc, users: users, tokens: tokens, profiles: profiles, kv: kv, codec: codec}
}

func signUpInput() ports.SignUpInput {
	return ports.SignUpInput{
		FullName: "Alice Smith",
		Email:    "alice@example.com",
		Password: "password123",
		Phone:    "5550001111",
		Roles:    []string{"USER"},
	}
}

// --- Signup saga ---

func TestAuthService_SignUp_Success(t *testing.T) {
	f := newAuthFixture()

	pair, err := f.svc.SignUp(context.Background(), signUpInput())
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if pair == nil || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected a full token pair, got %+v", pair)
	}

	user, err := f.users.FindByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("local user missing after signup: %v", err)
	}
	if !user.CanAuthenticate() {
		t.Fatalf("new account must be fully enabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	if len(f.profiles.calls) != 1 {
		t.Fatalf("expected one profile creation, got %d", len(f.profiles.calls))
	}
	if f.profiles.calls[0].Password == "password123" {
		t.Fatalf("plaintext password forwarded to the user service")
	}
	if f.profiles.calls[0].ID != user.ID {
		t.Fatalf("profile and user IDs diverge")
	}

	if n := f.tokens.usableCount(user.ID); n != 2 {
		t.Fatalf("expected exactly 2 usable tokens, got %d", n)
	}

	valid, err := f.svc.ValidateAccessToken(context.Background(), pair.AccessToken)
	if err != nil || !valid {
		t.Fatalf("fresh access token must validate: %v %v", valid, err)
	}
}

func TestAuthService_SignUp_RemoteFailureLeavesNoLocalState(t *testing.T) {
	f := newAuthFixture()
	f.profiles.err = domain.E(domain.KindServiceUnavailable, "connection refused")

	_, err := f.svc.SignUp(context.Background(), signUpInput())
	if !domain.IsKind(err, domain.KindServiceUnavailable) {
		t.Fatalf("expected ServiceUnavailable, got %v", err)
	}
	if domain.MessageOf(err) != "token creation failed as user service is unavailable, please try again later" {
		t.Fatalf("unexpected fallback message: %q", domain.MessageOf(err))
	}

	if _, err := f.users.FindByEmail(context.Background(), "alice@example.com"); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("no local user may survive a failed remote leg, got %v", err)
	}
	if len(f.tokens.tokens) != 0 {
		t.Fatalf("no token rows may survive a failed remote leg, got %d", len(f.tokens.tokens))
	}
}

func TestAuthService_SignUp_RemoteRejectionSurfacesUnchanged(t *testing.T) {
	f := newAuthFixture()
	f.profiles.err = domain.E(domain.KindConflict, "user with email alice@example.com already exists")

	_, err := f.svc.SignUp(context.Background(), signUpInput())
	if !domain.IsKind(err, domain.KindConflict) {
		t.Fatalf("structured remote rejection must surface as-is, got %v", err)
	}
	if len(f.tokens.tokens) != 0 {
		t.Fatalf("no token rows may survive a rejected signup")
	}
}

func TestAuthService_SignUp_DuplicateEmail(t *testing.T) {
	f := newAuthFixture()
	if _, err := f.svc.SignUp(context.Background(), signUpInput()); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}

	in := signUpInput()
	in.Phone = "5559998888"
	_, err := f.svc.SignUp(context.Background(), in)
	if !domain.IsKind(err, domain.KindConflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
	if domain.MessageOf(err) != "user with email alice@example.com already exists" {
		t.Fatalf("unexpected conflict message: %q", domain.MessageOf(err))
	}
	if len(f.profiles.calls) != 1 {
		t.Fatalf("duplicate check must run before the remote leg")
	}
}

func TestAuthService_SignUp_InvalidRoles(t *testing.T) {
	f := newAuthFixture()

	in := signUpInput()
	in.Roles = []string{"SUPERUSER"}
	_, err := f.svc.SignUp(context.Background(), in)
	if !domain.IsKind(err, domain.KindInvalidRoles) {
		t.Fatalf("expected InvalidRoles, got %v", err)
	}
	if len(f.profiles.calls) != 0 {
		t.Fatalf("role validation must precede any remote call")
	}
}

// --- Sign-in and rotation ---

func TestAuthService_SignIn_RotatesTokens(t *testing.T) {
	f := newAuthFixture()
	first, err := f.svc.SignUp(context.Background(), signUpInput())
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	second, err := f.svc.SignIn(context.Background(), "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("SignIn returned error: %v", err)
	}

	valid, err := f.svc.ValidateAccessToken(context.Background(), second.AccessToken)
	if err != nil || !valid {
		t.Fatalf("new access token must validate: %v %v", valid, err)
	}

	// The verdict cache is subject-keyed, so check the rotated-out pair
	// against the store itself.
	old, err := f.tokens.FindByValue(context.Background(), first.AccessToken)
	if err != nil {
		t.Fatalf("rotated-out token row missing: %v", err)
	}
	if old.Usable() {
		t.Fatalf("previous access token must be revoked after sign-in")
	}

	user, _ := f.users.FindByEmail(context.Background(), "alice@example.com")
	if n := f.tokens.usableCount(user.ID); n != 2 {
		t.Fatalf("rotation must leave exactly 2 usable tokens, got %d", n)
	}
}

func TestAuthService_SignIn_BadPassword(t *testing.T) {
	f := newAuthFixture()
	if _, err := f.svc.SignUp(context.Background(), signUpInput()); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	_, err := f.svc.SignIn(context.Background(), "alice@example.com", "wrong-password")
	if !domain.IsKind(err, domain.KindBadCredentials) {
		t.Fatalf("expected BadCredentials, got %v", err)
	}
	if domain.MessageOf(err) != "bad credentials" {
		t.Fatalf("unexpected message: %q", domain.MessageOf(err))
	}
}

func TestAuthService_SignIn_DisabledAccount(t *testing.T) {
	f := newAuthFixture()
	if _, err := f.svc.SignUp(context.Background(), signUpInput()); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	f.users.mu.Lock()
	f.users.users["alice@example.com"].Enabled = false
	f.users.mu.Unlock()

	_, err := f.svc.SignIn(context.Background(), "alice@example.com", "password123")
	if !domain.IsKind(err, domain.KindBadCredentials) {
		t.Fatalf("disabled accounts must fail as BadCredentials, got %v", err)
	}
}

// --- Log-out ---

func TestAuthService_LogOut_RevokesAndEvicts(t *testing.T) {
	f := newAuthFixture()
	pair, err := f.svc.SignUp(context.Background(), signUpInput())
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	// Warm the validation cache with a true verdict first.
	if valid, _ := f.svc.ValidateAccessToken(context.Background(), pair.AccessToken); !valid {
		t.Fatalf("token must validate before logout")
	}

	if err := f.svc.LogOut(context.Background(), "alice@example.com", pair.AccessToken); err != nil {
		t.Fatalf("LogOut returned error: %v", err)
	}

	// The cached true must not survive: the next validation consults the
	// store and sees the revoked row.
	valid, err := f.svc.ValidateAccessToken(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("post-logout validation errored: %v", err)
	}
	if valid {
		t.Fatalf("access token must be invalid immediately after logout")
	}

	user, _ := f.users.FindByEmail(context.Background(), "alice@example.com")
	if n := f.tokens.usableCount(user.ID); n != 0 {
		t.Fatalf("logout must leave no usable tokens, got %d", n)
	}

	// Logging out twice is a no-op, not an error.
	if err := f.svc.LogOut(context.Background(), "alice@example.com", pair.AccessToken); err != nil {
		t.Fatalf("repeated logout must be idempotent: %v", err)
	}
}

func TestAuthService_LogOut_ForeignTokenRejected(t *testing.T) {
	f := newAuthFixture()
	if _, err := f.svc.SignUp(context.Background(), signUpInput()); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	bob := signUpInput()
	bob.Email = "bob@example.com"
	bob.Phone = "5552223333"
	bobPair, err := f.svc.SignUp(context.Background(), bob)
	if err != nil {
		t.Fatalf("second signup failed: %v", err)
	}

	err = f.svc.LogOut(context.Background(), "alice@example.com", bobPair.AccessToken)
	if !domain.IsKind(err, domain.KindBadCredentials) {
		t.Fatalf("expected BadCredentials for a foreign token, got %v", err)
	}
	if domain.MessageOf(err) != "token does not belong to this user" {
		t.Fatalf("unexpected message: %q", domain.MessageOf(err))
	}
}

// --- Refresh ---

func TestAuthService_Refresh_RotatesPair(t *testing.T) {
	f := newAuthFixture()
	first, err := f.svc.SignUp(context.Background(), signUpInput())
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	second, err := f.svc.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}

	valid, err := f.svc.ValidateAccessToken(context.Background(), second.AccessToken)
	if err != nil || !valid {
		t.Fatalf("refreshed access token must validate: %v %v", valid, err)
	}

	old, err := f.tokens.FindByValue(context.Background(), first.AccessToken)
	if err != nil {
		t.Fatalf("pre-refresh token row missing: %v", err)
	}
	if old.Usable() {
		t.Fatalf("pre-refresh access token must be revoked")
	}

	user, _ := f.users.FindByEmail(context.Background(), "alice@example.com")
	if n := f.tokens.usableCount(user.ID); n != 2 {
		t.Fatalf("refresh must leave exactly 2 usable tokens, got %d", n)
	}
}

func TestAuthService_Refresh_AccessTokenRejected(t *testing.T) {
	f := newAuthFixture()
	pair, err := f.svc.SignUp(context.Background(), signUpInput())
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	// Access and refresh secrets differ, so the access token cannot pass as
	// a refresh token.
	_, err = f.svc.Refresh(context.Background(), pair.AccessToken)
	if !domain.IsKind(err, domain.KindTokenSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestAuthService_Refresh_RevokedTokenRejected(t *testing.T) {
	f := newAuthFixture()
	pair, err := f.svc.SignUp(context.Background(), signUpInput())
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if err := f.svc.LogOut(context.Background(), "alice@example.com", pair.AccessToken); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	// Still well signed and unexpired, but revoked in the store; the
	// signature alone must not mint a fresh pair.
	_, err = f.svc.Refresh(context.Background(), pair.RefreshToken)
	if !domain.IsKind(err, domain.KindTokenUnusable) {
		t.Fatalf("expected TokenUnusable, got %v", err)
	}

	user, _ := f.users.FindByEmail(context.Background(), "alice@example.com")
	if n := f.tokens.usableCount(user.ID); n != 0 {
		t.Fatalf("rejected refresh must not issue tokens, got %d usable", n)
	}
}

func TestAuthService_Refresh_UnknownTokenRejected(t *testing.T) {
	f := newAuthFixture()
	if _, err := f.svc.SignUp(context.Background(), signUpInput()); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	// Correctly signed but never persisted: the store is authoritative for
	// refresh tokens too.
	stray, err := f.codec.Issue(domain.TokenRefresh, "alice@example.com", []domain.Role{domain.RoleUser})
	if err != nil {
		t.Fatalf("issuing token failed: %v", err)
	}
	_, err = f.svc.Refresh(context.Background(), stray)
	if !domain.IsKind(err, domain.KindTokenNotFound) {
		t.Fatalf("expected TokenNotFound, got %v", err)
	}
}

// --- Validation ---

func TestAuthService_ValidateAccessToken_UnknownToken(t *testing.T) {
	f := newAuthFixture()
	if _, err := f.svc.SignUp(context.Background(), signUpInput()); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	// Correctly signed but never persisted: the store is authoritative.
	stray, err := f.codec.Issue(domain.TokenAccess, "alice@example.com", []domain.Role{domain.RoleUser})
	if err != nil {
		t.Fatalf("issuing stray token failed: %v", err)
	}

	_, err = f.svc.ValidateAccessToken(context.Background(), stray)
	if !domain.IsKind(err, domain.KindTokenNotFound) {
		t.Fatalf("expected TokenNotFound, got %v", err)
	}

	// The error must not have been memoized under the subject key.
	if _, ok := f.kv.data[cache.Key("alice@example.com", domain.TokenAccess)]; ok {
		t.Fatalf("an error verdict was cached")
	}
}

func TestAuthService_ValidateAccessToken_ForgedToken(t *testing.T) {
	f := newAuthFixture()
	forger := token.NewCodec("wrong-secret", "wrong-secret", time.Hour, time.Hour)
	forged, _ := forger.Issue(domain.TokenAccess, "alice@example.com", []domain.Role{domain.RoleAdmin})

	_, err := f.svc.ValidateAccessToken(context.Background(), forged)
	if !domain.IsKind(err, domain.KindTokenSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

// --- Partial update ---

func TestAuthService_PartialUpdate_NameOnlyKeepsTokens(t *testing.T) {
	f := newAuthFixture()
	pair, err := f.svc.SignUp(context.Background(), signUpInput())
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	result, err := f.svc.PartialUpdate(context.Background(), "alice@example.com", ports.UserPatch{FullName: "Alice A. Smith"})
	if err != nil {
		t.Fatalf("PartialUpdate returned error: %v", err)
	}
	if result.Pair != nil {
		t.Fatalf("non-identity patch must not rotate tokens")
	}
	if result.Message != "user updated successfully" {
		t.Fatalf("unexpected message: %q", result.Message)
	}

	valid, err := f.svc.ValidateAccessToken(context.Background(), pair.AccessToken)
	if err != nil || !valid {
		t.Fatalf("existing tokens must survive a non-identity patch: %v %v", valid, err)
	}
}

func TestAuthService_PartialUpdate_EmailChangeRotatesTokens(t *testing.T) {
	f := newAuthFixture()
	pair, err := f.svc.SignUp(context.Background(), signUpInput())
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	result, err := f.svc.PartialUpdate(context.Background(), "alice@example.com", ports.UserPatch{Email: "alice.new@example.com"})
	if err != nil {
		t.Fatalf("PartialUpdate returned error: %v", err)
	}
	if result.Pair == nil {
		t.Fatalf("identity change must return a fresh pair")
	}

	identity, err := f.codec.Parse(domain.TokenAccess, result.Pair.AccessToken)
	if err != nil {
		t.Fatalf("new access token unparseable: %v", err)
	}
	if identity.Subject != "alice.new@example.com" {
		t.Fatalf("new tokens must carry the new subject, got %s", identity.Subject)
	}

	valid, _ := f.svc.ValidateAccessToken(context.Background(), pair.AccessToken)
	if valid {
		t.Fatalf("old tokens must be revoked after an identity change")
	}
}

func TestAuthService_PartialUpdate_EmailConflict(t *testing.T) {
	f := newAuthFixture()
	if _, err := f.svc.SignUp(context.Background(), signUpInput()); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	bob := signUpInput()
	bob.Email = "bob@example.com"
	bob.Phone = "5552223333"
	if _, err := f.svc.SignUp(context.Background(), bob); err != nil {
		t.Fatalf("second signup failed: %v", err)
	}

	_, err := f.svc.PartialUpdate(context.Background(), "alice@example.com", ports.UserPatch{Email: "bob@example.com"})
	if !domain.IsKind(err, domain.KindConflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

// --- Concurrent issuance ---

// gatedTokenRepo holds the first revoke sweep of each of two concurrent
// issuances at a barrier, so both sweeps observe the pre-issue state before
// either pair is written. Later sweeps pass straight through.
type gatedTokenRepo struct {
	*stubTokenRepo
	barrier sync.WaitGroup
	gateMu  sync.Mutex
	sweeps  int
}

func (r *gatedTokenRepo) FindAllUsable(ctx context.Context, userID string) ([]*domain.Token, error) {
	r.gateMu.Lock()
	r.sweeps++
	gated := r.sweeps <= 2
	r.gateMu.Unlock()
	if gated {
		r.barrier.Done()
		r.barrier.Wait()
	}
	return r.stubTokenRepo.FindAllUsable(ctx, userID)
}

func TestTokenLifecycle_ConcurrentIssueKeepsSinglePair(t *testing.T) {
	repo := &gatedTokenRepo{stubTokenRepo: &stubTokenRepo{}}
	repo.barrier.Add(2)
	codec := token.NewCodec("access-secret", "refresh-secret", time.Hour, 2*time.Hour)
	lifecycle := NewTokenLifecycle(repo, codec, zerolog.Nop())
	user := &domain.User{ID: "user-1", Email: "alice@example.com", Roles: []domain.Role{domain.RoleUser}}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = lifecycle.IssuePair(context.Background(), user)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			t.Fatalf("IssuePair returned error: %v", err)
		}
	}

	// Both initial sweeps ran against the empty store, so without the
	// post-write sweep all four rows would stay usable.
	if n := repo.usableCount("user-1"); n > 2 {
		t.Fatalf("double-active state survived, %d usable tokens", n)
	}

	// Whatever survives must be one pair: never two usable rows of a kind.
	repo.mu.Lock()
	perKind := make(map[domain.TokenKind]int)
	for _, tok := range repo.tokens {
		if tok.UserID == "user-1" && !tok.Revoked && !tok.Expired {
			perKind[tok.Kind]++
		}
	}
	repo.mu.Unlock()
	for kind, n := range perKind {
		if n > 1 {
			t.Fatalf("%d usable %s tokens after concurrent issuance", n, kind)
		}
	}
}
