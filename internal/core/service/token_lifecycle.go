package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/madeeasy/coursehub/internal/api/metrics"
	"github.com/madeeasy/coursehub/internal/core/domain"
	"github.com/madeeasy/coursehub/internal/core/ports"
	"github.com/madeeasy/coursehub/internal/token"
)

// TokenLifecycle is the sole authority on whether a presented token may be
// trusted right now. Validation is store-backed rather than purely
// signature-based so logout and credential rotation invalidate tokens that
// are still cryptographically valid and unexpired.
type TokenLifecycle struct {
	tokens ports.TokenRepository
	codec  *token.Codec
	log    zerolog.Logger
}

func NewTokenLifecycle(tokens ports.TokenRepository, codec *token.Codec, log zerolog.Logger) *TokenLifecycle {
	return &TokenLifecycle{tokens: tokens, codec: codec, log: log}
}

// Mint signs a fresh pair without touching the store. The signup saga mints
// before its remote leg and persists only after that leg succeeds.
func (l *TokenLifecycle) Mint(user *domain.User) (*domain.TokenPair, error) {
	return l.codec.IssuePair(user.Email, user.Roles)
}

// Persist records both halves of a minted pair as usable rows.
func (l *TokenLifecycle) Persist(ctx context.Context, userID string, pair *domain.TokenPair) error {
	_, err := l.persist(ctx, userID, pair)
	return err
}

func (l *TokenLifecycle) persist(ctx context.Context, userID string, pair *domain.TokenPair) ([]string, error) {
	records := []*domain.Token{
		{ID: uuid.NewString(), UserID: userID, Value: pair.AccessToken, Kind: domain.TokenAccess},
		{ID: uuid.NewString(), UserID: userID, Value: pair.RefreshToken, Kind: domain.TokenRefresh},
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		if err := l.tokens.Create(ctx, rec); err != nil {
			return nil, err
		}
		ids = append(ids, rec.ID)
		metrics.TokensIssuedTotal.WithLabelValues(string(rec.Kind)).Inc()
	}
	return ids, nil
}

// IssuePair revokes every previously usable token for the user, then mints
// and persists a new pair. The revoke-then-issue sequence is not atomic
// across concurrent requests for the same user: two issuances can both run
// their first sweep before either pair lands. The second sweep after the
// write, sparing only the rows just written, guarantees no more than one
// pair stays usable; concurrent callers race on a last-committer basis.
func (l *TokenLifecycle) IssuePair(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	if err := l.RevokeAllFor(ctx, user.ID); err != nil {
		return nil, err
	}
	pair, err := l.Mint(user)
	if err != nil {
		return nil, err
	}
	ids, err := l.persist(ctx, user.ID, pair)
	if err != nil {
		return nil, err
	}
	if err := l.revokeAllExcept(ctx, user.ID, ids); err != nil {
		return nil, err
	}
	return pair, nil
}

// Validate looks the token up by exact string match. A missing row is a
// TokenNotFound error, distinct from a revoked or expired one: a token this
// store never issued is a fault, not merely invalid. A row with both flags
// set is counted and logged before the false verdict so the condition stays
// observable.
func (l *TokenLifecycle) Validate(ctx context.Context, value string) (bool, error) {
	rec, err := l.tokens.FindByValue(ctx, value)
	if err != nil {
		return false, err
	}

	if rec.Revoked && rec.Expired {
		metrics.TokensUnusableTotal.Inc()
		l.log.Warn().
			Str("user_id", rec.UserID).
			Str("kind", string(rec.Kind)).
			Msg("validation hit a fully revoked and expired token")
	}

	return rec.Usable(), nil
}

// RevokeAllFor flips revoked and expired on every usable token the user
// holds. Idempotent; zero matching rows is a no-op.
func (l *TokenLifecycle) RevokeAllFor(ctx context.Context, userID string) error {
	return l.revokeAllExcept(ctx, userID, nil)
}

func (l *TokenLifecycle) revokeAllExcept(ctx context.Context, userID string, keep []string) error {
	usable, err := l.tokens.FindAllUsable(ctx, userID)
	if err != nil {
		return err
	}

	kept := make(map[string]bool, len(keep))
	for _, id := range keep {
		kept[id] = true
	}
	var ids []string
	for _, t := range usable {
		if !kept[t.ID] {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	if err := l.tokens.MarkUnusable(ctx, ids); err != nil {
		return err
	}

	metrics.TokensRevokedTotal.Add(float64(len(ids)))
	l.log.Info().Str("user_id", userID).Int("count", len(ids)).Msg("revoked previously valid tokens")
	return nil
}
