package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/madeeasy/coursehub/internal/core/domain"
)

// DefaultValidationTTL bounds how long a validation verdict may be served
// without consulting the token lifecycle manager.
const DefaultValidationTTL = 10 * time.Minute

// Key derives the deterministic cache key for a subject's token kind. The
// key is subject-based, not token-based, so a bulk revoke-all is exactly two
// evictions with no cache scan.
func Key(subject string, kind domain.TokenKind) string {
	return subject + ":" + string(kind)
}

// Validation is the read-through cache in front of store-backed token
// validation.
type Validation struct {
	kv  KeyValue
	ttl time.Duration
	log zerolog.Logger
}

// NewValidation builds a validation cache. A non-positive ttl falls back to
// DefaultValidationTTL.
func NewValidation(kv KeyValue, ttl time.Duration, log zerolog.Logger) *Validation {
	if ttl <= 0 {
		ttl = DefaultValidationTTL
	}
	return &Validation{kv: kv, ttl: ttl, log: log}
}

// GetOrCompute returns the cached verdict for (subject, kind) or computes it
// via the lifecycle manager on a miss. Compute errors (TokenNotFound
// included) are never memoized: a later legitimate token for the same
// subject must not inherit a stale negative. Cache-layer failures degrade to
// a direct compute rather than failing the validation.
func (v *Validation) GetOrCompute(ctx context.Context, subject string, kind domain.TokenKind, compute func(context.Context) (bool, error)) (bool, error) {
	key := Key(subject, kind)

	val, ok, err := v.kv.Get(ctx, key)
	if err != nil {
		v.log.Warn().Err(err).Str("key", key).Msg("validation cache read failed, falling through to store")
	} else if ok {
		return val == "true", nil
	}

	verdict, err := compute(ctx)
	if err != nil {
		return false, err
	}

	stored := "false"
	if verdict {
		stored = "true"
	}
	if err := v.kv.Put(ctx, key, stored, v.ttl); err != nil {
		v.log.Warn().Err(err).Str("key", key).Msg("validation cache write failed")
	}
	return verdict, nil
}

// EvictSubject removes both of the subject's entries. Called synchronously
// inside every operation that mutates the subject's tokens; a failed
// eviction is an error so the caller can refuse to complete the mutation
// with a stale true still live.
func (v *Validation) EvictSubject(ctx context.Context, subject string) error {
	err := v.kv.Evict(ctx, Key(subject, domain.TokenAccess), Key(subject, domain.TokenRefresh))
	if err != nil {
		return domain.Wrap(domain.KindStoreUnavailable, err, "cache eviction failed")
	}
	return nil
}
