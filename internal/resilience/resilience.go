// Package resilience wraps outbound inter-service calls with a named circuit
// breaker and, for idempotent calls, bounded retry with exponential backoff.
// The wrappers are explicit decorators composed at the call site so the
// ordering of retry, breaker, and any cache eviction around them stays
// visible and testable.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker/v2"

	"github.com/madeeasy/coursehub/internal/api/metrics"
	"github.com/madeeasy/coursehub/internal/core/domain"
)

// Policy bounds retry behaviour for DoRetry.
type Policy struct {
	// MaxAttempts is the total number of tries, first call included.
	MaxAttempts uint64
	// BaseDelay seeds the exponential backoff between attempts.
	BaseDelay time.Duration
}

// BreakerConfig tunes when the named breaker opens and how long it stays open.
type BreakerConfig struct {
	// FailureRatio opens the breaker once at least MinRequests calls have
	// been observed and this share of them failed.
	FailureRatio float64
	MinRequests  uint32
	// OpenTimeout is the cooldown before the breaker probes again.
	OpenTimeout time.Duration
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureRatio <= 0 {
		c.FailureRatio = 0.5
	}
	if c.MinRequests == 0 {
		c.MinRequests = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	return c
}

// Fallback produces a substitute result when the remote dependency is
// unavailable. It must be total: whatever it returns is the final answer and
// any error it returns must be a client-safe domain error.
type Fallback[T any] func(ctx context.Context, cause error) (T, error)

// Unavailable is the standard fallback: a zero result and a
// ServiceUnavailable error carrying the given message.
func Unavailable[T any](message string) Fallback[T] {
	return func(ctx context.Context, cause error) (T, error) {
		var zero T
		return zero, domain.Wrap(domain.KindServiceUnavailable, cause, "%s", message)
	}
}

// Transient reports whether err represents a remote-unavailable condition
// (transport failure, timeout, 5xx, open breaker) as opposed to a structured
// client error, which is permanent and must surface unchanged.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	return domain.IsKind(err, domain.KindServiceUnavailable)
}

// Caller wraps calls to one named remote dependency.
type Caller[T any] struct {
	name    string
	breaker *gobreaker.CircuitBreaker[T]
	policy  Policy
	log     zerolog.Logger
}

// NewCaller builds a wrapper for the named dependency. Structured client
// errors (parsed 4xx) do not count as breaker failures; only transient
// failures trip it.
func NewCaller[T any](name string, policy Policy, breaker BreakerConfig, log zerolog.Logger) *Caller[T] {
	breaker = breaker.withDefaults()
	if policy.MaxAttempts == 0 {
		policy.MaxAttempts = 3
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 500 * time.Millisecond
	}

	settings := gobreaker.Settings{
		Name:    name,
		Timeout: breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < breaker.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= breaker.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !Transient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("dependency", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}

	return &Caller[T]{
		name:    name,
		breaker: gobreaker.NewCircuitBreaker[T](settings),
		policy:  policy,
		log:     log,
	}
}

// Do executes op through the breaker with no retry. Use for non-idempotent
// calls: a duplicate side effect is worse than a failed one, so transient
// failures go straight to the fallback.
func (c *Caller[T]) Do(ctx context.Context, op func(context.Context) (T, error), fallback Fallback[T]) (out T, err error) {
	defer c.guard(&out, &err)

	out, err = c.breaker.Execute(func() (T, error) { return op(ctx) })
	if err == nil || !Transient(err) {
		return out, err
	}

	c.log.Warn().Err(err).Str("dependency", c.name).Msg("remote call unavailable, using fallback")
	metrics.RemoteFallbacksTotal.WithLabelValues(c.name).Inc()
	return fallback(ctx, err)
}

// DoRetry executes op through the breaker with bounded backoff retry. Use
// only for idempotent or safely-retryable calls. Structured client errors
// abort immediately; the fallback handles exhausted transient failures.
func (c *Caller[T]) DoRetry(ctx context.Context, op func(context.Context) (T, error), fallback Fallback[T]) (out T, err error) {
	defer c.guard(&out, &err)

	backoff := retry.WithMaxRetries(c.policy.MaxAttempts-1, retry.NewExponential(c.policy.BaseDelay))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var callErr error
		out, callErr = c.breaker.Execute(func() (T, error) { return op(ctx) })
		if callErr == nil {
			return nil
		}
		if Transient(callErr) {
			c.log.Warn().Err(callErr).
				Str("dependency", c.name).
				Int("attempt", attempt).
				Msg("transient remote failure, retrying")
			return retry.RetryableError(callErr)
		}
		return callErr
	})
	if err == nil || !Transient(err) {
		return out, err
	}

	c.log.Warn().Err(err).Str("dependency", c.name).Msg("retries exhausted, using fallback")
	metrics.RemoteFallbacksTotal.WithLabelValues(c.name).Inc()
	return fallback(ctx, err)
}

// guard keeps op and fallback panics from escaping the wrapper.
func (c *Caller[T]) guard(out *T, err *error) {
	if r := recover(); r != nil {
		c.log.Error().Str("dependency", c.name).Any("panic", r).Msg("panic inside resilience wrapper")
		var zero T
		*out = zero
		*err = domain.E(domain.KindServiceUnavailable, "%s is unavailable, please try again later", c.name)
	}
}
