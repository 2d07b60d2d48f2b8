package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/madeeasy/coursehub/internal/core/domain"
)

func fastPolicy(attempts uint64) Policy {
	return Policy{MaxAttempts: attempts, BaseDelay: time.Millisecond}
}

func unavailableErr() error {
	return domain.E(domain.KindServiceUnavailable, "peer unreachable")
}

func TestCaller_DoRetry_RecoversFromTransientFailure(t *testing.T) {
	c := NewCaller[string]("peer", fastPolicy(3), BreakerConfig{MinRequests: 100}, zerolog.Nop())

	calls := 0
	out, err := c.DoRetry(context.Background(), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", unavailableErr()
		}
		return "ok", nil
	}, Unavailable[string]("peer is unavailable"))
	if err != nil {
		t.Fatalf("DoRetry returned error: %v", err)
	}
	if out != "ok" {
		t.Fatalf("unexpected result: %q", out)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestCaller_DoRetry_ExhaustionUsesFallback(t *testing.T) {
	c := NewCaller[string]("peer", fastPolicy(3), BreakerConfig{MinRequests: 100}, zerolog.Nop())

	calls := 0
	_, err := c.DoRetry(context.Background(), func(context.Context) (string, error) {
		calls++
		return "", unavailableErr()
	}, Unavailable[string]("peer is unavailable, please try again later"))

	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if !domain.IsKind(err, domain.KindServiceUnavailable) {
		t.Fatalf("expected ServiceUnavailable, got %v", err)
	}
	if domain.MessageOf(err) != "peer is unavailable, please try again later" {
		t.Fatalf("fallback message lost: %q", domain.MessageOf(err))
	}
}

func TestCaller_DoRetry_PermanentErrorAbortsImmediately(t *testing.T) {
	c := NewCaller[string]("peer", fastPolicy(5), BreakerConfig{MinRequests: 100}, zerolog.Nop())

	calls := 0
	conflict := domain.E(domain.KindConflict, "user with email a@b.c already exists")
	_, err := c.DoRetry(context.Background(), func(context.Context) (string, error) {
		calls++
		return "", conflict
	}, Unavailable[string]("should not be used"))

	if calls != 1 {
		t.Fatalf("structured client errors must not retry, got %d attempts", calls)
	}
	if !errors.Is(err, conflict) {
		t.Fatalf("expected the conflict to surface unchanged, got %v", err)
	}
}

func TestCaller_Do_NeverRetries(t *testing.T) {
	c := NewCaller[string]("peer", fastPolicy(5), BreakerConfig{MinRequests: 100}, zerolog.Nop())

	calls := 0
	_, err := c.Do(context.Background(), func(context.Context) (string, error) {
		calls++
		return "", unavailableErr()
	}, Unavailable[string]("peer is unavailable"))

	if calls != 1 {
		t.Fatalf("Do must call exactly once, got %d", calls)
	}
	if !domain.IsKind(err, domain.KindServiceUnavailable) {
		t.Fatalf("expected ServiceUnavailable, got %v", err)
	}
}

func TestCaller_BreakerOpensAndShortCircuits(t *testing.T) {
	c := NewCaller[string]("peer", fastPolicy(1), BreakerConfig{
		FailureRatio: 0.5,
		MinRequests:  2,
		OpenTimeout:  time.Minute,
	}, zerolog.Nop())

	calls := 0
	op := func(context.Context) (string, error) {
		calls++
		return "", unavailableErr()
	}

	for i := 0; i < 2; i++ {
		_, _ = c.Do(context.Background(), op, Unavailable[string]("peer is unavailable"))
	}
	if calls != 2 {
		t.Fatalf("expected 2 real calls before the breaker opens, got %d", calls)
	}

	// Breaker is open now: the op must not run, the fallback still answers.
	_, err := c.Do(context.Background(), op, Unavailable[string]("peer is unavailable"))
	if calls != 2 {
		t.Fatalf("open breaker must short-circuit, op ran %d times", calls)
	}
	if !domain.IsKind(err, domain.KindServiceUnavailable) {
		t.Fatalf("expected ServiceUnavailable from fallback, got %v", err)
	}
}

func TestCaller_ClientErrorsDoNotTripBreaker(t *testing.T) {
	c := NewCaller[string]("peer", fastPolicy(1), BreakerConfig{
		FailureRatio: 0.5,
		MinRequests:  2,
		OpenTimeout:  time.Minute,
	}, zerolog.Nop())

	calls := 0
	op := func(context.Context) (string, error) {
		calls++
		return "", domain.E(domain.KindNotFound, "course not found")
	}

	for i := 0; i < 10; i++ {
		_, err := c.Do(context.Background(), op, Unavailable[string]("peer is unavailable"))
		if !domain.IsKind(err, domain.KindNotFound) {
			t.Fatalf("expected NotFound on call %d, got %v", i, err)
		}
	}
	if calls != 10 {
		t.Fatalf("4xx responses must not open the breaker, op ran %d times", calls)
	}
}

func TestCaller_FallbackPanicIsContained(t *testing.T) {
	c := NewCaller[string]("peer", fastPolicy(1), BreakerConfig{MinRequests: 100}, zerolog.Nop())

	out, err := c.Do(context.Background(), func(context.Context) (string, error) {
		return "", unavailableErr()
	}, func(context.Context, error) (string, error) {
		panic("broken fallback")
	})

	if out != "" {
		t.Fatalf("expected zero result, got %q", out)
	}
	if !domain.IsKind(err, domain.KindServiceUnavailable) {
		t.Fatalf("panic must degrade to ServiceUnavailable, got %v", err)
	}
}

func TestTransient(t *testing.T) {
	if Transient(nil) {
		t.Fatalf("nil is not transient")
	}
	if !Transient(unavailableErr()) {
		t.Fatalf("ServiceUnavailable is transient")
	}
	if Transient(domain.E(domain.KindConflict, "dup")) {
		t.Fatalf("structured client errors are permanent")
	}
}
