package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/madeeasy/coursehub/internal/core/domain"
)

type memKV struct {
	data    map[string]string
	getErr  error
	putErr  error
	evicted [][]string
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string]string)}
}

func (m *memKV) Get(_ context.Context, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Put(_ context.Context, key, value string, _ time.Duration) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = value
	return nil
}

func (m *memKV) Evict(_ context.Context, keys ...string) error {
	m.evicted = append(m.evicted, keys)
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func TestValidation_GetOrCompute_CachesVerdict(t *testing.T) {
	kv := newMemKV()
	v := NewValidation(kv, time.Minute, zerolog.Nop())

	calls := 0
	compute := func(context.Context) (bool, error) {
		calls++
		return true, nil
	}

	for i := 0; i < 3; i++ {
		verdict, err := v.GetOrCompute(context.Background(), "alice@example.com", domain.TokenAccess, compute)
		if err != nil {
			t.Fatalf("GetOrCompute returned error: %v", err)
		}
		if !verdict {
			t.Fatalf("expected true verdict")
		}
	}
	if calls != 1 {
		t.Fatalf("expected a single compute, got %d", calls)
	}
	if kv.data[Key("alice@example.com", domain.TokenAccess)] != "true" {
		t.Fatalf("verdict not stored under subject key")
	}
}

func TestValidation_GetOrCompute_FalseVerdictIsCached(t *testing.T) {
	kv := newMemKV()
	v := NewValidation(kv, time.Minute, zerolog.Nop())

	calls := 0
	verdict, err := v.GetOrCompute(context.Background(), "bob@example.com", domain.TokenAccess, func(context.Context) (bool, error) {
		calls++
		return false, nil
	})
	if err != nil || verdict {
		t.Fatalf("expected cached false, got %v %v", verdict, err)
	}

	verdict, err = v.GetOrCompute(context.Background(), "bob@example.com", domain.TokenAccess, func(context.Context) (bool, error) {
		calls++
		return true, nil
	})
	if err != nil {
		t.Fatalf("GetOrCompute returned error: %v", err)
	}
	if verdict {
		t.Fatalf("second read must serve the cached false verdict")
	}
	if calls != 1 {
		t.Fatalf("expected a single compute, got %d", calls)
	}
}

func TestValidation_GetOrCompute_ErrorsNeverMemoized(t *testing.T) {
	kv := newMemKV()
	v := NewValidation(kv, time.Minute, zerolog.Nop())

	boom := domain.E(domain.KindTokenNotFound, "token not found")
	calls := 0
	for i := 0; i < 2; i++ {
		_, err := v.GetOrCompute(context.Background(), "carol@example.com", domain.TokenAccess, func(context.Context) (bool, error) {
			calls++
			return false, boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected compute error, got %v", err)
		}
	}
	if calls != 2 {
		t.Fatalf("error verdicts must not be cached, compute called %d times", calls)
	}
	if len(kv.data) != 0 {
		t.Fatalf("no entry should be stored after an error, got %v", kv.data)
	}
}

func TestValidation_GetOrCompute_ReadFailureFallsThrough(t *testing.T) {
	kv := newMemKV()
	kv.getErr = errors.New("redis down")
	v := NewValidation(kv, time.Minute, zerolog.Nop())

	verdict, err := v.GetOrCompute(context.Background(), "dave@example.com", domain.TokenAccess, func(context.Context) (bool, error) {
		return true, nil
	})
	if err != nil {
		t.Fatalf("cache read failure must not fail the validation: %v", err)
	}
	if !verdict {
		t.Fatalf("expected computed verdict")
	}
}

func TestValidation_EvictSubject_RemovesBothKinds(t *testing.T) {
	kv := newMemKV()
	v := NewValidation(kv, time.Minute, zerolog.Nop())

	kv.data[Key("erin@example.com", domain.TokenAccess)] = "true"
	kv.data[Key("erin@example.com", domain.TokenRefresh)] = "true"
	kv.data[Key("other@example.com", domain.TokenAccess)] = "true"

	if err := v.EvictSubject(context.Background(), "erin@example.com"); err != nil {
		t.Fatalf("EvictSubject returned error: %v", err)
	}

	if len(kv.evicted) != 1 || len(kv.evicted[0]) != 2 {
		t.Fatalf("expected exactly one eviction of two keys, got %v", kv.evicted)
	}
	if _, ok := kv.data[Key("erin@example.com", domain.TokenAccess)]; ok {
		t.Fatalf("access entry survived eviction")
	}
	if _, ok := kv.data[Key("erin@example.com", domain.TokenRefresh)]; ok {
		t.Fatalf("refresh entry survived eviction")
	}
	if _, ok := kv.data[Key("other@example.com", domain.TokenAccess)]; !ok {
		t.Fatalf("unrelated subject must be untouched")
	}
}

type failingEvictKV struct{ memKV }

func (f *failingEvictKV) Evict(context.Context, ...string) error {
	return errors.New("redis down")
}

func TestValidation_EvictSubject_FailureIsStoreUnavailable(t *testing.T) {
	v := NewValidation(&failingEvictKV{memKV: *newMemKV()}, time.Minute, zerolog.Nop())

	err := v.EvictSubject(context.Background(), "frank@example.com")
	if !domain.IsKind(err, domain.KindStoreUnavailable) {
		t.Fatalf("expected StoreUnavailable, got %v", err)
	}
}
