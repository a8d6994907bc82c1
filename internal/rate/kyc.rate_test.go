package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"kyc-service/pkg/xerrors"
)

type fakeStore struct {
	now     time.Time
	entries map[string]time.Time // key -> expiry
}

func newFakeStore() *fakeStore {
	return &fakeStore{now: time.Now(), entries: make(map[string]time.Time)}
}

func (f *fakeStore) SetNX(_ context.Context, namespace, key string, _ interface{}, ttl time.Duration) (bool, error) {
	k := namespace + ":" + key
	if exp, ok := f.entries[k]; ok && f.now.Before(exp) {
		return false, nil
	}
	f.entries[k] = f.now.Add(ttl)
	return true, nil
}

func (f *fakeStore) GetTTL(_ context.Context, namespace, key string) (time.Duration, error) {
	k := namespace + ":" + key
	exp, ok := f.entries[k]
	if !ok || !f.now.Before(exp) {
		return -2 * time.Nanosecond, nil
	}
	return exp.Sub(f.now), nil
}

func TestTryAcquire(t *testing.T) {
	store := newFakeStore()
	l := NewLimiter(store, 60*time.Second)
	ctx := context.Background()

	if err := l.TryAcquire(ctx, "aadhaar_otp", "u1"); err != nil {
		t.Fatalf("first acquire must pass: %v", err)
	}

	store.now = store.now.Add(10 * time.Second)
	err := l.TryAcquire(ctx, "aadhaar_otp", "u1")
	if !errors.Is(err, xerrors.ErrTooSoon) {
		t.Fatalf("second acquire inside window must be denied, got %v", err)
	}

	var rl *xerrors.RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitedError, got %T", err)
	}
	if rl.RetryAfterSeconds != 50 {
		t.Errorf("expected 50s remaining, got %d", rl.RetryAfterSeconds)
	}

	// Another user and another operation are independent.
	if err := l.TryAcquire(ctx, "aadhaar_otp", "u2"); err != nil {
		t.Errorf("different user must not be throttled: %v", err)
	}
	if err := l.TryAcquire(ctx, "bank_verify", "u1"); err != nil {
		t.Errorf("different operation must not be throttled: %v", err)
	}

	// After the window elapses the marker is gone.
	store.now = store.now.Add(51 * time.Second)
	if err := l.TryAcquire(ctx, "aadhaar_otp", "u1"); err != nil {
		t.Errorf("acquire after cooldown must pass: %v", err)
	}
}
