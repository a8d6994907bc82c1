package rate

import (
	"context"
	"time"

	"kyc-service/pkg/xerrors"
)

const namespace = "kyc_rate"

// Store is the cache surface the limiter needs; satisfied by *cache.Cache.
type Store interface {
	SetNX(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) (bool, error)
	GetTTL(ctx context.Context, namespace, key string) (time.Duration, error)
}

// Limiter enforces a fixed cooldown between challenge issuances per
// operation and user. The marker is a set-if-absent key with TTL; while it
// lives, further requests are denied. No queueing, no backoff.
type Limiter struct {
	store    Store
	cooldown time.Duration
}

func NewLimiter(store Store, cooldown time.Duration) *Limiter {
	return &Limiter{store: store, cooldown: cooldown}
}

// TryAcquire sets the cooldown marker for (operation, userID). A denied
// caller gets a RateLimitedError with the seconds left in the window.
func (l *Limiter) TryAcquire(ctx context.Context, operation, userID string) error {
	key := operation + ":" + userID

	ok, err := l.store.SetNX(ctx, namespace, key, "1", l.cooldown)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	retryAfter := int(l.cooldown.Seconds())
	if ttl, err := l.store.GetTTL(ctx, namespace, key); err == nil && ttl > 0 {
		retryAfter = int(ttl.Seconds())
	}
	return &xerrors.RateLimitedError{RetryAfterSeconds: retryAfter}
}
