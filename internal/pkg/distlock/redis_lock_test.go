package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisLockMutualExclusion(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	a := NewRedisLock(client, "newsletter:dispatch", time.Minute)
	b := NewRedisLock(client, "newsletter:dispatch", time.Minute)

	ok, err := a.TryAcquire(ctx)
	if err != nil || !ok {
		t.Fatalf("first acquire = (%v, %v), want (true, nil)", ok, err)
	}

	ok, err = b.TryAcquire(ctx)
	if err != nil {
		t.Fatalf("second acquire error: %v", err)
	}
	if ok {
		t.Fatal("second holder acquired a held lock")
	}

	if err := a.Release(ctx); err != nil {
		t.Fatalf("release error: %v", err)
	}

	ok, err = b.TryAcquire(ctx)
	if err != nil || !ok {
		t.Fatalf("acquire after release = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestRedisLockReleaseRequiresOwnership(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	a := NewRedisLock(client, "newsletter:dispatch", time.Minute)
	b := NewRedisLock(client, "newsletter:dispatch", time.Minute)

	if ok, _ := a.TryAcquire(ctx); !ok {
		t.Fatal("could not acquire")
	}

	// A non-owner release must not free the lock.
	if err := b.Release(ctx); err != nil {
		t.Fatalf("non-owner release error: %v", err)
	}
	if ok, _ := b.TryAcquire(ctx); ok {
		t.Fatal("lock was freed by a non-owner")
	}
}

func TestRedisLockExtend(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	l := NewRedisLock(client, "newsletter:dispatch", time.Second)
	if ok, _ := l.TryAcquire(ctx); !ok {
		t.Fatal("could not acquire")
	}
	if err := l.Extend(ctx, time.Minute); err != nil {
		t.Fatalf("extend error: %v", err)
	}
}

func TestNewFallsBackToAdvisory(t *testing.T) {
	l := New(nil, nil, "newsletter:dispatch", time.Minute)
	if _, ok := l.(*AdvisoryLock); !ok {
		t.Fatalf("New(nil redis) = %T, want *AdvisoryLock", l)
	}
}
