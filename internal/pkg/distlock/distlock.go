// Package distlock keeps concurrent dispatcher replicas from sending the
// same newsletter twice. Redis is the preferred backend; without it the
// lock falls back to PostgreSQL advisory locks on the shared database.
package distlock

import (
	"context"
	"database/sql"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock is a non-blocking distributed mutex. A Lock instance belongs to a
// single goroutine; use separate instances for concurrent acquisition.
type Lock interface {
	// TryAcquire attempts to take the lock without blocking.
	TryAcquire(ctx context.Context) (bool, error)
	// Release gives the lock back if this instance still owns it.
	Release(ctx context.Context) error
}

// New picks a backend: Redis when a client is configured, otherwise a
// PostgreSQL advisory lock bound to the given database.
func New(rdb *redis.Client, db *sql.DB, key string, ttl time.Duration) Lock {
	if rdb != nil {
		return NewRedisLock(rdb, key, ttl)
	}
	return NewAdvisoryLock(db, key)
}

// AdvisoryLock implements Lock on pg_try_advisory_lock. The lock is
// session-scoped, so a crashed holder releases it when its connection
// drops, which stands in for the TTL a Redis lock would have.
type AdvisoryLock struct {
	db  *sql.DB
	key int64
}

// NewAdvisoryLock derives a stable 64-bit advisory lock id from the key.
func NewAdvisoryLock(db *sql.DB, key string) *AdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &AdvisoryLock{db: db, key: int64(h.Sum64())}
}

// TryAcquire attempts the advisory lock and returns immediately.
func (l *AdvisoryLock) TryAcquire(ctx context.Context) (bool, error) {
	var ok bool
	err := l.db.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.key).Scan(&ok)
	return ok, err
}

// Release unlocks the advisory lock.
func (l *AdvisoryLock) Release(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.key)
	return err
}
