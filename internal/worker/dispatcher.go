// Package worker runs the background loops: the send dispatcher that fires
// scheduled newsletters and the periodic feed import.
package worker

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pepedome/backend/internal/content"
	"github.com/pepedome/backend/internal/pkg/distlock"
	"github.com/pepedome/backend/internal/pkg/logger"
)

// DefaultPollInterval is how often the dispatcher checks for due newsletters.
const DefaultPollInterval = 30 * time.Second

// dispatchLockTTL bounds how long one replica may hold the send lock.
const dispatchLockTTL = 5 * time.Minute

// SendRunner executes a full newsletter send. Satisfied by mailer.Sender.
type SendRunner interface {
	Send(ctx context.Context, id uuid.UUID) error
}

// Dispatcher polls for scheduled newsletters whose time has arrived and
// hands them to the sender, one replica at a time via a distributed lock.
type Dispatcher struct {
	db           *sql.DB
	sender       SendRunner
	redisClient  *redis.Client // optional; nil falls back to PG advisory locks
	importer     *content.FeedImporter
	feedInterval time.Duration
	pollInterval time.Duration
	log          *logger.Logger

	// Control
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(db *sql.DB, sender SendRunner) *Dispatcher {
	return &Dispatcher{
		db:           db,
		sender:       sender,
		pollInterval: DefaultPollInterval,
		log:          logger.Component("dispatcher"),
	}
}

// SetRedisClient enables Redis-backed dispatch locking. Without it the
// dispatcher falls back to PostgreSQL advisory locks.
func (d *Dispatcher) SetRedisClient(client *redis.Client) {
	d.redisClient = client
}

// SetPollInterval overrides the default poll interval.
func (d *Dispatcher) SetPollInterval(interval time.Duration) {
	if interval > 0 {
		d.pollInterval = interval
	}
}

// SetFeedImporter enables the periodic article import loop.
func (d *Dispatcher) SetFeedImporter(imp *content.FeedImporter, interval time.Duration) {
	d.importer = imp
	d.feedInterval = interval
}

// Start begins the polling loops.
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher already running")
	}
	d.running = true
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.mu.Unlock()

	d.log.Info("starting", "poll_interval", d.pollInterval)

	d.wg.Add(1)
	go d.dispatchLoop()

	if d.importer != nil && d.feedInterval > 0 {
		d.wg.Add(1)
		go d.feedLoop()
	}
	return nil
}

// Stop gracefully stops the dispatcher.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
	d.log.Info("stopped")
}

func (d *Dispatcher) dispatchLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.Tick(d.ctx)
		}
	}
}

func (d *Dispatcher) feedLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.feedInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.importer.Run(d.ctx); err != nil {
				d.log.Error("feed import failed", "error", err)
			}
		}
	}
}

// Tick runs one dispatch pass: find due newsletters and send them. Exposed
// for tests and for the worker command's run-once mode.
func (d *Dispatcher) Tick(ctx context.Context) {
	due, err := d.dueNewsletters(ctx)
	if err != nil {
		d.log.Error("poll failed", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	lock := distlock.New(d.redisClient, d.db, "newsletter:dispatch", dispatchLockTTL)
	acquired, err := lock.TryAcquire(ctx)
	if err != nil {
		d.log.Error("lock acquire failed", "error", err)
		return
	}
	if !acquired {
		// Another replica is dispatching.
		return
	}
	defer lock.Release(ctx)

	for _, id := range due {
		if ctx.Err() != nil {
			return
		}
		if err := d.sender.Send(ctx, id); err != nil {
			d.log.Error("send failed", "newsletter_id", id, "error", err)
		}
	}
}

func (d *Dispatcher) dueNewsletters(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id FROM newsletters
		WHERE status = 'scheduled' AND scheduled_at <= NOW()
		ORDER BY scheduled_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
