package tracking

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Store records open and click events. A (newsletter, subscriber) pair is
// counted once per event type; repeats are absorbed by the dedup tables so
// the stats counters stay unique.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a tracking store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// RecordOpen counts the first open per subscriber for a newsletter.
func (s *Store) RecordOpen(ctx context.Context, newsletterID, subscriberID uuid.UUID) error {
	return s.record(ctx, "newsletter_open_events", "unique_opens", newsletterID, subscriberID)
}

// RecordClick counts the first click per subscriber for a newsletter.
func (s *Store) RecordClick(ctx context.Context, newsletterID, subscriberID uuid.UUID) error {
	return s.record(ctx, "newsletter_click_events", "unique_clicks", newsletterID, subscriberID)
}

func (s *Store) record(ctx context.Context, eventTable, counter string, newsletterID, subscriberID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO `+eventTable+`
		(newsletter_id, subscriber_id, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (newsletter_id, subscriber_id) DO NOTHING`,
		newsletterID, subscriberID, s.now())
	if err != nil {
		return err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if inserted == 0 {
		// Seen before, nothing to count.
		return tx.Commit()
	}

	_, err = tx.ExecContext(ctx, `UPDATE newsletter_stats
		SET `+counter+` = `+counter+` + 1, updated_at = $1
		WHERE newsletter_id = $2`, s.now(), newsletterID)
	if err != nil {
		return err
	}
	return tx.Commit()
}
