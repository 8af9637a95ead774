// Package subscriber manages the newsletter mailing list: double opt-in
// signups, confirmations and unsubscribes.
package subscriber

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pepedome/backend/internal/newsletter"
)

// Subscriber statuses.
const (
	StatusPending      = "pending"
	StatusConfirmed    = "confirmed"
	StatusUnsubscribed = "unsubscribed"
)

// Subscriber is one mailing list entry.
type Subscriber struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	EmailHash      string     `json:"email_hash"`
	Status         string     `json:"status"`
	ConfirmToken   string     `json:"-"`
	SubscribedAt   time.Time  `json:"subscribed_at"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Store provides database operations for the mailing list.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a subscriber store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashEmail returns the lowercase hex SHA-256 of the normalized address,
// used for suppression matching without exposing the address itself.
func HashEmail(email string) string {
	h := sha256.Sum256([]byte(NormalizeEmail(email)))
	return hex.EncodeToString(h[:])
}

func newToken() string {
	b := make([]byte, 24)
	rand.Read(b)
	return hex.EncodeToString(b)
}

const subscriberColumns = `id, email, email_hash, status, confirm_token,
	subscribed_at, confirmed_at, unsubscribed_at, created_at`

func scanSubscriber(row interface{ Scan(...interface{}) error }, s *Subscriber) error {
	return row.Scan(&s.ID, &s.Email, &s.EmailHash, &s.Status, &s.ConfirmToken,
		&s.SubscribedAt, &s.ConfirmedAt, &s.UnsubscribedAt, &s.CreatedAt)
}

// Subscribe registers an address as pending and returns the subscriber with a
// fresh confirm token. Re-subscribing an existing address resets it to
// pending with a new token, which also lets unsubscribed readers come back.
func (s *Store) Subscribe(ctx context.Context, email string) (*Subscriber, error) {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, newsletter.NewValidation("email", "a valid email address is required")
	}

	now := s.now()
	sub := &Subscriber{
		ID:           uuid.New(),
		Email:        email,
		EmailHash:    HashEmail(email),
		Status:       StatusPending,
		ConfirmToken: newToken(),
		SubscribedAt: now,
		CreatedAt:    now,
	}

	err := scanSubscriber(s.db.QueryRowContext(ctx, `INSERT INTO subscribers
		(id, email, email_hash, status, confirm_token, subscribed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (email) DO UPDATE SET
			status = $4, confirm_token = $5, subscribed_at = $6,
			confirmed_at = NULL, unsubscribed_at = NULL
		RETURNING `+subscriberColumns,
		sub.ID, sub.Email, sub.EmailHash, sub.Status, sub.ConfirmToken, now), sub)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Confirm flips a pending subscriber to confirmed by its opt-in token.
func (s *Store) Confirm(ctx context.Context, token string) (*Subscriber, error) {
	sub := &Subscriber{}
	err := scanSubscriber(s.db.QueryRowContext(ctx, `UPDATE subscribers
		SET status = $1, confirmed_at = $2
		WHERE confirm_token = $3 AND status = $4
		RETURNING `+subscriberColumns,
		StatusConfirmed, s.now(), token, StatusPending), sub)
	if err == sql.ErrNoRows {
		return nil, newsletter.NewNotFound("subscription", token)
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Unsubscribe removes a subscriber from sends by its token. Already
// unsubscribed tokens succeed so the link in old emails keeps working.
func (s *Store) Unsubscribe(ctx context.Context, token string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE subscribers
		SET status = $1, unsubscribed_at = COALESCE(unsubscribed_at, $2)
		WHERE confirm_token = $3`,
		StatusUnsubscribed, s.now(), token)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return newsletter.NewNotFound("subscription", token)
	}
	return nil
}

// GetByEmail looks a subscriber up by normalized address, or (nil, nil).
func (s *Store) GetByEmail(ctx context.Context, email string) (*Subscriber, error) {
	sub := &Subscriber{}
	err := scanSubscriber(s.db.QueryRowContext(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers WHERE email = $1`,
		NormalizeEmail(email)), sub)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sub, err
}

// ConfirmedRecipients returns every confirmed subscriber, oldest first. The
// dispatcher iterates this list for a send.
func (s *Store) ConfirmedRecipients(ctx context.Context) ([]Subscriber, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+subscriberColumns+`
		FROM subscribers WHERE status = $1 ORDER BY subscribed_at`, StatusConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Subscriber{}
	for rows.Next() {
		var sub Subscriber
		if err := scanSubscriber(rows, &sub); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// Count returns subscriber totals per status.
func (s *Store) Count(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM subscribers GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// List returns a page of subscribers, newest signup first.
func (s *Store) List(ctx context.Context, page, limit int) ([]Subscriber, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscribers`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+subscriberColumns+`
		FROM subscribers ORDER BY subscribed_at DESC LIMIT $1 OFFSET $2`,
		limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Subscriber{}
	for rows.Next() {
		var sub Subscriber
		if err := scanSubscriber(rows, &sub); err != nil {
			return nil, 0, err
		}
		out = append(out, sub)
	}
	return out, total, rows.Err()
}
