package subscriber

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/pepedome/backend/internal/newsletter"
)

func setupStore(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	store := NewStore(db)
	store.now = func() time.Time {
		return time.Date(2025, time.May, 1, 8, 0, 0, 0, time.UTC)
	}
	return store, mock, func() { db.Close() }
}

func subscriberRows(s *Store, email, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "email_hash", "status", "confirm_token",
		"subscribed_at", "confirmed_at", "unsubscribed_at", "created_at"}).
		AddRow("0c7ee54d-0cd8-4a33-86d4-9a40d1a7f3ce", email, HashEmail(email), status,
			"tok", s.now(), nil, nil, s.now())
}

func TestHashEmail(t *testing.T) {
	if HashEmail("user@example.com") != HashEmail("USER@example.COM ") {
		t.Error("hash should ignore case and surrounding whitespace")
	}
	if HashEmail("user@example.com") == HashEmail("other@example.com") {
		t.Error("distinct addresses must hash differently")
	}
	if len(HashEmail("user@example.com")) != 64 {
		t.Error("hash should be hex SHA-256")
	}
}

func TestSubscribe(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	mock.ExpectQuery("INSERT INTO subscribers").
		WillReturnRows(subscriberRows(store, "maria@example.com", StatusPending))

	sub, err := store.Subscribe(context.Background(), " Maria@Example.com ")
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}
	if sub.Status != StatusPending {
		t.Errorf("status = %q, want pending", sub.Status)
	}
}

func TestSubscribeRejectsInvalidEmail(t *testing.T) {
	store, _, cleanup := setupStore(t)
	defer cleanup()

	for _, email := range []string{"", "   ", "not-an-email"} {
		_, err := store.Subscribe(context.Background(), email)
		var ve *newsletter.ErrValidation
		if !errors.As(err, &ve) {
			t.Errorf("Subscribe(%q) error = %v, want *newsletter.ErrValidation", email, err)
		}
	}
}

func TestConfirm(t *testing.T) {
	t.Run("pending confirms", func(t *testing.T) {
		store, mock, cleanup := setupStore(t)
		defer cleanup()

		mock.ExpectQuery("UPDATE subscribers").
			WillReturnRows(subscriberRows(store, "maria@example.com", StatusConfirmed))

		sub, err := store.Confirm(context.Background(), "tok")
		if err != nil {
			t.Fatalf("Confirm() error: %v", err)
		}
		if sub.Status != StatusConfirmed {
			t.Errorf("status = %q, want confirmed", sub.Status)
		}
	})

	t.Run("unknown token is not found", func(t *testing.T) {
		store, mock, cleanup := setupStore(t)
		defer cleanup()

		mock.ExpectQuery("UPDATE subscribers").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := store.Confirm(context.Background(), "bogus")
		var nf *newsletter.ErrNotFound
		if !errors.As(err, &nf) {
			t.Fatalf("error = %v, want *newsletter.ErrNotFound", err)
		}
	})
}

func TestUnsubscribe(t *testing.T) {
	t.Run("known token unsubscribes", func(t *testing.T) {
		store, mock, cleanup := setupStore(t)
		defer cleanup()

		mock.ExpectExec("UPDATE subscribers").WillReturnResult(sqlmock.NewResult(0, 1))

		if err := store.Unsubscribe(context.Background(), "tok"); err != nil {
			t.Errorf("Unsubscribe() error: %v", err)
		}
	})

	t.Run("unknown token is not found", func(t *testing.T) {
		store, mock, cleanup := setupStore(t)
		defer cleanup()

		mock.ExpectExec("UPDATE subscribers").WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.Unsubscribe(context.Background(), "bogus")
		var nf *newsletter.ErrNotFound
		if !errors.As(err, &nf) {
			t.Fatalf("error = %v, want *newsletter.ErrNotFound", err)
		}
	})
}

func TestConfirmedRecipients(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	mock.ExpectQuery("FROM subscribers WHERE status").
		WillReturnRows(subscriberRows(store, "maria@example.com", StatusConfirmed))

	subs, err := store.ConfirmedRecipients(context.Background())
	if err != nil {
		t.Fatalf("ConfirmedRecipients() error: %v", err)
	}
	if len(subs) != 1 || subs[0].Email != "maria@example.com" {
		t.Errorf("recipients = %+v", subs)
	}
}
