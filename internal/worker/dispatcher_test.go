package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type fakeSender struct {
	sent []uuid.UUID
	err  error
}

func (f *fakeSender) Send(_ context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, id)
	return nil
}

func TestTickSendsDueNewsletters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	id1, id2 := uuid.New(), uuid.New()
	mock.ExpectQuery("SELECT id FROM newsletters").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow(id1.String()).AddRow(id2.String()))

	mr := miniredis.RunT(t)
	sender := &fakeSender{}
	d := NewDispatcher(db, sender)
	d.SetRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	d.Tick(context.Background())

	if len(sender.sent) != 2 {
		t.Fatalf("sent %d newsletters, want 2", len(sender.sent))
	}
	if sender.sent[0] != id1 || sender.sent[1] != id2 {
		t.Errorf("send order = %v, want scheduled order", sender.sent)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTickNothingDue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id FROM newsletters").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	sender := &fakeSender{}
	d := NewDispatcher(db, sender)
	d.Tick(context.Background())

	if len(sender.sent) != 0 {
		t.Errorf("sent %d newsletters, want 0", len(sender.sent))
	}
}

func TestTickSkipsWhenLockHeld(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id FROM newsletters").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))

	mr := miniredis.RunT(t)
	// Simulate another replica holding the dispatch lock.
	mr.Set("pepedome:lock:newsletter:dispatch", "other-holder")

	sender := &fakeSender{}
	d := NewDispatcher(db, sender)
	d.SetRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	d.Tick(context.Background())

	if len(sender.sent) != 0 {
		t.Errorf("sent %d newsletters while another replica held the lock", len(sender.sent))
	}
}

func TestTickContinuesPastSendFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id FROM newsletters").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))

	sender := &fakeSender{err: errors.New("ses unavailable")}
	mr := miniredis.RunT(t)
	d := NewDispatcher(db, sender)
	d.SetRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	// Must not panic or wedge; the failure is logged and the tick finishes.
	d.Tick(context.Background())
}

func TestStartStop(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	d := NewDispatcher(db, &fakeSender{})
	d.SetPollInterval(10 * time.Millisecond)

	if err := d.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := d.Start(); err == nil {
		t.Error("second Start() should fail while running")
	}
	d.Stop()
	// Stop again is a no-op.
	d.Stop()
}
