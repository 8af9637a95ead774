package tracking

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/pepedome/backend/internal/subscriber"
)

func TestSignerRoundTrip(t *testing.T) {
	s := NewSigner("secret", "https://pepedome.com")
	nid, sid := uuid.New(), uuid.New()

	url := s.ClickURL(nid, sid, "https://tickets.example.com/show?id=1")
	segs := strings.Split(url, "/")
	data, sig := segs[len(segs)-2], segs[len(segs)-1]

	parts, ok := s.Verify(data, sig)
	if !ok {
		t.Fatal("signed payload did not verify")
	}
	if parts[0] != nid.String() || parts[1] != sid.String() {
		t.Errorf("parts = %v", parts[:2])
	}
	if parts[2] != "https://tickets.example.com/show?id=1" {
		t.Errorf("target = %q", parts[2])
	}
}

func TestSignerRejectsTampering(t *testing.T) {
	s := NewSigner("secret", "https://pepedome.com")
	url := s.OpenURL(uuid.New(), uuid.New())
	segs := strings.Split(url, "/")
	data := segs[len(segs)-2]

	if _, ok := s.Verify(data, "0000000000000000"); ok {
		t.Error("forged signature verified")
	}
	if _, ok := NewSigner("other", "https://pepedome.com").Verify(data, segs[len(segs)-1]); ok {
		t.Error("signature verified under a different secret")
	}
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, *Signer, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	store := NewStore(db)
	store.now = func() time.Time {
		return time.Date(2025, time.April, 10, 12, 0, 0, 0, time.UTC)
	}
	signer := NewSigner("secret", "https://pepedome.com")
	h := NewHandler(signer, store, subscriber.NewStore(db))
	return h, mock, signer, func() { db.Close() }
}

func pathOf(url string) string {
	return strings.TrimPrefix(url, "https://pepedome.com")
}

func TestHandleOpenRecordsOnce(t *testing.T) {
	h, mock, signer, cleanup := newTestHandler(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO newsletter_open_events").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE newsletter_stats").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + pathOf(signer.OpenURL(uuid.New(), uuid.New())))
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/gif" {
		t.Errorf("content type = %q", ct)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestHandleOpenRepeatDoesNotIncrement(t *testing.T) {
	h, mock, signer, cleanup := newTestHandler(t)
	defer cleanup()

	// Conflict on the dedup table: no counter update.
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO newsletter_open_events").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + pathOf(signer.OpenURL(uuid.New(), uuid.New())))
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	resp.Body.Close()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestHandleClickRedirects(t *testing.T) {
	h, mock, signer, cleanup := newTestHandler(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO newsletter_click_events").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE newsletter_stats").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	target := "https://tickets.example.com/show"
	resp, err := client.Get(srv.URL + pathOf(signer.ClickURL(uuid.New(), uuid.New(), target)))
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want 307", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != target {
		t.Errorf("location = %q, want %q", loc, target)
	}
}

func TestHandleClickRejectsForgedLink(t *testing.T) {
	h, _, _, cleanup := newTestHandler(t)
	defer cleanup()

	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/track/click/bm90LXZhbGlk/0000000000000000")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
