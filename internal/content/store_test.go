package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"

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
		return time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	}
	return store, mock, func() { db.Close() }
}

func TestCreateEvent(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(0, 1))

	e, err := store.CreateEvent(context.Background(), EventInput{
		Title:    "Noche de Circo",
		StartsAt: time.Date(2025, time.July, 4, 20, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateEvent() error: %v", err)
	}
	if e.Slug != "noche-de-circo" {
		t.Errorf("slug = %q, want %q", e.Slug, "noche-de-circo")
	}
	if e.Kind != KindEvent {
		t.Errorf("kind = %q, want default %q", e.Kind, KindEvent)
	}
	if e.Status != StatusDraft {
		t.Errorf("status = %q, want default %q", e.Status, StatusDraft)
	}
}

func TestCreateEventSlugCollision(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO events").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "events_slug_key"})
	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(0, 1))

	e, err := store.CreateEvent(context.Background(), EventInput{
		Title:    "Noche de Circo",
		StartsAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateEvent() error: %v", err)
	}
	if e.Slug != "noche-de-circo-2" {
		t.Errorf("slug = %q, want %q", e.Slug, "noche-de-circo-2")
	}
}

func TestCreateEventValidation(t *testing.T) {
	store, _, cleanup := setupStore(t)
	defer cleanup()

	tests := []struct {
		name string
		in   EventInput
	}{
		{"empty title", EventInput{Title: "  ", StartsAt: time.Now()}},
		{"symbol-only title", EventInput{Title: "¡¡¡", StartsAt: time.Now()}},
		{"bad kind", EventInput{Title: "Gala", Kind: "festival", StartsAt: time.Now()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.CreateEvent(context.Background(), tt.in)
			var ve *newsletter.ErrValidation
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want *newsletter.ErrValidation", err)
			}
		})
	}
}

func TestCreateArticle(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO articles").WillReturnResult(sqlmock.NewResult(0, 1))

	guid := "https://pepedome.com/blog/temporada-2025"
	a, err := store.CreateArticle(context.Background(), ArticleInput{
		Title:      "Temporada 2025",
		SourceGUID: &guid,
		Status:     StatusPublished,
	})
	if err != nil {
		t.Fatalf("CreateArticle() error: %v", err)
	}
	if a.Slug != "temporada-2025" {
		t.Errorf("slug = %q, want %q", a.Slug, "temporada-2025")
	}
}

func TestGetArticleByGUIDMissing(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	mock.ExpectQuery("FROM articles WHERE source_guid").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	a, err := store.GetArticleByGUID(context.Background(), "unknown-guid")
	if err != nil {
		t.Fatalf("GetArticleByGUID() error: %v", err)
	}
	if a != nil {
		t.Errorf("got %+v, want nil", a)
	}
}

func TestListArticlesPaged(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	now := time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM articles").
		WithArgs(StatusPublished, 10, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "excerpt",
			"body", "image_url", "source_url", "source_guid", "published_at",
			"status", "created_at", "updated_at"}).
			AddRow(uuid.New(), "Temporada 2025", "temporada-2025", nil,
				nil, nil, nil, nil, now, StatusPublished, now, now))

	articles, err := store.ListArticles(context.Background(), 10, 20)
	if err != nil {
		t.Fatalf("ListArticles() error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("len = %d, want 1", len(articles))
	}
	if articles[0].Slug != "temporada-2025" {
		t.Errorf("slug = %q, want %q", articles[0].Slug, "temporada-2025")
	}
}

func TestUpdateEvent(t *testing.T) {
	t.Run("rewrites fields, slug untouched", func(t *testing.T) {
		store, mock, cleanup := setupStore(t)
		defer cleanup()

		id := uuid.New()
		starts := time.Date(2025, time.July, 4, 20, 0, 0, 0, time.UTC)
		mock.ExpectQuery("UPDATE events").
			WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "title", "slug",
				"description", "starts_at", "ends_at", "image_url", "ticket_url",
				"status", "created_at", "updated_at"}).
				AddRow(id, KindEvent, "Gala de Verano", "noche-de-circo",
					nil, starts, nil, nil, nil, StatusPublished, starts, starts))

		e, err := store.UpdateEvent(context.Background(), id, EventInput{
			Title:    "Gala de Verano",
			StartsAt: starts,
			Status:   StatusPublished,
		})
		if err != nil {
			t.Fatalf("UpdateEvent() error: %v", err)
		}
		if e.Slug != "noche-de-circo" {
			t.Errorf("slug = %q, want original %q", e.Slug, "noche-de-circo")
		}
		if e.Title != "Gala de Verano" {
			t.Errorf("title = %q, want %q", e.Title, "Gala de Verano")
		}
	})

	t.Run("missing is not found", func(t *testing.T) {
		store, mock, cleanup := setupStore(t)
		defer cleanup()

		mock.ExpectQuery("UPDATE events").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := store.UpdateEvent(context.Background(), uuid.New(), EventInput{
			Title:    "Gala",
			StartsAt: time.Now(),
		})
		var nf *newsletter.ErrNotFound
		if !errors.As(err, &nf) {
			t.Fatalf("error = %v, want *newsletter.ErrNotFound", err)
		}
	})
}

func TestUpdateArticleValidation(t *testing.T) {
	store, _, cleanup := setupStore(t)
	defer cleanup()

	_, err := store.UpdateArticle(context.Background(), uuid.New(), ArticleInput{Title: " "})
	var ve *newsletter.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *newsletter.ErrValidation", err)
	}
}

func TestUpdateEventStatus(t *testing.T) {
	t.Run("bad status refused", func(t *testing.T) {
		store, _, cleanup := setupStore(t)
		defer cleanup()

		err := store.UpdateEventStatus(context.Background(), uuid.Nil, "archived")
		var ve *newsletter.ErrValidation
		if !errors.As(err, &ve) {
			t.Fatalf("error = %v, want *newsletter.ErrValidation", err)
		}
	})

	t.Run("missing is not found", func(t *testing.T) {
		store, mock, cleanup := setupStore(t)
		defer cleanup()

		mock.ExpectExec("UPDATE events").WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.UpdateEventStatus(context.Background(), uuid.Nil, StatusPublished)
		var nf *newsletter.ErrNotFound
		if !errors.As(err, &nf) {
			t.Fatalf("error = %v, want *newsletter.ErrNotFound", err)
		}
	})
}
