package content

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pepedome/backend/internal/newsletter"
)

const maxSlugRetries = 20

// Store provides database operations for the event and article catalog.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a catalog store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

const eventColumns = `id, kind, title, slug, description, starts_at, ends_at,
	image_url, ticket_url, status, created_at, updated_at`

func scanEvent(row interface{ Scan(...interface{}) error }, e *Event) error {
	return row.Scan(&e.ID, &e.Kind, &e.Title, &e.Slug, &e.Description, &e.StartsAt,
		&e.EndsAt, &e.ImageURL, &e.TicketURL, &e.Status, &e.CreatedAt, &e.UpdatedAt)
}

// CreateEvent inserts an event or show. The slug is derived from the title;
// collisions get a numeric suffix.
func (s *Store) CreateEvent(ctx context.Context, in EventInput) (*Event, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, newsletter.NewValidation("title", "title is required")
	}
	if in.Kind == "" {
		in.Kind = KindEvent
	}
	if in.Kind != KindEvent && in.Kind != KindShow {
		return nil, newsletter.NewValidation("kind", fmt.Sprintf("unknown event kind %q", in.Kind))
	}
	if in.Status == "" {
		in.Status = StatusDraft
	}

	now := s.now()
	e := &Event{
		ID:          uuid.New(),
		Kind:        in.Kind,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
		ImageURL:    in.ImageURL,
		TicketURL:   in.TicketURL,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	base := newsletter.Slugify(e.Title)
	if base == "" {
		return nil, newsletter.NewValidation("title", "title must contain at least one letter or digit")
	}
	for attempt := 0; attempt < maxSlugRetries; attempt++ {
		e.Slug = base
		if attempt > 0 {
			e.Slug = fmt.Sprintf("%s-%d", base, attempt+1)
		}
		_, err := s.db.ExecContext(ctx, `INSERT INTO events
			(id, kind, title, slug, description, starts_at, ends_at, image_url, ticket_url, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			e.ID, e.Kind, e.Title, e.Slug, e.Description, e.StartsAt, e.EndsAt,
			e.ImageURL, e.TicketURL, e.Status, e.CreatedAt, e.UpdatedAt)
		if err == nil {
			return e, nil
		}
		if newsletter.IsUniqueViolation(err, "events_slug_key") {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("could not find a free slug for %q", base)
}

// GetEvent retrieves one event by id, or (nil, nil) when missing.
func (s *Store) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	e := &Event{}
	err := scanEvent(s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id), e)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// GetEventBySlug retrieves one published event by slug, or (nil, nil).
func (s *Store) GetEventBySlug(ctx context.Context, slug string) (*Event, error) {
	e := &Event{}
	err := scanEvent(s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE slug = $1 AND status = $2`,
		slug, StatusPublished), e)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// ListUpcoming returns published events starting at or after the given time,
// soonest first. Shows (no fixed end) are included regardless of date.
func (s *Store) ListUpcoming(ctx context.Context, from time.Time) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events
		WHERE status = $1 AND (kind = $2 OR starts_at >= $3)
		ORDER BY starts_at`, StatusPublished, KindShow, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var e Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateEvent rewrites an event's editable fields. The slug is immutable.
func (s *Store) UpdateEvent(ctx context.Context, id uuid.UUID, in EventInput) (*Event, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, newsletter.NewValidation("title", "title is required")
	}
	if in.Kind == "" {
		in.Kind = KindEvent
	}
	if in.Kind != KindEvent && in.Kind != KindShow {
		return nil, newsletter.NewValidation("kind", fmt.Sprintf("unknown event kind %q", in.Kind))
	}
	if in.Status == "" {
		in.Status = StatusDraft
	}

	e := &Event{}
	err := scanEvent(s.db.QueryRowContext(ctx, `UPDATE events
		SET kind = $1, title = $2, description = $3, starts_at = $4, ends_at = $5,
			image_url = $6, ticket_url = $7, status = $8, updated_at = $9
		WHERE id = $10
		RETURNING `+eventColumns,
		in.Kind, strings.TrimSpace(in.Title), in.Description, in.StartsAt, in.EndsAt,
		in.ImageURL, in.TicketURL, in.Status, s.now(), id), e)
	if err == sql.ErrNoRows {
		return nil, newsletter.NewNotFound("event", id.String())
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateEventStatus transitions an event between draft, published and cancelled.
func (s *Store) UpdateEventStatus(ctx context.Context, id uuid.UUID, status string) error {
	if status != StatusDraft && status != StatusPublished && status != StatusCancelled {
		return newsletter.NewValidation("status", fmt.Sprintf("unknown status %q", status))
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET status = $1, updated_at = $2 WHERE id = $3`, status, s.now(), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return newsletter.NewNotFound("event", id.String())
	}
	return nil
}

// DeleteEvent removes an event from the catalog. Newsletter blocks that
// referenced it become dangling and are dropped at render time.
func (s *Store) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return newsletter.NewNotFound("event", id.String())
	}
	return nil
}

const articleColumns = `id, title, slug, excerpt, body, image_url, source_url,
	source_guid, published_at, status, created_at, updated_at`

func scanArticle(row interface{ Scan(...interface{}) error }, a *Article) error {
	return row.Scan(&a.ID, &a.Title, &a.Slug, &a.Excerpt, &a.Body, &a.ImageURL,
		&a.SourceURL, &a.SourceGUID, &a.PublishedAt, &a.Status, &a.CreatedAt, &a.UpdatedAt)
}

// CreateArticle inserts an article with a slug derived from the title.
func (s *Store) CreateArticle(ctx context.Context, in ArticleInput) (*Article, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, newsletter.NewValidation("title", "title is required")
	}
	if in.Status == "" {
		in.Status = StatusDraft
	}

	now := s.now()
	a := &Article{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(in.Title),
		Excerpt:     in.Excerpt,
		Body:        in.Body,
		ImageURL:    in.ImageURL,
		SourceURL:   in.SourceURL,
		SourceGUID:  in.SourceGUID,
		PublishedAt: in.PublishedAt,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	base := newsletter.Slugify(a.Title)
	if base == "" {
		return nil, newsletter.NewValidation("title", "title must contain at least one letter or digit")
	}
	for attempt := 0; attempt < maxSlugRetries; attempt++ {
		a.Slug = base
		if attempt > 0 {
			a.Slug = fmt.Sprintf("%s-%d", base, attempt+1)
		}
		_, err := s.db.ExecContext(ctx, `INSERT INTO articles
			(id, title, slug, excerpt, body, image_url, source_url, source_guid, published_at, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			a.ID, a.Title, a.Slug, a.Excerpt, a.Body, a.ImageURL, a.SourceURL,
			a.SourceGUID, a.PublishedAt, a.Status, a.CreatedAt, a.UpdatedAt)
		if err == nil {
			return a, nil
		}
		if newsletter.IsUniqueViolation(err, "articles_slug_key") {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("could not find a free slug for %q", base)
}

// GetArticle retrieves one article by id, or (nil, nil) when missing.
func (s *Store) GetArticle(ctx context.Context, id uuid.UUID) (*Article, error) {
	a := &Article{}
	err := scanArticle(s.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = $1`, id), a)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// GetArticleBySlug retrieves one published article by slug, or (nil, nil).
func (s *Store) GetArticleBySlug(ctx context.Context, slug string) (*Article, error) {
	a := &Article{}
	err := scanArticle(s.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE slug = $1 AND status = $2`,
		slug, StatusPublished), a)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// ListArticles returns published articles, newest first.
func (s *Store) ListArticles(ctx context.Context, limit, offset int) ([]Article, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+articleColumns+` FROM articles
		WHERE status = $1 ORDER BY published_at DESC NULLS LAST, created_at DESC
		LIMIT $2 OFFSET $3`, StatusPublished, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Article{}
	for rows.Next() {
		var a Article
		if err := scanArticle(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateArticle rewrites an article's editable fields. The slug and the feed
// source GUID are immutable.
func (s *Store) UpdateArticle(ctx context.Context, id uuid.UUID, in ArticleInput) (*Article, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, newsletter.NewValidation("title", "title is required")
	}
	if in.Status == "" {
		in.Status = StatusDraft
	}

	a := &Article{}
	err := scanArticle(s.db.QueryRowContext(ctx, `UPDATE articles
		SET title = $1, excerpt = $2, body = $3, image_url = $4, source_url = $5,
			published_at = $6, status = $7, updated_at = $8
		WHERE id = $9
		RETURNING `+articleColumns,
		strings.TrimSpace(in.Title), in.Excerpt, in.Body, in.ImageURL, in.SourceURL,
		in.PublishedAt, in.Status, s.now(), id), a)
	if err == sql.ErrNoRows {
		return nil, newsletter.NewNotFound("article", id.String())
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetArticleByGUID looks an article up by its feed source GUID, or (nil, nil).
func (s *Store) GetArticleByGUID(ctx context.Context, guid string) (*Article, error) {
	a := &Article{}
	err := scanArticle(s.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE source_guid = $1`, guid), a)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// DeleteArticle removes an article from the catalog.
func (s *Store) DeleteArticle(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return newsletter.NewNotFound("article", id.String())
	}
	return nil
}
