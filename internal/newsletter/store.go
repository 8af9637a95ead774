package newsletter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// maxSlugRetries bounds the numeric-suffix disambiguation loop when two
// newsletters in the same month normalize to the same slug.
const maxSlugRetries = 20

// Store provides database operations for newsletters and their content blocks.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a newsletter store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

const newsletterColumns = `id, slug, subject, preheader, intro, hero_image_url, hero_title,
	hero_subtitle, hero_cta_label, hero_cta_url, status, scheduled_at, sent_at,
	recipient_count, created_by, created_at, updated_at`

func scanNewsletter(row interface{ Scan(...interface{}) error }, n *Newsletter) error {
	return row.Scan(&n.ID, &n.Slug, &n.Subject, &n.Preheader, &n.Intro, &n.HeroImageURL,
		&n.HeroTitle, &n.HeroSubtitle, &n.HeroCTALabel, &n.HeroCTAURL, &n.Status,
		&n.ScheduledAt, &n.SentAt, &n.RecipientCount, &n.CreatedBy, &n.CreatedAt, &n.UpdatedAt)
}

// Create inserts a new DRAFT newsletter with a slug derived from the subject
// and the current year/month, plus its stats row, in one transaction. Slug
// collisions within the month get a numeric suffix.
func (s *Store) Create(ctx context.Context, in NewsletterInput) (*Newsletter, error) {
	if err := ValidateInput(in); err != nil {
		return nil, err
	}

	now := s.now()
	base := Slug(in.Subject, now.Year(), now.Month())

	n := &Newsletter{
		ID:           uuid.New(),
		Subject:      strings.TrimSpace(in.Subject),
		Preheader:    in.Preheader,
		Intro:        in.Intro,
		HeroImageURL: in.HeroImageURL,
		HeroTitle:    in.HeroTitle,
		HeroSubtitle: in.HeroSubtitle,
		HeroCTALabel: in.HeroCTALabel,
		HeroCTAURL:   in.HeroCTAURL,
		Status:       StatusDraft,
		CreatedBy:    in.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for attempt := 0; attempt < maxSlugRetries; attempt++ {
		n.Slug = base
		if attempt > 0 {
			n.Slug = fmt.Sprintf("%s-%d", base, attempt+1)
		}
		err := s.insert(ctx, n)
		if err == nil {
			return n, nil
		}
		if IsUniqueViolation(err, "newsletters_slug_key") {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("could not find a free slug for %q", base)
}

func (s *Store) insert(ctx context.Context, n *Newsletter) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO newsletters (id, slug, subject, preheader, intro,
		hero_image_url, hero_title, hero_subtitle, hero_cta_label, hero_cta_url, status,
		recipient_count, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		n.ID, n.Slug, n.Subject, n.Preheader, n.Intro, n.HeroImageURL, n.HeroTitle,
		n.HeroSubtitle, n.HeroCTALabel, n.HeroCTAURL, n.Status, n.RecipientCount,
		n.CreatedBy, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO newsletter_stats (newsletter_id, unique_opens, unique_clicks, updated_at)
		VALUES ($1, 0, 0, $2)`, n.ID, n.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

// IsUniqueViolation reports whether err is a Postgres unique violation on
// the named constraint (any constraint when empty).
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return constraint == "" || pqErr.Constraint == constraint
	}
	return false
}

// Update applies a partial field update. The slug is immutable and never
// touched here. Nullable text fields are cleared by an explicit empty string.
func (s *Store) Update(ctx context.Context, id uuid.UUID, up NewsletterUpdate) (*Newsletter, error) {
	if err := ValidateUpdate(up); err != nil {
		return nil, err
	}

	sets := []string{"updated_at = $1"}
	args := []interface{}{s.now()}

	add := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	// Empty string clears a nullable column to NULL.
	addNullable := func(col string, val *string) {
		if val == nil {
			return
		}
		if *val == "" {
			sets = append(sets, col+" = NULL")
			return
		}
		add(col, *val)
	}

	if up.Subject != nil {
		add("subject", strings.TrimSpace(*up.Subject))
	}
	addNullable("preheader", up.Preheader)
	addNullable("intro", up.Intro)
	addNullable("hero_image_url", up.HeroImageURL)
	addNullable("hero_title", up.HeroTitle)
	addNullable("hero_subtitle", up.HeroSubtitle)
	addNullable("hero_cta_label", up.HeroCTALabel)
	addNullable("hero_cta_url", up.HeroCTAURL)

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE newsletters SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), newsletterColumns)

	n := &Newsletter{}
	err := scanNewsletter(s.db.QueryRowContext(ctx, query, args...), n)
	if err == sql.ErrNoRows {
		return nil, NewNotFound("newsletter", id.String())
	}
	return n, err
}

// Get retrieves a single newsletter by id, or (nil, nil) when missing.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Newsletter, error) {
	n := &Newsletter{}
	err := scanNewsletter(s.db.QueryRowContext(ctx,
		`SELECT `+newsletterColumns+` FROM newsletters WHERE id = $1`, id), n)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return n, err
}

// Delete removes a newsletter and, via cascade, its content blocks and stats.
// Only drafts may be deleted.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	var status string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM newsletters WHERE id = $1`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return NewNotFound("newsletter", id.String())
	}
	if err != nil {
		return err
	}
	if status != StatusDraft {
		return NewInvalidState("can only delete draft newsletters")
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM newsletters WHERE id = $1`, id)
	return err
}

// Schedule moves a draft (or re-schedules an already scheduled) newsletter to
// SCHEDULED. The time must be strictly in the future.
func (s *Store) Schedule(ctx context.Context, id uuid.UUID, at time.Time) error {
	if !at.After(s.now()) {
		return NewInvalidState("scheduled time must be in the future")
	}

	res, err := s.db.ExecContext(ctx, `UPDATE newsletters
		SET status = $1, scheduled_at = $2, updated_at = $3
		WHERE id = $4 AND status IN ($5, $1)`,
		StatusScheduled, at, s.now(), id, StatusDraft)
	if err != nil {
		return err
	}
	return s.checkTransition(ctx, res, id, "cannot schedule a newsletter that is sending or sent")
}

// BeginSending transitions a draft or scheduled newsletter to SENDING.
func (s *Store) BeginSending(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE newsletters
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status IN ($4, $5)`,
		StatusSending, s.now(), id, StatusDraft, StatusScheduled)
	if err != nil {
		return err
	}
	return s.checkTransition(ctx, res, id, "newsletter is already sending or sent")
}

// MarkSent finalizes a send: status SENT, sent_at now, recipient count stored
// exactly. SENT is terminal, so re-marking fails.
func (s *Store) MarkSent(ctx context.Context, id uuid.UUID, recipientCount int) error {
	if recipientCount < 0 {
		return NewValidation("recipient_count", "recipient count must be a non-negative integer")
	}
	res, err := s.db.ExecContext(ctx, `UPDATE newsletters
		SET status = $1, sent_at = $2, recipient_count = $3, updated_at = $2
		WHERE id = $4 AND status <> $1`,
		StatusSent, s.now(), recipientCount, id)
	if err != nil {
		return err
	}
	return s.checkTransition(ctx, res, id, "newsletter has already been sent")
}

// checkTransition distinguishes a missing row from a disallowed status after a
// guarded UPDATE matched nothing.
func (s *Store) checkTransition(ctx context.Context, res sql.Result, id uuid.UUID, reason string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM newsletters WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return NewNotFound("newsletter", id.String())
	}
	return NewInvalidState(reason)
}

// GetWithContent returns the newsletter joined with its blocks (position
// ascending) and stats, or (nil, nil) when the id does not exist.
func (s *Store) GetWithContent(ctx context.Context, id uuid.UUID) (*NewsletterWithContent, error) {
	n, err := s.Get(ctx, id)
	if err != nil || n == nil {
		return nil, err
	}
	return s.attachContent(ctx, n)
}

func (s *Store) attachContent(ctx context.Context, n *Newsletter) (*NewsletterWithContent, error) {
	out := &NewsletterWithContent{Newsletter: *n, Blocks: []ContentBlock{}}

	rows, err := s.db.QueryContext(ctx, `SELECT id, newsletter_id, content_type, content_id,
		section_heading, section_description, position, created_at
		FROM newsletter_content_blocks WHERE newsletter_id = $1 ORDER BY position`, n.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var b ContentBlock
		if err := rows.Scan(&b.ID, &b.NewsletterID, &b.ContentType, &b.ContentID,
			&b.SectionHeading, &b.SectionDescription, &b.Position, &b.CreatedAt); err != nil {
			return nil, err
		}
		out.Blocks = append(out.Blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	st := &Stats{}
	err = s.db.QueryRowContext(ctx, `SELECT newsletter_id, unique_opens, unique_clicks, updated_at
		FROM newsletter_stats WHERE newsletter_id = $1`, n.ID).
		Scan(&st.NewsletterID, &st.UniqueOpens, &st.UniqueClicks, &st.UpdatedAt)
	if err == nil {
		out.Stats = st
	} else if err != sql.ErrNoRows {
		return nil, err
	}
	return out, nil
}

// List returns a page of newsletters ordered by creation time descending,
// optionally filtered by status. Defaults: page 1, limit 20, limit capped at 100.
func (s *Store) List(ctx context.Context, f ListFilter) (*Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}

	where := ""
	args := []interface{}{}
	if f.Status != "" {
		where = " WHERE status = $1"
		args = append(args, f.Status)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM newsletters`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(`SELECT %s FROM newsletters%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		newsletterColumns, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	page := &Page{Items: []Newsletter{}}
	for rows.Next() {
		var n Newsletter
		if err := scanNewsletter(rows, &n); err != nil {
			return nil, err
		}
		page.Items = append(page.Items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := int((total + int64(f.Limit) - 1) / int64(f.Limit))
	if totalPages < 1 {
		totalPages = 1
	}
	page.Pagination = Pagination{Page: f.Page, Limit: f.Limit, Total: total, TotalPages: totalPages}
	return page, nil
}

// ListPublished returns SENT newsletters ordered by sent_at descending, in the
// reduced projection used by public listing pages.
func (s *Store) ListPublished(ctx context.Context) ([]PublishedSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, slug, subject, preheader, hero_image_url, sent_at
		FROM newsletters WHERE status = $1 ORDER BY sent_at DESC`, StatusSent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PublishedSummary{}
	for rows.Next() {
		var p PublishedSummary
		if err := rows.Scan(&p.ID, &p.Slug, &p.Subject, &p.Preheader, &p.HeroImageURL, &p.SentAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetBySlug returns the newsletter with its ordered content, but only once it
// has been sent; drafts and scheduled issues are not publicly addressable.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*NewsletterWithContent, error) {
	n := &Newsletter{}
	err := scanNewsletter(s.db.QueryRowContext(ctx,
		`SELECT `+newsletterColumns+` FROM newsletters WHERE slug = $1 AND status = $2`,
		slug, StatusSent), n)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.attachContent(ctx, n)
}
