package newsletter

import (
	"context"

	"github.com/google/uuid"
)

// AddBlock appends one content block at the given position. The referenced
// entity's existence is not verified here; the reference is intentionally
// loose and dangling refs are dropped at render time.
func (s *Store) AddBlock(ctx context.Context, newsletterID uuid.UUID, in BlockInput) (*ContentBlock, error) {
	if err := ValidateBlock(in); err != nil {
		return nil, err
	}

	b := &ContentBlock{
		ID:                 uuid.New(),
		NewsletterID:       newsletterID,
		ContentType:        in.ContentType,
		ContentID:          in.ContentID,
		SectionHeading:     in.SectionHeading,
		SectionDescription: in.SectionDescription,
		Position:           in.Position,
		CreatedAt:          s.now(),
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO newsletter_content_blocks
		(id, newsletter_id, content_type, content_id, section_heading, section_description, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.NewsletterID, b.ContentType, b.ContentID, b.SectionHeading,
		b.SectionDescription, b.Position, b.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, NewNotFound("newsletter", newsletterID.String())
		}
		if IsUniqueViolation(err, "newsletter_content_blocks_position_key") {
			return nil, NewInvalidState("position already occupied")
		}
		return nil, err
	}
	return b, nil
}

// RemoveBlock deletes one block. Remaining positions are not renumbered;
// callers wanting a dense sequence follow up with Reorder.
func (s *Store) RemoveBlock(ctx context.Context, blockID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM newsletter_content_blocks WHERE id = $1`, blockID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return NewNotFound("content block", blockID.String())
	}
	return nil
}

// Reorder applies the given id-to-position mapping in one transaction. Blocks
// not mentioned are untouched. The unique (newsletter_id, position) constraint
// is deferred to commit, so readers never observe duplicate positions.
func (s *Store) Reorder(ctx context.Context, newsletterID uuid.UUID, positions []BlockPosition) error {
	if len(positions) == 0 {
		return nil
	}
	for _, p := range positions {
		if p.Position < 0 {
			return NewValidation("position", "position must be a non-negative integer")
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range positions {
		res, err := tx.ExecContext(ctx, `UPDATE newsletter_content_blocks
			SET position = $1 WHERE id = $2 AND newsletter_id = $3`,
			p.Position, p.ID, newsletterID)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return NewNotFound("content block", p.ID.String())
		}
	}
	if err := tx.Commit(); err != nil {
		if IsUniqueViolation(err, "newsletter_content_blocks_position_key") {
			return NewInvalidState("reorder leaves two blocks at the same position")
		}
		return err
	}
	return nil
}

// ReplaceAll deletes every existing block for the newsletter and inserts the
// given set in one transaction. An empty list clears all content. This is the
// primitive behind the admin drag-and-drop save.
func (s *Store) ReplaceAll(ctx context.Context, newsletterID uuid.UUID, blocks []BlockInput) ([]ContentBlock, error) {
	for _, in := range blocks {
		if err := ValidateBlock(in); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM newsletter_content_blocks WHERE newsletter_id = $1`, newsletterID); err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]ContentBlock, 0, len(blocks))
	for _, in := range blocks {
		b := ContentBlock{
			ID:                 uuid.New(),
			NewsletterID:       newsletterID,
			ContentType:        in.ContentType,
			ContentID:          in.ContentID,
			SectionHeading:     in.SectionHeading,
			SectionDescription: in.SectionDescription,
			Position:           in.Position,
			CreatedAt:          now,
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO newsletter_content_blocks
			(id, newsletter_id, content_type, content_id, section_heading, section_description, position, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			b.ID, b.NewsletterID, b.ContentType, b.ContentID, b.SectionHeading,
			b.SectionDescription, b.Position, b.CreatedAt)
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, NewNotFound("newsletter", newsletterID.String())
			}
			if IsUniqueViolation(err, "newsletter_content_blocks_position_key") {
				return nil, NewInvalidState("duplicate block positions")
			}
			return nil, err
		}
		out = append(out, b)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func isForeignKeyViolation(err error) bool {
	return pqCode(err) == "23503"
}
