package content

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pepedome/backend/internal/newsletter"
)

// Resolver returns a newsletter block resolver backed by the catalog.
// Unpublished or deleted referents resolve to nothing, so stale blocks
// disappear from the rendered output instead of breaking it.
func (s *Store) Resolver(ctx context.Context, siteBaseURL string) newsletter.Resolver {
	return newsletter.ResolverFunc(func(contentType string, contentID uuid.UUID) (*newsletter.Item, error) {
		switch contentType {
		case newsletter.BlockEvent, newsletter.BlockShow:
			e, err := s.GetEvent(ctx, contentID)
			if err != nil {
				return nil, err
			}
			if e == nil || e.Status != StatusPublished {
				return nil, nil
			}
			item := &newsletter.Item{
				Type:      contentType,
				ContentID: &e.ID,
				Title:     e.Title,
				LinkURL:   siteBaseURL + "/eventos/" + e.Slug,
				StartsAt:  e.StartsAt.Format(time.RFC3339),
			}
			if e.Description != nil {
				item.Description = *e.Description
			}
			if e.ImageURL != nil {
				item.ImageURL = *e.ImageURL
			}
			if e.TicketURL != nil {
				item.LinkURL = *e.TicketURL
			}
			return item, nil

		case newsletter.BlockArticle:
			a, err := s.GetArticle(ctx, contentID)
			if err != nil {
				return nil, err
			}
			if a == nil || a.Status != StatusPublished {
				return nil, nil
			}
			item := &newsletter.Item{
				Type:      contentType,
				ContentID: &a.ID,
				Title:     a.Title,
				LinkURL:   siteBaseURL + "/blog/" + a.Slug,
			}
			if a.Excerpt != nil {
				item.Description = *a.Excerpt
			}
			if a.ImageURL != nil {
				item.ImageURL = *a.ImageURL
			}
			if a.SourceURL != nil {
				item.LinkURL = *a.SourceURL
			}
			return item, nil
		}
		return nil, nil
	})
}
