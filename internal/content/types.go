// Package content is the catalog of events, shows and articles that
// newsletter blocks and the public site pages reference.
package content

import (
	"time"

	"github.com/google/uuid"
)

// Publication status for catalog entries.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusCancelled = "cancelled"
)

// Event kinds. A show is a recurring production at the venue; an event is a
// dated one-off. Both live in the same table and resolve the same way.
const (
	KindEvent = "event"
	KindShow  = "show"
)

// Event is a dated performance or a recurring show at the dome.
type Event struct {
	ID          uuid.UUID  `json:"id"`
	Kind        string     `json:"kind"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Description *string    `json:"description,omitempty"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	TicketURL   *string    `json:"ticket_url,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EventInput carries the writable fields for creating an event.
type EventInput struct {
	Kind        string     `json:"kind"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	TicketURL   *string    `json:"ticket_url,omitempty"`
	Status      string     `json:"status"`
}

// Article is a blog post, either authored in the admin or imported from the
// site's RSS feed.
type Article struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     *string    `json:"excerpt,omitempty"`
	Body        *string    `json:"body,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	SourceURL   *string    `json:"source_url,omitempty"`
	SourceGUID  *string    `json:"source_guid,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ArticleInput carries the writable fields for creating an article.
type ArticleInput struct {
	Title       string     `json:"title"`
	Excerpt     *string    `json:"excerpt,omitempty"`
	Body        *string    `json:"body,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	SourceURL   *string    `json:"source_url,omitempty"`
	SourceGUID  *string    `json:"source_guid,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Status      string     `json:"status"`
}
