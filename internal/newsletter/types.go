package newsletter

import (
	"time"

	"github.com/google/uuid"
)

// Newsletter status constants
const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusSending   = "sending"
	StatusSent      = "sent"
)

// Content block type constants
const (
	BlockEvent         = "event"
	BlockArticle       = "article"
	BlockShow          = "show"
	BlockCustomSection = "custom_section"
)

// Newsletter represents one newsletter issue.
type Newsletter struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Slug           string     `json:"slug" db:"slug"`
	Subject        string     `json:"subject" db:"subject"`
	Preheader      *string    `json:"preheader" db:"preheader"`
	Intro          *string    `json:"intro" db:"intro"`
	HeroImageURL   *string    `json:"hero_image_url" db:"hero_image_url"`
	HeroTitle      *string    `json:"hero_title" db:"hero_title"`
	HeroSubtitle   *string    `json:"hero_subtitle" db:"hero_subtitle"`
	HeroCTALabel   *string    `json:"hero_cta_label" db:"hero_cta_label"`
	HeroCTAURL     *string    `json:"hero_cta_url" db:"hero_cta_url"`
	Status         string     `json:"status" db:"status"`
	ScheduledAt    *time.Time `json:"scheduled_at" db:"scheduled_at"`
	SentAt         *time.Time `json:"sent_at" db:"sent_at"`
	RecipientCount int        `json:"recipient_count" db:"recipient_count"`
	CreatedBy      string     `json:"created_by" db:"created_by"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// ContentBlock is one ordered reference within a newsletter body.
// ContentID is set for event/article/show blocks and nil for custom sections;
// the reference is loosely coupled, so the referenced row may no longer exist.
type ContentBlock struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	NewsletterID       uuid.UUID  `json:"newsletter_id" db:"newsletter_id"`
	ContentType        string     `json:"content_type" db:"content_type"`
	ContentID          *uuid.UUID `json:"content_id" db:"content_id"`
	SectionHeading     *string    `json:"section_heading" db:"section_heading"`
	SectionDescription *string    `json:"section_description" db:"section_description"`
	Position           int        `json:"position" db:"position"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
}

// Stats holds per-newsletter engagement counters, maintained by the
// tracking endpoints.
type Stats struct {
	NewsletterID uuid.UUID `json:"newsletter_id" db:"newsletter_id"`
	UniqueOpens  int       `json:"unique_opens" db:"unique_opens"`
	UniqueClicks int       `json:"unique_clicks" db:"unique_clicks"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// NewsletterWithContent is a newsletter joined with its ordered blocks and stats.
type NewsletterWithContent struct {
	Newsletter
	Blocks []ContentBlock `json:"blocks"`
	Stats  *Stats         `json:"stats"`
}

// PublishedSummary is the reduced projection used by public listing pages.
type PublishedSummary struct {
	ID           uuid.UUID  `json:"id"`
	Slug         string     `json:"slug"`
	Subject      string     `json:"subject"`
	Preheader    *string    `json:"preheader"`
	HeroImageURL *string    `json:"hero_image_url"`
	SentAt       *time.Time `json:"sent_at"`
}

// NewsletterInput carries the fields accepted on create.
type NewsletterInput struct {
	Subject      string  `json:"subject"`
	Preheader    *string `json:"preheader"`
	Intro        *string `json:"intro"`
	HeroImageURL *string `json:"hero_image_url"`
	HeroTitle    *string `json:"hero_title"`
	HeroSubtitle *string `json:"hero_subtitle"`
	HeroCTALabel *string `json:"hero_cta_label"`
	HeroCTAURL   *string `json:"hero_cta_url"`
	CreatedBy    string  `json:"created_by"`
}

// NewsletterUpdate carries a partial update. Nil means "leave unchanged";
// for the nullable text fields an explicit empty string clears the value,
// mirroring the admin form where "" is the cleared state.
type NewsletterUpdate struct {
	Subject      *string `json:"subject"`
	Preheader    *string `json:"preheader"`
	Intro        *string `json:"intro"`
	HeroImageURL *string `json:"hero_image_url"`
	HeroTitle    *string `json:"hero_title"`
	HeroSubtitle *string `json:"hero_subtitle"`
	HeroCTALabel *string `json:"hero_cta_label"`
	HeroCTAURL   *string `json:"hero_cta_url"`
}

// BlockInput describes one content block to insert. Build values through the
// constructors below so that type/reference combinations stay valid.
type BlockInput struct {
	ContentType        string     `json:"content_type"`
	ContentID          *uuid.UUID `json:"content_id"`
	SectionHeading     *string    `json:"section_heading"`
	SectionDescription *string    `json:"section_description"`
	Position           int        `json:"position"`
}

// EventBlock builds a block referencing an event.
func EventBlock(eventID uuid.UUID, position int) BlockInput {
	return BlockInput{ContentType: BlockEvent, ContentID: &eventID, Position: position}
}

// ArticleBlock builds a block referencing an article.
func ArticleBlock(articleID uuid.UUID, position int) BlockInput {
	return BlockInput{ContentType: BlockArticle, ContentID: &articleID, Position: position}
}

// ShowBlock builds a block referencing a show.
func ShowBlock(showID uuid.UUID, position int) BlockInput {
	return BlockInput{ContentType: BlockShow, ContentID: &showID, Position: position}
}

// CustomSection builds an inline text section block.
func CustomSection(heading, description string, position int) BlockInput {
	in := BlockInput{ContentType: BlockCustomSection, Position: position}
	if heading != "" {
		in.SectionHeading = &heading
	}
	if description != "" {
		in.SectionDescription = &description
	}
	return in
}

// WithHeading attaches a section heading to a reference block so the renderer
// starts a new titled section at this position.
func (b BlockInput) WithHeading(heading string) BlockInput {
	b.SectionHeading = &heading
	return b
}

// BlockPosition names one block and its target position for Reorder.
type BlockPosition struct {
	ID       uuid.UUID `json:"id"`
	Position int       `json:"position"`
}

// ListFilter selects and paginates newsletters for List.
type ListFilter struct {
	Status string
	Page   int
	Limit  int
}

// Page is one page of newsletters plus pagination metadata.
type Page struct {
	Items      []Newsletter `json:"items"`
	Pagination Pagination   `json:"pagination"`
}

// Pagination carries paging metadata in responses.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}
