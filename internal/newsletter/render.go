package newsletter

import "github.com/google/uuid"

// Item is one resolved unit of rendered newsletter content.
type Item struct {
	Type        string     `json:"type"`
	ContentID   *uuid.UUID `json:"content_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	LinkURL     string     `json:"link_url,omitempty"`
	StartsAt    string     `json:"starts_at,omitempty"`
}

// Section is a titled (or implicit untitled) group of items for rendering.
type Section struct {
	Heading     string `json:"heading,omitempty"`
	Description string `json:"description,omitempty"`
	Items       []Item `json:"items"`
}

// Resolver maps a content reference to a displayable item. Returning
// (nil, nil) means the referenced entity no longer exists; the block is
// silently dropped.
type Resolver interface {
	Resolve(contentType string, contentID uuid.UUID) (*Item, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(contentType string, contentID uuid.UUID) (*Item, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(contentType string, contentID uuid.UUID) (*Item, error) {
	return f(contentType, contentID)
}

// BuildSections walks blocks in ascending position and groups them into
// rendered sections. A block with a non-empty section heading opens a new
// titled section; heading-less blocks accumulate into the currently open
// section, or an implicit untitled one. A custom section's description counts
// as a text item. Sections whose items all fail to resolve are dropped.
func BuildSections(blocks []ContentBlock, resolver Resolver) ([]Section, error) {
	sections := []Section{}
	var current *Section

	open := func(heading, description string) {
		sections = append(sections, Section{Heading: heading, Description: description, Items: []Item{}})
		current = &sections[len(sections)-1]
	}

	for _, b := range blocks {
		if b.SectionHeading != nil && *b.SectionHeading != "" {
			// A custom section's description is its own text content, not
			// section metadata, so it joins the items below instead.
			desc := ""
			if b.ContentType != BlockCustomSection && b.SectionDescription != nil {
				desc = *b.SectionDescription
			}
			open(*b.SectionHeading, desc)
		} else if current == nil {
			open("", "")
		}

		switch {
		case b.ContentType == BlockCustomSection:
			if b.SectionDescription != nil && *b.SectionDescription != "" {
				current.Items = append(current.Items, Item{
					Type:        BlockCustomSection,
					Description: *b.SectionDescription,
				})
			}
		case b.ContentID != nil:
			item, err := resolver.Resolve(b.ContentType, *b.ContentID)
			if err != nil {
				return nil, err
			}
			if item != nil {
				current.Items = append(current.Items, *item)
			}
		}
	}

	// Drop sections that resolved to nothing.
	out := sections[:0]
	for _, sec := range sections {
		if len(sec.Items) > 0 {
			out = append(out, sec)
		}
	}
	return out, nil
}
