package newsletter

import (
	"testing"

	"github.com/google/uuid"
)

func strptr(s string) *string { return &s }

func resolveAll(titles map[uuid.UUID]string) Resolver {
	return ResolverFunc(func(contentType string, contentID uuid.UUID) (*Item, error) {
		title, ok := titles[contentID]
		if !ok {
			return nil, nil
		}
		return &Item{Type: contentType, ContentID: &contentID, Title: title}, nil
	})
}

func TestBuildSectionsGrouping(t *testing.T) {
	ev1, ev2, art := uuid.New(), uuid.New(), uuid.New()
	known := map[uuid.UUID]string{ev1: "Acro Night", ev2: "Family Matinee", art: "Season recap"}

	blocks := []ContentBlock{
		{ContentType: BlockEvent, ContentID: &ev1, Position: 0},
		{ContentType: BlockEvent, ContentID: &ev2, SectionHeading: strptr("This month"), Position: 1},
		{ContentType: BlockArticle, ContentID: &art, Position: 2},
	}

	sections, err := BuildSections(blocks, resolveAll(known))
	if err != nil {
		t.Fatalf("BuildSections() error: %v", err)
	}

	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	if sections[0].Heading != "" || len(sections[0].Items) != 1 {
		t.Errorf("implicit section = %+v, want 1 untitled item", sections[0])
	}
	if sections[1].Heading != "This month" || len(sections[1].Items) != 2 {
		t.Errorf("titled section = %+v, want heading %q with 2 items", sections[1], "This month")
	}
	if sections[1].Items[0].Title != "Family Matinee" || sections[1].Items[1].Title != "Season recap" {
		t.Errorf("section items out of order: %+v", sections[1].Items)
	}
}

func TestBuildSectionsDropsDanglingRefs(t *testing.T) {
	gone := uuid.New()
	blocks := []ContentBlock{
		{ContentType: BlockEvent, ContentID: &gone, SectionHeading: strptr("Gone"), Position: 0},
	}

	sections, err := BuildSections(blocks, resolveAll(nil))
	if err != nil {
		t.Fatalf("BuildSections() error: %v", err)
	}
	if len(sections) != 0 {
		t.Errorf("got %d sections, want 0 (all refs dangling)", len(sections))
	}
}

func TestBuildSectionsCustomText(t *testing.T) {
	blocks := []ContentBlock{
		{ContentType: BlockCustomSection, SectionHeading: strptr("Welcome"),
			SectionDescription: strptr("The dome reopens this spring."), Position: 0},
		{ContentType: BlockCustomSection, SectionHeading: strptr("Empty heading only"), Position: 1},
	}

	sections, err := BuildSections(blocks, resolveAll(nil))
	if err != nil {
		t.Fatalf("BuildSections() error: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("got %d sections, want 1 (heading-only section dropped)", len(sections))
	}
	if sections[0].Heading != "Welcome" {
		t.Errorf("heading = %q, want %q", sections[0].Heading, "Welcome")
	}
	if len(sections[0].Items) != 1 || sections[0].Items[0].Description != "The dome reopens this spring." {
		t.Errorf("items = %+v, want the custom text item", sections[0].Items)
	}
}

func TestBuildSectionsEmptyInput(t *testing.T) {
	sections, err := BuildSections(nil, resolveAll(nil))
	if err != nil {
		t.Fatalf("BuildSections() error: %v", err)
	}
	if len(sections) != 0 {
		t.Errorf("got %d sections, want 0", len(sections))
	}
}
