package newsletter

import (
	"regexp"
	"testing"
	"time"
)

var slugPattern = regexp.MustCompile(`^\d{4}-\d{2}-[a-z0-9-]+$`)

func TestSlug(t *testing.T) {
	tests := []struct {
		name  string
		title string
		year  int
		month time.Month
		want  string
	}{
		{"simple title", "Amazing Events", 2025, time.March, "2025-03-amazing-events"},
		{"punctuation collapses", "Circus!!! & Acrobatics", 2025, time.March, "2025-03-circus-acrobatics"},
		{"leading and trailing junk", "  ¡Hola Verano!  ", 2024, time.July, "2024-07-hola-verano"},
		{"digits preserved", "Top 10 shows", 2026, time.January, "2026-01-top-10-shows"},
		{"month zero padded", "test", 2025, time.September, "2025-09-test"},
		{"december", "Año Nuevo", 2025, time.December, "2025-12-a-o-nuevo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slug(tt.title, tt.year, tt.month)
			if got != tt.want {
				t.Errorf("Slug(%q, %d, %d) = %q, want %q", tt.title, tt.year, tt.month, got, tt.want)
			}
			if !slugPattern.MatchString(got) {
				t.Errorf("slug %q does not match %s", got, slugPattern)
			}
		})
	}
}

func TestSlugSymbolOnlyTitle(t *testing.T) {
	got := Slug("!!!", 2025, time.March)
	if got != "2025-03-untitled" {
		t.Errorf("Slug(%q) = %q, want %q", "!!!", got, "2025-03-untitled")
	}
	if !slugPattern.MatchString(got) {
		t.Errorf("slug %q does not match %s", got, slugPattern)
	}
}

func TestSlugDeterministic(t *testing.T) {
	a := Slug("The Same Title", 2025, time.May)
	b := Slug("The Same Title", 2025, time.May)
	if a != b {
		t.Errorf("Slug not deterministic: %q vs %q", a, b)
	}
}

func TestSlugTitleSegmentHasNoEdgeHyphens(t *testing.T) {
	got := Slug("---weird---", 2025, time.April)
	if got != "2025-04-weird" {
		t.Errorf("Slug = %q, want %q", got, "2025-04-weird")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Pepe Dome", "pepe-dome"},
		{"UPPER case", "upper-case"},
		{"a&b", "a-b"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
