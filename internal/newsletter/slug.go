package newsletter

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a title, collapses every run of non-alphanumeric
// characters into a single hyphen, and trims leading/trailing hyphens.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Slug derives the time-prefixed newsletter slug YYYY-MM-<normalized-title>.
// A title with no alphanumeric characters gets the "untitled" segment, so the
// result always has a non-empty title part. Pure function; collisions within
// a month are resolved by the caller against the slug unique constraint.
func Slug(title string, year int, month time.Month) string {
	seg := Slugify(title)
	if seg == "" {
		seg = "untitled"
	}
	return fmt.Sprintf("%04d-%02d-%s", year, int(month), seg)
}
