package newsletter

import "strings"

const maxSubjectLength = 200

// ValidURL reports whether a URL field value is acceptable: empty (cleared),
// a site-relative path, or an https URL. Matches the admin form's schema.
func ValidURL(u string) bool {
	if u == "" {
		return true
	}
	return strings.HasPrefix(u, "/") || strings.HasPrefix(u, "https://")
}

// ValidBlockType reports whether t is one of the four content block types.
func ValidBlockType(t string) bool {
	switch t {
	case BlockEvent, BlockArticle, BlockShow, BlockCustomSection:
		return true
	}
	return false
}

// ValidateInput checks the create payload before it reaches the database.
func ValidateInput(in NewsletterInput) error {
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return NewValidation("subject", "subject is required")
	}
	if len(in.Subject) > maxSubjectLength {
		return NewValidation("subject", "subject must be at most 200 characters")
	}
	if Slugify(subject) == "" {
		return NewValidation("subject", "subject must contain at least one letter or digit")
	}
	return validateURLFields(in.HeroImageURL, in.HeroCTAURL)
}

// ValidateUpdate checks a partial update payload.
func ValidateUpdate(up NewsletterUpdate) error {
	if up.Subject != nil {
		subject := strings.TrimSpace(*up.Subject)
		if subject == "" {
			return NewValidation("subject", "subject is required")
		}
		if len(*up.Subject) > maxSubjectLength {
			return NewValidation("subject", "subject must be at most 200 characters")
		}
	}
	return validateURLFields(up.HeroImageURL, up.HeroCTAURL)
}

// ValidateBlock checks one block input: known type, sensible position, and the
// reference rule (content id required for event/article/show, absent for
// custom sections).
func ValidateBlock(in BlockInput) error {
	if !ValidBlockType(in.ContentType) {
		return NewValidation("content_type", "unknown content type")
	}
	if in.Position < 0 {
		return NewValidation("position", "position must be a non-negative integer")
	}
	if in.ContentType == BlockCustomSection {
		if in.ContentID != nil {
			return NewValidation("content_id", "custom sections do not reference content")
		}
		return nil
	}
	if in.ContentID == nil {
		return NewValidation("content_id", "content id is required for "+in.ContentType+" blocks")
	}
	return nil
}

func validateURLFields(urls ...*string) error {
	for _, u := range urls {
		if u != nil && !ValidURL(*u) {
			return NewValidation("url", "must be empty, start with / or https://")
		}
	}
	return nil
}
