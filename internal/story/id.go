package story

import "strings"

// DefaultSeparator joins the kind and name segments of a derived story id.
const DefaultSeparator = "-"

// StoryID derives the deterministic id for a story from its kind and name:
// both segments are sanitized and joined with the separator, so
// ("Button", "Primary") becomes "button-primary". Callers that need a
// different id supply it via the IDKey parameter override instead.
func StoryID(separator, kind, name string) string {
	if separator == "" {
		separator = DefaultSeparator
	}
	return sanitize(kind, separator) + separator + sanitize(name, separator)
}

// sanitize lowercases s and collapses every run of non-alphanumeric
// characters into a single separator, trimming any at the ends.
func sanitize(s, separator string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteString(separator)
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
