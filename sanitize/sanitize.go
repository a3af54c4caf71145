package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans user-supplied free text before it is stored.
type Sanitizer struct {
	stripTagsPolicy *bluemonday.Policy
}

func New() *Sanitizer {
	return &Sanitizer{stripTagsPolicy: bluemonday.StripTagsPolicy()}
}

// maxPasses bounds how many layers of entity encoding Text peels off.
const maxPasses = 8

// Text removes all markup from s and trims surrounding whitespace.
// Entities are decoded so plain text round-trips, and the result is stripped
// again until it is stable, so encoded markup cannot survive as live tags.
func (s *Sanitizer) Text(in string) string {
	out := in
	for i := 0; i < maxPasses; i++ {
		next := html.UnescapeString(s.stripTagsPolicy.Sanitize(out))
		if next == out {
			return strings.TrimSpace(out)
		}
		out = next
	}
	// Still changing: return the escaped form rather than decoded markup.
	return strings.TrimSpace(s.stripTagsPolicy.Sanitize(out))
}

// TextPtr applies Text to an optional value. A value that becomes empty is dropped.
func (s *Sanitizer) TextPtr(in *string) *string {
	if in == nil {
		return nil
	}
	out := s.Text(*in)
	if out == "" {
		return nil
	}
	return &out
}

// Lines applies Text to each entry and drops the empty ones.
func (s *Sanitizer) Lines(in []string) []string {
	out := make([]string, 0, len(in))
	for _, l := range in {
		if l = s.Text(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
