package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	s := New()
	assert.Equal(t, "hello world", s.Text("  <b>hello</b> <script>alert(1)</script>world "))
	assert.Equal(t, "Tom & Jerry", s.Text("Tom & Jerry"))
	assert.Equal(t, "", s.Text("<img src=x onerror=alert(1)>"))
}

func TestTextDecodesEncodedMarkupBeforeStripping(t *testing.T) {
	s := New()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"encoded tags", "&lt;script&gt;alert(1)&lt;/script&gt; &lt;img src=x onerror=alert(1)&gt;", ""},
		{"encoded emphasis", "&lt;b&gt;bold&lt;/b&gt; text", "bold text"},
		{"double encoded", "&amp;lt;i&amp;gt;x&amp;lt;/i&amp;gt;", "x"},
		{"plain comparison", "a < b", "a < b"},
		{"plain ampersand", "Tom &amp; Jerry", "Tom & Jerry"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := s.Text(tc.in)
			assert.Equal(t, tc.want, out)
			assert.NotContains(t, out, "<script")
			assert.Equal(t, out, s.Text(out), "Text must be idempotent")
		})
	}
}

func TestTextPtr(t *testing.T) {
	s := New()
	assert.Nil(t, s.TextPtr(nil))
	blank := "<p></p>"
	assert.Nil(t, s.TextPtr(&blank))
	v := "<i>note</i>"
	assert.Equal(t, "note", *s.TextPtr(&v))
}

func TestLines(t *testing.T) {
	assert.Equal(t, []string{"fast", "cheap"}, New().Lines([]string{" fast ", "", "<b>cheap</b>", "   "}))
}
