package richtext

import (
	"strings"
	"unicode/utf8"
)

// MaxRunLength is the largest text content the block store accepts in a single run.
const MaxRunLength = 2000

// Run is a span of text sharing one set of annotations.
type Run struct {
	Text          string `json:"text"`
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
	Underline     bool   `json:"underline,omitempty"`
	Code          bool   `json:"code,omitempty"`
	Link          string `json:"link,omitempty"`
}

func (r Run) sameStyle(o Run) bool {
	return r.Bold == o.Bold &&
		r.Italic == o.Italic &&
		r.Strikethrough == o.Strikethrough &&
		r.Underline == o.Underline &&
		r.Code == o.Code &&
		r.Link == o.Link
}

// Plain concatenates the text of all runs.
func Plain(runs []Run) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Text returns a single unannotated run, or nil for empty input.
func Text(s string) []Run {
	if s == "" {
		return nil
	}
	return normalize([]Run{{Text: s}})
}

// normalize merges adjacent runs with identical styling, drops empty runs and
// splits runs longer than MaxRunLength on rune boundaries.
func normalize(runs []Run) []Run {
	var merged []Run
	for _, r := range runs {
		if r.Text == "" {
			continue
		}
		if n := len(merged); n > 0 && merged[n-1].sameStyle(r) {
			merged[n-1].Text += r.Text
			continue
		}
		merged = append(merged, r)
	}

	out := make([]Run, 0, len(merged))
	for _, r := range merged {
		for utf8.RuneCountInString(r.Text) > MaxRunLength {
			head, tail := splitRunes(r.Text, MaxRunLength)
			part := r
			part.Text = head
			out = append(out, part)
			r.Text = tail
		}
		out = append(out, r)
	}
	return out
}

func splitRunes(s string, n int) (string, string) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}
