package board

import (
	"strings"

	"github.com/dgallion1/blockboard/internal/richtext"
)

// Format says how caller-supplied task text is read.
type Format string

const (
	FormatPlain    Format = "plain"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat maps a user-supplied format; the empty string is FormatPlain.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatPlain, nil
	case FormatPlain, FormatMarkdown, FormatHTML:
		return f, nil
	}
	return "", invalidf("unknown text format %q (want plain, markdown or html)", s)
}

// Runs converts text written in f to rich text. Plain text is stored exactly
// as given, markup characters included.
func Runs(text string, f Format) ([]richtext.Run, error) {
	switch f {
	case "", FormatPlain:
		return richtext.Text(text), nil
	case FormatMarkdown:
		return richtext.Parse(text), nil
	case FormatHTML:
		runs, err := richtext.ParseHTML(text)
		if err != nil {
			return nil, invalidf("invalid html: %v", err)
		}
		return runs, nil
	}
	return nil, invalidf("unknown text format %q", f)
}
