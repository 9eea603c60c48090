package richtext

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.Linkify))

// Parse converts inline markdown (emphasis, code spans, strikethrough, links)
// into runs. Input that parses as anything other than plain paragraphs, such
// as "1. call back" or "# notes", is kept verbatim as a single run.
func Parse(src string) []Run {
	if src == "" {
		return nil
	}
	source := []byte(src)
	doc := md.Parser().Parse(text.NewReader(source))

	c := &collector{src: source}
	for block := doc.FirstChild(); block != nil; block = block.NextSibling() {
		if _, ok := block.(*ast.Paragraph); !ok {
			return Text(src)
		}
		if block.PreviousSibling() != nil {
			c.add(Run{}, "\n")
		}
		c.inline(block, Run{})
	}
	return normalize(c.runs)
}

type collector struct {
	src  []byte
	runs []Run
}

func (c *collector) add(style Run, s string) {
	style.Text = s
	c.runs = append(c.runs, style)
}

func (c *collector) inline(n ast.Node, style Run) {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch v := child.(type) {
		case *ast.Text:
			value := v.Segment.Value(c.src)
			if !style.Code {
				value = util.UnescapePunctuations(value)
			}
			c.add(style, string(value))
			if v.SoftLineBreak() || v.HardLineBreak() {
				c.add(style, "\n")
			}
		case *ast.String:
			c.add(style, string(v.Value))
		case *ast.CodeSpan:
			s := style
			s.Code = true
			c.inline(v, s)
		case *ast.Emphasis:
			s := style
			if v.Level >= 2 {
				s.Bold = true
			} else {
				s.Italic = true
			}
			c.inline(v, s)
		case *extast.Strikethrough:
			s := style
			s.Strikethrough = true
			c.inline(v, s)
		case *ast.Link:
			s := style
			s.Link = string(v.Destination)
			c.inline(v, s)
		case *ast.AutoLink:
			s := style
			s.Link = string(v.URL(c.src))
			c.add(s, string(v.Label(c.src)))
		case *ast.RawHTML:
			for i := 0; i < v.Segments.Len(); i++ {
				seg := v.Segments.At(i)
				c.add(style, string(seg.Value(c.src)))
			}
		default:
			c.inline(child, style)
		}
	}
}
