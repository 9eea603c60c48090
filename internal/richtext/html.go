package richtext

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseHTML converts a chat-style HTML fragment into runs. Recognised tags are
// b/strong, i/em, u/ins, s/strike/del, code/pre, a[href] and br; any other
// element contributes only its text.
func ParseHTML(fragment string) ([]Run, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var runs []Run
	var walk func(n *html.Node, style Run)
	walk = func(n *html.Node, style Run) {
		switch n.Type {
		case html.TextNode:
			s := style
			s.Text = n.Data
			runs = append(runs, s)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.B, atom.Strong:
				style.Bold = true
			case atom.I, atom.Em:
				style.Italic = true
			case atom.U, atom.Ins:
				style.Underline = true
			case atom.S, atom.Strike, atom.Del:
				style.Strikethrough = true
			case atom.Code, atom.Pre:
				style.Code = true
			case atom.A:
				style.Link = attr(n, "href")
			case atom.Br:
				s := style
				s.Text = "\n"
				runs = append(runs, s)
				return
			case atom.Script, atom.Style:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, style)
		}
	}
	for _, n := range nodes {
		walk(n, Run{})
	}
	return normalize(runs), nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
