package notion

import (
	"encoding/json"

	"github.com/dgallion1/blockboard/internal/blocktree"
	"github.com/dgallion1/blockboard/internal/richtext"
)

type listResponse struct {
	Results    []block `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

type appendRequest struct {
	Children []block `json:"children"`
	After    string  `json:"after,omitempty"`
}

type richText struct {
	Type        string       `json:"type"`
	Text        *textContent `json:"text,omitempty"`
	Annotations *annotations `json:"annotations,omitempty"`
	PlainText   string       `json:"plain_text,omitempty"`
	Href        *string      `json:"href,omitempty"`
}

type textContent struct {
	Content string `json:"content"`
	Link    *link  `json:"link,omitempty"`
}

type link struct {
	URL string `json:"url"`
}

type annotations struct {
	Bold          bool `json:"bold"`
	Italic        bool `json:"italic"`
	Strikethrough bool `json:"strikethrough"`
	Underline     bool `json:"underline"`
	Code          bool `json:"code"`
}

// blockContent is the type-specific payload stored under the key named by
// the block type, e.g. {"type": "to_do", "to_do": {...}}.
type blockContent struct {
	RichText []richText `json:"rich_text"`
	Checked  *bool      `json:"checked,omitempty"`
	Children []block    `json:"children,omitempty"`
}

type block struct {
	Object      string
	ID          string
	Type        string
	HasChildren bool
	Content     blockContent
}

type blockHeader struct {
	Object      string `json:"object,omitempty"`
	ID          string `json:"id,omitempty"`
	Type        string `json:"type"`
	HasChildren bool   `json:"has_children,omitempty"`
}

func (b *block) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var h blockHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return err
	}
	*b = block{Object: h.Object, ID: h.ID, Type: h.Type, HasChildren: h.HasChildren}
	if raw, ok := fields[h.Type]; ok {
		// Payloads of block types outside the task model may not fit
		// blockContent; they are kept with empty content.
		_ = json.Unmarshal(raw, &b.Content)
	}
	return nil
}

func (b block) MarshalJSON() ([]byte, error) {
	fields := map[string]any{
		"object": "block",
		"type":   b.Type,
		b.Type:   b.Content,
	}
	return json.Marshal(fields)
}

func (b block) raw() blocktree.RawNode {
	r := blocktree.RawNode{
		ID:          b.ID,
		Type:        b.Type,
		HasChildren: b.HasChildren,
		Runs:        fromRichText(b.Content.RichText),
	}
	if b.Type == blocktree.TypeToDo {
		checked := b.Content.Checked != nil && *b.Content.Checked
		r.Checked = &checked
	}
	return r
}

func newBlock(n blocktree.NewNode) block {
	b := block{
		Type:    n.Type,
		Content: blockContent{RichText: toRichText(n.Runs)},
	}
	if n.Type == blocktree.TypeToDo {
		checked := n.Checked
		b.Content.Checked = &checked
	}
	for _, c := range n.Children {
		b.Content.Children = append(b.Content.Children, newBlock(c))
	}
	return b
}

func fromRichText(rts []richText) []richtext.Run {
	runs := make([]richtext.Run, 0, len(rts))
	for _, rt := range rts {
		run := richtext.Run{Text: rt.PlainText}
		if run.Text == "" && rt.Text != nil {
			run.Text = rt.Text.Content
		}
		if rt.Annotations != nil {
			run.Bold = rt.Annotations.Bold
			run.Italic = rt.Annotations.Italic
			run.Strikethrough = rt.Annotations.Strikethrough
			run.Underline = rt.Annotations.Underline
			run.Code = rt.Annotations.Code
		}
		switch {
		case rt.Href != nil:
			run.Link = *rt.Href
		case rt.Text != nil && rt.Text.Link != nil:
			run.Link = rt.Text.Link.URL
		}
		runs = append(runs, run)
	}
	return runs
}

func toRichText(runs []richtext.Run) []richText {
	out := make([]richText, 0, len(runs))
	for _, r := range runs {
		rt := richText{
			Type: "text",
			Text: &textContent{Content: r.Text},
		}
		if r.Link != "" {
			rt.Text.Link = &link{URL: r.Link}
		}
		if r.Bold || r.Italic || r.Strikethrough || r.Underline || r.Code {
			rt.Annotations = &annotations{
				Bold:          r.Bold,
				Italic:        r.Italic,
				Strikethrough: r.Strikethrough,
				Underline:     r.Underline,
				Code:          r.Code,
			}
		}
		out = append(out, rt)
	}
	return out
}
