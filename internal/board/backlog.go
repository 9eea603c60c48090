package board

import (
	"context"
	"strings"

	"github.com/dgallion1/blockboard/internal/blocktree"
	"github.com/dgallion1/blockboard/internal/richtext"
)

type BacklogItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type BacklogEntry struct {
	Company string `json:"company"`
	Role    string `json:"role"`
	URL     string `json:"url,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// GetBacklog lists the bulleted items of the backlog page.
func (b *Board) GetBacklog(ctx context.Context) ([]BacklogItem, error) {
	if b.backlogPageID == "" {
		return nil, invalidf("backlog page id is not configured")
	}
	raws, err := b.store.FetchChildren(ctx, b.backlogPageID)
	if err != nil {
		return nil, err
	}
	items := []BacklogItem{}
	for _, r := range raws {
		if r.Type != blocktree.TypeBulletedListItem || r.Text() == "" {
			continue
		}
		items = append(items, BacklogItem{ID: r.ID, Text: r.Text()})
	}
	return items, nil
}

// AddToBacklog appends "Company - Role (link)" to the backlog page, with the
// notes as a nested paragraph.
func (b *Board) AddToBacklog(ctx context.Context, e BacklogEntry) (BacklogItem, error) {
	if b.backlogPageID == "" {
		return BacklogItem{}, invalidf("backlog page id is not configured")
	}
	e.Company = strings.TrimSpace(e.Company)
	e.Role = strings.TrimSpace(e.Role)
	if e.Company == "" || e.Role == "" {
		return BacklogItem{}, invalidf("company and role are required")
	}

	runs := richtext.Text(e.Company + " - " + e.Role)
	if e.URL != "" {
		runs = append(runs,
			richtext.Run{Text: " ("},
			richtext.Run{Text: "link", Link: e.URL},
			richtext.Run{Text: ")"},
		)
	}
	entry := blocktree.NewNode{Type: blocktree.TypeBulletedListItem, Runs: runs}
	if strings.TrimSpace(e.Notes) != "" {
		entry.Children = []blocktree.NewNode{{Type: blocktree.TypeParagraph, Runs: richtext.Text(e.Notes)}}
	}

	created, err := b.store.CreateChildren(ctx, b.backlogPageID, []blocktree.NewNode{entry}, "")
	if err != nil {
		return BacklogItem{}, err
	}
	item := BacklogItem{Text: richtext.Plain(runs)}
	if len(created) > 0 {
		item.ID = created[0].ID
	}
	b.log.Info("added backlog entry", "node_id", item.ID, "company", e.Company)
	return item, nil
}
