package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgallion1/blockboard/internal/blocktree"
)

// Category is one named subcategory of the task board.
type Category struct {
	Name   string            `json:"name"`
	NodeID string            `json:"node_id"`
	Items  []*blocktree.Node `json:"items"`
}

// TaskBoard is the parsed to-do section, categories in document order.
type TaskBoard struct {
	HeadingID  string     `json:"heading_id"`
	Categories []Category `json:"categories"`
}

// Category returns the first category whose name contains name, ignoring case.
func (tb *TaskBoard) Category(name string) (*Category, bool) {
	for i := range tb.Categories {
		if containsFold(tb.Categories[i].Name, name) {
			return &tb.Categories[i], true
		}
	}
	return nil, false
}

// WeeklyPlan is the parsed weekly section.
type WeeklyPlan struct {
	HeadingID string `json:"heading_id"`
	Days      []Day  `json:"days"`
}

// Day returns the first day whose name contains name, ignoring case.
func (wp *WeeklyPlan) Day(name string) (*Day, bool) {
	name = strings.TrimSpace(name)
	for i := range wp.Days {
		if containsFold(wp.Days[i].Name, name) {
			return &wp.Days[i], true
		}
	}
	return nil, false
}

// GetBoard parses the to-do section into categories with their full item trees.
func (b *Board) GetBoard(ctx context.Context) (*TaskBoard, error) {
	top, err := b.topLevel(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := b.findSection(top, b.boardMatch, b.boardTerms)
	if err != nil {
		return nil, err
	}
	refs, err := b.categoryRefs(ctx, sectionSpan(top, idx))
	if err != nil {
		return nil, err
	}

	tb := &TaskBoard{HeadingID: top[idx].ID, Categories: make([]Category, 0, len(refs))}
	for _, ref := range refs {
		items := []*blocktree.Node{}
		if ref.HasChildren {
			if items, err = b.parser.ParseChildren(ctx, ref.ID); err != nil {
				return nil, fmt.Errorf("parse category %q: %w", ref.Name, err)
			}
		}
		tb.Categories = append(tb.Categories, Category{Name: ref.Name, NodeID: ref.ID, Items: items})
	}
	b.log.Debug("parsed board", "categories", len(tb.Categories))
	return tb, nil
}

// GetWeeklyPlan parses the weekly section into days. A weekly heading with no
// column group yields an empty plan.
func (b *Board) GetWeeklyPlan(ctx context.Context) (*WeeklyPlan, error) {
	top, err := b.topLevel(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := b.findSection(top, b.weeklyMatch, b.weeklyTerms)
	if err != nil {
		return nil, err
	}
	cols, err := b.weeklyColumns(ctx, top, idx)
	if err != nil {
		return nil, err
	}
	days, err := b.scanDays(ctx, cols, true)
	if err != nil {
		return nil, err
	}
	b.log.Debug("parsed weekly plan", "columns", len(cols), "days", len(days))
	return &WeeklyPlan{HeadingID: top[idx].ID, Days: days}, nil
}
