package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgallion1/blockboard/internal/blocktree"
	"github.com/dgallion1/blockboard/internal/richtext"
)

// InsertTask creates one unchecked task at anchor with text stored verbatim.
func (b *Board) InsertTask(ctx context.Context, anchor Anchor, text string) (*blocktree.Node, error) {
	return b.InsertRichTask(ctx, anchor, richtext.Text(text))
}

// InsertRichTask creates one unchecked task at anchor from formatted runs.
func (b *Board) InsertRichTask(ctx context.Context, anchor Anchor, runs []richtext.Run) (*blocktree.Node, error) {
	if anchor.TargetID == "" {
		return nil, invalidf("anchor has no target")
	}
	if blank(runs) {
		return nil, invalidf("task text is empty")
	}
	return b.insert(ctx, anchor, runs)
}

func blank(runs []richtext.Run) bool {
	return strings.TrimSpace(richtext.Plain(runs)) == ""
}

func (b *Board) insert(ctx context.Context, anchor Anchor, runs []richtext.Run) (*blocktree.Node, error) {
	created, err := b.store.CreateChildren(ctx, anchor.TargetID, []blocktree.NewNode{blocktree.NewTask(runs)}, anchor.AfterID)
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("create task under %s: no block returned", anchor.TargetID)
	}

	n := blocktree.Classify(created[0])
	if n == nil {
		n = &blocktree.Node{ID: created[0].ID, Kind: blocktree.Task, Text: richtext.Plain(runs)}
	}
	b.log.Info("inserted task", "node_id", n.ID, "target", anchor.TargetID, "after", anchor.AfterID)
	return n, nil
}

// AddTaskToCategory appends a task as the last child of the named category.
func (b *Board) AddTaskToCategory(ctx context.Context, category, text string) (*blocktree.Node, error) {
	return b.AddRichTaskToCategory(ctx, category, richtext.Text(text))
}

// AddRichTaskToCategory is AddTaskToCategory for formatted text.
func (b *Board) AddRichTaskToCategory(ctx context.Context, category string, runs []richtext.Run) (*blocktree.Node, error) {
	if blank(runs) {
		return nil, invalidf("task text is empty")
	}
	top, err := b.topLevel(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := b.findSection(top, b.boardMatch, b.boardTerms)
	if err != nil {
		return nil, err
	}
	anchor, err := b.categoryAnchor(ctx, top, idx, category)
	if err != nil {
		return nil, err
	}
	return b.InsertRichTask(ctx, anchor, runs)
}

// AddTaskToDay inserts a task after the last task of the named day.
func (b *Board) AddTaskToDay(ctx context.Context, day, text string) (*blocktree.Node, error) {
	return b.AddRichTaskToDay(ctx, day, richtext.Text(text))
}

// AddRichTaskToDay is AddTaskToDay for formatted text.
func (b *Board) AddRichTaskToDay(ctx context.Context, day string, runs []richtext.Run) (*blocktree.Node, error) {
	if blank(runs) {
		return nil, invalidf("task text is empty")
	}
	top, err := b.topLevel(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := b.findSection(top, b.weeklyMatch, b.weeklyTerms)
	if err != nil {
		return nil, err
	}
	anchor, err := b.dayAnchor(ctx, top, idx, day)
	if err != nil {
		return nil, err
	}
	return b.InsertRichTask(ctx, anchor, runs)
}
