package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgallion1/blockboard/internal/blocktree"
)

// Anchor is a resolved insertion point. An empty AfterID appends as the last
// child of TargetID; otherwise the new block goes directly after AfterID.
type Anchor struct {
	TargetID string `json:"target_id"`
	AfterID  string `json:"after_id,omitempty"`
}

var dayNames = map[string]bool{
	"monday":    true,
	"tuesday":   true,
	"wednesday": true,
	"thursday":  true,
	"friday":    true,
	"saturday":  true,
	"sunday":    true,
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// HeadingContains returns a predicate matching text that contains any of
// terms, ignoring case.
func HeadingContains(terms ...string) func(string) bool {
	return func(text string) bool {
		for _, t := range terms {
			if t != "" && containsFold(text, t) {
				return true
			}
		}
		return false
	}
}

// ResolveSection returns the ID of the first Heading in top whose text
// satisfies match. Later headings never win over earlier ones.
func ResolveSection(top []blocktree.RawNode, match func(string) bool) (string, error) {
	idx := sectionIndex(top, match)
	if idx < 0 {
		return "", &NotFoundError{What: "section", Available: headingTexts(top)}
	}
	return top[idx].ID, nil
}

func sectionIndex(top []blocktree.RawNode, match func(string) bool) int {
	for i, n := range top {
		if blocktree.KindOf(n) == blocktree.Heading && match(n.Text()) {
			return i
		}
	}
	return -1
}

func headingTexts(top []blocktree.RawNode) []string {
	var out []string
	for _, n := range top {
		if blocktree.KindOf(n) == blocktree.Heading && n.Text() != "" {
			out = append(out, n.Text())
		}
	}
	return out
}

// sectionSpan returns the blocks after top[idx] up to, not including, the
// next Heading.
func sectionSpan(top []blocktree.RawNode, idx int) []blocktree.RawNode {
	for i := idx + 1; i < len(top); i++ {
		if blocktree.KindOf(top[i]) == blocktree.Heading {
			return top[idx+1 : i]
		}
	}
	return top[idx+1:]
}

func (b *Board) findSection(top []blocktree.RawNode, match func(string) bool, terms []string) (int, error) {
	idx := sectionIndex(top, match)
	if idx < 0 {
		return -1, &NotFoundError{
			What:      "section",
			Name:      strings.Join(terms, "|"),
			Available: headingTexts(top),
		}
	}
	return idx, nil
}

func indexOf(top []blocktree.RawNode, id string) int {
	for i, n := range top {
		if n.ID == id {
			return i
		}
	}
	return -1
}

type column struct {
	ID    string
	Items []blocktree.RawNode
}

// fetchColumns lists the items of every column under groups. Columns are
// fetched concurrently; the result keeps document order.
func (b *Board) fetchColumns(ctx context.Context, groups []blocktree.RawNode) ([]column, error) {
	var cols []blocktree.RawNode
	for _, g := range groups {
		children, err := b.store.FetchChildren(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch column group %s: %w", g.ID, err)
		}
		for _, c := range children {
			if blocktree.KindOf(c) == blocktree.Column {
				cols = append(cols, c)
			}
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		idx   int
		items []blocktree.RawNode
		err   error
	}
	results := make(chan result, len(cols))
	sem := make(chan struct{}, b.maxFetch)

	for i, col := range cols {
		sem <- struct{}{}
		go func(i int, id string) {
			defer func() { <-sem }()
			items, err := b.store.FetchChildren(ctx, id)
			results <- result{idx: i, items: items, err: err}
		}(i, col.ID)
	}

	out := make([]column, len(cols))
	var firstErr error
	for range cols {
		r := <-results
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("fetch column %s: %w", cols[r.idx].ID, r.err)
				cancel()
			}
			continue
		}
		out[r.idx] = column{ID: cols[r.idx].ID, Items: r.items}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

type categoryRef struct {
	ID          string
	Name        string
	HasChildren bool
}

// categoryRefs lists the subcategory blocks at the top of each column in the
// column groups of span, left to right and top to bottom.
func (b *Board) categoryRefs(ctx context.Context, span []blocktree.RawNode) ([]categoryRef, error) {
	var groups []blocktree.RawNode
	for _, n := range span {
		if blocktree.KindOf(n) == blocktree.ColumnGroup {
			groups = append(groups, n)
		}
	}
	cols, err := b.fetchColumns(ctx, groups)
	if err != nil {
		return nil, err
	}

	var refs []categoryRef
	for _, col := range cols {
		for _, item := range col.Items {
			if blocktree.KindOf(item) != blocktree.Subcategory || item.Text() == "" {
				continue
			}
			refs = append(refs, categoryRef{ID: item.ID, Name: item.Text(), HasChildren: item.HasChildren})
		}
	}
	return refs, nil
}

// ResolveCategoryAnchor finds the first subcategory under the section headed
// by sectionID whose text contains category, ignoring case.
func (b *Board) ResolveCategoryAnchor(ctx context.Context, sectionID, category string) (Anchor, error) {
	top, err := b.topLevel(ctx)
	if err != nil {
		return Anchor{}, err
	}
	idx := indexOf(top, sectionID)
	if idx < 0 || blocktree.KindOf(top[idx]) != blocktree.Heading {
		return Anchor{}, &NotFoundError{What: "section", Name: sectionID, Available: headingTexts(top)}
	}
	return b.categoryAnchor(ctx, top, idx, category)
}

func (b *Board) categoryAnchor(ctx context.Context, top []blocktree.RawNode, idx int, category string) (Anchor, error) {
	if strings.TrimSpace(category) == "" {
		return Anchor{}, invalidf("category name is required")
	}
	refs, err := b.categoryRefs(ctx, sectionSpan(top, idx))
	if err != nil {
		return Anchor{}, err
	}

	var matches []categoryRef
	for _, r := range refs {
		if containsFold(r.Name, category) {
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		names := make([]string, 0, len(refs))
		for _, r := range refs {
			names = append(names, r.Name)
		}
		return Anchor{}, &NotFoundError{What: "category", Name: category, Available: names}
	}
	if len(matches) > 1 {
		b.log.Warn("ambiguous category, using first match", "category", category, "match", matches[0].Name, "candidates", len(matches))
	}
	return Anchor{TargetID: matches[0].ID}, nil
}

// Day is one day column entry of the weekly plan.
type Day struct {
	Name     string            `json:"name"`
	NodeID   string            `json:"node_id"`
	ColumnID string            `json:"column_id"`
	Tasks    []*blocktree.Node `json:"tasks"`
}

// weeklyColumns returns the columns of the first column group following the
// weekly heading. Paragraphs in between are skipped; any other block ends the
// search with no columns.
func (b *Board) weeklyColumns(ctx context.Context, top []blocktree.RawNode, idx int) ([]column, error) {
	for _, n := range top[idx+1:] {
		switch blocktree.KindOf(n) {
		case blocktree.ColumnGroup:
			return b.fetchColumns(ctx, []blocktree.RawNode{n})
		case blocktree.Pointer:
			continue
		default:
			return nil, nil
		}
	}
	return nil, nil
}

// scanDays splits each column into days at day-label paragraphs. With deep
// set, tasks are parsed with their subtrees; otherwise they are only classified.
func (b *Board) scanDays(ctx context.Context, cols []column, deep bool) ([]Day, error) {
	days := []Day{}
	for _, col := range cols {
		cur := -1
		for _, item := range col.Items {
			switch blocktree.KindOf(item) {
			case blocktree.Pointer:
				label := strings.TrimSpace(item.Text())
				if dayNames[strings.ToLower(label)] {
					days = append(days, Day{Name: label, NodeID: item.ID, ColumnID: col.ID, Tasks: []*blocktree.Node{}})
					cur = len(days) - 1
				}
			case blocktree.Task:
				if cur < 0 {
					continue
				}
				var n *blocktree.Node
				if deep {
					var err error
					if n, err = b.parser.ParseSubtree(ctx, item); err != nil {
						return nil, err
					}
				} else {
					n = blocktree.Classify(item)
				}
				if n != nil {
					days[cur].Tasks = append(days[cur].Tasks, n)
				}
			}
		}
	}
	return days, nil
}

// ResolveDayAnchor finds the first day label under the weekly heading whose
// text contains day. The anchor points after the last task of that day, or
// after the label itself when the day has no tasks.
func (b *Board) ResolveDayAnchor(ctx context.Context, weeklyID, day string) (Anchor, error) {
	top, err := b.topLevel(ctx)
	if err != nil {
		return Anchor{}, err
	}
	idx := indexOf(top, weeklyID)
	if idx < 0 || blocktree.KindOf(top[idx]) != blocktree.Heading {
		return Anchor{}, &NotFoundError{What: "section", Name: weeklyID, Available: headingTexts(top)}
	}
	return b.dayAnchor(ctx, top, idx, day)
}

func (b *Board) dayAnchor(ctx context.Context, top []blocktree.RawNode, idx int, day string) (Anchor, error) {
	if strings.TrimSpace(day) == "" {
		return Anchor{}, invalidf("day name is required")
	}
	cols, err := b.weeklyColumns(ctx, top, idx)
	if err != nil {
		return Anchor{}, err
	}
	days, err := b.scanDays(ctx, cols, false)
	if err != nil {
		return Anchor{}, err
	}

	for _, d := range days {
		if !containsFold(d.Name, strings.TrimSpace(day)) {
			continue
		}
		after := d.NodeID
		if last := blocktree.LastTask(d.Tasks); last != nil {
			after = last.ID
		}
		return Anchor{TargetID: d.ColumnID, AfterID: after}, nil
	}

	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, d.Name)
	}
	return Anchor{}, &NotFoundError{What: "day", Name: day, Available: names}
}

// looksLikeDay reports whether name is a weekday or a prefix of one, e.g. "mon"
// or "Friday".
func looksLikeDay(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) < 3 {
		return false
	}
	for d := range dayNames {
		if strings.HasPrefix(d, name) {
			return true
		}
	}
	return false
}
