package blocktree

import (
	"context"
	"fmt"
	"log/slog"
)

// Fetcher lists the children of a block in display order.
type Fetcher interface {
	FetchChildren(ctx context.Context, id string) ([]RawNode, error)
}

// Parser builds classified snapshots of remote subtrees.
type Parser struct {
	fetch Fetcher
	log   *slog.Logger
}

func NewParser(f Fetcher, log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{fetch: f, log: log}
}

// ParseChildren fetches the children of id and parses each of them.
func (p *Parser) ParseChildren(ctx context.Context, id string) ([]*Node, error) {
	raws, err := p.fetch.FetchChildren(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("parse children of %s: %w", id, err)
	}
	return p.ParseNodes(ctx, raws)
}

// ParseNodes parses already fetched siblings. Dropped blocks are omitted; the
// remaining order matches raws.
func (p *Parser) ParseNodes(ctx context.Context, raws []RawNode) ([]*Node, error) {
	out := make([]*Node, 0, len(raws))
	for _, raw := range raws {
		n, err := p.ParseSubtree(ctx, raw)
		if err != nil {
			return nil, err
		}
		if n != nil {
			out = append(out, n)
		}
	}
	return out, nil
}

// ParseSubtree classifies raw and, when it is kept and has children, expands
// its descendants. It returns nil for dropped blocks. Any fetch failure aborts
// the whole subtree.
func (p *Parser) ParseSubtree(ctx context.Context, raw RawNode) (*Node, error) {
	root := Classify(raw)
	if root == nil {
		return nil, nil
	}

	type pending struct {
		node *Node
		id   string
	}
	var stack []pending
	if raw.HasChildren {
		stack = append(stack, pending{node: root, id: raw.ID})
	}

	fetches := 0
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := p.fetch.FetchChildren(ctx, top.id)
		if err != nil {
			return nil, fmt.Errorf("parse subtree %s: %w", raw.ID, err)
		}
		fetches++

		var expand []pending
		for _, c := range children {
			n := Classify(c)
			if n == nil {
				continue
			}
			top.node.Children = append(top.node.Children, n)
			if c.HasChildren {
				expand = append(expand, pending{node: n, id: c.ID})
			}
		}
		// Reverse push keeps fetches in document order.
		for i := len(expand) - 1; i >= 0; i-- {
			stack = append(stack, expand[i])
		}
	}

	if fetches > 0 {
		p.log.Debug("parsed subtree", "id", raw.ID, "kind", root.Kind, "fetches", fetches)
	}
	return root, nil
}
