package blocktree

import (
	"encoding/json"

	"github.com/dgallion1/blockboard/internal/richtext"
)

// RawNode is a block as returned by the remote store.
type RawNode struct {
	ID          string
	Type        string
	HasChildren bool
	Runs        []richtext.Run
	Checked     *bool // to_do blocks only
}

// Text returns the plain text of the block.
func (r RawNode) Text() string {
	return richtext.Plain(r.Runs)
}

// Node is a classified block in a parsed snapshot of the page. Snapshots are
// never patched after a remote write; callers fetch again.
type Node struct {
	ID       string
	Kind     Kind
	Text     string
	Checked  bool // meaningful for Task only
	Children []*Node
}

type nodeJSON struct {
	ID       string  `json:"id"`
	Kind     Kind    `json:"kind"`
	Text     string  `json:"text"`
	Checked  *bool   `json:"checked,omitempty"`
	Children []*Node `json:"children"`
}

func (n *Node) MarshalJSON() ([]byte, error) {
	out := nodeJSON{ID: n.ID, Kind: n.Kind, Text: n.Text, Children: n.Children}
	if n.Kind == Task {
		checked := n.Checked
		out.Checked = &checked
	}
	if out.Children == nil {
		out.Children = []*Node{}
	}
	return json.Marshal(out)
}

// LastTask returns the last Task among nodes, or nil.
func LastTask(nodes []*Node) *Node {
	for i := len(nodes) - 1; i >= 0; i-- {
		if nodes[i].Kind == Task {
			return nodes[i]
		}
	}
	return nil
}

// NewNode describes a block to create.
type NewNode struct {
	Type     string
	Runs     []richtext.Run
	Checked  bool
	Children []NewNode
}

// NewTask returns an unchecked to_do block.
func NewTask(runs []richtext.Run) NewNode {
	return NewNode{Type: TypeToDo, Runs: runs}
}
