package blocktree

// Classify maps a raw block into the task model. It returns nil for blocks
// with empty text, whatever their type, and for blocks that are not tasks,
// pointers or subcategories. Children are not populated.
func Classify(raw RawNode) *Node {
	text := raw.Text()
	if text == "" {
		return nil
	}
	kind := KindOf(raw)
	if !kind.logical() {
		return nil
	}
	n := &Node{ID: raw.ID, Kind: kind, Text: text}
	if kind == Task && raw.Checked != nil {
		n.Checked = *raw.Checked
	}
	return n
}
