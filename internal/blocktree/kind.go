package blocktree

// Block types used by the remote store.
const (
	TypeToDo             = "to_do"
	TypeParagraph        = "paragraph"
	TypeHeading1         = "heading_1"
	TypeHeading2         = "heading_2"
	TypeHeading3         = "heading_3"
	TypeToggle           = "toggle"
	TypeColumn           = "column"
	TypeColumnList       = "column_list"
	TypeBulletedListItem = "bulleted_list_item"
)

// Kind is the semantic role of a node in the task page.
type Kind uint8

const (
	Unclassified Kind = iota
	Task
	Pointer
	Subcategory
	Heading
	Column
	ColumnGroup
)

var kindNames = [...]string{
	Unclassified: "unclassified",
	Task:         "task",
	Pointer:      "pointer",
	Subcategory:  "subcategory",
	Heading:      "heading",
	Column:       "column",
	ColumnGroup:  "column_group",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unclassified"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// KindOf maps a remote block to its structural kind.
func KindOf(raw RawNode) Kind {
	switch raw.Type {
	case TypeToDo:
		return Task
	case TypeParagraph:
		return Pointer
	case TypeHeading3, TypeToggle:
		return Subcategory
	case TypeHeading1, TypeHeading2:
		return Heading
	case TypeColumn:
		return Column
	case TypeColumnList:
		return ColumnGroup
	default:
		return Unclassified
	}
}

// logical reports whether nodes of this kind belong to the parsed task model.
func (k Kind) logical() bool {
	switch k {
	case Task, Pointer, Subcategory:
		return true
	default:
		return false
	}
}
