// Package boardtest provides an in-memory block store for tests.
package boardtest

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/dgallion1/blockboard/internal/blocktree"
	"github.com/dgallion1/blockboard/internal/richtext"
)

// Store is an in-memory block tree that behaves like the remote store: deleted
// blocks disappear from their parent and a second delete reports the node as
// gone. It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	nodes    map[string]blocktree.RawNode
	children map[string][]string
	parent   map[string]string
	deleted  map[string]bool
	seq      int

	fetchErr  map[string]error
	createErr error
	deleteErr error

	fetches []string
	creates int
	deletes []string
}

// New returns an empty store rooted at pageID.
func New(pageID string) *Store {
	return &Store{
		nodes:    map[string]blocktree.RawNode{pageID: {ID: pageID, Type: "page"}},
		children: map[string][]string{},
		parent:   map[string]string{},
		deleted:  map[string]bool{},
		fetchErr: map[string]error{},
	}
}

// Add appends nodes as children of parentID. An unknown parentID is
// registered as a page, so extra pages such as a backlog can be seeded.
func (s *Store) Add(parentID string, nodes ...blocktree.RawNode) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[parentID]; !ok {
		s.nodes[parentID] = blocktree.RawNode{ID: parentID, Type: "page"}
	}
	for _, n := range nodes {
		s.nodes[n.ID] = n
		s.parent[n.ID] = parentID
		s.children[parentID] = append(s.children[parentID], n.ID)
	}
	return s
}

func block(id, typ, text string) blocktree.RawNode {
	return blocktree.RawNode{ID: id, Type: typ, Runs: richtext.Text(text)}
}

func Heading1(id, text string) blocktree.RawNode  { return block(id, blocktree.TypeHeading1, text) }
func Heading2(id, text string) blocktree.RawNode  { return block(id, blocktree.TypeHeading2, text) }
func Heading3(id, text string) blocktree.RawNode  { return block(id, blocktree.TypeHeading3, text) }
func Toggle(id, text string) blocktree.RawNode    { return block(id, blocktree.TypeToggle, text) }
func Paragraph(id, text string) blocktree.RawNode { return block(id, blocktree.TypeParagraph, text) }
func Bullet(id, text string) blocktree.RawNode {
	return block(id, blocktree.TypeBulletedListItem, text)
}
func ColumnList(id string) blocktree.RawNode { return block(id, blocktree.TypeColumnList, "") }
func Column(id string) blocktree.RawNode     { return block(id, blocktree.TypeColumn, "") }

func ToDo(id, text string, checked bool) blocktree.RawNode {
	n := block(id, blocktree.TypeToDo, text)
	n.Checked = &checked
	return n
}

// FailFetch makes every fetch of id's children return err.
func (s *Store) FailFetch(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErr[id] = err
}

// FailCreate makes every create return err. A nil err restores creates.
func (s *Store) FailCreate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createErr = err
}

// FailDelete makes every delete return err. A nil err restores deletes.
func (s *Store) FailDelete(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteErr = err
}

// Failure returns a remote error for op on id that is not a "gone" answer.
func Failure(op blocktree.Op, id string) error {
	return &blocktree.RemoteError{Op: op, NodeID: id, StatusCode: http.StatusBadGateway, Code: "bad_gateway"}
}

func (s *Store) raw(id string) blocktree.RawNode {
	n := s.nodes[id]
	n.HasChildren = len(s.children[id]) > 0
	return n
}

func (s *Store) FetchChildren(ctx context.Context, id string) ([]blocktree.RawNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, &blocktree.RemoteError{Op: blocktree.OpFetchChildren, NodeID: id, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches = append(s.fetches, id)
	if err := s.fetchErr[id]; err != nil {
		return nil, err
	}
	if _, ok := s.nodes[id]; !ok || s.deleted[id] {
		return nil, &blocktree.RemoteError{Op: blocktree.OpFetchChildren, NodeID: id, StatusCode: http.StatusNotFound, Code: "object_not_found"}
	}
	out := make([]blocktree.RawNode, 0, len(s.children[id]))
	for _, cid := range s.children[id] {
		out = append(out, s.raw(cid))
	}
	return out, nil
}

func (s *Store) CreateChildren(ctx context.Context, parentID string, nodes []blocktree.NewNode, afterID string) ([]blocktree.RawNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	if _, ok := s.nodes[parentID]; !ok || s.deleted[parentID] {
		return nil, &blocktree.RemoteError{Op: blocktree.OpCreateChildren, NodeID: parentID, StatusCode: http.StatusNotFound, Code: "object_not_found"}
	}
	pos := len(s.children[parentID])
	if afterID != "" {
		pos = slices.Index(s.children[parentID], afterID)
		if pos < 0 {
			return nil, &blocktree.RemoteError{Op: blocktree.OpCreateChildren, NodeID: parentID, StatusCode: http.StatusBadRequest,
				Code: "validation_error", Message: fmt.Sprintf("block %s is not a child of %s", afterID, parentID)}
		}
		pos++
	}
	s.creates++

	var ids []string
	for _, n := range nodes {
		ids = append(ids, s.build(parentID, n))
	}
	s.children[parentID] = slices.Insert(s.children[parentID], pos, ids...)

	out := make([]blocktree.RawNode, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.raw(id))
	}
	return out, nil
}

// build stores n and its descendants and returns n's new id. The caller links
// the returned id into parentID's children.
func (s *Store) build(parentID string, n blocktree.NewNode) string {
	s.seq++
	id := fmt.Sprintf("new-%d", s.seq)
	raw := blocktree.RawNode{ID: id, Type: n.Type, Runs: n.Runs}
	if n.Type == blocktree.TypeToDo {
		checked := n.Checked
		raw.Checked = &checked
	}
	s.nodes[id] = raw
	s.parent[id] = parentID
	for _, c := range n.Children {
		s.children[id] = append(s.children[id], s.build(id, c))
	}
	return id
}

func (s *Store) DeleteNode(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, id)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.nodes[id]; !ok || s.deleted[id] {
		return &blocktree.RemoteError{Op: blocktree.OpDeleteNode, NodeID: id, StatusCode: http.StatusNotFound, Code: "object_not_found", Gone: true}
	}
	s.deleted[id] = true
	p := s.parent[id]
	s.children[p] = slices.DeleteFunc(s.children[p], func(c string) bool { return c == id })
	return nil
}

// Children returns the current children of id.
func (s *Store) Children(id string) []blocktree.RawNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []blocktree.RawNode
	for _, cid := range s.children[id] {
		out = append(out, s.raw(cid))
	}
	return out
}

// Texts returns the plain text of id's children in order.
func (s *Store) Texts(id string) []string {
	var out []string
	for _, c := range s.Children(id) {
		out = append(out, c.Text())
	}
	return out
}

func (s *Store) Deleted(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleted[id]
}

// Exists reports whether id is stored and not deleted.
func (s *Store) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.nodes[id]
	return ok && !s.deleted[id]
}

func (s *Store) Fetches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.fetches)
}

func (s *Store) Creates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates
}

func (s *Store) Deletes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.deletes)
}

// Fixture builds the page used across tests:
//
//	TO-DO LIST (heading_2)
//	  columns: [Job Search: apply-1, apply-2 (with note)] [Home (toggle): empty | Admin: taxes]
//	This Week (heading_2)
//	  intro paragraph
//	  columns: [Monday: mon-1 | Tuesday] [Wednesday: wed-1, wed-2 (done)]
//	Notes (heading_2)
func Fixture() *Store {
	s := New("page")
	s.Add("page",
		Heading2("h-todo", "TO-DO LIST"),
		ColumnList("cl-todo"),
		Heading2("h-week", "This Week"),
		Paragraph("week-intro", "Plan it out"),
		ColumnList("cl-week"),
		Heading2("h-notes", "Notes"),
		Paragraph("notes-1", "Stray paragraph"),
	)
	s.Add("cl-todo", Column("col-a"), Column("col-b"))
	s.Add("col-a", Heading3("cat-job", "Job Search"))
	s.Add("cat-job", ToDo("apply-1", "Apply to Acme", false), ToDo("apply-2", "Apply to Globex", false))
	s.Add("apply-2", Paragraph("apply-2-note", "referral from Sam"))
	s.Add("col-b", Toggle("cat-home", "Home"), Heading3("cat-admin", "Admin"))
	s.Add("cat-admin", ToDo("taxes", "File taxes", false))

	s.Add("cl-week", Column("col-mon"), Column("col-wed"))
	s.Add("col-mon",
		Paragraph("day-mon", "Monday"),
		ToDo("mon-1", "Standup", false),
		Paragraph("day-tue", "Tuesday"),
	)
	s.Add("col-wed",
		Paragraph("day-wed", "Wednesday"),
		ToDo("wed-1", "Interview", false),
		ToDo("wed-2", "Send thanks", true),
	)
	return s
}
