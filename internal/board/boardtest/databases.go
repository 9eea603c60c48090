package boardtest

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/dgallion1/blockboard/internal/blocktree"
	"github.com/dgallion1/blockboard/internal/notion"
)

// Databases is an in-memory set of databases keyed by id. Querying an unknown
// database fails like the remote store does.
type Databases struct {
	mu      sync.Mutex
	rows    map[string][]notion.Page
	seq     int
	failErr error
	queries []string
}

// NewDatabases returns a store holding the given empty databases.
func NewDatabases(ids ...string) *Databases {
	d := &Databases{rows: map[string][]notion.Page{}}
	for _, id := range ids {
		d.rows[id] = nil
	}
	return d
}

// AddRow appends a row with the given properties to databaseID.
func (d *Databases) AddRow(databaseID, id string, props notion.Properties) *Databases {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rows[databaseID] = append(d.rows[databaseID], notion.Page{ID: id, Properties: props})
	return d
}

// Fail makes every call return err. A nil err restores calls.
func (d *Databases) Fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failErr = err
}

func (d *Databases) QueryDatabase(ctx context.Context, databaseID string) ([]notion.Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queries = append(d.queries, databaseID)
	if d.failErr != nil {
		return nil, d.failErr
	}
	rows, ok := d.rows[databaseID]
	if !ok {
		return nil, &blocktree.RemoteError{Op: blocktree.OpQueryDatabase, NodeID: databaseID, StatusCode: http.StatusNotFound, Code: "object_not_found"}
	}
	return slices.Clone(rows), nil
}

func (d *Databases) CreatePage(ctx context.Context, databaseID string, props notion.Properties) (notion.Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failErr != nil {
		return notion.Page{}, d.failErr
	}
	if _, ok := d.rows[databaseID]; !ok {
		return notion.Page{}, &blocktree.RemoteError{Op: blocktree.OpCreatePage, NodeID: databaseID, StatusCode: http.StatusNotFound, Code: "object_not_found"}
	}
	d.seq++
	p := notion.Page{ID: fmt.Sprintf("row-%d", d.seq), Properties: props}
	d.rows[databaseID] = append(d.rows[databaseID], p)
	return p, nil
}

// Rows returns the rows of databaseID in insertion order.
func (d *Databases) Rows(databaseID string) []notion.Page {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.rows[databaseID])
}

func (d *Databases) Queries() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.queries)
}
