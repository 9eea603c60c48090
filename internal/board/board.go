package board

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgallion1/blockboard/internal/blocktree"
)

// Store is the block-level CRUD surface of the remote document store.
type Store interface {
	blocktree.Fetcher
	CreateChildren(ctx context.Context, parentID string, nodes []blocktree.NewNode, afterID string) ([]blocktree.RawNode, error)
	DeleteNode(ctx context.Context, id string) error
}

// Options configures a Board.
type Options struct {
	PageID        string
	BacklogPageID string

	// Case-insensitive substrings identifying the section headings.
	BoardHeadings  []string
	WeeklyHeadings []string

	MaxConcurrentFetch int
	Journal            MoveRecorder
	Log                *slog.Logger

	// Databases serves the applications log and contacts. Either id may be
	// empty when that database is not used.
	Databases        DatabaseStore
	ApplicationsDBID string
	ContactsDBID     string

	// Now defaults to time.Now.
	Now func() time.Time
}

var (
	DefaultBoardHeadings  = []string{"to-do", "todo"}
	DefaultWeeklyHeadings = []string{"week"}
)

// Board reads and edits the task page.
type Board struct {
	store   Store
	parser  *blocktree.Parser
	log     *slog.Logger
	journal MoveRecorder

	pageID        string
	backlogPageID string
	boardMatch    func(string) bool
	weeklyMatch   func(string) bool
	boardTerms    []string
	weeklyTerms   []string
	maxFetch      int

	dbs            DatabaseStore
	applicationsDB string
	contactsDB     string
	now            func() time.Time
}

func New(store Store, opts Options) *Board {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	if len(opts.BoardHeadings) == 0 {
		opts.BoardHeadings = DefaultBoardHeadings
	}
	if len(opts.WeeklyHeadings) == 0 {
		opts.WeeklyHeadings = DefaultWeeklyHeadings
	}
	if opts.MaxConcurrentFetch <= 0 {
		opts.MaxConcurrentFetch = 4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Board{
		store:         store,
		parser:        blocktree.NewParser(store, log),
		log:           log.With("component", "board"),
		journal:       opts.Journal,
		pageID:        opts.PageID,
		backlogPageID: opts.BacklogPageID,
		boardMatch:    HeadingContains(opts.BoardHeadings...),
		weeklyMatch:   HeadingContains(opts.WeeklyHeadings...),
		boardTerms:    opts.BoardHeadings,
		weeklyTerms:   opts.WeeklyHeadings,
		maxFetch:      opts.MaxConcurrentFetch,

		dbs:            opts.Databases,
		applicationsDB: opts.ApplicationsDBID,
		contactsDB:     opts.ContactsDBID,
		now:            opts.Now,
	}
}

// DeleteTask deletes a block. Deleting a block that is already gone succeeds.
func (b *Board) DeleteTask(ctx context.Context, id string) error {
	if id == "" {
		return invalidf("node id is required")
	}
	err := b.store.DeleteNode(ctx, id)
	if err == nil {
		b.log.Info("deleted node", "node_id", id)
		return nil
	}
	if isGone(err) {
		b.log.Debug("node already deleted", "node_id", id)
		return nil
	}
	return err
}

func (b *Board) topLevel(ctx context.Context) ([]blocktree.RawNode, error) {
	if b.pageID == "" {
		return nil, invalidf("page id is not configured")
	}
	return b.store.FetchChildren(ctx, b.pageID)
}

func isGone(err error) bool {
	return errors.Is(err, blocktree.ErrNodeGone)
}
