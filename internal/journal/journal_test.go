package journal

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/dgallion1/blockboard/internal/board"
	"github.com/dgallion1/blockboard/internal/board/boardtest"
	"github.com/dgallion1/blockboard/internal/blocktree"
)

func openTest(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "moves.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func record(t *testing.T, j *Journal, rec board.MoveRecord, states ...board.MoveState) {
	t.Helper()
	for _, s := range states {
		rec.State = s
		if s == board.MoveInserted {
			rec.NewNodeID = "new-" + rec.ID
		}
		if err := j.Record(context.Background(), rec); err != nil {
			t.Fatalf("record %s %s: %v", rec.ID, s, err)
		}
	}
}

func TestRecord_UpsertsLatestState(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()
	rec := board.MoveRecord{
		ID:          "01J0000000000000000000000A",
		SourceID:    "src",
		Text:        "File taxes",
		Destination: board.Destination{Kind: board.DestDay, Name: "Monday"},
	}
	record(t, j, rec, board.MoveStarted, board.MoveInserted, board.MoveCompleted)

	got, err := j.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != board.MoveCompleted || got.NewNodeID != "new-"+rec.ID {
		t.Errorf("unexpected record %+v", got)
	}
	if got.Destination.Kind != board.DestDay || got.Destination.Name != "Monday" || got.Text != "File taxes" {
		t.Errorf("destination not round-tripped: %+v", got)
	}

	hist, err := j.History(ctx, rec.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	want := []board.MoveState{board.MoveStarted, board.MoveInserted, board.MoveCompleted}
	if !slices.Equal(hist, want) {
		t.Errorf("expected %v, got %v", want, hist)
	}
}

func TestRecord_KeepsNewNodeID(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()
	rec := board.MoveRecord{ID: "m1", SourceID: "src"}
	record(t, j, rec, board.MoveStarted, board.MoveInserted)

	rec.State = board.MoveFailedDelete
	rec.Detail = "status 502"
	if err := j.Record(ctx, rec); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, _ := j.Get(ctx, "m1")
	if got.NewNodeID != "new-m1" || got.Detail != "status 502" {
		t.Errorf("unexpected record %+v", got)
	}
}

func TestRecord_AssignsID(t *testing.T) {
	j := openTest(t)
	if err := j.Record(context.Background(), board.MoveRecord{SourceID: "src", State: board.MoveStarted}); err != nil {
		t.Fatalf("record: %v", err)
	}
	recs, err := j.List(context.Background(), "", 0)
	if err != nil || len(recs) != 1 || len(recs[0].ID) != 26 {
		t.Fatalf("expected one record with a ULID, got %+v, %v", recs, err)
	}
}

func TestRecord_RequiresSource(t *testing.T) {
	j := openTest(t)
	if err := j.Record(context.Background(), board.MoveRecord{ID: "m"}); err == nil {
		t.Error("expected error without source id")
	}
}

func TestPendingAndList(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()
	record(t, j, board.MoveRecord{ID: "a", SourceID: "s1"}, board.MoveStarted, board.MoveInserted, board.MoveCompleted)
	record(t, j, board.MoveRecord{ID: "b", SourceID: "s2"}, board.MoveStarted, board.MoveInserted, board.MoveFailedDelete)
	record(t, j, board.MoveRecord{ID: "c", SourceID: "s3"}, board.MoveStarted, board.MoveInserted)
	record(t, j, board.MoveRecord{ID: "d", SourceID: "s4"}, board.MoveStarted, board.MoveFailedInsert)
	record(t, j, board.MoveRecord{ID: "e", SourceID: "s5"}, board.MoveStarted)

	pending, err := j.Pending(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	var ids []string
	for _, r := range pending {
		ids = append(ids, r.ID)
	}
	if !slices.Equal(ids, []string{"b", "c"}) {
		t.Errorf("expected pending [b c], got %v", ids)
	}

	all, err := j.List(ctx, "", 3)
	if err != nil || len(all) != 3 || all[0].ID != "e" {
		t.Errorf("expected newest three, got %+v, %v", all, err)
	}
	failed, err := j.List(ctx, board.MoveFailedInsert, 10)
	if err != nil || len(failed) != 1 || failed[0].ID != "d" {
		t.Errorf("expected only d, got %+v, %v", failed, err)
	}
}

func TestGet_NotFound(t *testing.T) {
	j := openTest(t)
	if _, err := j.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestJournal_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moves.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	record(t, j, board.MoveRecord{ID: "m", SourceID: "s"}, board.MoveStarted, board.MoveInserted)
	j.Close()

	j, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()
	pending, err := j.Pending(context.Background())
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected pending move to survive reopen, got %+v, %v", pending, err)
	}
}

func TestJournal_WithBoard(t *testing.T) {
	j := openTest(t)
	s := boardtest.Fixture()
	s.FailDelete(boardtest.Failure(blocktree.OpDeleteNode, "taxes"))
	b := board.New(s, board.Options{PageID: "page", Journal: j})
	ctx := context.Background()

	_, err := b.MoveTask(ctx, "taxes", "File taxes", board.Destination{Name: "Monday"})
	var pm *board.PartialMoveError
	if !errors.As(err, &pm) {
		t.Fatalf("expected partial move, got %v", err)
	}
	got, err := j.Get(ctx, pm.MoveID)
	if err != nil || got.State != board.MoveFailedDelete || got.NewNodeID != pm.NewNodeID {
		t.Fatalf("unexpected journal entry %+v, %v", got, err)
	}

	s.FailDelete(nil)
	report, err := b.Reconcile(ctx)
	if err != nil || report.Resolved != 1 {
		t.Fatalf("unexpected reconcile %+v, %v", report, err)
	}
	hist, _ := j.History(ctx, pm.MoveID)
	want := []board.MoveState{board.MoveStarted, board.MoveInserted, board.MoveFailedDelete, board.MoveCompleted}
	if !slices.Equal(hist, want) {
		t.Errorf("expected %v, got %v", want, hist)
	}
}
