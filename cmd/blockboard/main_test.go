package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/blockboard/internal/board"
)

func setEnv(t *testing.T, logFile string) {
	t.Helper()
	t.Setenv("BLOCKBOARD_CONFIG", "")
	t.Setenv("NOTION_API_KEY", "secret")
	t.Setenv("NOTION_MAIN_PAGE_ID", "page")
	t.Setenv("JOURNAL_PATH", "")
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("LOG_FILE", logFile)
}

func TestWithBoard_ClosesLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "blockboard.log")
	setEnv(t, logFile)

	g := &Globals{out: &bytes.Buffer{}}
	err := g.withBoard(func(ctx context.Context, b *board.Board) error {
		if g.closeLog == nil {
			t.Error("expected an open log closer while running")
		}
		g.log.Info("board opened")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.closeLog != nil {
		t.Error("expected the log closer to have run")
	}
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "board opened") {
		t.Errorf("expected log line in file, got %q", data)
	}
}

func TestWithBoard_ClosesLogFileWhenConfigInvalid(t *testing.T) {
	setEnv(t, filepath.Join(t.TempDir(), "blockboard.log"))
	t.Setenv("NOTION_MAIN_PAGE_ID", "")

	g := &Globals{out: &bytes.Buffer{}}
	called := false
	err := g.withBoard(func(ctx context.Context, b *board.Board) error {
		called = true
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "NOTION_MAIN_PAGE_ID") {
		t.Fatalf("expected missing page id error, got %v", err)
	}
	if called {
		t.Error("expected fn not to run")
	}
	if g.closeLog != nil {
		t.Error("expected the log closer to have run")
	}
}

func TestClose_RunsOnce(t *testing.T) {
	calls := 0
	g := &Globals{closeLog: func() error { calls++; return errors.New("already closed") }}
	g.close()
	g.close()
	if calls != 1 {
		t.Errorf("expected one close, got %d", calls)
	}
}

func TestRenderApplications(t *testing.T) {
	var buf bytes.Buffer
	renderApplications(&buf, nil)
	if buf.String() != "no applications\n" {
		t.Errorf("unexpected empty output %q", buf.String())
	}

	buf.Reset()
	renderApplications(&buf, []board.Application{{Company: "Acme", Role: "SRE", Date: "2024-05-01", Status: "Applied"}})
	out := buf.String()
	if !strings.HasPrefix(out, "DATE") || !strings.Contains(out, "Acme") || !strings.Contains(out, "Applied") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRenderMoves(t *testing.T) {
	var buf bytes.Buffer
	renderMoves(&buf, []board.MoveRecord{{
		ID:        "m1",
		State:     board.MoveFailedDelete,
		SourceID:  "taxes",
		NewNodeID: "new-1",
		UpdatedAt: time.Date(2024, 5, 6, 9, 30, 0, 0, time.UTC),
	}})
	out := buf.String()
	for _, want := range []string{"m1", string(board.MoveFailedDelete), "taxes", "new-1", "2024-05-06 09:30"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}
