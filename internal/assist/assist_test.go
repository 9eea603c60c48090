package assist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dgallion1/blockboard/internal/board"
	"github.com/dgallion1/blockboard/internal/board/boardtest"
)

func newTools(t *testing.T) (*Tools, *boardtest.Store) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := boardtest.Fixture()
	s.Add("backlog-page", boardtest.Bullet("b1", "Initech - SRE"))
	b := board.New(s, board.Options{PageID: "page", BacklogPageID: "backlog-page", Log: log})
	return NewTools(b, log), s
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) != 1 {
		t.Fatalf("expected one content item, got %+v", res)
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return tc.Text
}

func TestAddTaskToDay(t *testing.T) {
	tools, s := newTools(t)
	res, _, err := tools.AddTaskToDay(context.Background(), nil, dayArgs{Day: "Wednesday", Text: "Write notes"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(resultText(t, res), `"Write notes"`) {
		t.Errorf("unexpected text %q", resultText(t, res))
	}
	want := []string{"Wednesday", "Interview", "Send thanks", "Write notes"}
	if got := s.Texts("col-wed"); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestAddTaskToCategory_Format(t *testing.T) {
	tools, s := newTools(t)
	ctx := context.Background()
	if _, _, err := tools.AddTaskToCategory(ctx, nil, categoryArgs{Category: "admin", Text: "Rename to __init__"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := tools.AddTaskToCategory(ctx, nil, categoryArgs{Category: "admin", Text: "Pay **rent**", Format: "markdown"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"File taxes", "Rename to __init__", "Pay rent"}
	if got := s.Texts("cat-admin"); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	_, _, err := tools.AddTaskToCategory(ctx, nil, categoryArgs{Category: "admin", Text: "x", Format: "rtf"})
	if !errors.Is(err, board.ErrInvalid) {
		t.Errorf("expected ErrInvalid for unknown format, got %v", err)
	}
}

func TestAddTaskToCategory_NotFound(t *testing.T) {
	tools, _ := newTools(t)
	_, _, err := tools.AddTaskToCategory(context.Background(), nil, categoryArgs{Category: "Garden", Text: "Weed"})
	if !errors.Is(err, board.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "Job Search") {
		t.Errorf("expected available categories in message, got %q", err)
	}
}

func TestMoveTask_BadKind(t *testing.T) {
	tools, s := newTools(t)
	_, _, err := tools.MoveTask(context.Background(), nil, moveArgs{NodeID: "taxes", Text: "File taxes", To: "monday", Kind: "week"})
	if !errors.Is(err, board.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if s.Creates() != 0 {
		t.Error("expected no writes")
	}
}

func TestGetBacklog(t *testing.T) {
	tools, _ := newTools(t)
	res, _, err := tools.GetBacklog(context.Background(), nil, noArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(resultText(t, res), "Initech - SRE") {
		t.Errorf("unexpected backlog %q", resultText(t, res))
	}
}

func TestServer_OverInMemoryTransport(t *testing.T) {
	tools, s := newTools(t)
	ctx := context.Background()

	cTransport, sTransport := mcp.NewInMemoryTransports()
	ss, err := NewServer(tools, "test").Connect(ctx, sTransport, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer ss.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, cTransport, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer cs.Close()

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "move_task",
		Arguments: map[string]any{"node_id": "taxes", "text": "File taxes", "to": "tue"},
	})
	if err != nil {
		t.Fatalf("call move_task: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error %q", resultText(t, res))
	}
	if s.Exists("taxes") {
		t.Error("expected source deleted")
	}

	res, err = cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "add_task_to_category",
		Arguments: map[string]any{"category": "nowhere", "text": "x"},
	})
	if err != nil {
		t.Fatalf("expected tool-level error, got protocol error %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "not found") {
		t.Errorf("expected not found tool error, got %+v", res)
	}
}

func newRecordTools(t *testing.T) (*Tools, *boardtest.Databases) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dbs := boardtest.NewDatabases("apps", "contacts")
	b := board.New(boardtest.Fixture(), board.Options{
		PageID:           "page",
		Log:              log,
		Databases:        dbs,
		ApplicationsDBID: "apps",
		ContactsDBID:     "contacts",
		Now:              func() time.Time { return time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC) },
	})
	return NewTools(b, log), dbs
}

func TestApplications(t *testing.T) {
	tools, dbs := newRecordTools(t)
	ctx := context.Background()

	res, _, err := tools.AddApplication(ctx, nil, applicationArgs{Company: "Acme", Role: "SRE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resultText(t, res); !strings.Contains(got, "2024-05-06") || !strings.Contains(got, "Applied") {
		t.Errorf("unexpected text %q", got)
	}
	if len(dbs.Rows("apps")) != 1 {
		t.Fatalf("expected one stored application")
	}

	res, _, err = tools.GetApplications(ctx, nil, noArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resultText(t, res); !strings.Contains(got, `"company": "Acme"`) {
		t.Errorf("unexpected applications %q", got)
	}

	if _, _, err := tools.AddApplication(ctx, nil, applicationArgs{Company: "Acme"}); !errors.Is(err, board.ErrInvalid) {
		t.Errorf("expected ErrInvalid without a role, got %v", err)
	}
}

func TestContacts(t *testing.T) {
	tools, dbs := newRecordTools(t)
	ctx := context.Background()

	res, _, err := tools.AddContact(ctx, nil, contactArgs{Name: "Sam Lee", Company: "Initech", LastContact: "2024-05-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resultText(t, res); !strings.Contains(got, "Not started") {
		t.Errorf("unexpected text %q", got)
	}
	if row := dbs.Rows("contacts")[0]; row.Date("Last Contact") != "2024-05-01" {
		t.Errorf("unexpected stored contact %+v", row.Properties)
	}

	res, _, err = tools.GetContacts(ctx, nil, noArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resultText(t, res); !strings.Contains(got, `"name": "Sam Lee"`) || !strings.Contains(got, `"company": "Initech"`) {
		t.Errorf("unexpected contacts %q", got)
	}
}
