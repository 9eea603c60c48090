// Package assist exposes the board operations as MCP tools for chat
// assistants.
package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dgallion1/blockboard/internal/board"
	"github.com/dgallion1/blockboard/internal/richtext"
)

type Tools struct {
	board *board.Board
	log   *slog.Logger
}

func NewTools(b *board.Board, log *slog.Logger) *Tools {
	return &Tools{board: b, log: log.With("component", "assist")}
}

type noArgs struct{}

type categoryArgs struct {
	Category string `json:"category" jsonschema:"Category name or a case-insensitive part of it, e.g. 'job search'"`
	Text     string `json:"text" jsonschema:"Task text, stored exactly as given unless format says otherwise"`
	Format   string `json:"format,omitempty" jsonschema:"How to read text: plain (default), markdown or html"`
}

type dayArgs struct {
	Day    string `json:"day" jsonschema:"Weekday name, e.g. 'Monday' or 'tue'"`
	Text   string `json:"text" jsonschema:"Task text, stored exactly as given unless format says otherwise"`
	Format string `json:"format,omitempty" jsonschema:"How to read text: plain (default), markdown or html"`
}

func formatted(text, format string) ([]richtext.Run, error) {
	f, err := board.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return board.Runs(text, f)
}

type moveArgs struct {
	NodeID string `json:"node_id" jsonschema:"ID of the task block to move"`
	Text   string `json:"text" jsonschema:"Text of the task being moved, exactly as returned by get_board"`
	To     string `json:"to" jsonschema:"Destination day or category name"`
	Kind   string `json:"kind,omitempty" jsonschema:"Destination kind: day, category or auto (default)"`
}

type deleteArgs struct {
	NodeID string `json:"node_id" jsonschema:"ID of the task block to delete"`
}

type backlogArgs struct {
	Company string `json:"company" jsonschema:"Company name"`
	Role    string `json:"role" jsonschema:"Role title"`
	URL     string `json:"url,omitempty" jsonschema:"Job posting link"`
	Notes   string `json:"notes,omitempty" jsonschema:"Free-form notes, stored under the entry"`
}

type applicationArgs struct {
	Company string `json:"company" jsonschema:"Company applied to"`
	Role    string `json:"role" jsonschema:"Role title"`
	Date    string `json:"date,omitempty" jsonschema:"Submission date as YYYY-MM-DD, defaults to today"`
	Status  string `json:"status,omitempty" jsonschema:"Application status, defaults to Applied"`
	Notes   string `json:"notes,omitempty" jsonschema:"Free-form notes"`
}

type contactArgs struct {
	Name        string `json:"name" jsonschema:"Contact's full name"`
	Company     string `json:"company,omitempty" jsonschema:"Company or organization"`
	Role        string `json:"role,omitempty" jsonschema:"Contact's role"`
	Status      string `json:"status,omitempty" jsonschema:"Outreach status, defaults to Not started"`
	LastContact string `json:"last_contact,omitempty" jsonschema:"Date of the last contact as YYYY-MM-DD"`
	Notes       string `json:"notes,omitempty" jsonschema:"Free-form notes"`
}

// NewServer returns an MCP server with every board tool registered.
func NewServer(t *Tools, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "blockboard",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_board",
		Description: "Read the to-do board. Returns categories in page order, each with its tasks and nested notes as JSON.",
	}, t.GetBoard)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_weekly_plan",
		Description: "Read the weekly plan. Returns days in page order with their tasks as JSON.",
	}, t.GetWeeklyPlan)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_task_to_category",
		Description: "Append an unchecked task to a board category.",
	}, t.AddTaskToCategory)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_task_to_day",
		Description: "Add an unchecked task at the end of a day in the weekly plan.",
	}, t.AddTaskToDay)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_task",
		Description: "Move a task to a day or category. The copy is created before the original is deleted; a failed delete leaves both and is reported.",
	}, t.MoveTask)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_task",
		Description: "Delete a task. Deleting an already deleted task succeeds.",
	}, t.DeleteTask)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_backlog",
		Description: "List the job backlog entries.",
	}, t.GetBacklog)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_backlog",
		Description: "Add a job to the backlog as 'Company - Role (link)' with optional notes.",
	}, t.AddToBacklog)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_applications",
		Description: "List the job applications log with company, role, submission date, status and notes.",
	}, t.GetApplications)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_application",
		Description: "Log a submitted job application. Date defaults to today and status to Applied.",
	}, t.AddApplication)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_contacts",
		Description: "List networking contacts with company, role, status and last contact date.",
	}, t.GetContacts)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_contact",
		Description: "Add a networking contact. Status defaults to Not started.",
	}, t.AddContact)

	return server
}

// Serve runs the tool server over stdin/stdout until ctx is done or the
// client disconnects.
func Serve(ctx context.Context, t *Tools, version string) error {
	t.log.Debug("starting MCP server")
	return NewServer(t, version).Run(ctx, &mcp.StdioTransport{})
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}
	return textResult(string(out))
}

func textResult(s string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: s},
		},
	}, nil, nil
}

// Errors returned from handlers reach the client as tool results with
// IsError set, so the assistant can read them and retry.

func (t *Tools) GetBoard(ctx context.Context, req *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
	tb, err := t.board.GetBoard(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(tb)
}

func (t *Tools) GetWeeklyPlan(ctx context.Context, req *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
	wp, err := t.board.GetWeeklyPlan(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(wp)
}

func (t *Tools) AddTaskToCategory(ctx context.Context, req *mcp.CallToolRequest, args categoryArgs) (*mcp.CallToolResult, any, error) {
	t.log.Debug("add_task_to_category called", "category", args.Category)
	runs, err := formatted(args.Text, args.Format)
	if err != nil {
		return nil, nil, err
	}
	n, err := t.board.AddRichTaskToCategory(ctx, args.Category, runs)
	if err != nil {
		return nil, nil, err
	}
	return textResult(fmt.Sprintf("Added %q to %s (id %s).", n.Text, args.Category, n.ID))
}

func (t *Tools) AddTaskToDay(ctx context.Context, req *mcp.CallToolRequest, args dayArgs) (*mcp.CallToolResult, any, error) {
	t.log.Debug("add_task_to_day called", "day", args.Day)
	runs, err := formatted(args.Text, args.Format)
	if err != nil {
		return nil, nil, err
	}
	n, err := t.board.AddRichTaskToDay(ctx, args.Day, runs)
	if err != nil {
		return nil, nil, err
	}
	return textResult(fmt.Sprintf("Added %q to %s (id %s).", n.Text, args.Day, n.ID))
}

func (t *Tools) MoveTask(ctx context.Context, req *mcp.CallToolRequest, args moveArgs) (*mcp.CallToolResult, any, error) {
	t.log.Debug("move_task called", "node_id", args.NodeID, "to", args.To)
	kind, err := board.ParseDestKind(args.Kind)
	if err != nil {
		return nil, nil, err
	}
	res, err := t.board.MoveTask(ctx, args.NodeID, args.Text, board.Destination{Kind: kind, Name: args.To})
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(res)
}

func (t *Tools) DeleteTask(ctx context.Context, req *mcp.CallToolRequest, args deleteArgs) (*mcp.CallToolResult, any, error) {
	if err := t.board.DeleteTask(ctx, args.NodeID); err != nil {
		return nil, nil, err
	}
	return textResult("Deleted " + args.NodeID + ".")
}

func (t *Tools) GetBacklog(ctx context.Context, req *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
	items, err := t.board.GetBacklog(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(items)
}

func (t *Tools) AddToBacklog(ctx context.Context, req *mcp.CallToolRequest, args backlogArgs) (*mcp.CallToolResult, any, error) {
	item, err := t.board.AddToBacklog(ctx, board.BacklogEntry{
		Company: args.Company,
		Role:    args.Role,
		URL:     args.URL,
		Notes:   args.Notes,
	})
	if err != nil {
		return nil, nil, err
	}
	return textResult(fmt.Sprintf("Added %q to the backlog (id %s).", item.Text, item.ID))
}

func (t *Tools) GetApplications(ctx context.Context, req *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
	apps, err := t.board.GetApplications(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(apps)
}

func (t *Tools) AddApplication(ctx context.Context, req *mcp.CallToolRequest, args applicationArgs) (*mcp.CallToolResult, any, error) {
	a, err := t.board.AddApplication(ctx, board.Application{
		Company: args.Company,
		Role:    args.Role,
		Date:    args.Date,
		Status:  args.Status,
		Notes:   args.Notes,
	})
	if err != nil {
		return nil, nil, err
	}
	return textResult(fmt.Sprintf("Logged %s - %s on %s as %s (id %s).", a.Company, a.Role, a.Date, a.Status, a.ID))
}

func (t *Tools) GetContacts(ctx context.Context, req *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
	contacts, err := t.board.GetContacts(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(contacts)
}

func (t *Tools) AddContact(ctx context.Context, req *mcp.CallToolRequest, args contactArgs) (*mcp.CallToolResult, any, error) {
	c, err := t.board.AddContact(ctx, board.Contact{
		Name:        args.Name,
		Company:     args.Company,
		Role:        args.Role,
		Status:      args.Status,
		LastContact: args.LastContact,
		Notes:       args.Notes,
	})
	if err != nil {
		return nil, nil, err
	}
	return textResult(fmt.Sprintf("Added contact %s as %s (id %s).", c.Name, c.Status, c.ID))
}
