package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/dgallion1/blockboard/internal/app"
	"github.com/dgallion1/blockboard/internal/assist"
	"github.com/dgallion1/blockboard/internal/board"
	"github.com/dgallion1/blockboard/internal/config"
	"github.com/dgallion1/blockboard/internal/logging"
	"github.com/dgallion1/blockboard/internal/richtext"
)

var version = "dev"

// Globals are the flags shared by every command.
type Globals struct {
	JSON   bool   `help:"Print results as JSON."`
	Debug  bool   `env:"BLOCKBOARD_DEBUG" help:"Enable debug logging."`
	Config string `type:"path" env:"BLOCKBOARD_CONFIG" help:"YAML config file."`

	out      io.Writer
	log      *slog.Logger
	closeLog func() error
}

// CLI is the top-level command structure for blockboard.
type CLI struct {
	Globals

	Board        BoardCmd        `cmd:"" help:"Show the to-do board."`
	Week         WeekCmd         `cmd:"" help:"Show the weekly plan."`
	Add          AddCmd          `cmd:"" help:"Add a task to a board category."`
	AddDay       AddDayCmd       `cmd:"" name:"add-day" help:"Add a task to a day of the weekly plan."`
	Move         MoveCmd         `cmd:"" help:"Move a task to a day or category."`
	Delete       DeleteCmd       `cmd:"" help:"Delete a task."`
	Backlog      BacklogCmd      `cmd:"" help:"Read or extend the job backlog."`
	Applications ApplicationsCmd `cmd:"" help:"Read or extend the applications log."`
	Contacts     ContactsCmd     `cmd:"" help:"Read or extend the networking contacts."`
	Moves        MovesCmd        `cmd:"" help:"List journaled moves."`
	Reconcile    ReconcileCmd    `cmd:"" help:"Finish moves whose source delete failed."`
	MCP          MCPCmd          `cmd:"" name:"mcp" help:"Serve the board as MCP tools over stdio."`
}

// open loads configuration and wires the board. Callers close the returned
// app.
func (g *Globals) open() (*app.App, error) {
	if g.Config != "" {
		os.Setenv(config.FileEnv, g.Config)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if g.Debug {
		cfg.LogLevel = "debug"
	}
	log, closeLog, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, err
	}
	g.log = log
	g.closeLog = closeLog
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.New(cfg, log)
}

func (g *Globals) close() {
	if g.closeLog != nil {
		g.closeLog()
		g.closeLog = nil
	}
}

// withBoard runs fn against a wired board, cancelled on SIGINT or SIGTERM.
func (g *Globals) withBoard(fn func(ctx context.Context, b *board.Board) error) error {
	defer g.close()
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx, a.Board)
}

type BoardCmd struct{}

func (cmd *BoardCmd) Run(g *Globals) error {
	return g.withBoard(func(ctx context.Context, b *board.Board) error {
		tb, err := b.GetBoard(ctx)
		if err != nil {
			return err
		}
		return g.print(tb, func(w io.Writer) { renderBoard(w, tb) })
	})
}

type WeekCmd struct{}

func (cmd *WeekCmd) Run(g *Globals) error {
	return g.withBoard(func(ctx context.Context, b *board.Board) error {
		wp, err := b.GetWeeklyPlan(ctx)
		if err != nil {
			return err
		}
		return g.print(wp, func(w io.Writer) { renderWeek(w, wp) })
	})
}

type AddCmd struct {
	Category string   `arg:"" help:"Category name, matched case-insensitively."`
	Text     []string `arg:"" help:"Task text, stored as typed."`
	Format   string   `default:"plain" enum:"plain,markdown,html" help:"How to read the text (${enum})."`
}

func (cmd *AddCmd) Run(g *Globals) error {
	runs, err := taskRuns(cmd.Text, cmd.Format)
	if err != nil {
		return err
	}
	return g.withBoard(func(ctx context.Context, b *board.Board) error {
		n, err := b.AddRichTaskToCategory(ctx, cmd.Category, runs)
		if err != nil {
			return err
		}
		return g.print(n, func(w io.Writer) { fmt.Fprintf(w, "added %s %q\n", n.ID, n.Text) })
	})
}

type AddDayCmd struct {
	Day    string   `arg:"" help:"Day name, e.g. monday or tue."`
	Text   []string `arg:"" help:"Task text, stored as typed."`
	Format string   `default:"plain" enum:"plain,markdown,html" help:"How to read the text (${enum})."`
}

func (cmd *AddDayCmd) Run(g *Globals) error {
	runs, err := taskRuns(cmd.Text, cmd.Format)
	if err != nil {
		return err
	}
	return g.withBoard(func(ctx context.Context, b *board.Board) error {
		n, err := b.AddRichTaskToDay(ctx, cmd.Day, runs)
		if err != nil {
			return err
		}
		return g.print(n, func(w io.Writer) { fmt.Fprintf(w, "added %s %q\n", n.ID, n.Text) })
	})
}

type MoveCmd struct {
	NodeID string `arg:"" name:"node-id" help:"Task block to move."`
	To     string `required:"" help:"Destination day or category."`
	Text   string `required:"" help:"Text of the task being moved."`
	Kind   string `default:"auto" enum:"auto,day,category" help:"Destination kind."`
}

func (cmd *MoveCmd) Run(g *Globals) error {
	kind, err := board.ParseDestKind(cmd.Kind)
	if err != nil {
		return err
	}
	return g.withBoard(func(ctx context.Context, b *board.Board) error {
		res, err := b.MoveTask(ctx, cmd.NodeID, cmd.Text, board.Destination{Kind: kind, Name: cmd.To})
		if err != nil {
			return err
		}
		return g.print(res, func(w io.Writer) {
			fmt.Fprintf(w, "moved %s -> %s (move %s)\n", cmd.NodeID, res.NewNodeID, res.MoveID)
		})
	})
}

type DeleteCmd struct {
	NodeID string `arg:"" name:"node-id" help:"Task block to delete."`
}

func (cmd *DeleteCmd) Run(g *Globals) error {
	return g.withBoard(func(ctx context.Context, b *board.Board) error {
		if err := b.DeleteTask(ctx, cmd.NodeID); err != nil {
			return err
		}
		return g.print(map[string]string{"status": "deleted", "node_id": cmd.NodeID}, func(w io.Writer) {
			fmt.Fprintf(w, "deleted %s\n", cmd.NodeID)
		})
	})
}

type BacklogCmd struct {
	List BacklogListCmd `cmd:"" default:"1" help:"List backlog entries."`
	Add  BacklogAddCmd  `cmd:"" help:"Add a backlog entry."`
}

type BacklogListCmd struct{}

func (cmd *BacklogListCmd) Run(g *Globals) error {
	return g.withBoard(func(ctx context.Context, b *board.Board) error {
		items, err := b.GetBacklog(ctx)
		if err != nil {
			return err
		}
		return g.print(items, func(w io.Writer) { renderBacklog(w, items) })
	})
}

type BacklogAddCmd struct {
	Company string `required:"" help:"Company name."`
	Role    string `required:"" help:"Role title."`
	URL     string `help:"Job posting link."`
	Notes   string `help:"Notes stored under the entry."`
}

func (cmd *BacklogAddCmd) Run(g *Globals) error {
	return g.withBoard(func(ctx context.Context, b *board.Board) error {
		item, err := b.AddToBacklog(ctx, board.BacklogEntry{Company: cmd.Company, Role: cmd.Role, URL: cmd.URL, Notes: cmd.Notes})
		if err != nil {
			return err
		}
		return g.print(item, func(w io.Writer) { fmt.Fprintf(w, "added %s %q\n", item.ID, item.Text) })
	})
}

type ApplicationsCmd struct {
	List ApplicationsListCmd `cmd:"" default:"1" help:"List logged applications."`
	Add  ApplicationsAddCmd  `cmd:"" help:"Log a submitted application."`
}

type ApplicationsListCmd struct{}

func (cmd *ApplicationsListCmd) Run(g *Globals) error {
	return g.withBoard(func(ctx context.Context, b *board.Board) error {
		apps, err := b.GetApplications(ctx)
		if err != nil {
			return err
		}
		return g.print(apps, func(w io.Writer) { renderApplications(w, apps) })
	})
}

type ApplicationsAddCmd struct {
	Company string `required:"" help:"Company applied to."`
	Role    string `required:"" help:"Role title."`
	Date    string `help:"Submission date as YYYY-MM-DD (default today)."`
	Status  string `help:"Application status (default Applied)."`
	Notes   string `help:"Free-form notes."`
}

func (cmd *ApplicationsAddCmd) Run(g *Globals) error {
	return g.withBoard(func(ctx context.Context, b *board.Board) error {
		a, err := b.AddApplication(ctx, board.Application{
			Company: cmd.Company, Role: cmd.Role, Date: cmd.Date, Status: cmd.Status, Notes: cmd.Notes,
		})
		if err != nil {
			return err
		}
		return g.print(a, func(w io.Writer) { fmt.Fprintf(w, "logged %s %s - %s (%s)\n", a.ID, a.Company, a.Role, a.Status) })
	})
}

type ContactsCmd struct {
	List ContactsListCmd `cmd:"" default:"1" help:"List contacts."`
	Add  ContactsAddCmd  `cmd:"" help:"Add a contact."`
}

type ContactsListCmd struct{}

func (cmd *ContactsListCmd) Run(g *Globals) error {
	return g.withBoard(func(ctx context.Context, b *board.Board) error {
		contacts, err := b.GetContacts(ctx)
		if err != nil {
			return err
		}
		return g.print(contacts, func(w io.Writer) { renderContacts(w, contacts) })
	})
}

type ContactsAddCmd struct {
	Name        string `required:"" help:"Contact's full name."`
	Company     string `help:"Company or organization."`
	Role        string `help:"Contact's role."`
	Status      string `help:"Outreach status (default Not started)."`
	LastContact string `name:"last-contact" help:"Date of the last contact as YYYY-MM-DD."`
	Notes       string `help:"Free-form notes."`
}

func (cmd *ContactsAddCmd) Run(g *Globals) error {
	return g.withBoard(func(ctx context.Context, b *board.Board) error {
		c, err := b.AddContact(ctx, board.Contact{
			Name: cmd.Name, Company: cmd.Company, Role: cmd.Role,
			Status: cmd.Status, LastContact: cmd.LastContact, Notes: cmd.Notes,
		})
		if err != nil {
			return err
		}
		return g.print(c, func(w io.Writer) { fmt.Fprintf(w, "added %s %s (%s)\n", c.ID, c.Name, c.Status) })
	})
}

type MovesCmd struct {
	State string `help:"Only moves in this state (started, inserted, completed, failed_insert, failed_delete)."`
	Limit int    `default:"20" help:"Maximum number of moves."`
}

func (cmd *MovesCmd) Run(g *Globals) error {
	return g.withBoard(func(ctx context.Context, b *board.Board) error {
		moves, err := b.Moves(ctx, board.MoveState(cmd.State), cmd.Limit)
		if err != nil {
			return err
		}
		return g.print(moves, func(w io.Writer) { renderMoves(w, moves) })
	})
}

type ReconcileCmd struct{}

func (cmd *ReconcileCmd) Run(g *Globals) error {
	return g.withBoard(func(ctx context.Context, b *board.Board) error {
		report, err := b.Reconcile(ctx)
		if err != nil {
			return err
		}
		return g.print(report, func(w io.Writer) {
			fmt.Fprintf(w, "checked %d, resolved %d, failed %d\n", report.Checked, report.Resolved, report.Failed)
			for _, e := range report.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		})
	})
}

type MCPCmd struct{}

func (cmd *MCPCmd) Run(g *Globals) error {
	return g.withBoard(func(ctx context.Context, b *board.Board) error {
		return assist.Serve(ctx, assist.NewTools(b, g.log), version)
	})
}

func taskRuns(words []string, format string) ([]richtext.Run, error) {
	f, err := board.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return board.Runs(strings.Join(words, " "), f)
}

func main() {
	cli := CLI{}
	cli.out = os.Stdout
	parser, err := kong.New(&cli,
		kong.Name("blockboard"),
		kong.Description("Read and edit a Notion task board from the command line."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "blockboard: %v\n", err)
		os.Exit(1)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	err = ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
