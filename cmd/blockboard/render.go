package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dgallion1/blockboard/internal/blocktree"
	"github.com/dgallion1/blockboard/internal/board"
)

// print writes v as indented JSON when --json is set, otherwise calls text.
func (g *Globals) print(v any, text func(io.Writer)) error {
	w := g.out
	if g.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func renderBoard(w io.Writer, tb *board.TaskBoard) {
	for i, c := range tb.Categories {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n", c.Name)
		if len(c.Items) == 0 {
			fmt.Fprintln(w, "  (empty)")
		}
		renderNodes(w, c.Items, 1)
	}
}

func renderWeek(w io.Writer, wp *board.WeeklyPlan) {
	if len(wp.Days) == 0 {
		fmt.Fprintln(w, "no days found")
		return
	}
	for _, d := range wp.Days {
		fmt.Fprintf(w, "%s\n", d.Name)
		renderNodes(w, d.Tasks, 1)
	}
}

func renderNodes(w io.Writer, nodes []*blocktree.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		switch n.Kind {
		case blocktree.Task:
			box := "[ ]"
			if n.Checked {
				box = "[x]"
			}
			fmt.Fprintf(w, "%s%s %s  (%s)\n", indent, box, n.Text, n.ID)
		case blocktree.Pointer:
			fmt.Fprintf(w, "%s- %s\n", indent, n.Text)
		default:
			fmt.Fprintf(w, "%s%s\n", indent, n.Text)
		}
		renderNodes(w, n.Children, depth+1)
	}
}

func renderBacklog(w io.Writer, items []board.BacklogItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "backlog is empty")
		return
	}
	for _, it := range items {
		fmt.Fprintf(w, "- %s  (%s)\n", it.Text, it.ID)
	}
}

func renderMoves(w io.Writer, moves []board.MoveRecord) {
	if len(moves) == 0 {
		fmt.Fprintln(w, "no moves")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE\tSOURCE\tNEW\tDESTINATION\tUPDATED")
	for _, m := range moves {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			m.ID, m.State, m.SourceID, m.NewNodeID, m.Destination, m.UpdatedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

func renderApplications(w io.Writer, apps []board.Application) {
	if len(apps) == 0 {
		fmt.Fprintln(w, "no applications")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tCOMPANY\tROLE\tSTATUS\tNOTES")
	for _, a := range apps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.Date, a.Company, a.Role, a.Status, a.Notes)
	}
	tw.Flush()
}

func renderContacts(w io.Writer, contacts []board.Contact) {
	if len(contacts) == 0 {
		fmt.Fprintln(w, "no contacts")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCOMPANY\tROLE\tSTATUS\tLAST CONTACT")
	for _, c := range contacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.Name, c.Company, c.Role, c.Status, c.LastContact)
	}
	tw.Flush()
}
