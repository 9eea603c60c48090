package board_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgallion1/blockboard/internal/blocktree"
	"github.com/dgallion1/blockboard/internal/board"
	"github.com/dgallion1/blockboard/internal/board/boardtest"
	"github.com/dgallion1/blockboard/internal/notion"
)

func newRecordsBoard(dbs *boardtest.Databases) *board.Board {
	return board.New(boardtest.Fixture(), board.Options{
		PageID:           "page",
		Log:              quietLog(),
		Databases:        dbs,
		ApplicationsDBID: "apps",
		ContactsDBID:     "contacts",
		Now:              func() time.Time { return time.Date(2024, 5, 6, 23, 30, 0, 0, time.UTC) },
	})
}

func TestGetApplications(t *testing.T) {
	dbs := boardtest.NewDatabases("apps", "contacts").
		AddRow("apps", "a1", notion.Properties{
			"Company":            notion.TitleProperty("Acme"),
			"Role":               notion.TextProperty("SRE"),
			"Submission Date":    notion.DateProperty("2024-05-01"),
			"Application Status": notion.SelectProperty("Interview"),
			"Notes":              notion.TextProperty("panel on *Friday*"),
		}).
		AddRow("apps", "a2", notion.Properties{"Company": notion.TitleProperty("Globex")})
	b := newRecordsBoard(dbs)

	apps, err := b.GetApplications(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []board.Application{
		{ID: "a1", Company: "Acme", Role: "SRE", Date: "2024-05-01", Status: "Interview", Notes: "panel on *Friday*"},
		{ID: "a2", Company: "Globex"},
	}
	if len(apps) != len(want) {
		t.Fatalf("expected %d applications, got %+v", len(want), apps)
	}
	for i := range want {
		if apps[i] != want[i] {
			t.Errorf("application %d: expected %+v, got %+v", i, want[i], apps[i])
		}
	}
}

func TestAddApplication_Defaults(t *testing.T) {
	dbs := boardtest.NewDatabases("apps", "contacts")
	b := newRecordsBoard(dbs)

	app, err := b.AddApplication(context.Background(), board.Application{Company: " Acme ", Role: "SRE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.ID == "" || app.Company != "Acme" || app.Date != "2024-05-06" || app.Status != board.DefaultApplicationStatus {
		t.Errorf("unexpected application %+v", app)
	}

	rows := dbs.Rows("apps")
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	got := rows[0]
	if got.Text("Company") != "Acme" || got.Text("Role") != "SRE" ||
		got.Date("Submission Date") != "2024-05-06" || got.Option("Application Status") != "Applied" {
		t.Errorf("unexpected stored row %+v", got.Properties)
	}
	if _, ok := got.Properties["Notes"]; ok {
		t.Error("expected no notes property when notes are empty")
	}

	listed, err := b.GetApplications(context.Background())
	if err != nil || len(listed) != 1 || listed[0] != app {
		t.Errorf("expected the new row to be listed, got %+v (%v)", listed, err)
	}
}

func TestAddApplication_Validation(t *testing.T) {
	b := newRecordsBoard(boardtest.NewDatabases("apps", "contacts"))
	tests := []struct {
		name string
		in   board.Application
	}{
		{"missing company", board.Application{Role: "SRE"}},
		{"missing role", board.Application{Company: "Acme", Role: "  "}},
		{"bad date", board.Application{Company: "Acme", Role: "SRE", Date: "05/01/2024"}},
		{"impossible date", board.Application{Company: "Acme", Role: "SRE", Date: "2024-02-30"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := b.AddApplication(context.Background(), tt.in); !errors.Is(err, board.ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestGetContacts_ReadsEitherCompanyProperty(t *testing.T) {
	dbs := boardtest.NewDatabases("apps", "contacts").
		AddRow("contacts", "c1", notion.Properties{
			"Name":                 notion.TitleProperty("Sam Lee"),
			"Company/organization": notion.TextProperty("Initech"),
			"Status":               notion.SelectProperty("Contacted"),
			"Last Contact":         notion.DateProperty("2024-04-30"),
		}).
		AddRow("contacts", "c2", notion.Properties{
			"Name":    notion.TitleProperty("Ana"),
			"Company": notion.TextProperty("Hooli"),
			"Status":  {Status: &notion.Option{Name: "Pinged"}},
		})
	b := newRecordsBoard(dbs)

	contacts, err := b.GetContacts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contacts) != 2 {
		t.Fatalf("expected 2 contacts, got %+v", contacts)
	}
	if c := contacts[0]; c.Name != "Sam Lee" || c.Company != "Initech" || c.Status != "Contacted" || c.LastContact != "2024-04-30" {
		t.Errorf("unexpected first contact %+v", c)
	}
	if c := contacts[1]; c.Company != "Hooli" || c.Status != "Pinged" {
		t.Errorf("unexpected second contact %+v", c)
	}
}

func TestAddContact(t *testing.T) {
	dbs := boardtest.NewDatabases("apps", "contacts")
	b := newRecordsBoard(dbs)

	c, err := b.AddContact(context.Background(), board.Contact{Name: "Sam Lee", Company: "Initech", Notes: "met at __meetup__"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Status != board.DefaultContactStatus || c.LastContact != "" {
		t.Errorf("unexpected contact %+v", c)
	}
	row := dbs.Rows("contacts")[0]
	if row.Text("Company/organization") != "Initech" || row.Option("Status") != "Not started" || row.Text("Notes") != "met at __meetup__" {
		t.Errorf("unexpected stored row %+v", row.Properties)
	}
	if _, ok := row.Properties["Last Contact"]; ok {
		t.Error("expected no last contact date when none was given")
	}

	if _, err := b.AddContact(context.Background(), board.Contact{Name: " "}); !errors.Is(err, board.ErrInvalid) {
		t.Errorf("expected ErrInvalid for blank name, got %v", err)
	}
	if _, err := b.AddContact(context.Background(), board.Contact{Name: "Ana", LastContact: "yesterday"}); !errors.Is(err, board.ErrInvalid) {
		t.Errorf("expected ErrInvalid for bad date, got %v", err)
	}
}

func TestRecords_NotConfigured(t *testing.T) {
	ctx := context.Background()
	b := newBoard(boardtest.Fixture(), nil)
	if _, err := b.GetApplications(ctx); !errors.Is(err, board.ErrInvalid) {
		t.Errorf("expected ErrInvalid without databases, got %v", err)
	}

	b = board.New(boardtest.Fixture(), board.Options{PageID: "page", Log: quietLog(), Databases: boardtest.NewDatabases("apps")})
	if _, err := b.AddContact(ctx, board.Contact{Name: "Sam"}); !errors.Is(err, board.ErrInvalid) {
		t.Errorf("expected ErrInvalid without a contacts id, got %v", err)
	}
}

func TestRecords_RemoteFailure(t *testing.T) {
	dbs := boardtest.NewDatabases("apps", "contacts")
	dbs.Fail(boardtest.Failure(blocktree.OpCreatePage, "apps"))
	b := newRecordsBoard(dbs)

	_, err := b.AddApplication(context.Background(), board.Application{Company: "Acme", Role: "SRE"})
	if !errors.Is(err, blocktree.ErrRemoteWrite) {
		t.Fatalf("expected ErrRemoteWrite, got %v", err)
	}
	if len(dbs.Rows("apps")) != 0 {
		t.Error("expected no row after a failed create")
	}
}
