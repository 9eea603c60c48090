package board

import (
	"context"
	"strings"
	"time"

	"github.com/dgallion1/blockboard/internal/notion"
)

// DatabaseStore reads and appends rows of the tracking databases.
type DatabaseStore interface {
	QueryDatabase(ctx context.Context, databaseID string) ([]notion.Page, error)
	CreatePage(ctx context.Context, databaseID string, props notion.Properties) (notion.Page, error)
}

const dateLayout = "2006-01-02"

const (
	DefaultApplicationStatus = "Applied"
	DefaultContactStatus     = "Not started"
)

// Application is a row of the applications log.
type Application struct {
	ID      string `json:"id,omitempty"`
	Company string `json:"company"`
	Role    string `json:"role"`
	Date    string `json:"date,omitempty"`
	Status  string `json:"status,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// Contact is a row of the networking contacts database.
type Contact struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Company     string `json:"company,omitempty"`
	Role        string `json:"role,omitempty"`
	Status      string `json:"status,omitempty"`
	LastContact string `json:"last_contact,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Property names of the two databases.
const (
	propCompany     = "Company"
	propRole        = "Role"
	propSubmitted   = "Submission Date"
	propAppStatus   = "Application Status"
	propNotes       = "Notes"
	propName        = "Name"
	propOrg         = "Company/organization"
	propStatus      = "Status"
	propLastContact = "Last Contact"
)

func applicationFromPage(p notion.Page) Application {
	return Application{
		ID:      p.ID,
		Company: p.Text(propCompany),
		Role:    p.Text(propRole),
		Date:    p.Date(propSubmitted),
		Status:  p.Option(propAppStatus),
		Notes:   p.Text(propNotes),
	}
}

func contactFromPage(p notion.Page) Contact {
	return Contact{
		ID:          p.ID,
		Name:        p.Text(propName),
		Company:     p.Text(propOrg, propCompany),
		Role:        p.Text(propRole),
		Status:      p.Option(propStatus),
		LastContact: p.Date(propLastContact),
		Notes:       p.Text(propNotes),
	}
}

func (b *Board) requireDB(id, what string) error {
	if b.dbs == nil {
		return invalidf("%s database is not available", what)
	}
	if id == "" {
		return invalidf("%s database id is not configured", what)
	}
	return nil
}

// GetApplications lists every row of the applications log.
func (b *Board) GetApplications(ctx context.Context) ([]Application, error) {
	if err := b.requireDB(b.applicationsDB, "applications"); err != nil {
		return nil, err
	}
	pages, err := b.dbs.QueryDatabase(ctx, b.applicationsDB)
	if err != nil {
		return nil, err
	}
	out := make([]Application, 0, len(pages))
	for _, p := range pages {
		out = append(out, applicationFromPage(p))
	}
	return out, nil
}

// AddApplication logs a submitted application. The date defaults to today and
// the status to "Applied".
func (b *Board) AddApplication(ctx context.Context, a Application) (Application, error) {
	if err := b.requireDB(b.applicationsDB, "applications"); err != nil {
		return Application{}, err
	}
	a.Company = strings.TrimSpace(a.Company)
	a.Role = strings.TrimSpace(a.Role)
	if a.Company == "" || a.Role == "" {
		return Application{}, invalidf("company and role are required")
	}
	date, err := b.date(a.Date, true)
	if err != nil {
		return Application{}, err
	}
	a.Date = date
	if a.Status = strings.TrimSpace(a.Status); a.Status == "" {
		a.Status = DefaultApplicationStatus
	}

	props := notion.Properties{
		propCompany:   notion.TitleProperty(a.Company),
		propRole:      notion.TextProperty(a.Role),
		propSubmitted: notion.DateProperty(a.Date),
		propAppStatus: notion.SelectProperty(a.Status),
	}
	if a.Notes != "" {
		props[propNotes] = notion.TextProperty(a.Notes)
	}
	page, err := b.dbs.CreatePage(ctx, b.applicationsDB, props)
	if err != nil {
		return Application{}, err
	}
	a.ID = page.ID
	b.log.Info("logged application", "page_id", a.ID, "company", a.Company, "status", a.Status)
	return a, nil
}

// GetContacts lists every row of the contacts database.
func (b *Board) GetContacts(ctx context.Context) ([]Contact, error) {
	if err := b.requireDB(b.contactsDB, "contacts"); err != nil {
		return nil, err
	}
	pages, err := b.dbs.QueryDatabase(ctx, b.contactsDB)
	if err != nil {
		return nil, err
	}
	out := make([]Contact, 0, len(pages))
	for _, p := range pages {
		out = append(out, contactFromPage(p))
	}
	return out, nil
}

// AddContact records a networking contact. The status defaults to
// "Not started"; the last contact date is only written when given.
func (b *Board) AddContact(ctx context.Context, c Contact) (Contact, error) {
	if err := b.requireDB(b.contactsDB, "contacts"); err != nil {
		return Contact{}, err
	}
	if c.Name = strings.TrimSpace(c.Name); c.Name == "" {
		return Contact{}, invalidf("name is required")
	}
	last, err := b.date(c.LastContact, false)
	if err != nil {
		return Contact{}, err
	}
	c.LastContact = last
	if c.Status = strings.TrimSpace(c.Status); c.Status == "" {
		c.Status = DefaultContactStatus
	}

	props := notion.Properties{
		propName:   notion.TitleProperty(c.Name),
		propStatus: notion.SelectProperty(c.Status),
	}
	if c.Company = strings.TrimSpace(c.Company); c.Company != "" {
		props[propOrg] = notion.TextProperty(c.Company)
	}
	if c.Role = strings.TrimSpace(c.Role); c.Role != "" {
		props[propRole] = notion.TextProperty(c.Role)
	}
	if c.LastContact != "" {
		props[propLastContact] = notion.DateProperty(c.LastContact)
	}
	if c.Notes != "" {
		props[propNotes] = notion.TextProperty(c.Notes)
	}
	page, err := b.dbs.CreatePage(ctx, b.contactsDB, props)
	if err != nil {
		return Contact{}, err
	}
	c.ID = page.ID
	b.log.Info("added contact", "page_id", c.ID, "status", c.Status)
	return c, nil
}

// date validates a YYYY-MM-DD date. An empty s is today when orToday is set.
func (b *Board) date(s string, orToday bool) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		if orToday {
			return b.now().Format(dateLayout), nil
		}
		return "", nil
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return "", invalidf("date %q is not YYYY-MM-DD", s)
	}
	return s, nil
}
