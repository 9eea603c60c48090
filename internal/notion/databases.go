package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dgallion1/blockboard/internal/blocktree"
	"github.com/dgallion1/blockboard/internal/richtext"
)

// Page is a database row.
type Page struct {
	ID         string     `json:"id"`
	Properties Properties `json:"properties"`
}

// Properties maps property names to values.
type Properties map[string]Property

// Property is one property value; only the field named by its type is set.
type Property struct {
	Type     string     `json:"type,omitempty"`
	Title    []richText `json:"title,omitempty"`
	RichText []richText `json:"rich_text,omitempty"`
	Date     *DateRange `json:"date,omitempty"`
	Select   *Option    `json:"select,omitempty"`
	Status   *Option    `json:"status,omitempty"`
}

type DateRange struct {
	Start string `json:"start"`
}

type Option struct {
	Name string `json:"name"`
}

func TitleProperty(s string) Property {
	return Property{Title: toRichText(richtext.Text(s))}
}

func TextProperty(s string) Property {
	return Property{RichText: toRichText(richtext.Text(s))}
}

// DateProperty holds an ISO 8601 date such as "2024-05-01".
func DateProperty(start string) Property {
	return Property{Date: &DateRange{Start: start}}
}

func SelectProperty(name string) Property {
	return Property{Select: &Option{Name: name}}
}

// Text returns the plain text of the first title or rich text property
// present among names.
func (p Page) Text(names ...string) string {
	for _, name := range names {
		prop, ok := p.Properties[name]
		if !ok {
			continue
		}
		if len(prop.Title) > 0 {
			return richtext.Plain(fromRichText(prop.Title))
		}
		return richtext.Plain(fromRichText(prop.RichText))
	}
	return ""
}

// Date returns the start of a date property, or "".
func (p Page) Date(name string) string {
	if prop, ok := p.Properties[name]; ok && prop.Date != nil {
		return prop.Date.Start
	}
	return ""
}

// Option returns the chosen name of a select or status property, or "".
func (p Page) Option(name string) string {
	prop, ok := p.Properties[name]
	switch {
	case !ok:
		return ""
	case prop.Select != nil:
		return prop.Select.Name
	case prop.Status != nil:
		return prop.Status.Name
	}
	return ""
}

type queryRequest struct {
	PageSize    int    `json:"page_size"`
	StartCursor string `json:"start_cursor,omitempty"`
}

type queryResponse struct {
	Results    []Page  `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

type createPageRequest struct {
	Parent     pageParent `json:"parent"`
	Properties Properties `json:"properties"`
}

type pageParent struct {
	DatabaseID string `json:"database_id"`
}

// QueryDatabase returns every row of a database, following pagination.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string) ([]Page, error) {
	var out []Page
	req := queryRequest{PageSize: pageSize}
	for {
		body, err := c.do(ctx, blocktree.OpQueryDatabase, databaseID, http.MethodPost, "/databases/"+databaseID+"/query", req)
		if err != nil {
			return nil, err
		}

		var page queryResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, &blocktree.RemoteError{Op: blocktree.OpQueryDatabase, NodeID: databaseID, Err: fmt.Errorf("decode rows: %w", err)}
		}
		out = append(out, page.Results...)
		if !page.HasMore || page.NextCursor == nil || *page.NextCursor == "" {
			break
		}
		req.StartCursor = *page.NextCursor
	}
	return out, nil
}

// CreatePage adds a row to a database.
func (c *Client) CreatePage(ctx context.Context, databaseID string, props Properties) (Page, error) {
	req := createPageRequest{Parent: pageParent{DatabaseID: databaseID}, Properties: props}
	body, err := c.do(ctx, blocktree.OpCreatePage, databaseID, http.MethodPost, "/pages", req)
	if err != nil {
		return Page{}, err
	}
	var created Page
	if err := json.Unmarshal(body, &created); err != nil {
		return Page{}, &blocktree.RemoteError{Op: blocktree.OpCreatePage, NodeID: databaseID, Err: fmt.Errorf("decode page: %w", err)}
	}
	return created, nil
}
