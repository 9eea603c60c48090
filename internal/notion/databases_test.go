package notion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/dgallion1/blockboard/internal/blocktree"
)

func TestQueryDatabase_PaginatesAndReadsProperties(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Method != http.MethodPost || r.URL.Path != "/databases/apps/query" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.PageSize != pageSize {
			t.Errorf("expected page_size %d, got %d", pageSize, req.PageSize)
		}
		if req.StartCursor == "" {
			io.WriteString(w, `{"object":"list","has_more":true,"next_cursor":"c2","results":[
				{"object":"page","id":"row-1","properties":{
					"Company":{"id":"title","type":"title","title":[{"type":"text","plain_text":"Acme"}]},
					"Role":{"type":"rich_text","rich_text":[{"type":"text","plain_text":"SRE "},{"type":"text","plain_text":"II"}]},
					"Submission Date":{"type":"date","date":{"start":"2024-05-01","end":null}},
					"Application Status":{"type":"select","select":{"name":"Applied"}}
				}}
			]}`)
			return
		}
		if req.StartCursor != "c2" {
			t.Errorf("expected cursor c2, got %q", req.StartCursor)
		}
		io.WriteString(w, `{"object":"list","has_more":false,"next_cursor":null,"results":[
			{"object":"page","id":"row-2","properties":{
				"Company":{"type":"title","title":[]},
				"Submission Date":{"type":"date","date":null},
				"Application Status":{"type":"status","status":{"name":"Interview"}}
			}}
		]}`)
	}, 0)

	rows, err := c.QueryDatabase(context.Background(), "apps")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 || len(rows) != 2 {
		t.Fatalf("expected 2 rows over 2 calls, got %d rows, %d calls", len(rows), calls)
	}
	first := rows[0]
	if first.ID != "row-1" || first.Text("Company") != "Acme" || first.Text("Role") != "SRE II" {
		t.Errorf("unexpected text properties %+v", first)
	}
	if first.Date("Submission Date") != "2024-05-01" || first.Option("Application Status") != "Applied" {
		t.Errorf("unexpected date or select %+v", first)
	}
	second := rows[1]
	if second.Text("Company") != "" || second.Date("Submission Date") != "" || second.Option("Application Status") != "Interview" {
		t.Errorf("unexpected empty properties %+v", second)
	}
	if second.Text("Missing", "Company") != "" || first.Text("Missing", "Company") != "Acme" {
		t.Error("expected fallback to the first present property")
	}
}

func TestCreatePage_SendsParentAndProperties(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/pages" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
			return
		}
		if db := body["parent"].(map[string]any)["database_id"]; db != "contacts" {
			t.Errorf("unexpected parent %v", body["parent"])
		}
		props := body["properties"].(map[string]any)
		name := props["Name"].(map[string]any)["title"].([]any)[0].(map[string]any)
		if name["text"].(map[string]any)["content"] != "Sam Lee" {
			t.Errorf("unexpected title %v", name)
		}
		if props["Status"].(map[string]any)["select"].(map[string]any)["name"] != "Contacted" {
			t.Errorf("unexpected status %v", props["Status"])
		}
		if props["Last Contact"].(map[string]any)["date"].(map[string]any)["start"] != "2024-05-02" {
			t.Errorf("unexpected date %v", props["Last Contact"])
		}
		io.WriteString(w, `{"object":"page","id":"new-page","properties":{
			"Name":{"type":"title","title":[{"type":"text","plain_text":"Sam Lee"}]}}}`)
	}, 0)

	page, err := c.CreatePage(context.Background(), "contacts", Properties{
		"Name":         TitleProperty("Sam Lee"),
		"Status":       SelectProperty("Contacted"),
		"Last Contact": DateProperty("2024-05-02"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.ID != "new-page" || page.Text("Name") != "Sam Lee" {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestCreatePage_NoRetryOnServerError(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}, 3)

	_, err := c.CreatePage(context.Background(), "apps", Properties{"Company": TitleProperty("Acme")})
	if !errors.Is(err, blocktree.ErrRemoteWrite) {
		t.Fatalf("expected ErrRemoteWrite, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}

func TestQueryDatabase_RetriesServerError(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"object":"list","results":[],"has_more":false}`)
	}, 2)

	if _, err := c.QueryDatabase(context.Background(), "apps"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestQueryDatabase_NotFoundIsFetchError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"object":"error","status":404,"code":"object_not_found","message":"Could not find database"}`)
	}, 0)

	_, err := c.QueryDatabase(context.Background(), "missing")
	if !errors.Is(err, blocktree.ErrRemoteFetch) || errors.Is(err, blocktree.ErrNodeGone) {
		t.Fatalf("expected plain ErrRemoteFetch, got %v", err)
	}
}
