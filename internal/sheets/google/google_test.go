package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"kas/internal/core"
)

type sheetsServer struct {
	mu      sync.Mutex
	calls   []string
	updated [][]any
	fail    bool
}

func (s *sheetsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, r.Method+" "+r.URL.Path)
	if s.fail {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
		return
	}
	if r.Method == http.MethodPut {
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.updated = vr.Values
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{}`))
}

func newTestClient(t *testing.T, srv *sheetsServer) *Client {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	c, err := New(context.Background(), Config{SpreadsheetID: "sid", Currency: "IDR"}, nil,
		goption.WithEndpoint(ts.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(ts.Client()),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), Config{}, nil); err == nil {
		t.Fatal("expected error without spreadsheet id")
	}
}

func TestSync(t *testing.T) {
	srv := &sheetsServer{}
	c := newTestClient(t, srv)

	s := core.NewState()
	s.Expenses = []core.Expense{{ID: "EXP1", Category: "ATK", Amount: 5000, Date: core.NewDate(2025, 1, 2), Description: "Paper", Type: core.TypeExpense}}

	if err := c.Sync(context.Background(), s); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(srv.calls) != 2 {
		t.Fatalf("expected clear + update, got %v", srv.calls)
	}
	if !strings.HasPrefix(srv.calls[0], "POST ") || !strings.HasSuffix(srv.calls[0], ":clear") {
		t.Fatalf("first call should clear the tab: %s", srv.calls[0])
	}
	if !strings.HasPrefix(srv.calls[1], "PUT ") || !strings.Contains(srv.calls[1], "Transactions!A1") {
		t.Fatalf("second call should update from A1: %s", srv.calls[1])
	}
	if len(srv.updated) != 2 || srv.updated[1][2] != "EXP1" {
		t.Fatalf("unexpected rows sent: %v", srv.updated)
	}
}

func TestSyncError(t *testing.T) {
	srv := &sheetsServer{fail: true}
	c := newTestClient(t, srv)
	if err := c.Sync(context.Background(), core.NewState()); err == nil || !strings.Contains(err.Error(), "clear") {
		t.Fatalf("expected clear error, got %v", err)
	}
}
