package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sqlassist/sqlassist/internal/history"
	"github.com/sqlassist/sqlassist/internal/storage"
)

type fakeHistory struct {
	entries   []history.Entry
	lastLimit int
	err       error
}

func (f *fakeHistory) Record(_ context.Context, entry history.Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeHistory) List(_ context.Context, limit int) ([]history.Entry, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func (f *fakeHistory) Get(_ context.Context, queryID string) (history.Entry, error) {
	for _, entry := range f.entries {
		if entry.QueryID == queryID {
			return entry, nil
		}
	}
	return history.Entry{}, history.ErrNotFound
}

type fakeExports map[string]string

func (f fakeExports) Get(_ context.Context, key string) (io.ReadCloser, error) {
	body, ok := f[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func TestListHistoryClampsLimit(t *testing.T) {
	cfg := loadTestConfig(t, nil)
	store := &fakeHistory{entries: []history.Entry{{QueryID: "a"}, {QueryID: "b"}}}
	h := NewHandler(cfg, Dependencies{History: store})

	cases := []struct {
		query string
		limit int
	}{
		{query: "", limit: history.DefaultListLimit},
		{query: "?limit=1", limit: 1},
		{query: "?limit=100000", limit: history.MaxListLimit},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/history"+tc.query, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%q: status = %d", tc.query, rr.Code)
		}
		if store.lastLimit != tc.limit {
			t.Fatalf("%q: limit = %d, want %d", tc.query, store.lastLimit, tc.limit)
		}
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/history?limit=abc", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid limit status = %d", rr.Code)
	}
}

func TestListHistoryStoreFailure(t *testing.T) {
	cfg := loadTestConfig(t, nil)
	h := NewHandler(cfg, Dependencies{History: &fakeHistory{err: errors.New("db down")}})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/history", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestGetHistoryEntry(t *testing.T) {
	cfg := loadTestConfig(t, nil)
	store := &fakeHistory{entries: []history.Entry{{QueryID: "q-1", SQL: "SELECT 1"}}}
	h := NewHandler(cfg, Dependencies{History: store})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/history/q-1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if body := decodeJSON(t, rr); body["sql_query"] != "SELECT 1" {
		t.Fatalf("unexpected body: %v", body)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/history/missing", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d", rr.Code)
	}
}

func TestGetExportStreamsObject(t *testing.T) {
	cfg := loadTestConfig(t, nil)
	exports := fakeExports{"exports/date=2026-10-17/q-1.csv": "product\nwidget\n"}
	h := NewHandler(cfg, Dependencies{Exports: exports})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/exports/date=2026-10-17/q-1.csv", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "product\nwidget\n" {
		t.Fatalf("body = %q", rr.Body.String())
	}
	if rr.Header().Get("Content-Type") != "text/csv" {
		t.Fatalf("content type = %q", rr.Header().Get("Content-Type"))
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/exports/date=2026-10-17/nope.csv", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d", rr.Code)
	}
}
