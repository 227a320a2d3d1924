package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/tally/internal/database"
	"github.com/dukerupert/tally/internal/logstore"
	"github.com/dukerupert/tally/internal/migrate"
	"github.com/dukerupert/tally/internal/model"
	"github.com/dukerupert/tally/internal/store"
)

var testNow = time.Date(2024, time.March, 15, 9, 30, 0, 0, time.Local)

const testDate = "2024-03-15"

const seedConfig = `{
	"members": {
		"mia": {"id": "mia", "name": "Mia", "birthDate": "2017-10-01", "visible": true, "sortOrder": 0},
		"leo": {"id": "leo", "name": "Leo", "subtitle": "Drummer", "visible": true, "sortOrder": 1},
		"gran": {"id": "gran", "name": "Gran", "visible": false, "sortOrder": 2}
	},
	"tasks": {
		"mia": [{"id": "teeth", "title": "Brush teeth"}, {"id": "read", "title": "Read"}],
		"leo": [{"id": "piano", "title": "Piano"}],
		"gran": [{"id": "walk", "title": "Walk"}]
	},
	"appTitle": "Our family"
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedNow() time.Time { return testNow }

// setupTestStore opens a log store over an in-memory database seeded with
// seedConfig.
func setupTestStore(t *testing.T) (*logstore.Store, *store.DocumentStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	docs := store.NewDocumentStore(db)
	ctx := context.Background()
	if err := docs.SaveDocument(ctx, model.KeyAppConfig, []byte(seedConfig), migrate.CurrentVersion); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	n := 0
	s, err := logstore.Open(ctx, docs, logstore.Options{
		Logger: discardLogger(),
		Now:    fixedNow,
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
	if err != nil {
		t.Fatalf("open log store: %v", err)
	}
	return s, docs
}

func doRequest(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decodeBody(t, rec, &body)
	return body["error"]
}
