package handler

import (
	"context"
	"net/http"
	"testing"
)

func settingsMux(t *testing.T) (*http.ServeMux, *SettingsHandler) {
	t.Helper()
	s, _ := setupTestStore(t)
	h := NewSettingsHandler(s, fixedNow, discardLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/config", h.GetConfig)
	mux.HandleFunc("PUT /api/config", h.UpdateConfig)
	mux.HandleFunc("GET /api/theme", h.GetTheme)
	mux.HandleFunc("PUT /api/theme", h.UpdateTheme)
	mux.HandleFunc("GET /api/export", h.Export)
	mux.HandleFunc("POST /api/import", h.Import)
	return mux, h
}

func TestSettingsConfig(t *testing.T) {
	mux, _ := settingsMux(t)

	rec := doRequest(t, mux, "GET", "/api/config", nil)
	var got configView
	decodeBody(t, rec, &got)
	if got.AppTitle != "Our family" {
		t.Errorf("app title = %q", got.AppTitle)
	}

	rec = doRequest(t, mux, "PUT", "/api/config", map[string]string{"themeColor": "#ff8800"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &got)
	if got.ThemeColor != "#ff8800" || got.AppTitle != "Our family" {
		t.Errorf("got %+v", got)
	}

	rec = doRequest(t, mux, "PUT", "/api/config", map[string]string{"appTitle": " Home "})
	decodeBody(t, rec, &got)
	if got.AppTitle != "Home" || got.ThemeColor != "#ff8800" {
		t.Errorf("got %+v", got)
	}
}

func TestSettingsTheme(t *testing.T) {
	mux, h := settingsMux(t)

	rec := doRequest(t, mux, "PUT", "/api/theme", map[string]bool{"dark": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !h.store.DarkMode() {
		t.Error("expected dark mode")
	}

	rec = doRequest(t, mux, "GET", "/api/theme", nil)
	var got map[string]bool
	decodeBody(t, rec, &got)
	if !got["dark"] {
		t.Errorf("got %v", got)
	}

	doRequest(t, mux, "PUT", "/api/theme", map[string]bool{"dark": false})
	if h.store.DarkMode() {
		t.Error("expected light mode")
	}
}

func TestSettingsExportImportRoundTrip(t *testing.T) {
	mux, h := settingsMux(t)
	ctx := context.Background()

	if _, err := h.store.ToggleTask(ctx, "mia", "teeth", testDate); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	rec := doRequest(t, mux, "GET", "/api/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="tally-2024-03-15.json"` {
		t.Errorf("content disposition = %q", cd)
	}
	blob := rec.Body.String()

	if _, err := h.store.AddMember(ctx, "Ava"); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := h.store.SetMood(ctx, "leo", testDate, "tired"); err != nil {
		t.Fatalf("set mood: %v", err)
	}

	rec = doRequest(t, mux, "POST", "/api/import", blob)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d: %s", rec.Code, rec.Body.String())
	}
	if n := len(h.store.Members()); n != 3 {
		t.Errorf("members = %d, want 3", n)
	}
	if !h.store.TaskState("mia", "teeth", testDate).Completed {
		t.Error("expected exported completion to be restored")
	}
	if mood := h.store.DailyLogData("leo", testDate).Mood; mood != "" {
		t.Errorf("mood = %q, want it replaced by the import", mood)
	}
}

func TestSettingsImportFormatError(t *testing.T) {
	mux, h := settingsMux(t)

	cases := []string{
		`not json`,
		`{"data": {}}`,
		`{"data": [], "config": {}}`,
	}
	for _, body := range cases {
		rec := doRequest(t, mux, "POST", "/api/import", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", body, rec.Code, http.StatusBadRequest)
			continue
		}
		if msg := errorMessage(t, rec); msg != "format error" {
			t.Errorf("%s: error = %q, want format error", body, msg)
		}
	}

	if _, ok := h.store.Member("mia"); !ok {
		t.Error("expected data untouched after failed imports")
	}
	if h.store.HasRecord(testDate) {
		t.Error("expected no record after failed imports")
	}
}
