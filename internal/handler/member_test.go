package handler

import (
	"net/http"
	"testing"
)

func memberMux(t *testing.T) (*http.ServeMux, *MemberHandler) {
	t.Helper()
	s, _ := setupTestStore(t)
	h := NewMemberHandler(s, fixedNow, discardLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/members", h.List)
	mux.HandleFunc("POST /api/members", h.Create)
	mux.HandleFunc("PUT /api/members/{id}", h.Update)
	mux.HandleFunc("DELETE /api/members/{id}", h.Delete)
	mux.HandleFunc("POST /api/members/{id}/tasks", h.CreateTask)
	mux.HandleFunc("PUT /api/members/{id}/tasks/{taskID}", h.RenameTask)
	mux.HandleFunc("DELETE /api/members/{id}/tasks/{taskID}", h.DeleteTask)
	return mux, h
}

func TestMemberList(t *testing.T) {
	mux, _ := memberMux(t)

	rec := doRequest(t, mux, "GET", "/api/members", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got []memberView
	decodeBody(t, rec, &got)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].ID != "mia" || got[1].ID != "leo" || got[2].ID != "gran" {
		t.Errorf("order = %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
	}
	if got[0].DisplaySubtitle == "" {
		t.Error("expected derived subtitle for a member with a birth date")
	}
	if got[1].DisplaySubtitle != "Drummer" {
		t.Errorf("subtitle = %q, want manual subtitle", got[1].DisplaySubtitle)
	}
	if len(got[0].Tasks) != 2 {
		t.Errorf("mia tasks = %d, want 2", len(got[0].Tasks))
	}
}

func TestMemberCreateDefaults(t *testing.T) {
	mux, _ := memberMux(t)

	rec := doRequest(t, mux, "POST", "/api/members", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var got memberView
	decodeBody(t, rec, &got)
	if got.Name != "新成員" {
		t.Errorf("name = %q, want default name", got.Name)
	}
	if !got.Visible {
		t.Error("expected new member to be visible")
	}
	if got.SortOrder != 3 {
		t.Errorf("sort order = %d, want 3", got.SortOrder)
	}
	if len(got.Tasks) != 3 {
		t.Errorf("starter tasks = %d, want 3", len(got.Tasks))
	}
}

func TestMemberCreateNamed(t *testing.T) {
	mux, _ := memberMux(t)

	rec := doRequest(t, mux, "POST", "/api/members", map[string]string{"name": "  Ava "})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	var got memberView
	decodeBody(t, rec, &got)
	if got.Name != "Ava" {
		t.Errorf("name = %q, want Ava", got.Name)
	}
}

func TestMemberUpdate(t *testing.T) {
	mux, _ := memberMux(t)

	rec := doRequest(t, mux, "PUT", "/api/members/leo", map[string]any{
		"name":       "Leon",
		"visible":    false,
		"themeColor": "#336699",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var got memberView
	decodeBody(t, rec, &got)
	if got.Name != "Leon" || got.Visible || got.ThemeColor != "#336699" {
		t.Errorf("got %+v", got.Member)
	}
	if got.Subtitle != "Drummer" {
		t.Errorf("subtitle = %q, want untouched", got.Subtitle)
	}
}

func TestMemberUpdateInvalidBirthDate(t *testing.T) {
	mux, _ := memberMux(t)

	rec := doRequest(t, mux, "PUT", "/api/members/mia", map[string]any{"birthDate": "not a date"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestMemberUpdateNotFound(t *testing.T) {
	mux, _ := memberMux(t)

	rec := doRequest(t, mux, "PUT", "/api/members/nobody", map[string]any{"name": "X"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestMemberDelete(t *testing.T) {
	mux, h := memberMux(t)

	rec := doRequest(t, mux, "DELETE", "/api/members/leo", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if _, ok := h.store.Member("leo"); ok {
		t.Error("expected leo to be removed")
	}
	if len(h.store.Tasks("leo")) != 1 {
		t.Error("expected leo's task definitions to be kept")
	}

	rec = doRequest(t, mux, "DELETE", "/api/members/leo", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestMemberTaskLifecycle(t *testing.T) {
	mux, h := memberMux(t)

	rec := doRequest(t, mux, "POST", "/api/members/leo/tasks", map[string]string{"title": "Homework"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var def struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	decodeBody(t, rec, &def)
	if def.Title != "Homework" || def.ID == "" {
		t.Fatalf("def = %+v", def)
	}

	rec = doRequest(t, mux, "PUT", "/api/members/leo/tasks/"+def.ID, map[string]string{"title": "Maths"})
	if rec.Code != http.StatusOK {
		t.Fatalf("rename status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, mux, "DELETE", "/api/members/leo/tasks/"+def.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if got := h.store.Tasks("leo"); len(got) != 1 || got[0].ID != "piano" {
		t.Errorf("tasks = %+v, want only piano", got)
	}
}

func TestMemberCreateTaskErrors(t *testing.T) {
	mux, _ := memberMux(t)

	rec := doRequest(t, mux, "POST", "/api/members/leo/tasks", map[string]string{"title": "  "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank title status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = doRequest(t, mux, "POST", "/api/members/nobody/tasks", map[string]string{"title": "X"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown member status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = doRequest(t, mux, "POST", "/api/members/leo/tasks", "{bad json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad json status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
