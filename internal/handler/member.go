package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/tally/internal/agegrade"
	"github.com/dukerupert/tally/internal/logstore"
	"github.com/dukerupert/tally/internal/model"
)

type MemberHandler struct {
	store  *logstore.Store
	now    func() time.Time
	logger *slog.Logger
}

func NewMemberHandler(s *logstore.Store, now func() time.Time, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{store: s, now: now, logger: logger}
}

type memberView struct {
	model.Member
	// DisplaySubtitle is the manual subtitle or the derived age and grade.
	DisplaySubtitle string                 `json:"display_subtitle"`
	Tasks           []model.TaskDefinition `json:"tasks"`
}

func (h *MemberHandler) view(m model.Member) memberView {
	return memberView{
		Member:          m,
		DisplaySubtitle: agegrade.Subtitle(m, h.now()),
		Tasks:           h.store.Tasks(m.ID),
	}
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members := h.store.Members()
	views := make([]memberView, 0, len(members))
	for _, m := range members {
		views = append(views, h.view(m))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	m, err := h.store.AddMember(r.Context(), req.Name)
	if err != nil {
		writeStoreError(w, h.logger, err, "failed to add member")
		return
	}
	writeJSON(w, http.StatusCreated, h.view(m))
}

// Update applies whichever fields are present in the request.
func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.store.Member(id); !ok {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	var req struct {
		Name            *string `json:"name"`
		BirthDate       *string `json:"birthDate"`
		Subtitle        *string `json:"subtitle"`
		Visible         *bool   `json:"visible"`
		ThemeColor      *string `json:"themeColor"`
		BackgroundImage *string `json:"backgroundImage"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	m, _ := h.store.Member(id)
	var err error
	if req.Name != nil {
		m, err = h.store.RenameMember(ctx, id, *req.Name)
	}
	if err == nil && req.BirthDate != nil {
		m, err = h.store.SetMemberBirthDate(ctx, id, *req.BirthDate)
	}
	if err == nil && req.Subtitle != nil {
		m, err = h.store.SetMemberSubtitle(ctx, id, *req.Subtitle)
	}
	if err == nil && req.Visible != nil {
		m, err = h.store.SetMemberVisible(ctx, id, *req.Visible)
	}
	if err == nil && (req.ThemeColor != nil || req.BackgroundImage != nil) {
		color, bg := m.ThemeColor, m.BackgroundImage
		if req.ThemeColor != nil {
			color = *req.ThemeColor
		}
		if req.BackgroundImage != nil {
			bg = *req.BackgroundImage
		}
		m, err = h.store.SetMemberTheme(ctx, id, color, bg)
	}
	if err != nil {
		writeStoreError(w, h.logger, err, "failed to update member")
		return
	}
	writeJSON(w, http.StatusOK, h.view(m))
}

// Delete removes the member from the roster. Logged history is kept.
func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RemoveMember(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, h.logger, err, "failed to remove member")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MemberHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	def, err := h.store.AddTaskDefinition(r.Context(), r.PathValue("id"), req.Title)
	if err != nil {
		writeStoreError(w, h.logger, err, "failed to add task")
		return
	}
	writeJSON(w, http.StatusCreated, def)
}

func (h *MemberHandler) RenameTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	def, err := h.store.RenameTaskDefinition(r.Context(), r.PathValue("id"), r.PathValue("taskID"), req.Title)
	if err != nil {
		writeStoreError(w, h.logger, err, "failed to rename task")
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (h *MemberHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RemoveTaskDefinition(r.Context(), r.PathValue("id"), r.PathValue("taskID")); err != nil {
		writeStoreError(w, h.logger, err, "failed to remove task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
