package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/tally/internal/agegrade"
	"github.com/dukerupert/tally/internal/logstore"
	"github.com/dukerupert/tally/internal/model"
)

type DayHandler struct {
	store  *logstore.Store
	now    func() time.Time
	logger *slog.Logger
}

func NewDayHandler(s *logstore.Store, now func() time.Time, logger *slog.Logger) *DayHandler {
	return &DayHandler{store: s, now: now, logger: logger}
}

type taskView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	LiveTitle string `json:"live_title"`
	Completed bool   `json:"completed"`
	Details   string `json:"details"`
}

type memberDayView struct {
	Member      model.Member `json:"member"`
	Subtitle    string       `json:"subtitle"`
	Tasks       []taskView   `json:"tasks"`
	CustomTasks []string     `json:"custom_tasks"`
	Mood        string       `json:"mood"`
	Progress    int          `json:"progress"`
}

type dayView struct {
	Date           string          `json:"date"`
	HasRecord      bool            `json:"has_record"`
	FamilyProgress int             `json:"family_progress"`
	Members        []memberDayView `json:"members"`
}

func (h *DayHandler) memberDay(m model.Member, date string) memberDayView {
	d := h.store.DailyLogData(m.ID, date)
	defs := h.store.Tasks(m.ID)
	tasks := make([]taskView, 0, len(defs))
	for _, def := range defs {
		l := d.Task(def.ID)
		tasks = append(tasks, taskView{
			ID:        def.ID,
			Title:     l.DisplayTitle(def.Title),
			LiveTitle: def.Title,
			Completed: l.Completed,
			Details:   l.Details,
		})
	}
	return memberDayView{
		Member:      m,
		Subtitle:    agegrade.Subtitle(m, h.now()),
		Tasks:       tasks,
		CustomTasks: d.CustomTasks,
		Mood:        d.Mood,
		Progress:    h.store.MemberProgress(m.ID, date),
	}
}

// Get returns the day view for every visible member.
func (h *DayHandler) Get(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}

	view := dayView{
		Date:           date,
		HasRecord:      h.store.HasRecord(date),
		FamilyProgress: h.store.FamilyProgress(date),
		Members:        []memberDayView{},
	}
	for _, m := range h.store.Members() {
		if m.Visible {
			view.Members = append(view.Members, h.memberDay(m, date))
		}
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *DayHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	m, ok := h.store.Member(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	writeJSON(w, http.StatusOK, h.memberDay(m, date))
}

// ToggleTask flips completion and returns the member's updated day.
func (h *DayHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	if _, err := h.store.ToggleTask(r.Context(), r.PathValue("id"), r.PathValue("taskID"), date); err != nil {
		writeStoreError(w, h.logger, err, "failed to toggle task")
		return
	}
	h.writeMemberDay(w, r.PathValue("id"), date)
}

func (h *DayHandler) SetTaskDetails(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Details string `json:"details"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := h.store.SetTaskDetails(r.Context(), r.PathValue("id"), r.PathValue("taskID"), date, req.Details); err != nil {
		writeStoreError(w, h.logger, err, "failed to save details")
		return
	}
	h.writeMemberDay(w, r.PathValue("id"), date)
}

func (h *DayHandler) AddCustomTask(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := h.store.AddCustomTask(r.Context(), r.PathValue("id"), date, req.Text); err != nil {
		writeStoreError(w, h.logger, err, "failed to add custom task")
		return
	}
	h.writeMemberDay(w, r.PathValue("id"), date)
}

// RemoveCustomTask removes by position; an index past the end is ignored.
func (h *DayHandler) RemoveCustomTask(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}
	if _, err := h.store.RemoveCustomTask(r.Context(), r.PathValue("id"), date, index); err != nil {
		writeStoreError(w, h.logger, err, "failed to remove custom task")
		return
	}
	h.writeMemberDay(w, r.PathValue("id"), date)
}

func (h *DayHandler) SetMood(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Mood string `json:"mood"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.store.SetMood(r.Context(), r.PathValue("id"), date, req.Mood); err != nil {
		writeStoreError(w, h.logger, err, "failed to save mood")
		return
	}
	h.writeMemberDay(w, r.PathValue("id"), date)
}

// writeMemberDay responds with the member's day. Members no longer on the
// roster still get their log back.
func (h *DayHandler) writeMemberDay(w http.ResponseWriter, memberID, date string) {
	m, ok := h.store.Member(memberID)
	if !ok {
		m = model.Member{ID: memberID}
	}
	writeJSON(w, http.StatusOK, h.memberDay(m, date))
}

// Calendar returns the month overview for ?month=YYYY-MM, defaulting to the
// current month.
func (h *DayHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	month := h.now()
	if q := r.URL.Query().Get("month"); q != "" {
		t, err := time.Parse("2006-01", q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		month = t
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month": month.Format("2006-01"),
		"days":  h.store.MonthOverview(month.Year(), month.Month()),
	})
}
