package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/tally/internal/logstore"
	"github.com/dukerupert/tally/internal/summary"
)

type SummaryHandler struct {
	store   *logstore.Store
	service *summary.Service
	logger  *slog.Logger
}

func NewSummaryHandler(s *logstore.Store, svc *summary.Service, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{store: s, service: svc, logger: logger}
}

// Generate writes a narrative summary of the day's structured task logs.
func (h *SummaryHandler) Generate(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}

	text, err := h.service.Summarize(r.Context(), h.store.SummaryInput(date))
	switch {
	case errors.Is(err, summary.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "summary generation is not configured")
		return
	case err != nil:
		h.logger.Error("summary generation failed", "date", date, "error", err)
		writeError(w, http.StatusBadGateway, "summary generation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"date": date, "summary": text})
}

func (h *SummaryHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{
		"enabled":     h.service.Enabled(),
		"generating":  h.service.Generating(),
		"last_failed": h.service.LastFailed(),
	})
}
