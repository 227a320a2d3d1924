package handler

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/tally/internal/logstore"
)

type SettingsHandler struct {
	store  *logstore.Store
	now    func() time.Time
	logger *slog.Logger
}

func NewSettingsHandler(s *logstore.Store, now func() time.Time, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{store: s, now: now, logger: logger}
}

type configView struct {
	AppTitle        string `json:"appTitle"`
	ThemeColor      string `json:"themeColor"`
	BackgroundImage string `json:"backgroundImage"`
}

func (h *SettingsHandler) currentConfig() configView {
	cfg := h.store.Config()
	return configView{AppTitle: cfg.AppTitle, ThemeColor: cfg.ThemeColor, BackgroundImage: cfg.BackgroundImage}
}

func (h *SettingsHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.currentConfig())
}

// UpdateConfig sets the app title and global theme. Omitted fields keep
// their values.
func (h *SettingsHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AppTitle        *string `json:"appTitle"`
		ThemeColor      *string `json:"themeColor"`
		BackgroundImage *string `json:"backgroundImage"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	cfg, err := h.store.SetAppSettings(r.Context(), logstore.AppSettings{
		AppTitle:        req.AppTitle,
		ThemeColor:      req.ThemeColor,
		BackgroundImage: req.BackgroundImage,
	})
	if err != nil {
		writeStoreError(w, h.logger, err, "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, configView{AppTitle: cfg.AppTitle, ThemeColor: cfg.ThemeColor, BackgroundImage: cfg.BackgroundImage})
}

func (h *SettingsHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"dark": h.store.DarkMode()})
}

func (h *SettingsHandler) UpdateTheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Dark bool `json:"dark"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.store.SetDarkMode(r.Context(), req.Dark); err != nil {
		writeStoreError(w, h.logger, err, "failed to save theme")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"dark": h.store.DarkMode()})
}

// Export returns the full export blob as a download.
func (h *SettingsHandler) Export(w http.ResponseWriter, r *http.Request) {
	blob, err := h.store.ExportBlob()
	if err != nil {
		writeStoreError(w, h.logger, err, "failed to export")
		return
	}
	name := "tally-" + h.now().Format("2006-01-02") + ".json"
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(blob)
}

// Import replaces all data with the posted export blob.
func (h *SettingsHandler) Import(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "import too large")
		return
	}
	if err := h.store.ImportBlob(r.Context(), body); err != nil {
		writeStoreError(w, h.logger, err, "failed to import")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "imported",
		"members": len(h.store.Members()),
	})
}
