package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/tally/internal/backup"
	"github.com/dukerupert/tally/internal/logstore"
)

const backupListLimit = 50

type BackupHandler struct {
	manager *backup.Manager
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, logger: logger}
}

type passphraseRequest struct {
	Passphrase string `json:"passphrase"`
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	backups, err := h.manager.List(backupListLimit)
	if err != nil {
		h.logger.Error("failed to list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  h.manager.Status(),
		"backups": backups,
	})
}

// Create runs a backup now. The passphrase in the body is optional.
func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req passphraseRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.manager.RunNow(r.Context(), req.Passphrase)
	if err != nil {
		h.writeBackupError(w, err, "backup failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "status": h.manager.Status()})
}

func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req passphraseRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	if err := h.manager.Restore(r.Context(), id, req.Passphrase); err != nil {
		h.writeBackupError(w, err, "restore failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

func (h *BackupHandler) writeBackupError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, backup.ErrDisabled), errors.Is(err, backup.ErrNoPassphrase):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, backup.ErrNotFound):
		writeError(w, http.StatusNotFound, "backup not found")
	case errors.Is(err, backup.ErrAlreadyActive):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, backup.ErrDecrypt):
		writeError(w, http.StatusBadRequest, "wrong passphrase or corrupt backup")
	case errors.Is(err, logstore.ErrImportFormat):
		writeError(w, http.StatusBadRequest, "format error")
	default:
		h.logger.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, msg)
	}
}
