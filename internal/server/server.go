package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/tally/internal/backup"
	"github.com/dukerupert/tally/internal/handler"
	"github.com/dukerupert/tally/internal/logstore"
	"github.com/dukerupert/tally/internal/middleware"
	"github.com/dukerupert/tally/internal/summary"
)

// Config holds the server's tunables.
type Config struct {
	// SummaryRatePerMinute caps summary requests per client IP. Zero disables
	// the limit.
	SummaryRatePerMinute int
	// Now is the clock for age and grade subtitles.
	Now func() time.Time
}

type Server struct {
	memberH     *handler.MemberHandler
	dayH        *handler.DayHandler
	settingsH   *handler.SettingsHandler
	summaryH    *handler.SummaryHandler
	backupH     *handler.BackupHandler
	rateLimiter *middleware.RateLimiter
	cfg         Config
	logger      *slog.Logger
}

func New(logs *logstore.Store, summarySvc *summary.Service, backupMgr *backup.Manager, cfg Config, logger *slog.Logger) *Server {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Server{
		memberH:     handler.NewMemberHandler(logs, cfg.Now, logger.With("component", "member")),
		dayH:        handler.NewDayHandler(logs, cfg.Now, logger.With("component", "day")),
		settingsH:   handler.NewSettingsHandler(logs, cfg.Now, logger.With("component", "settings")),
		summaryH:    handler.NewSummaryHandler(logs, summarySvc, logger.With("component", "summary_handler")),
		backupH:     handler.NewBackupHandler(backupMgr, logger.With("component", "backup_handler")),
		rateLimiter: middleware.NewRateLimiter(),
		cfg:         cfg,
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Configuration
	mux.HandleFunc("GET /api/config", s.settingsH.GetConfig)
	mux.HandleFunc("PUT /api/config", s.settingsH.UpdateConfig)
	mux.HandleFunc("GET /api/theme", s.settingsH.GetTheme)
	mux.HandleFunc("PUT /api/theme", s.settingsH.UpdateTheme)

	// Roster and task definitions
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("POST /api/members", s.memberH.Create)
	mux.HandleFunc("PUT /api/members/{id}", s.memberH.Update)
	mux.HandleFunc("DELETE /api/members/{id}", s.memberH.Delete)
	mux.HandleFunc("POST /api/members/{id}/tasks", s.memberH.CreateTask)
	mux.HandleFunc("PUT /api/members/{id}/tasks/{taskID}", s.memberH.RenameTask)
	mux.HandleFunc("DELETE /api/members/{id}/tasks/{taskID}", s.memberH.DeleteTask)

	// Daily logs
	mux.HandleFunc("GET /api/days/{date}", s.dayH.Get)
	mux.HandleFunc("GET /api/days/{date}/members/{id}", s.dayH.GetMember)
	mux.HandleFunc("POST /api/days/{date}/members/{id}/tasks/{taskID}/toggle", s.dayH.ToggleTask)
	mux.HandleFunc("PUT /api/days/{date}/members/{id}/tasks/{taskID}/details", s.dayH.SetTaskDetails)
	mux.HandleFunc("POST /api/days/{date}/members/{id}/custom-tasks", s.dayH.AddCustomTask)
	mux.HandleFunc("DELETE /api/days/{date}/members/{id}/custom-tasks/{index}", s.dayH.RemoveCustomTask)
	mux.HandleFunc("PUT /api/days/{date}/members/{id}/mood", s.dayH.SetMood)
	mux.HandleFunc("GET /api/calendar", s.dayH.Calendar)

	// Export and import
	mux.HandleFunc("GET /api/export", s.settingsH.Export)
	mux.HandleFunc("POST /api/import", s.settingsH.Import)

	// Summary
	mux.HandleFunc("POST /api/days/{date}/summary", s.rateLimitedHandler(s.summaryH.Generate))
	mux.HandleFunc("GET /api/summary/status", s.summaryH.Status)

	// Backups
	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("POST /api/backups", s.backupH.Create)
	mux.HandleFunc("POST /api/backups/{id}/restore", s.backupH.Restore)

	httpLogger := s.logger.With("component", "http")
	return middleware.RequestLogger(httpLogger)(middleware.Recoverer(httpLogger)(mux))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	if s.cfg.SummaryRatePerMinute <= 0 {
		return h
	}
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, s.cfg.SummaryRatePerMinute, time.Minute)
	return rl(h).ServeHTTP
}
