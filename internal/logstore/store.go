// Package logstore holds the household's daily logs and configuration in
// memory and writes every change straight through to local storage.
//
// App Data (day-key -> member -> daily log), App Configuration (roster and
// task definitions) and the theme flag are three independent documents.
// Every write builds a replacement of the part it touches, persists the
// whole document, and only then swaps the replacement in, so a failed save
// leaves the in-memory state as it was and readers never see a half-applied
// change. Reads hand out copies.
package logstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/tally/internal/migrate"
	"github.com/dukerupert/tally/internal/model"
)

var (
	ErrMemberNotFound = errors.New("member not found")
	ErrTaskNotFound   = errors.New("task not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrImportFormat   = errors.New("format error")
)

// errNoChange aborts an update without persisting anything.
var errNoChange = errors.New("no change")

// Persister is local key-value storage for the three documents.
type Persister interface {
	LoadDocument(ctx context.Context, key string) (raw []byte, version int, found bool, err error)
	SaveDocument(ctx context.Context, key string, raw []byte, version int) error
	// SaveDocuments replaces several documents at once: either all of them
	// are written or none is.
	SaveDocuments(ctx context.Context, docs map[string][]byte, version int) error
	DeleteDocument(ctx context.Context, key string) error
}

// Options configures a Store. Zero values select the defaults.
type Options struct {
	Logger *slog.Logger
	// Now is the clock used to decide which day is today.
	Now func() time.Time
	// NewID generates member and task ids.
	NewID func() string
}

type Store struct {
	p      Persister
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	mu     sync.RWMutex
	data   model.AppData
	config model.AppConfig
	dark   bool
}

// Open loads all documents from p. Stored documents that cannot be decoded
// or migrated are logged and replaced by empty defaults; only storage
// errors are returned.
func Open(ctx context.Context, p Persister, opts Options) (*Store, error) {
	s := &Store{
		p:      p,
		logger: opts.Logger,
		now:    opts.Now,
		newID:  opts.NewID,
		data:   model.AppData{},
		config: model.DefaultConfig(),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "logstore")
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	raw, version, found, err := p.LoadDocument(ctx, model.KeyAppData)
	if err != nil {
		return nil, fmt.Errorf("load app data: %w", err)
	}
	if found {
		data, err := migrate.AppData(raw, version)
		if err != nil {
			s.logger.Error("stored app data unreadable, starting empty", "version", version, "error", err)
		} else {
			s.data = data
		}
	}

	raw, version, found, err = p.LoadDocument(ctx, model.KeyAppConfig)
	if err != nil {
		return nil, fmt.Errorf("load app config: %w", err)
	}
	if found {
		cfg, err := migrate.AppConfig(raw, version)
		if err != nil {
			s.logger.Error("stored app config unreadable, using defaults", "version", version, "error", err)
		} else {
			s.config = cfg
		}
	}

	raw, _, found, err = p.LoadDocument(ctx, model.KeyTheme)
	if err != nil {
		return nil, fmt.Errorf("load theme: %w", err)
	}
	if found {
		s.dark = string(bytes.Trim(bytes.TrimSpace(raw), `"`)) == model.ThemeDark
	}

	s.logger.Info("log store opened",
		"days", len(s.data),
		"members", len(s.config.Members),
		"dark", s.dark,
	)
	return s, nil
}

// today returns the current day-key from the store's clock.
func (s *Store) today() string {
	return model.DayKey(s.now())
}

func (s *Store) saveData(ctx context.Context, data model.AppData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode app data: %w", err)
	}
	if err := s.p.SaveDocument(ctx, model.KeyAppData, raw, migrate.CurrentVersion); err != nil {
		return fmt.Errorf("save app data: %w", err)
	}
	return nil
}

func (s *Store) saveConfig(ctx context.Context, cfg model.AppConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode app config: %w", err)
	}
	if err := s.p.SaveDocument(ctx, model.KeyAppConfig, raw, migrate.CurrentVersion); err != nil {
		return fmt.Errorf("save app config: %w", err)
	}
	return nil
}

// saveBoth writes App Data and App Configuration in one atomic save.
func (s *Store) saveBoth(ctx context.Context, data model.AppData, cfg model.AppConfig) error {
	rawData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode app data: %w", err)
	}
	rawConfig, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode app config: %w", err)
	}
	docs := map[string][]byte{
		model.KeyAppData:   rawData,
		model.KeyAppConfig: rawConfig,
	}
	if err := s.p.SaveDocuments(ctx, docs, migrate.CurrentVersion); err != nil {
		return fmt.Errorf("save documents: %w", err)
	}
	return nil
}

// dayKey validates a caller supplied date, accepting full timestamps.
func dayKey(date string) (string, error) {
	key := model.NormalizeDayKey(date)
	if !model.ValidDayKey(key) {
		return "", fmt.Errorf("%w: date %q", ErrInvalidInput, date)
	}
	return key, nil
}

// updateDay applies fn to a copy of one member's record for one day and
// persists the result. fn may return errNoChange to skip the write.
func (s *Store) updateDay(ctx context.Context, memberID, date string, fn func(d *model.DailyLogData) error) (model.DailyLogData, error) {
	if memberID == "" {
		return model.DailyLogData{}, fmt.Errorf("%w: empty member id", ErrInvalidInput)
	}
	key, err := dayKey(date)
	if err != nil {
		return model.DailyLogData{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.data[key].Clone()
	d, ok := rec[memberID]
	if !ok {
		d = model.NewDailyLogData()
	}
	if err := fn(&d); err != nil {
		if errors.Is(err, errNoChange) {
			return s.data[key][memberID].Clone(), nil
		}
		return model.DailyLogData{}, err
	}
	rec[memberID] = d

	next := s.data.With(key, rec)
	if err := s.saveData(ctx, next); err != nil {
		return model.DailyLogData{}, err
	}
	s.data = next
	return d.Clone(), nil
}

// updateConfig applies fn to a copy of the configuration and persists it.
func (s *Store) updateConfig(ctx context.Context, fn func(cfg *model.AppConfig) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.config.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := s.saveConfig(ctx, next); err != nil {
		return err
	}
	s.config = next
	return nil
}
