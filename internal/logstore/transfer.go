package logstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/tally/internal/migrate"
	"github.com/dukerupert/tally/internal/model"
)

// ExportBlob serialises all App Data and App Configuration as one JSON
// object, {"data": ..., "config": ...}.
func (s *Store) ExportBlob() ([]byte, error) {
	s.mu.RLock()
	blob := model.ExportBlob{Data: s.data, Config: s.config}
	raw, err := json.Marshal(blob)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return raw, nil
}

// ImportBlob replaces all App Data and App Configuration with the contents
// of an exported blob. Both top-level fields must be present and be
// objects; anything else fails with ErrImportFormat and nothing changes.
// The contents are otherwise trusted.
func (s *Store) ImportBlob(ctx context.Context, text []byte) error {
	data, cfg, err := parseBlob(text)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveBoth(ctx, data, cfg); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	s.data = data
	s.config = cfg

	s.logger.Info("import applied", "days", len(data), "members", len(cfg.Members))
	return nil
}

func parseBlob(text []byte) (model.AppData, model.AppConfig, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(text, &top); err != nil {
		return nil, model.AppConfig{}, fmt.Errorf("%w: %v", ErrImportFormat, err)
	}

	rawData, ok := top["data"]
	if !ok || !isObject(rawData) {
		return nil, model.AppConfig{}, fmt.Errorf("%w: missing data object", ErrImportFormat)
	}
	rawConfig, ok := top["config"]
	if !ok || !isObject(rawConfig) {
		return nil, model.AppConfig{}, fmt.Errorf("%w: missing config object", ErrImportFormat)
	}

	data, err := migrate.AppData(rawData, 0)
	if err != nil {
		return nil, model.AppConfig{}, fmt.Errorf("%w: %v", ErrImportFormat, err)
	}
	cfg, err := migrate.AppConfig(rawConfig, 0)
	if err != nil {
		return nil, model.AppConfig{}, fmt.Errorf("%w: %v", ErrImportFormat, err)
	}
	return data, cfg, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
