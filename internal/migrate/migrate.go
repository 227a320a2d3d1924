// Package migrate turns persisted or imported documents of any known version
// into the current canonical structures.
//
// Loading always follows the same path: raw bytes and their recorded version
// go through the ordered steps up to CurrentVersion, then the result is
// decoded and its collections initialised. Documents persisted without a
// version (and every imported blob) are version 0.
package migrate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dukerupert/tally/internal/model"
)

// CurrentVersion is the version written by SaveDocument.
const CurrentVersion = 1

// ErrUnknownVersion is returned for documents newer than this build understands.
var ErrUnknownVersion = errors.New("unknown document version")

type step func(raw []byte) ([]byte, error)

// dataSteps[n] migrates App Data from version n to n+1.
var dataSteps = []step{
	dataV0ToV1,
}

// configSteps[n] migrates App Configuration from version n to n+1.
var configSteps = []step{
	configV0ToV1,
}

// AppData migrates raw App Data at version to the canonical structure.
func AppData(raw []byte, version int) (model.AppData, error) {
	if isEmpty(raw) {
		return model.AppData{}, nil
	}
	migrated, err := run(raw, version, dataSteps)
	if err != nil {
		return nil, fmt.Errorf("migrate app data: %w", err)
	}

	var data model.AppData
	if err := json.Unmarshal(migrated, &data); err != nil {
		return nil, fmt.Errorf("decode app data: %w", err)
	}
	return ensureData(data), nil
}

// AppConfig migrates raw App Configuration at version to the canonical structure.
func AppConfig(raw []byte, version int) (model.AppConfig, error) {
	if isEmpty(raw) {
		return model.DefaultConfig(), nil
	}
	migrated, err := run(raw, version, configSteps)
	if err != nil {
		return model.AppConfig{}, fmt.Errorf("migrate app config: %w", err)
	}

	var cfg model.AppConfig
	if err := json.Unmarshal(migrated, &cfg); err != nil {
		return model.AppConfig{}, fmt.Errorf("decode app config: %w", err)
	}
	return ensureConfig(cfg), nil
}

func run(raw []byte, version int, steps []step) ([]byte, error) {
	if version < 0 || version > CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, version)
	}
	out := raw
	for v := version; v < CurrentVersion; v++ {
		next, err := steps[v](out)
		if err != nil {
			return nil, fmt.Errorf("step %d->%d: %w", v, v+1, err)
		}
		out = next
	}
	return out, nil
}

func isEmpty(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func ensureData(data model.AppData) model.AppData {
	if data == nil {
		return model.AppData{}
	}
	for day, rec := range data {
		if rec == nil {
			rec = model.DayRecord{}
		}
		for id, d := range rec {
			if d.Tasks == nil {
				d.Tasks = make(map[string]model.TaskLog)
			}
			if d.CustomTasks == nil {
				d.CustomTasks = []string{}
			}
			rec[id] = d
		}
		data[day] = rec
	}
	return data
}

func ensureConfig(cfg model.AppConfig) model.AppConfig {
	if cfg.Members == nil {
		cfg.Members = make(map[string]model.Member)
	}
	if cfg.Tasks == nil {
		cfg.Tasks = make(map[string][]model.TaskDefinition)
	}
	for id, defs := range cfg.Tasks {
		if defs == nil {
			cfg.Tasks[id] = []model.TaskDefinition{}
		}
	}
	return cfg
}
