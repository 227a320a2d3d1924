package migrate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/tally/internal/model"
)

// TaskLogVariant is a task log as found in persisted data: either a bare
// boolean written by early versions or a structured object. It only exists
// at the decoding boundary; everything past migration sees model.TaskLog.
type TaskLogVariant interface {
	Normalize() model.TaskLog
}

// LegacyBoolean is the early representation: just the completion flag.
type LegacyBoolean bool

// Normalize implements TaskLogVariant.
func (b LegacyBoolean) Normalize() model.TaskLog {
	return model.TaskLog{Completed: bool(b), Details: ""}
}

// StructuredLog is the current representation.
type StructuredLog model.TaskLog

// Normalize implements TaskLogVariant.
func (s StructuredLog) Normalize() model.TaskLog {
	return model.TaskLog(s)
}

// DecodeTaskLog decodes one persisted task log of either shape.
func DecodeTaskLog(raw json.RawMessage) (TaskLogVariant, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty task log")
	}

	switch trimmed[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return nil, fmt.Errorf("decode legacy task log: %w", err)
		}
		return LegacyBoolean(b), nil
	case 'n':
		return StructuredLog{}, nil
	case '{':
		var s StructuredLog
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("decode task log: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported task log %s", trimmed)
	}
}
