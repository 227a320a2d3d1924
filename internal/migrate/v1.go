package migrate

import (
	"encoding/json"
	"fmt"

	"github.com/dukerupert/tally/internal/model"
)

type dailyLogV0 struct {
	Tasks       map[string]json.RawMessage `json:"tasks"`
	CustomTasks []string                   `json:"customTasks"`
	Mood        string                     `json:"mood"`
}

// dataV0ToV1 resolves legacy boolean task logs and truncates timestamp keys
// to day-keys.
func dataV0ToV1(raw []byte) ([]byte, error) {
	var in map[string]map[string]dailyLogV0
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("decode v0 data: %w", err)
	}

	out := make(model.AppData, len(in))
	for key, rec := range in {
		day := model.NormalizeDayKey(key)
		target, ok := out[day]
		if !ok {
			target = make(model.DayRecord, len(rec))
		}
		for memberID, d := range rec {
			if _, exists := target[memberID]; exists && key != day {
				// An exact day-key wins over a timestamp that truncates to it.
				continue
			}
			entry := model.NewDailyLogData()
			entry.Mood = d.Mood
			if d.CustomTasks != nil {
				entry.CustomTasks = d.CustomTasks
			}
			for taskID, rawLog := range d.Tasks {
				v, err := DecodeTaskLog(rawLog)
				if err != nil {
					return nil, fmt.Errorf("day %s member %s task %s: %w", key, memberID, taskID, err)
				}
				entry.Tasks[taskID] = v.Normalize()
			}
			target[memberID] = entry
		}
		out[day] = target
	}

	return json.Marshal(out)
}

type memberV0 struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	BirthDate       string `json:"birthDate"`
	Subtitle        string `json:"subtitle"`
	Visible         *bool  `json:"visible"`
	ThemeColor      string `json:"themeColor"`
	BackgroundImage string `json:"backgroundImage"`
	SortOrder       int    `json:"sortOrder"`
}

type configV0 struct {
	Members         map[string]memberV0               `json:"members"`
	Tasks           map[string][]model.TaskDefinition `json:"tasks"`
	AppTitle        string                            `json:"appTitle"`
	ThemeColor      string                            `json:"themeColor"`
	BackgroundImage string                            `json:"backgroundImage"`
}

// configV0ToV1 defaults the visible flag, which early rosters did not have,
// and fills in member ids from their map keys.
func configV0ToV1(raw []byte) ([]byte, error) {
	var in configV0
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("decode v0 config: %w", err)
	}

	out := model.AppConfig{
		Members:         make(map[string]model.Member, len(in.Members)),
		Tasks:           in.Tasks,
		AppTitle:        in.AppTitle,
		ThemeColor:      in.ThemeColor,
		BackgroundImage: in.BackgroundImage,
	}
	for key, m := range in.Members {
		visible := true
		if m.Visible != nil {
			visible = *m.Visible
		}
		id := m.ID
		if id == "" {
			id = key
		}
		out.Members[key] = model.Member{
			ID:              id,
			Name:            m.Name,
			BirthDate:       m.BirthDate,
			Subtitle:        m.Subtitle,
			Visible:         visible,
			ThemeColor:      m.ThemeColor,
			BackgroundImage: m.BackgroundImage,
			SortOrder:       m.SortOrder,
		}
	}

	return json.Marshal(out)
}
