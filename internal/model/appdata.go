package model

// DayRecord maps member id to that member's record for one day.
type DayRecord map[string]DailyLogData

// Clone returns a deep copy. Cloning a nil record yields an empty one.
func (r DayRecord) Clone() DayRecord {
	out := make(DayRecord, len(r))
	for id, d := range r {
		out[id] = d.Clone()
	}
	return out
}

// AppData maps day-key to the record for that day. A missing key means no
// activity that day, which is different from a present but empty record.
type AppData map[string]DayRecord

// With returns a shallow copy of the data with the record for day replaced.
func (a AppData) With(day string, rec DayRecord) AppData {
	out := make(AppData, len(a)+1)
	for k, v := range a {
		out[k] = v
	}
	out[day] = rec
	return out
}

// AppConfig is the slower-changing household configuration.
type AppConfig struct {
	Members         map[string]Member           `json:"members"`
	Tasks           map[string][]TaskDefinition `json:"tasks"`
	AppTitle        string                      `json:"appTitle,omitempty"`
	ThemeColor      string                      `json:"themeColor,omitempty"`
	BackgroundImage string                      `json:"backgroundImage,omitempty"`
}

// DefaultConfig returns an empty configuration.
func DefaultConfig() AppConfig {
	return AppConfig{
		Members: make(map[string]Member),
		Tasks:   make(map[string][]TaskDefinition),
	}
}

// Clone returns a deep copy of the configuration.
func (c AppConfig) Clone() AppConfig {
	out := AppConfig{
		Members:         make(map[string]Member, len(c.Members)),
		Tasks:           make(map[string][]TaskDefinition, len(c.Tasks)),
		AppTitle:        c.AppTitle,
		ThemeColor:      c.ThemeColor,
		BackgroundImage: c.BackgroundImage,
	}
	for id, m := range c.Members {
		out.Members[id] = m
	}
	for id, defs := range c.Tasks {
		cp := make([]TaskDefinition, len(defs))
		copy(cp, defs)
		out.Tasks[id] = cp
	}
	return out
}

// TaskDefinition looks up a member's task definition.
func (c AppConfig) TaskDefinition(memberID, taskID string) (TaskDefinition, bool) {
	for _, def := range c.Tasks[memberID] {
		if def.ID == taskID {
			return def, true
		}
	}
	return TaskDefinition{}, false
}

// ExportBlob is the copy/paste backup format.
type ExportBlob struct {
	Data   AppData   `json:"data"`
	Config AppConfig `json:"config"`
}
