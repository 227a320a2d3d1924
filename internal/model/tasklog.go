package model

// TaskDefinition is a recurring checklist item owned by one member.
type TaskDefinition struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// TaskLog is the state of one task for one member on one day.
type TaskLog struct {
	Completed     bool   `json:"completed"`
	Details       string `json:"details"`
	RecordedTitle string `json:"recordedTitle,omitempty"`
}

// DisplayTitle returns the title to show for this log: the title recorded
// at completion time when the task is completed, otherwise liveTitle.
func (l TaskLog) DisplayTitle(liveTitle string) string {
	if l.Completed && l.RecordedTitle != "" {
		return l.RecordedTitle
	}
	return liveTitle
}

// DailyLogData is one member's record for one day. A task id missing from
// Tasks means not completed and no notes.
type DailyLogData struct {
	Tasks       map[string]TaskLog `json:"tasks"`
	CustomTasks []string           `json:"customTasks"`
	Mood        string             `json:"mood"`
}

// NewDailyLogData returns an empty record with initialised collections.
func NewDailyLogData() DailyLogData {
	return DailyLogData{
		Tasks:       make(map[string]TaskLog),
		CustomTasks: []string{},
	}
}

// Clone returns a deep copy safe to modify.
func (d DailyLogData) Clone() DailyLogData {
	out := DailyLogData{
		Tasks:       make(map[string]TaskLog, len(d.Tasks)),
		CustomTasks: make([]string, len(d.CustomTasks)),
		Mood:        d.Mood,
	}
	for id, l := range d.Tasks {
		out.Tasks[id] = l
	}
	copy(out.CustomTasks, d.CustomTasks)
	return out
}

// Task returns the log for taskID, or the zero log when absent.
func (d DailyLogData) Task(taskID string) TaskLog {
	return d.Tasks[taskID]
}
