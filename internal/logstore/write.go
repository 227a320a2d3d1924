package logstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukerupert/tally/internal/model"
)

// ToggleTask flips a task's completion for one day. Completing stamps the
// live definition title as the recorded title; un-completing leaves the
// recorded title in place.
func (s *Store) ToggleTask(ctx context.Context, memberID, taskID, date string) (model.TaskLog, error) {
	if taskID == "" {
		return model.TaskLog{}, fmt.Errorf("%w: empty task id", ErrInvalidInput)
	}

	// fn runs under s.mu, so the title read here cannot be renamed away
	// before the log is saved.
	d, err := s.updateDay(ctx, memberID, date, func(d *model.DailyLogData) error {
		l := d.Tasks[taskID]
		l.Completed = !l.Completed
		if def, ok := s.config.TaskDefinition(memberID, taskID); l.Completed && ok {
			l.RecordedTitle = def.Title
		}
		d.Tasks[taskID] = l
		return nil
	})
	if err != nil {
		return model.TaskLog{}, fmt.Errorf("toggle task: %w", err)
	}
	return d.Task(taskID), nil
}

// SetTaskDetails overwrites the day's note for a task without touching its
// completion.
func (s *Store) SetTaskDetails(ctx context.Context, memberID, taskID, date, details string) (model.TaskLog, error) {
	if taskID == "" {
		return model.TaskLog{}, fmt.Errorf("%w: empty task id", ErrInvalidInput)
	}
	d, err := s.updateDay(ctx, memberID, date, func(d *model.DailyLogData) error {
		l := d.Tasks[taskID]
		l.Details = details
		d.Tasks[taskID] = l
		return nil
	})
	if err != nil {
		return model.TaskLog{}, fmt.Errorf("set task details: %w", err)
	}
	return d.Task(taskID), nil
}

// AddCustomTask appends a trimmed ad hoc task to the day's list. Blank text
// is rejected and the list is left alone.
func (s *Store) AddCustomTask(ctx context.Context, memberID, date, text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("add custom task: %w: blank text", ErrInvalidInput)
	}
	d, err := s.updateDay(ctx, memberID, date, func(d *model.DailyLogData) error {
		d.CustomTasks = append(d.CustomTasks, text)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add custom task: %w", err)
	}
	return d.CustomTasks, nil
}

// RemoveCustomTask removes the custom task at index. An index outside the
// list is ignored.
func (s *Store) RemoveCustomTask(ctx context.Context, memberID, date string, index int) ([]string, error) {
	d, err := s.updateDay(ctx, memberID, date, func(d *model.DailyLogData) error {
		if index < 0 || index >= len(d.CustomTasks) {
			return errNoChange
		}
		d.CustomTasks = append(d.CustomTasks[:index], d.CustomTasks[index+1:]...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("remove custom task: %w", err)
	}
	return d.CustomTasks, nil
}

// SetMood overwrites the day's mood.
func (s *Store) SetMood(ctx context.Context, memberID, date, mood string) error {
	_, err := s.updateDay(ctx, memberID, date, func(d *model.DailyLogData) error {
		d.Mood = mood
		return nil
	})
	if err != nil {
		return fmt.Errorf("set mood: %w", err)
	}
	return nil
}

// SetDarkMode stores the theme preference. Light mode is the absence of the
// flag.
func (s *Store) SetDarkMode(ctx context.Context, dark bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if dark {
		err = s.p.SaveDocument(ctx, model.KeyTheme, []byte(model.ThemeDark), 0)
	} else {
		err = s.p.DeleteDocument(ctx, model.KeyTheme)
	}
	if err != nil {
		return fmt.Errorf("set dark mode: %w", err)
	}
	s.dark = dark
	return nil
}
