package logstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukerupert/tally/internal/model"
)

// DefaultMemberName names members added without a name.
const DefaultMemberName = "新成員"

// starterTasks seeds the checklist of a new member.
var starterTasks = []string{"刷牙洗臉", "整理書包", "閱讀"}

// editMember applies fn to a copy of an existing member.
func (s *Store) editMember(ctx context.Context, id string, fn func(m *model.Member) error) (model.Member, error) {
	var out model.Member
	err := s.updateConfig(ctx, func(cfg *model.AppConfig) error {
		m, ok := cfg.Members[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMemberNotFound, id)
		}
		if err := fn(&m); err != nil {
			return err
		}
		cfg.Members[id] = m
		out = m
		return nil
	})
	return out, err
}

func (s *Store) RenameMember(ctx context.Context, id, name string) (model.Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Member{}, fmt.Errorf("rename member: %w: blank name", ErrInvalidInput)
	}
	m, err := s.editMember(ctx, id, func(m *model.Member) error {
		m.Name = name
		return nil
	})
	if err != nil {
		return model.Member{}, fmt.Errorf("rename member: %w", err)
	}
	return m, nil
}

// SetMemberTheme sets the member's cosmetic color and background. Both are
// stored as given.
func (s *Store) SetMemberTheme(ctx context.Context, id, themeColor, backgroundImage string) (model.Member, error) {
	m, err := s.editMember(ctx, id, func(m *model.Member) error {
		m.ThemeColor = themeColor
		m.BackgroundImage = backgroundImage
		return nil
	})
	if err != nil {
		return model.Member{}, fmt.Errorf("set member theme: %w", err)
	}
	return m, nil
}

// SetMemberBirthDate sets or, with an empty string, clears the birth date.
func (s *Store) SetMemberBirthDate(ctx context.Context, id, birthDate string) (model.Member, error) {
	birthDate = strings.TrimSpace(birthDate)
	if birthDate != "" {
		birthDate = model.NormalizeDayKey(birthDate)
		if !model.ValidDayKey(birthDate) {
			return model.Member{}, fmt.Errorf("set member birth date: %w: %q", ErrInvalidInput, birthDate)
		}
	}
	m, err := s.editMember(ctx, id, func(m *model.Member) error {
		m.BirthDate = birthDate
		return nil
	})
	if err != nil {
		return model.Member{}, fmt.Errorf("set member birth date: %w", err)
	}
	return m, nil
}

// SetMemberSubtitle sets the manual subtitle. An empty subtitle returns the
// member to the computed age and grade.
func (s *Store) SetMemberSubtitle(ctx context.Context, id, subtitle string) (model.Member, error) {
	subtitle = strings.TrimSpace(subtitle)
	m, err := s.editMember(ctx, id, func(m *model.Member) error {
		m.Subtitle = subtitle
		return nil
	})
	if err != nil {
		return model.Member{}, fmt.Errorf("set member subtitle: %w", err)
	}
	return m, nil
}

func (s *Store) SetMemberVisible(ctx context.Context, id string, visible bool) (model.Member, error) {
	m, err := s.editMember(ctx, id, func(m *model.Member) error {
		m.Visible = visible
		return nil
	})
	if err != nil {
		return model.Member{}, fmt.Errorf("set member visible: %w", err)
	}
	return m, nil
}

// AddMember adds a visible member with a fresh id and a starter checklist.
func (s *Store) AddMember(ctx context.Context, name string) (model.Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultMemberName
	}

	var out model.Member
	err := s.updateConfig(ctx, func(cfg *model.AppConfig) error {
		id := s.newID()
		for _, taken := cfg.Members[id]; taken; _, taken = cfg.Members[id] {
			id = s.newID()
		}

		order := 0
		for _, m := range cfg.Members {
			if m.SortOrder >= order {
				order = m.SortOrder + 1
			}
		}

		out = model.Member{ID: id, Name: name, Visible: true, SortOrder: order}
		cfg.Members[id] = out

		// Definitions left behind by an earlier member with this id are kept.
		if _, ok := cfg.Tasks[id]; !ok {
			defs := make([]model.TaskDefinition, 0, len(starterTasks))
			for _, title := range starterTasks {
				defs = append(defs, model.TaskDefinition{ID: s.newID(), Title: title})
			}
			cfg.Tasks[id] = defs
		}
		return nil
	})
	if err != nil {
		return model.Member{}, fmt.Errorf("add member: %w", err)
	}
	s.logger.Info("member added", "member_id", out.ID, "name", out.Name)
	return out, nil
}

// RemoveMember takes the member off the roster. Their task definitions and
// every logged day stay in place.
func (s *Store) RemoveMember(ctx context.Context, id string) error {
	err := s.updateConfig(ctx, func(cfg *model.AppConfig) error {
		if _, ok := cfg.Members[id]; !ok {
			return fmt.Errorf("%w: %s", ErrMemberNotFound, id)
		}
		delete(cfg.Members, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	s.logger.Info("member removed", "member_id", id)
	return nil
}

// AddTaskDefinition appends a task to a member's checklist.
func (s *Store) AddTaskDefinition(ctx context.Context, memberID, title string) (model.TaskDefinition, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.TaskDefinition{}, fmt.Errorf("add task definition: %w: blank title", ErrInvalidInput)
	}

	var def model.TaskDefinition
	err := s.updateConfig(ctx, func(cfg *model.AppConfig) error {
		if _, ok := cfg.Members[memberID]; !ok {
			return fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
		}
		def = model.TaskDefinition{ID: s.newID(), Title: title}
		cfg.Tasks[memberID] = append(cfg.Tasks[memberID], def)
		return nil
	})
	if err != nil {
		return model.TaskDefinition{}, fmt.Errorf("add task definition: %w", err)
	}
	return def, nil
}

// RemoveTaskDefinition drops a task from the checklist. Logs that reference
// it are kept.
func (s *Store) RemoveTaskDefinition(ctx context.Context, memberID, taskID string) error {
	err := s.updateConfig(ctx, func(cfg *model.AppConfig) error {
		defs := cfg.Tasks[memberID]
		for i, def := range defs {
			if def.ID == taskID {
				cfg.Tasks[memberID] = append(defs[:i], defs[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %s/%s", ErrTaskNotFound, memberID, taskID)
	})
	if err != nil {
		return fmt.Errorf("remove task definition: %w", err)
	}
	return nil
}

// RenameTaskDefinition changes the live title. Today's log for the task, if
// there is one, takes the new title as its recorded title; earlier days keep
// theirs.
func (s *Store) RenameTaskDefinition(ctx context.Context, memberID, taskID, title string) (model.TaskDefinition, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.TaskDefinition{}, fmt.Errorf("rename task definition: %w: blank title", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.config.Clone()
	var def model.TaskDefinition
	found := false
	for i, d := range cfg.Tasks[memberID] {
		if d.ID == taskID {
			cfg.Tasks[memberID][i].Title = title
			def = cfg.Tasks[memberID][i]
			found = true
			break
		}
	}
	if !found {
		return model.TaskDefinition{}, fmt.Errorf("rename task definition: %w: %s/%s", ErrTaskNotFound, memberID, taskID)
	}

	today := s.today()
	l, ok := s.data[today][memberID].Tasks[taskID]
	if !ok {
		if err := s.saveConfig(ctx, cfg); err != nil {
			return model.TaskDefinition{}, fmt.Errorf("rename task definition: %w", err)
		}
		s.config = cfg
		return def, nil
	}

	rec := s.data[today].Clone()
	d := rec[memberID]
	l.RecordedTitle = title
	d.Tasks[taskID] = l
	rec[memberID] = d
	data := s.data.With(today, rec)

	// The new title and today's stamp land together or not at all.
	if err := s.saveBoth(ctx, data, cfg); err != nil {
		return model.TaskDefinition{}, fmt.Errorf("rename task definition: %w", err)
	}
	s.config = cfg
	s.data = data
	return def, nil
}

// AppSettings is a partial update of the app-wide settings. Nil fields keep
// their current values.
type AppSettings struct {
	AppTitle        *string
	ThemeColor      *string
	BackgroundImage *string
}

// SetAppSettings applies every present field in one save.
func (s *Store) SetAppSettings(ctx context.Context, in AppSettings) (model.AppConfig, error) {
	var out model.AppConfig
	err := s.updateConfig(ctx, func(cfg *model.AppConfig) error {
		if in.AppTitle != nil {
			cfg.AppTitle = strings.TrimSpace(*in.AppTitle)
		}
		if in.ThemeColor != nil {
			cfg.ThemeColor = *in.ThemeColor
		}
		if in.BackgroundImage != nil {
			cfg.BackgroundImage = *in.BackgroundImage
		}
		out = *cfg
		return nil
	})
	if err != nil {
		return model.AppConfig{}, fmt.Errorf("set app settings: %w", err)
	}
	return out.Clone(), nil
}

// SetAppTitle sets the household's display title.
func (s *Store) SetAppTitle(ctx context.Context, title string) error {
	_, err := s.SetAppSettings(ctx, AppSettings{AppTitle: &title})
	return err
}

// SetGlobalTheme sets the app-wide color and background.
func (s *Store) SetGlobalTheme(ctx context.Context, themeColor, backgroundImage string) error {
	_, err := s.SetAppSettings(ctx, AppSettings{ThemeColor: &themeColor, BackgroundImage: &backgroundImage})
	return err
}
