package logstore

import (
	"math"
	"sort"
	"time"

	"github.com/dukerupert/tally/internal/model"
)

// Config returns a copy of the App Configuration.
func (s *Store) Config() model.AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Clone()
}

// Members returns the roster ordered by sort order, then id.
func (s *Store) Members() []model.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedMembers(s.config.Members)
}

func sortedMembers(members map[string]model.Member) []model.Member {
	out := make([]model.Member, 0, len(members))
	for _, m := range members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) Member(id string) (model.Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.config.Members[id]
	return m, ok
}

// Tasks returns the member's current task definitions. Definitions are kept
// for members that have left the roster.
func (s *Store) Tasks(memberID string) []model.TaskDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	defs := s.config.Tasks[memberID]
	out := make([]model.TaskDefinition, len(defs))
	copy(out, defs)
	return out
}

// DailyLogData returns the member's record for date, or an empty record
// when nothing was logged. It never creates an entry.
func (s *Store) DailyLogData(memberID, date string) model.DailyLogData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[model.NormalizeDayKey(date)][memberID].Clone()
}

// TaskState returns the log of one task, {false, ""} when absent.
func (s *Store) TaskState(memberID, taskID, date string) model.TaskLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[model.NormalizeDayKey(date)][memberID].Task(taskID)
}

// DayRecord returns a copy of every member's record for date. found is false
// when the day has no entry at all.
func (s *Store) DayRecord(date string) (model.DayRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, found := s.data[model.NormalizeDayKey(date)]
	return rec.Clone(), found
}

// HasRecord reports whether anything was logged for date.
func (s *Store) HasRecord(date string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[model.NormalizeDayKey(date)]
	return ok
}

// DarkMode reports the stored theme preference.
func (s *Store) DarkMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dark
}

// MemberProgress is the percentage of the member's current task definitions
// completed on date. A member without definitions is at 0.
func (s *Store) MemberProgress(memberID, date string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	done, total := s.countLocked(memberID, model.NormalizeDayKey(date))
	return percent(done, total)
}

// FamilyProgress aggregates completed and total definitions over every
// roster member, hidden ones included.
func (s *Store) FamilyProgress(date string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.familyProgressLocked(model.NormalizeDayKey(date))
}

func (s *Store) familyProgressLocked(key string) int {
	var done, total int
	for id := range s.config.Members {
		d, t := s.countLocked(id, key)
		done += d
		total += t
	}
	return percent(done, total)
}

func (s *Store) countLocked(memberID, key string) (done, total int) {
	day := s.data[key][memberID]
	for _, def := range s.config.Tasks[memberID] {
		total++
		if day.Tasks[def.ID].Completed {
			done++
		}
	}
	return done, total
}

func percent(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

// MonthOverview returns one entry per day of the month for the calendar
// history view.
func (s *Store) MonthOverview(year int, month time.Month) []model.DayOverview {
	s.mu.RLock()
	defer s.mu.RUnlock()

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()
	out := make([]model.DayOverview, 0, days)
	for i := 0; i < days; i++ {
		key := model.DayKey(first.AddDate(0, 0, i))
		_, has := s.data[key]
		out = append(out, model.DayOverview{
			Date:           key,
			HasRecord:      has,
			FamilyProgress: s.familyProgressLocked(key),
		})
	}
	return out
}

// SummaryInput assembles the day's data for the summary generator. Task
// logs are already normalised by loading.
func (s *Store) SummaryInput(date string) model.SummaryInput {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := model.NormalizeDayKey(date)
	cfg := s.config.Clone()
	return model.SummaryInput{
		Date:    key,
		Day:     s.data[key].Clone(),
		Tasks:   cfg.Tasks,
		Members: cfg.Members,
	}
}
