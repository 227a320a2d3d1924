package model

import (
	"fmt"
	"time"
)

// DayKeyLayout is the canonical day-key format.
const DayKeyLayout = "2006-01-02"

// DayKey returns the local calendar date of t as a day-key.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// NormalizeDayKey truncates an ISO timestamp to its date part.
func NormalizeDayKey(s string) string {
	if len(s) > len(DayKeyLayout) {
		return s[:len(DayKeyLayout)]
	}
	return s
}

// ParseDayKey parses a day-key in the given location.
func ParseDayKey(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DayKeyLayout, NormalizeDayKey(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day key %q: %w", s, err)
	}
	return t, nil
}

// ValidDayKey reports whether s is exactly a YYYY-MM-DD date.
func ValidDayKey(s string) bool {
	if len(s) != len(DayKeyLayout) {
		return false
	}
	_, err := time.Parse(DayKeyLayout, s)
	return err == nil
}

// DayOverview is one cell of the calendar history view.
type DayOverview struct {
	Date           string `json:"date"`
	HasRecord      bool   `json:"has_record"`
	FamilyProgress int    `json:"family_progress"`
}
