// Package agegrade derives a member's age and school grade from a birth
// date. Results depend on today's date and must be recomputed, not stored.
package agegrade

import (
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/tally/internal/model"
)

// Result is the age and grade of a child on a given day.
type Result struct {
	Years  int
	Months int
	// Grade is the school grade label, empty for adults and very young
	// children.
	Grade string
	// Valid is false when the birth date is after today.
	Valid bool
}

// Compute derives age and grade. Age counts whole months, one fewer when
// today's day of month is before the birth day. Children born on or after
// September 2 join the following year's school cohort, and academic years
// start in September.
func Compute(birth, today time.Time) Result {
	months := (today.Year()-birth.Year())*12 + int(today.Month()-birth.Month())
	if today.Day() < birth.Day() {
		months--
	}
	if months < 0 {
		return Result{}
	}

	schoolBirthYear := birth.Year()
	if birth.Month() > time.September || (birth.Month() == time.September && birth.Day() >= 2) {
		schoolBirthYear++
	}
	academicYear := today.Year()
	if today.Month() < time.September {
		academicYear--
	}

	return Result{
		Years:  months / 12,
		Months: months % 12,
		Grade:  GradeLabel(academicYear - schoolBirthYear - 5),
		Valid:  true,
	}
}

// GradeLabel maps a grade value to its label. 1 is the first primary year.
func GradeLabel(grade int) string {
	switch {
	case grade >= 13:
		return ""
	case grade >= 10:
		return fmt.Sprintf("高中%d年級", grade-9)
	case grade >= 7:
		return fmt.Sprintf("國中%d年級", grade-6)
	case grade >= 1:
		return fmt.Sprintf("%d年級", grade)
	}
	switch grade {
	case 0:
		return "大班"
	case -1:
		return "中班"
	case -2:
		return "小班"
	case -3:
		return "幼幼班"
	}
	return ""
}

// String renders the result as "Y歲M個月", followed by " · grade" when there
// is a grade.
func (r Result) String() string {
	if !r.Valid {
		return ""
	}
	age := fmt.Sprintf("%d歲%d個月", r.Years, r.Months)
	if r.Grade == "" {
		return age
	}
	return age + " · " + r.Grade
}

// Describe parses a YYYY-MM-DD birth date and describes it relative to
// today. Unparsable and future dates yield "".
func Describe(birthDate string, today time.Time) string {
	birthDate = strings.TrimSpace(birthDate)
	if birthDate == "" {
		return ""
	}
	birth, err := model.ParseDayKey(birthDate, today.Location())
	if err != nil {
		return ""
	}
	return Compute(birth, today).String()
}

// Subtitle is the line shown under a member's name: the manual subtitle
// when set, otherwise the derived age and grade.
func Subtitle(m model.Member, today time.Time) string {
	if m.Subtitle != "" {
		return m.Subtitle
	}
	return Describe(m.BirthDate, today)
}
