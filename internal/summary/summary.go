// Package summary turns one day's household log into a short prose summary
// using a generative language model.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dukerupert/tally/internal/agegrade"
	"github.com/dukerupert/tally/internal/model"
)

var (
	// ErrGenerateFailed wraps every failure of the underlying generator.
	ErrGenerateFailed = errors.New("summary generation failed")
	// ErrNotConfigured is returned when no generator is set up.
	ErrNotConfigured = errors.New("summary generation not configured")
)

// Input is one day of data as the generator sees it.
type Input = model.SummaryInput

// Generator produces a summary for a day.
type Generator interface {
	Generate(ctx context.Context, in Input) (string, error)
}

// Service runs summary requests. It keeps no state about the data and never
// retries; a failed request is reported once and left to the caller.
type Service struct {
	gen        Generator
	logger     *slog.Logger
	inFlight   atomic.Int32
	lastFailed atomic.Bool
}

// NewService wraps gen. A nil gen yields a service that always returns
// ErrNotConfigured.
func NewService(gen Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gen: gen, logger: logger.With("component", "summary")}
}

// Enabled reports whether a generator is configured.
func (s *Service) Enabled() bool {
	return s.gen != nil
}

// Generating reports whether a request is in flight. It is advisory: a
// second request is not blocked.
func (s *Service) Generating() bool {
	return s.inFlight.Load() > 0
}

// LastFailed reports whether the most recent request failed.
func (s *Service) LastFailed() bool {
	return s.lastFailed.Load()
}

// Summarize generates the summary for in. The request lives as long as ctx.
func (s *Service) Summarize(ctx context.Context, in Input) (string, error) {
	if s.gen == nil {
		return "", ErrNotConfigured
	}

	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	start := time.Now()
	text, err := s.gen.Generate(ctx, in)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty response")
	}
	if err != nil {
		s.lastFailed.Store(true)
		s.logger.Error("summary failed", "date", in.Date, "duration", time.Since(start), "error", err)
		return "", fmt.Errorf("%w: %v", ErrGenerateFailed, err)
	}

	s.lastFailed.Store(false)
	s.logger.Info("summary generated", "date", in.Date, "duration", time.Since(start), "chars", len(text))
	return strings.TrimSpace(text), nil
}

// BuildPrompt renders the day as plain text for the model: members in roster
// order, each with completed tasks, notes, ad hoc tasks and mood.
func BuildPrompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "以下是一個家庭在 %s 的每日紀錄。請用溫暖、鼓勵的語氣，以繁體中文寫一段約 150 字的總結，點出每位成員的亮點。\n\n", in.Date)

	day, _ := model.ParseDayKey(in.Date, time.Local)

	for _, id := range memberOrder(in) {
		m, onRoster := in.Members[id]
		name := id
		if onRoster {
			name = m.Name
		}
		fmt.Fprintf(&b, "## %s", name)
		if onRoster && !day.IsZero() {
			if sub := agegrade.Subtitle(m, day); sub != "" {
				fmt.Fprintf(&b, "（%s）", sub)
			}
		}
		b.WriteString("\n")

		d := in.Day[id]
		var done, open []string
		for _, def := range in.Tasks[id] {
			l := d.Tasks[def.ID]
			line := l.DisplayTitle(def.Title)
			if l.Details != "" {
				line += "：" + l.Details
			}
			if l.Completed {
				done = append(done, line)
			} else {
				open = append(open, line)
			}
		}
		if len(done) > 0 {
			b.WriteString("完成：\n")
			for _, line := range done {
				fmt.Fprintf(&b, "- %s\n", line)
			}
		}
		if len(open) > 0 {
			b.WriteString("未完成：\n")
			for _, line := range open {
				fmt.Fprintf(&b, "- %s\n", line)
			}
		}
		if len(d.CustomTasks) > 0 {
			fmt.Fprintf(&b, "其他事項：%s\n", strings.Join(d.CustomTasks, "、"))
		}
		if d.Mood != "" {
			fmt.Fprintf(&b, "心情：%s\n", d.Mood)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// memberOrder lists visible roster members by sort order, followed by ids
// that only appear in the day's log.
func memberOrder(in Input) []string {
	members := make([]model.Member, 0, len(in.Members))
	for _, m := range in.Members {
		if m.Visible {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].SortOrder != members[j].SortOrder {
			return members[i].SortOrder < members[j].SortOrder
		}
		return members[i].ID < members[j].ID
	})

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	var extra []string
	for id := range in.Day {
		if _, ok := in.Members[id]; !ok {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	return append(ids, extra...)
}
