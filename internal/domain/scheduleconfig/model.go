// Package scheduleconfig holds the unit's recurring event calendar: which
// weekdays carry PT and which carry leadership lab.
package scheduleconfig

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// SingletonID is the key of the only stored configuration row.
const SingletonID = "event_schedule"

// Domain errors
var (
	ErrNoDays         = errors.New("at least one PT or LLAB day must be configured")
	ErrUnknownWeekday = errors.New("unknown weekday")
	ErrInvalidRange   = errors.New("generation range end precedes start")
	ErrRangeTooLong   = errors.New("generation range cannot exceed 366 days")
)

// MaxGenerateDays bounds a single generation request.
const MaxGenerateDays = 366

// Config holds state for the event schedule.
// INVARIANT: day lists are sorted and free of duplicates after Normalize
type Config struct {
	PTDays    []time.Weekday
	LLABDays  []time.Weekday
	UpdatedBy string
	UpdatedAt time.Time
}

// Default returns PT on Monday, Tuesday and Thursday and LLAB on Friday.
func Default() Config {
	return Config{
		PTDays:   []time.Weekday{time.Monday, time.Tuesday, time.Thursday},
		LLABDays: []time.Weekday{time.Friday},
	}
}

// Validate checks if the Config has valid data.
// PRE: Config struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (c *Config) Validate() error {
	if len(c.PTDays) == 0 && len(c.LLABDays) == 0 {
		return ErrNoDays
	}
	for _, d := range slices.Concat(c.PTDays, c.LLABDays) {
		if d < time.Sunday || d > time.Saturday {
			return ErrUnknownWeekday
		}
	}
	return nil
}

// Normalize sorts and dedups both day lists.
// POST: PTDays and LLABDays are sorted ascending without repeats
func (c *Config) Normalize() {
	c.PTDays = normalizeDays(c.PTDays)
	c.LLABDays = normalizeDays(c.LLABDays)
}

// IsPTDay reports whether d is configured for PT.
func (c *Config) IsPTDay(d time.Weekday) bool {
	return slices.Contains(c.PTDays, d)
}

// IsLLABDay reports whether d is configured for leadership lab.
func (c *Config) IsLLABDay(d time.Weekday) bool {
	return slices.Contains(c.LLABDays, d)
}

func normalizeDays(days []time.Weekday) []time.Weekday {
	out := slices.Clone(days)
	slices.Sort(out)
	return slices.Compact(out)
}

// ParseWeekday accepts full English weekday names or their three letter
// abbreviations, case-insensitively.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWeekday, s)
}

// ParseWeekdays parses every entry of names.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		d, err := ParseWeekday(n)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}

// WeekdayNames is the inverse of ParseWeekdays.
func WeekdayNames(days []time.Weekday) []string {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()
	}
	return names
}
