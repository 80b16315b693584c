package scheduleconfig_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"rollcall/internal/domain/scheduleconfig"
)

// TestDefault matches the unit's standing calendar.
func TestDefault(t *testing.T) {
	c := scheduleconfig.Default()
	if !slices.Equal(c.PTDays, []time.Weekday{time.Monday, time.Tuesday, time.Thursday}) {
		t.Errorf("PTDays = %v", c.PTDays)
	}
	if !slices.Equal(c.LLABDays, []time.Weekday{time.Friday}) {
		t.Errorf("LLABDays = %v", c.LLABDays)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

// TestConfig_Validate rejects an empty calendar and unknown days.
func TestConfig_Validate(t *testing.T) {
	empty := scheduleconfig.Config{}
	if err := empty.Validate(); err != scheduleconfig.ErrNoDays {
		t.Errorf("empty config err = %v", err)
	}
	bad := scheduleconfig.Config{PTDays: []time.Weekday{9}}
	if err := bad.Validate(); err != scheduleconfig.ErrUnknownWeekday {
		t.Errorf("bad weekday err = %v", err)
	}
}

// TestConfig_Normalize sorts and dedups.
func TestConfig_Normalize(t *testing.T) {
	c := scheduleconfig.Config{PTDays: []time.Weekday{time.Thursday, time.Monday, time.Thursday}}
	c.Normalize()
	if !slices.Equal(c.PTDays, []time.Weekday{time.Monday, time.Thursday}) {
		t.Errorf("PTDays = %v", c.PTDays)
	}
}

// TestParseWeekday accepts names and abbreviations.
func TestParseWeekday(t *testing.T) {
	for in, want := range map[string]time.Weekday{"Monday": time.Monday, "tue": time.Tuesday, " FRIDAY ": time.Friday, "sun": time.Sunday} {
		got, err := scheduleconfig.ParseWeekday(in)
		if err != nil || got != want {
			t.Errorf("ParseWeekday(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := scheduleconfig.ParseWeekday("someday"); !errors.Is(err, scheduleconfig.ErrUnknownWeekday) {
		t.Errorf("unexpected err %v", err)
	}
}
