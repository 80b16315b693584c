package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	eventstore "rollcall/internal/adapters/storage/event"
	"rollcall/internal/domain/access"
	"rollcall/internal/domain/apperr"
	"rollcall/internal/domain/event"
	domain "rollcall/internal/domain/scheduleconfig"
)

// ScheduleConfigStore defines the store interface needed by the schedule orchestrators.
type ScheduleConfigStore interface {
	Get(ctx context.Context) (domain.Config, error)
	Save(ctx context.Context, c domain.Config) error
}

// SaveScheduleConfigInput carries input for the save schedule orchestrator.
type SaveScheduleConfigInput struct {
	Actor    access.Actor
	PTDays   []string
	LLABDays []string
}

// SaveScheduleConfigDeps holds dependencies for SaveScheduleConfig.
type SaveScheduleConfigDeps struct {
	ConfigStore ScheduleConfigStore
	Now         func() time.Time
}

// ExecuteSaveScheduleConfig replaces the PT and LLAB weekdays.
// PRE: actor may configure the schedule; day names parse
// POST: stored config has sorted, de-duplicated day lists
func ExecuteSaveScheduleConfig(ctx context.Context, input SaveScheduleConfigInput, deps SaveScheduleConfigDeps) (domain.Config, error) {
	if err := access.Authorize(input.Actor, access.OpConfigureSchedule); err != nil {
		return domain.Config{}, err
	}
	pt, err := domain.ParseWeekdays(input.PTDays)
	if err != nil {
		return domain.Config{}, err
	}
	llab, err := domain.ParseWeekdays(input.LLABDays)
	if err != nil {
		return domain.Config{}, err
	}
	c := domain.Config{PTDays: pt, LLABDays: llab, UpdatedBy: input.Actor.UserID, UpdatedAt: deps.Now()}
	c.Normalize()
	if err := c.Validate(); err != nil {
		return domain.Config{}, err
	}
	if err := deps.ConfigStore.Save(ctx, c); err != nil {
		return domain.Config{}, err
	}
	slog.Info("schedule_event", "event", "schedule_saved", "pt_days", domain.WeekdayNames(c.PTDays), "llab_days", domain.WeekdayNames(c.LLABDays))
	return c, nil
}

// LoadScheduleConfig returns the stored config, or the default when none was saved.
func LoadScheduleConfig(ctx context.Context, store ScheduleConfigStore) (domain.Config, error) {
	c, err := store.Get(ctx)
	if errors.Is(err, apperr.ErrNotFound) {
		return domain.Default(), nil
	}
	return c, err
}

// EventStoreForSchedule defines the event access needed by schedule generation.
type EventStoreForSchedule interface {
	List(ctx context.Context, filter eventstore.ListFilter) ([]event.Event, error)
	Save(ctx context.Context, e event.Event) error
}

// Default session times used when a generate request leaves them unset.
const (
	DefaultPTStart      = 6 * time.Hour
	DefaultPTDuration   = 90 * time.Minute
	DefaultLLABStart    = 15 * time.Hour
	DefaultLLABDuration = 2 * time.Hour
)

// GenerateEventsInput carries input for the generate events orchestrator.
// From and To are calendar days, both inclusive. Start offsets are measured
// from midnight UTC.
type GenerateEventsInput struct {
	Actor        access.Actor
	From         time.Time
	To           time.Time
	PTStart      time.Duration
	PTDuration   time.Duration
	LLABStart    time.Duration
	LLABDuration time.Duration
}

// GenerateEventsDeps holds dependencies for GenerateScheduledEvents.
type GenerateEventsDeps struct {
	ConfigStore ScheduleConfigStore
	EventStore  EventStoreForSchedule
	GenerateID  func() string
	Now         func() time.Time
}

// GenerateEventsResult lists the created events and how many dates were skipped.
type GenerateEventsResult struct {
	Created []event.Event
	Skipped int
}

// ExecuteGenerateScheduledEvents creates PT and LLAB events on the configured
// weekdays of a date range.
// PRE: actor may manage events; To is not before From; range spans at most MaxGenerateDays
// POST: every configured (type, day) in range has an event
// INVARIANT: a day that already holds an event of the same type is skipped
func ExecuteGenerateScheduledEvents(ctx context.Context, input GenerateEventsInput, deps GenerateEventsDeps) (GenerateEventsResult, error) {
	if err := access.Authorize(input.Actor, access.OpManageEvents); err != nil {
		return GenerateEventsResult{}, err
	}
	from, to := truncateDay(input.From), truncateDay(input.To)
	if to.Before(from) {
		return GenerateEventsResult{}, domain.ErrInvalidRange
	}
	if int(to.Sub(from).Hours()/24)+1 > domain.MaxGenerateDays {
		return GenerateEventsResult{}, domain.ErrRangeTooLong
	}

	cfg, err := LoadScheduleConfig(ctx, deps.ConfigStore)
	if err != nil {
		return GenerateEventsResult{}, err
	}
	existing, err := deps.EventStore.List(ctx, eventstore.ListFilter{From: from, To: to.AddDate(0, 0, 1)})
	if err != nil {
		return GenerateEventsResult{}, err
	}
	taken := make(map[string]bool, len(existing))
	for _, e := range existing {
		taken[e.Type+"|"+e.Date()] = true
	}

	slots := []struct {
		typ      string
		name     string
		on       func(time.Weekday) bool
		start    time.Duration
		duration time.Duration
	}{
		{event.TypePT, "PT", cfg.IsPTDay, orDefault(input.PTStart, DefaultPTStart), orDefault(input.PTDuration, DefaultPTDuration)},
		{event.TypeLab, "LLAB", cfg.IsLLABDay, orDefault(input.LLABStart, DefaultLLABStart), orDefault(input.LLABDuration, DefaultLLABDuration)},
	}

	var result GenerateEventsResult
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		for _, slot := range slots {
			if !slot.on(day.Weekday()) {
				continue
			}
			if taken[slot.typ+"|"+day.Format(event.DateLayout)] {
				result.Skipped++
				continue
			}
			start := day.Add(slot.start)
			e := event.Event{
				ID:        deps.GenerateID(),
				Name:      slot.name,
				Type:      slot.typ,
				StartDate: start,
				EndDate:   start.Add(slot.duration),
				CreatedBy: input.Actor.UserID,
				CreatedAt: deps.Now(),
			}
			if err := e.Validate(); err != nil {
				return result, err
			}
			if err := deps.EventStore.Save(ctx, e); err != nil {
				return result, err
			}
			result.Created = append(result.Created, e)
		}
	}

	slog.Info("schedule_event", "event", "events_generated", "from", from.Format(event.DateLayout), "to", to.Format(event.DateLayout), "created", len(result.Created), "skipped", result.Skipped)
	return result, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
