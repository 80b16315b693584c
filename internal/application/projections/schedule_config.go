package projections

import (
	"context"
	"errors"

	"rollcall/internal/domain/access"
	"rollcall/internal/domain/apperr"
	domainSchedule "rollcall/internal/domain/scheduleconfig"
)

// ScheduleConfigQuery carries query parameters.
type ScheduleConfigQuery struct {
	Actor access.Actor
}

// ScheduleConfigResult carries the weekday names of the schedule.
type ScheduleConfigResult struct {
	PTDays    []string
	LLABDays  []string
	IsDefault bool
}

// ScheduleConfigDeps holds dependencies for QueryScheduleConfig.
type ScheduleConfigDeps struct {
	ConfigStore ScheduleConfigStore
}

// QueryScheduleConfig returns the configured PT and LLAB weekdays.
// PRE: actor may configure the schedule
// POST: the default schedule is returned when none was saved
func QueryScheduleConfig(ctx context.Context, query ScheduleConfigQuery, deps ScheduleConfigDeps) (ScheduleConfigResult, error) {
	if err := access.Authorize(query.Actor, access.OpConfigureSchedule); err != nil {
		return ScheduleConfigResult{}, err
	}
	c, err := deps.ConfigStore.Get(ctx)
	isDefault := false
	if errors.Is(err, apperr.ErrNotFound) {
		c, err, isDefault = domainSchedule.Default(), nil, true
	}
	if err != nil {
		return ScheduleConfigResult{}, err
	}
	return ScheduleConfigResult{
		PTDays:    domainSchedule.WeekdayNames(c.PTDays),
		LLABDays:  domainSchedule.WeekdayNames(c.LLABDays),
		IsDefault: isDefault,
	}, nil
}
