package projections

import (
	"context"

	"rollcall/internal/adapters/storage/attendance"
	"rollcall/internal/adapters/storage/cadet"
	"rollcall/internal/adapters/storage/event"
	"rollcall/internal/adapters/storage/user"
	"rollcall/internal/adapters/storage/waiver"
	domainAttendance "rollcall/internal/domain/attendance"
	domainCadet "rollcall/internal/domain/cadet"
	domainEvent "rollcall/internal/domain/event"
	domainFlight "rollcall/internal/domain/flight"
	domainSchedule "rollcall/internal/domain/scheduleconfig"
	domainUser "rollcall/internal/domain/user"
	domainWaiver "rollcall/internal/domain/waiver"
)

// UserStore interface for user queries.
type UserStore interface {
	List(ctx context.Context, filter user.ListFilter) ([]domainUser.User, error)
}

// CadetStore interface for cadet queries.
type CadetStore interface {
	GetByUserID(ctx context.Context, userID string) (domainCadet.Cadet, error)
	List(ctx context.Context, filter cadet.ListFilter) ([]domainCadet.Cadet, error)
}

// FlightStore interface for flight queries.
type FlightStore interface {
	List(ctx context.Context) ([]domainFlight.Flight, error)
}

// EventStore interface for event queries.
type EventStore interface {
	List(ctx context.Context, filter event.ListFilter) ([]domainEvent.Event, error)
}

// AttendanceStore interface for attendance queries.
type AttendanceStore interface {
	List(ctx context.Context, filter attendance.ListFilter) ([]domainAttendance.Record, error)
}

// WaiverStore interface for waiver queries.
type WaiverStore interface {
	GetByID(ctx context.Context, id string) (domainWaiver.Waiver, error)
	List(ctx context.Context, filter waiver.ListFilter) ([]domainWaiver.Waiver, error)
	ListApprovals(ctx context.Context, waiverID string) ([]domainWaiver.Approval, error)
}

// ScheduleConfigStore interface for schedule queries.
type ScheduleConfigStore interface {
	Get(ctx context.Context) (domainSchedule.Config, error)
}

func indexByID[T any](items []T, id func(T) string) map[string]T {
	m := make(map[string]T, len(items))
	for _, it := range items {
		m[id(it)] = it
	}
	return m
}
