package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"rollcall/internal/domain/access"
	domain "rollcall/internal/domain/attendance"
	"rollcall/internal/domain/cadet"
	"rollcall/internal/domain/event"
)

// AttendanceStoreForRecord defines the store interface needed by RecordAttendance.
type AttendanceStoreForRecord interface {
	Upsert(ctx context.Context, r domain.Record) (domain.Record, error)
}

// EventLookup resolves an event by ID.
type EventLookup interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
}

// CadetLookup resolves a cadet profile by ID.
type CadetLookup interface {
	GetByID(ctx context.Context, id string) (cadet.Cadet, error)
}

// RecordAttendanceInput carries input for the record attendance orchestrator.
type RecordAttendanceInput struct {
	Actor   access.Actor
	EventID string
	CadetID string
	Status  string
}

// RecordAttendanceDeps holds dependencies for RecordAttendance.
type RecordAttendanceDeps struct {
	AttendanceStore AttendanceStoreForRecord
	EventStore      EventLookup
	CadetStore      CadetLookup
	GenerateID      func() string
	Now             func() time.Time
}

// ExecuteRecordAttendance sets the attendance status of one cadet at one event.
// PRE: actor is a reviewer; event and cadet exist
// POST: exactly one record exists for (EventID, CadetID) carrying Status
// INVARIANT: an existing waiver on the record is left untouched
func ExecuteRecordAttendance(ctx context.Context, input RecordAttendanceInput, deps RecordAttendanceDeps) (domain.Record, error) {
	if err := access.Authorize(input.Actor, access.OpRecordAttendance); err != nil {
		return domain.Record{}, err
	}
	if _, err := deps.EventStore.GetByID(ctx, input.EventID); err != nil {
		return domain.Record{}, err
	}
	if _, err := deps.CadetStore.GetByID(ctx, input.CadetID); err != nil {
		return domain.Record{}, err
	}

	record := domain.Record{
		ID:         deps.GenerateID(),
		EventID:    input.EventID,
		CadetID:    input.CadetID,
		Status:     strings.ToLower(strings.TrimSpace(input.Status)),
		RecordedBy: input.Actor.UserID,
		CreatedAt:  deps.Now(),
	}
	if err := record.Validate(); err != nil {
		return domain.Record{}, err
	}

	stored, err := deps.AttendanceStore.Upsert(ctx, record)
	if err != nil {
		return domain.Record{}, err
	}
	slog.Info("attendance_event", "event", "attendance_recorded", "record_id", stored.ID, "event_id", stored.EventID, "cadet_id", stored.CadetID, "status", stored.Status)
	return stored, nil
}
