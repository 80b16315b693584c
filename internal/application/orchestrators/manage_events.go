package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"rollcall/internal/domain/access"
	domain "rollcall/internal/domain/event"
)

// EventStoreForManage defines the store interface needed by the event orchestrators.
type EventStoreForManage interface {
	GetByID(ctx context.Context, id string) (domain.Event, error)
	Save(ctx context.Context, e domain.Event) error
	Delete(ctx context.Context, id string) error
}

// EventInput carries the editable fields of an event.
type EventInput struct {
	Actor     access.Actor
	ID        string // empty on create
	Name      string
	Type      string
	StartDate time.Time
	EndDate   time.Time
}

// EventDeps holds dependencies for the event orchestrators.
type EventDeps struct {
	EventStore EventStoreForManage
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteCreateEvent schedules a new event.
// PRE: actor may manage events
// POST: event is persisted with CreatedBy set to the actor
func ExecuteCreateEvent(ctx context.Context, input EventInput, deps EventDeps) (domain.Event, error) {
	if err := access.Authorize(input.Actor, access.OpManageEvents); err != nil {
		return domain.Event{}, err
	}
	e := domain.Event{
		ID:        deps.GenerateID(),
		Name:      strings.TrimSpace(input.Name),
		Type:      strings.ToLower(strings.TrimSpace(input.Type)),
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		CreatedBy: input.Actor.UserID,
		CreatedAt: deps.Now(),
	}
	if err := e.Validate(); err != nil {
		return domain.Event{}, err
	}
	if err := deps.EventStore.Save(ctx, e); err != nil {
		return domain.Event{}, err
	}
	slog.Info("event_event", "event", "event_created", "event_id", e.ID, "type", e.Type, "start", e.Date())
	return e, nil
}

// ExecuteUpdateEvent edits name, type and dates of an existing event.
// PRE: actor may manage events; input.ID exists
// POST: creator and creation time are preserved
func ExecuteUpdateEvent(ctx context.Context, input EventInput, deps EventDeps) (domain.Event, error) {
	if err := access.Authorize(input.Actor, access.OpManageEvents); err != nil {
		return domain.Event{}, err
	}
	e, err := deps.EventStore.GetByID(ctx, input.ID)
	if err != nil {
		return domain.Event{}, err
	}
	e.Name = strings.TrimSpace(input.Name)
	e.Type = strings.ToLower(strings.TrimSpace(input.Type))
	e.StartDate = input.StartDate
	e.EndDate = input.EndDate
	if err := e.Validate(); err != nil {
		return domain.Event{}, err
	}
	if err := deps.EventStore.Save(ctx, e); err != nil {
		return domain.Event{}, err
	}
	slog.Info("event_event", "event", "event_updated", "event_id", e.ID)
	return e, nil
}

// ExecuteDeleteEvent removes an event. Its attendance records are kept and
// dangle; waiver listings skip them.
// PRE: actor may manage events
// POST: event no longer exists
func ExecuteDeleteEvent(ctx context.Context, actor access.Actor, id string, deps EventDeps) error {
	if err := access.Authorize(actor, access.OpManageEvents); err != nil {
		return err
	}
	if err := deps.EventStore.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("event_event", "event", "event_deleted", "event_id", id)
	return nil
}
