package event

import (
	"context"
	"time"

	domain "rollcall/internal/domain/event"
)

// Store persists Event state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Event, error)
	Save(ctx context.Context, value domain.Event) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Event, error)
}

// ListFilter carries filtering parameters for List operations.
// From is inclusive and To exclusive; zero bounds are open.
type ListFilter struct {
	Type string
	From time.Time
	To   time.Time
}
