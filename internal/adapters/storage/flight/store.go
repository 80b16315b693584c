package flight

import (
	"context"

	domain "rollcall/internal/domain/flight"
)

// Store persists Flight state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Flight, error)
	GetByName(ctx context.Context, name string) (domain.Flight, error)
	Save(ctx context.Context, value domain.Flight) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Flight, error)
}
