package cadet

import (
	"context"

	domain "rollcall/internal/domain/cadet"
)

// Store persists Cadet profiles.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Cadet, error)
	GetByUserID(ctx context.Context, userID string) (domain.Cadet, error)
	Save(ctx context.Context, value domain.Cadet) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Cadet, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	FlightID string
}
