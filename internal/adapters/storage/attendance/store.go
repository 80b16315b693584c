package attendance

import (
	"context"

	domain "rollcall/internal/domain/attendance"
)

// Store persists attendance records.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Record, error)
	GetByEventAndCadet(ctx context.Context, eventID, cadetID string) (domain.Record, error)
	Upsert(ctx context.Context, value domain.Record) (domain.Record, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Record, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	EventID string
	CadetID string
	Status  string
}
