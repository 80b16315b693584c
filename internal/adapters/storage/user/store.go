package user

import (
	"context"

	domain "rollcall/internal/domain/user"
)

// Store persists User state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Save(ctx context.Context, value domain.User) error
	List(ctx context.Context, filter ListFilter) ([]domain.User, error)
	Count(ctx context.Context) (int, error)
}

// ListFilter carries filtering parameters for List operations.
// A zero Limit lists everything.
type ListFilter struct {
	Limit  int
	Offset int
	Role   domain.Role
}
