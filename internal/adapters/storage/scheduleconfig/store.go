package scheduleconfig

import (
	"context"

	domain "rollcall/internal/domain/scheduleconfig"
)

// Store persists the singleton event schedule.
type Store interface {
	Get(ctx context.Context) (domain.Config, error)
	Save(ctx context.Context, value domain.Config) error
}
