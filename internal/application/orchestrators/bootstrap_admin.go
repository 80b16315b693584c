package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rollcall/internal/domain/apperr"
	"rollcall/internal/domain/user"
)

// UserStoreForBootstrap defines the store interface needed by EnsureAdmin.
type UserStoreForBootstrap interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Save(ctx context.Context, u user.User) error
}

// EnsureAdminDeps holds dependencies for EnsureAdmin.
type EnsureAdminDeps struct {
	UserStore  UserStoreForBootstrap
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteEnsureAdmin creates the bootstrap admin account if its email is unused.
// PRE: email and password are non-empty
// POST: a user with email exists; an existing user is never modified
func ExecuteEnsureAdmin(ctx context.Context, email, password string, deps EnsureAdminDeps) (bool, error) {
	email = strings.TrimSpace(email)
	_, err := deps.UserStore.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return false, err
	}

	u := user.User{
		ID:        deps.GenerateID(),
		FirstName: "Admin",
		Email:     email,
		Roles:     []user.Role{user.RoleAdmin},
		CreatedAt: deps.Now(),
	}
	if err := u.Validate(); err != nil {
		return false, err
	}
	if err := u.SetPassword(password); err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}
	if err := deps.UserStore.Save(ctx, u); err != nil {
		return false, err
	}
	slog.Info("seed_event", "event", "admin_created", "email", email)
	return true, nil
}
