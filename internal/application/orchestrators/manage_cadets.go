package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"rollcall/internal/domain/access"
	"rollcall/internal/domain/apperr"
	domain "rollcall/internal/domain/cadet"
	"rollcall/internal/domain/user"
)

// CadetStoreForManage defines the store interface needed by the cadet orchestrators.
type CadetStoreForManage interface {
	GetByID(ctx context.Context, id string) (domain.Cadet, error)
	GetByUserID(ctx context.Context, userID string) (domain.Cadet, error)
	Save(ctx context.Context, c domain.Cadet) error
	Delete(ctx context.Context, id string) error
}

// UserStoreForCadets looks users up by id or email and saves them.
type UserStoreForCadets interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Save(ctx context.Context, u user.User) error
}

// CadetDeps holds dependencies for the cadet orchestrators.
type CadetDeps struct {
	CadetStore CadetStoreForManage
	UserStore  UserStoreForCadets
	GenerateID func() string
}

// DesignateCadetInput carries input for the designate cadet orchestrator.
// Email is used only when UserID is empty.
type DesignateCadetInput struct {
	Actor  access.Actor
	UserID string
	Email  string
	Rank   int // zero means DefaultRank
}

// ExecuteDesignateCadet gives a user a cadet profile and the cadet role.
// An existing profile is returned unchanged.
// PRE: actor may manage cadets; user exists
// POST: exactly one cadet profile exists for the user
func ExecuteDesignateCadet(ctx context.Context, input DesignateCadetInput, deps CadetDeps) (domain.Cadet, error) {
	if err := access.Authorize(input.Actor, access.OpManageCadets); err != nil {
		return domain.Cadet{}, err
	}
	var u user.User
	var err error
	if input.UserID != "" {
		u, err = deps.UserStore.GetByID(ctx, input.UserID)
	} else {
		u, err = deps.UserStore.GetByEmail(ctx, strings.TrimSpace(input.Email))
	}
	if err != nil {
		return domain.Cadet{}, err
	}

	existing, err := deps.CadetStore.GetByUserID(ctx, u.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return domain.Cadet{}, err
	}

	rank := input.Rank
	if rank == 0 {
		rank = domain.DefaultRank
	}
	c := domain.Cadet{ID: deps.GenerateID(), UserID: u.ID, Rank: rank}
	if err := c.Validate(); err != nil {
		return domain.Cadet{}, err
	}
	if err := deps.CadetStore.Save(ctx, c); err != nil {
		return domain.Cadet{}, err
	}
	if !u.HasRole(user.RoleCadet) {
		u.AddRole(user.RoleCadet)
		if err := deps.UserStore.Save(ctx, u); err != nil {
			return domain.Cadet{}, err
		}
	}

	slog.Info("cadet_event", "event", "cadet_designated", "cadet_id", c.ID, "user_id", u.ID, "rank", c.Rank)
	return c, nil
}

// ExecuteUpdateCadetRank changes a cadet's academic level.
// PRE: actor may manage cadets; rank is a known level
// POST: cadet.Rank == rank
func ExecuteUpdateCadetRank(ctx context.Context, actor access.Actor, cadetID string, rank int, deps CadetDeps) (domain.Cadet, error) {
	if err := access.Authorize(actor, access.OpManageCadets); err != nil {
		return domain.Cadet{}, err
	}
	c, err := deps.CadetStore.GetByID(ctx, cadetID)
	if err != nil {
		return domain.Cadet{}, err
	}
	c.Rank = rank
	if err := c.Validate(); err != nil {
		return domain.Cadet{}, err
	}
	if err := deps.CadetStore.Save(ctx, c); err != nil {
		return domain.Cadet{}, err
	}
	slog.Info("cadet_event", "event", "cadet_rank_updated", "cadet_id", c.ID, "rank", c.Rank)
	return c, nil
}

// CadetProfileInput carries the editable account fields of a cadet.
type CadetProfileInput struct {
	Actor     access.Actor
	CadetID   string
	FirstName string
	LastName  string
	Email     string
}

// ExecuteUpdateCadetProfile renames a cadet or changes their login email.
// Surrounding whitespace is trimmed before validation.
// PRE: actor may manage cadets; cadet and its user exist
// POST: the user's name and email match input; no other user holds the email
func ExecuteUpdateCadetProfile(ctx context.Context, input CadetProfileInput, deps CadetDeps) (user.User, error) {
	if err := access.Authorize(input.Actor, access.OpManageCadets); err != nil {
		return user.User{}, err
	}
	first := strings.TrimSpace(input.FirstName)
	last := strings.TrimSpace(input.LastName)
	email := strings.TrimSpace(input.Email)
	if err := user.ValidateProfile(first, last, email); err != nil {
		return user.User{}, err
	}

	c, err := deps.CadetStore.GetByID(ctx, input.CadetID)
	if err != nil {
		return user.User{}, err
	}
	u, err := deps.UserStore.GetByID(ctx, c.UserID)
	if err != nil {
		return user.User{}, err
	}

	if !strings.EqualFold(u.Email, email) {
		holder, err := deps.UserStore.GetByEmail(ctx, email)
		switch {
		case err == nil && holder.ID != u.ID:
			return user.User{}, fmt.Errorf("email %s: %w", email, apperr.ErrDuplicate)
		case err != nil && !errors.Is(err, apperr.ErrNotFound):
			return user.User{}, err
		}
	}

	u.FirstName, u.LastName, u.Email = first, last, email
	if err := deps.UserStore.Save(ctx, u); err != nil {
		return user.User{}, err
	}
	slog.Info("cadet_event", "event", "cadet_profile_updated", "cadet_id", c.ID, "user_id", u.ID)
	return u, nil
}

// ExecuteRemoveCadet deletes the cadet profile only. The user account and
// any attendance records or waivers stay in place.
// PRE: actor may manage cadets
// POST: no profile with cadetID exists
func ExecuteRemoveCadet(ctx context.Context, actor access.Actor, cadetID string, deps CadetDeps) error {
	if err := access.Authorize(actor, access.OpManageCadets); err != nil {
		return err
	}
	if err := deps.CadetStore.Delete(ctx, cadetID); err != nil {
		return err
	}
	slog.Info("cadet_event", "event", "cadet_removed", "cadet_id", cadetID)
	return nil
}
