package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"rollcall/internal/domain/access"
	"rollcall/internal/domain/apperr"
	"rollcall/internal/domain/cadet"
	domain "rollcall/internal/domain/flight"
	"rollcall/internal/domain/user"
)

// FlightStoreForManage defines the store interface needed by the flight orchestrators.
type FlightStoreForManage interface {
	GetByID(ctx context.Context, id string) (domain.Flight, error)
	GetByName(ctx context.Context, name string) (domain.Flight, error)
	Save(ctx context.Context, f domain.Flight) error
	Delete(ctx context.Context, id string) error
}

// CadetStoreForFlight defines the cadet access needed by the flight orchestrators.
type CadetStoreForFlight interface {
	GetByID(ctx context.Context, id string) (cadet.Cadet, error)
	Save(ctx context.Context, c cadet.Cadet) error
}

// UserStoreForRoles loads and saves users whose roles change.
type UserStoreForRoles interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	Save(ctx context.Context, u user.User) error
}

// FlightDeps holds dependencies for the flight orchestrators.
type FlightDeps struct {
	FlightStore FlightStoreForManage
	CadetStore  CadetStoreForFlight
	UserStore   UserStoreForRoles
	GenerateID  func() string
}

// CreateFlightInput carries input for the create flight orchestrator.
type CreateFlightInput struct {
	Actor            access.Actor
	Name             string
	CommanderCadetID string
}

// ExecuteCreateFlight creates a flight under an existing cadet.
// The commander joins the flight and gains the flight_commander role.
// PRE: actor may manage flights; commander cadet exists
// POST: flight is persisted with a unique name
func ExecuteCreateFlight(ctx context.Context, input CreateFlightInput, deps FlightDeps) (domain.Flight, error) {
	if err := access.Authorize(input.Actor, access.OpManageFlights); err != nil {
		return domain.Flight{}, err
	}
	f := domain.Flight{
		ID:               deps.GenerateID(),
		Name:             strings.TrimSpace(input.Name),
		CommanderCadetID: input.CommanderCadetID,
	}
	if err := f.Validate(); err != nil {
		return domain.Flight{}, err
	}
	commander, err := deps.CadetStore.GetByID(ctx, f.CommanderCadetID)
	if err != nil {
		return domain.Flight{}, err
	}
	if _, err := deps.FlightStore.GetByName(ctx, f.Name); err == nil {
		return domain.Flight{}, fmt.Errorf("flight %q: %w", f.Name, apperr.ErrDuplicate)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return domain.Flight{}, err
	}

	if err := deps.FlightStore.Save(ctx, f); err != nil {
		return domain.Flight{}, err
	}
	commander.FlightID = f.ID
	if err := deps.CadetStore.Save(ctx, commander); err != nil {
		return domain.Flight{}, err
	}
	if err := grantRole(ctx, deps.UserStore, commander.UserID, user.RoleFlightCommander); err != nil {
		return domain.Flight{}, err
	}

	slog.Info("flight_event", "event", "flight_created", "flight_id", f.ID, "name", f.Name, "commander_cadet_id", f.CommanderCadetID)
	return f, nil
}

// AssignCadetInput carries input for the assign cadet orchestrator.
type AssignCadetInput struct {
	Actor    access.Actor
	FlightID string
	CadetID  string
}

// ExecuteAssignCadetToFlight moves a cadet into a flight.
// PRE: actor may manage flights; flight and cadet exist
// POST: cadet.FlightID == input.FlightID
func ExecuteAssignCadetToFlight(ctx context.Context, input AssignCadetInput, deps FlightDeps) (cadet.Cadet, error) {
	if err := access.Authorize(input.Actor, access.OpManageFlights); err != nil {
		return cadet.Cadet{}, err
	}
	if _, err := deps.FlightStore.GetByID(ctx, input.FlightID); err != nil {
		return cadet.Cadet{}, err
	}
	c, err := deps.CadetStore.GetByID(ctx, input.CadetID)
	if err != nil {
		return cadet.Cadet{}, err
	}
	c.FlightID = input.FlightID
	if err := deps.CadetStore.Save(ctx, c); err != nil {
		return cadet.Cadet{}, err
	}
	slog.Info("flight_event", "event", "cadet_assigned", "flight_id", input.FlightID, "cadet_id", c.ID)
	return c, nil
}

// ExecuteDeleteFlight removes a flight without touching its members.
// Members keep the stale FlightID and read as Unassigned.
// PRE: actor may manage flights
// POST: flight no longer exists
func ExecuteDeleteFlight(ctx context.Context, actor access.Actor, id string, deps FlightDeps) error {
	if err := access.Authorize(actor, access.OpManageFlights); err != nil {
		return err
	}
	if err := deps.FlightStore.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("flight_event", "event", "flight_deleted", "flight_id", id)
	return nil
}

func grantRole(ctx context.Context, store UserStoreForRoles, userID string, role user.Role) error {
	u, err := store.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.HasRole(role) {
		return nil
	}
	u.AddRole(role)
	return store.Save(ctx, u)
}
