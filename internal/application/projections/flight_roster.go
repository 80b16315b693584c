package projections

import (
	"context"
	"slices"

	"rollcall/internal/adapters/storage/cadet"
	"rollcall/internal/adapters/storage/user"
	"rollcall/internal/domain/access"
	domainCadet "rollcall/internal/domain/cadet"
	domainUser "rollcall/internal/domain/user"
)

// FlightRosterQuery carries query parameters.
type FlightRosterQuery struct {
	Actor access.Actor
}

// RosterEntry is one flight with its commander and members labelled "Name (rank)".
type RosterEntry struct {
	FlightID  string
	Name      string
	Commander string // empty when the commander no longer resolves
	Members   []string
}

// FlightRosterResult lists flights by name plus cadets with no resolvable flight.
type FlightRosterResult struct {
	Flights    []RosterEntry
	Unassigned []string
}

// FlightRosterDeps holds dependencies for QueryFlightRoster.
type FlightRosterDeps struct {
	FlightStore FlightStore
	CadetStore  CadetStore
	UserStore   UserStore
}

// QueryFlightRoster groups cadets under their flights.
// PRE: actor may manage flights or cadets
// POST: members appear in cadet store order
func QueryFlightRoster(ctx context.Context, query FlightRosterQuery, deps FlightRosterDeps) (FlightRosterResult, error) {
	if !access.Can(query.Actor, access.OpManageFlights) {
		if err := access.Authorize(query.Actor, access.OpManageCadets); err != nil {
			return FlightRosterResult{}, err
		}
	}

	flights, err := deps.FlightStore.List(ctx)
	if err != nil {
		return FlightRosterResult{}, err
	}
	cadets, err := deps.CadetStore.List(ctx, cadet.ListFilter{})
	if err != nil {
		return FlightRosterResult{}, err
	}
	users, err := deps.UserStore.List(ctx, user.ListFilter{})
	if err != nil {
		return FlightRosterResult{}, err
	}

	usersByID := indexByID(users, func(u domainUser.User) string { return u.ID })
	label := func(c domainCadet.Cadet) string {
		name := domainUser.UnknownName
		if u, ok := usersByID[c.UserID]; ok {
			name = u.DisplayName()
		}
		return domainCadet.Label(name, c.Rank)
	}
	cadetsByID := indexByID(cadets, func(c domainCadet.Cadet) string { return c.ID })

	var result FlightRosterResult
	for _, f := range flights {
		entry := RosterEntry{FlightID: f.ID, Name: f.Name}
		if commander, ok := cadetsByID[f.CommanderCadetID]; ok {
			entry.Commander = label(commander)
		}
		result.Flights = append(result.Flights, entry)
	}
	for _, c := range cadets {
		i := slices.IndexFunc(result.Flights, func(e RosterEntry) bool { return c.HasFlight() && e.FlightID == c.FlightID })
		if i < 0 {
			result.Unassigned = append(result.Unassigned, label(c))
			continue
		}
		result.Flights[i].Members = append(result.Flights[i].Members, label(c))
	}
	return result, nil
}
