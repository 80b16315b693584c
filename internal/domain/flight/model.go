package flight

import (
	"errors"
	"strings"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Unassigned is the flight name shown for cadets with no resolvable flight.
const Unassigned = "Unassigned"

// AllFlights is the flight filter value that matches every flight.
const AllFlights = "All flights"

// Domain errors
var (
	ErrEmptyName      = errors.New("flight name cannot be empty")
	ErrNameTooLong    = errors.New("flight name cannot exceed 100 characters")
	ErrEmptyCommander = errors.New("flight must have a commander")
)

// Flight is a named sub-unit with exactly one commander.
// Members are the cadets whose FlightID points here.
type Flight struct {
	ID               string
	Name             string
	CommanderCadetID string
}

// Validate checks if the Flight has valid data.
// PRE: Flight struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Name and CommanderCadetID must not be empty
func (f *Flight) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrEmptyName
	}
	if len(f.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if f.CommanderCadetID == "" {
		return ErrEmptyCommander
	}
	return nil
}
