package event

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 200
)

// Event type codes. Types are opaque categories; these are the ones the
// schedule generator creates.
const (
	TypePT  = "pt"
	TypeLab = "lab"
)

// DateLayout is the date format used in row labels.
const DateLayout = "2006-01-02"

// Placeholders shown when a waiver's event no longer resolves.
const (
	UnknownName = "Unknown event"
	UnknownDate = "Unknown date"
)

// Domain errors
var (
	ErrEmptyName      = errors.New("event name cannot be empty")
	ErrNameTooLong    = errors.New("event name cannot exceed 200 characters")
	ErrEmptyType      = errors.New("event type cannot be empty")
	ErrEmptyStart     = errors.New("event start must be set")
	ErrEndBeforeStart = errors.New("event end cannot be before its start")
	ErrEmptyCreator   = errors.New("event must record its creator")
)

// Event is a dated activity that attendance is taken against.
type Event struct {
	ID        string
	Name      string
	Type      string
	StartDate time.Time
	EndDate   time.Time
	CreatedBy string
	CreatedAt time.Time
}

// Validate checks if the Event has valid data.
// PRE: Event struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: EndDate is zero or not before StartDate
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if len(e.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(e.Type) == "" {
		return ErrEmptyType
	}
	if e.StartDate.IsZero() {
		return ErrEmptyStart
	}
	if !e.EndDate.IsZero() && e.EndDate.Before(e.StartDate) {
		return ErrEndBeforeStart
	}
	if e.CreatedBy == "" {
		return ErrEmptyCreator
	}
	return nil
}

// Date returns the start date as YYYY-MM-DD, or "Unknown date" when unset.
func (e *Event) Date() string {
	if e.StartDate.IsZero() {
		return UnknownDate
	}
	return e.StartDate.Format(DateLayout)
}

// Label renders the dashboard row label "YYYY-MM-DD — name".
// The date alone is used when the event has no name.
func (e *Event) Label() string {
	if e.Name == "" {
		return e.Date()
	}
	return e.Date() + " — " + e.Name
}
