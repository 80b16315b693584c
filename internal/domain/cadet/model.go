package cadet

import (
	"errors"
	"fmt"
	"slices"
)

// DefaultRank is the rank assigned to a newly designated cadet (freshman).
const DefaultRank = 100

// Ranks lists the ROTC academic levels a cadet may hold, in order.
var Ranks = []int{100, 150, 200, 250, 300, 400, 500, 700, 800, 900}

// Domain errors
var (
	ErrEmptyUserID = errors.New("cadet must be associated with a user")
	ErrInvalidRank = errors.New("rank must be a known ROTC level")
)

// Cadet is the cadet profile that extends a User.
// FlightID is optional and may dangle after its Flight is deleted.
type Cadet struct {
	ID       string
	UserID   string
	Rank     int
	FlightID string
}

// Validate checks if the Cadet has valid data.
// PRE: Cadet struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: UserID must not be empty, Rank is a known level
func (c *Cadet) Validate() error {
	if c.UserID == "" {
		return ErrEmptyUserID
	}
	if !ValidRank(c.Rank) {
		return ErrInvalidRank
	}
	return nil
}

// HasFlight returns true if the cadet references a flight.
// The reference may still be dangling.
func (c *Cadet) HasFlight() bool {
	return c.FlightID != ""
}

// ValidRank reports whether rank is a known ROTC level.
func ValidRank(rank int) bool {
	return slices.Contains(Ranks, rank)
}

// Label renders "Name (rank)" as shown on flight rosters.
func Label(name string, rank int) string {
	return fmt.Sprintf("%s (%d)", name, rank)
}
