package attendance

import (
	"errors"
	"strings"
	"time"
)

// Stored status values.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusExcused = "excused"
)

// Code is the normalized single-letter status shown in the attendance matrix.
type Code string

// Normalized codes.
const (
	CodePresent Code = "P"
	CodeAbsent  Code = "A"
	CodeExcused Code = "E"
)

// Domain errors
var (
	ErrEmptyEventID  = errors.New("attendance record must reference an event")
	ErrEmptyCadetID  = errors.New("attendance record must reference a cadet")
	ErrInvalidStatus = errors.New("status must be 'present', 'absent', or 'excused'")
	ErrEmptyRecorder = errors.New("attendance record must name who recorded it")
)

// Record is the attendance fact for one (Event, Cadet) pair.
// INVARIANT: at most one Record exists per (EventID, CadetID)
type Record struct {
	ID         string
	EventID    string
	CadetID    string
	Status     string
	RecordedBy string
	CreatedAt  time.Time
}

// Validate checks if the Record has valid data.
// PRE: Record struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: EventID and CadetID must not be empty, Status is a stored value
func (r *Record) Validate() error {
	if r.EventID == "" {
		return ErrEmptyEventID
	}
	if r.CadetID == "" {
		return ErrEmptyCadetID
	}
	if !ValidStatus(r.Status) {
		return ErrInvalidStatus
	}
	if r.RecordedBy == "" {
		return ErrEmptyRecorder
	}
	return nil
}

// Code returns the normalized status of the record.
func (r *Record) Code() Code {
	return Normalize(r.Status)
}

// IsAbsent returns true if the record normalizes to absent.
// Unknown stored values count as absent.
func (r *Record) IsAbsent() bool {
	return r.Code() == CodeAbsent
}

// ValidStatus reports whether s is one of the stored status values.
func ValidStatus(s string) bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusExcused:
		return true
	}
	return false
}

// Normalize maps a raw status to P, A or E.
// It is total over arbitrary strings and idempotent: Normalize of a code
// returns the same code. Empty and unrecognized values map to A.
func Normalize(status string) Code {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case StatusPresent, "p":
		return CodePresent
	case StatusExcused, "waived", "e":
		return CodeExcused
	default:
		return CodeAbsent
	}
}
