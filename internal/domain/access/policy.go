// Package access decides which actor may invoke which operation.
//
// Authorization is a flat set-membership check: every Operation names the
// roles permitted to invoke it and the caller's roles are intersected with
// that set. No role implies another; admin is not a superset of cadet.
package access

import (
	"errors"
	"fmt"
	"slices"

	"rollcall/internal/domain/user"
)

// ErrForbidden is returned when the caller holds none of the permitted roles,
// or targets a resource owned by someone else.
var ErrForbidden = errors.New("forbidden")

// Operation identifies a guarded entry point.
type Operation string

// Operations exposed by the workflow engine.
const (
	OpViewAttendanceMatrix Operation = "view_attendance_matrix"
	OpListWaivers          Operation = "list_waivers"
	OpDecideWaiver         Operation = "decide_waiver"
	OpViewWaiverApprovals  Operation = "view_waiver_approvals"
	OpSubmitWaiver         Operation = "submit_waiver"
	OpListOwnAbsences      Operation = "list_own_absences"
	OpListOwnWaivers       Operation = "list_own_waivers"
	OpRecordAttendance     Operation = "record_attendance"
	OpManageEvents         Operation = "manage_events"
	OpManageFlights        Operation = "manage_flights"
	OpManageCadets         Operation = "manage_cadets"
	OpConfigureSchedule    Operation = "configure_schedule"
)

// Reviewers may view the unit-wide dashboard and decide waivers.
var Reviewers = []user.Role{user.RoleAdmin, user.RoleCadre, user.RoleFlightCommander}

// policy lists the permitted roles of every operation explicitly.
var policy = map[Operation][]user.Role{
	OpViewAttendanceMatrix: Reviewers,
	OpListWaivers:          Reviewers,
	OpDecideWaiver:         Reviewers,
	OpViewWaiverApprovals:  Reviewers,
	OpRecordAttendance:     Reviewers,
	OpSubmitWaiver:         {user.RoleCadet},
	OpListOwnAbsences:      {user.RoleCadet},
	OpListOwnWaivers:       {user.RoleCadet},
	OpManageEvents:         {user.RoleAdmin, user.RoleCadre},
	OpManageCadets:         {user.RoleAdmin, user.RoleCadre},
	OpConfigureSchedule:    {user.RoleAdmin, user.RoleCadre},
	OpManageFlights:        {user.RoleAdmin},
}

// Actor is the authenticated caller of a single request.
// It is passed explicitly into every operation.
type Actor struct {
	UserID string
	Email  string
	Roles  []user.Role
}

// PermittedRoles returns the roles allowed to invoke op.
// Unknown operations permit nobody.
func PermittedRoles(op Operation) []user.Role {
	return slices.Clone(policy[op])
}

// Authorize checks that the actor holds at least one role permitted for op.
// PRE: op is a declared Operation
// POST: Returns nil if the intersection is non-empty, ErrForbidden otherwise
func Authorize(actor Actor, op Operation) error {
	if actor.UserID == "" {
		return fmt.Errorf("%w: unauthenticated caller", ErrForbidden)
	}
	for _, r := range policy[op] {
		if slices.Contains(actor.Roles, r) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s requires one of %v", ErrForbidden, op, policy[op])
}

// Can is the boolean form of Authorize.
func Can(actor Actor, op Operation) bool {
	return Authorize(actor, op) == nil
}
