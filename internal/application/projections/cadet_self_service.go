package projections

import (
	"context"
	"errors"
	"fmt"

	"rollcall/internal/adapters/storage/attendance"
	"rollcall/internal/adapters/storage/event"
	"rollcall/internal/adapters/storage/waiver"
	"rollcall/internal/domain/access"
	"rollcall/internal/domain/apperr"
	domainAttendance "rollcall/internal/domain/attendance"
	domainCadet "rollcall/internal/domain/cadet"
	domainEvent "rollcall/internal/domain/event"
	domainWaiver "rollcall/internal/domain/waiver"
)

// AbsencesQuery carries query parameters. An empty CadetID means the
// caller's own profile.
type AbsencesQuery struct {
	Actor   access.Actor
	CadetID string
}

// AbsencesDeps holds dependencies for QueryAbsencesWithoutWaiver.
type AbsencesDeps struct {
	CadetStore      CadetStore
	AttendanceStore AttendanceStore
	WaiverStore     WaiverStore
}

// QueryAbsencesWithoutWaiver lists the caller's absences that a waiver can
// still be filed against.
// PRE: actor is a cadet asking about their own profile
// POST: every returned record normalizes to A and has no waiver
func QueryAbsencesWithoutWaiver(ctx context.Context, query AbsencesQuery, deps AbsencesDeps) ([]domainAttendance.Record, error) {
	if err := access.Authorize(query.Actor, access.OpListOwnAbsences); err != nil {
		return nil, err
	}
	profile, err := ownProfile(ctx, query.Actor, query.CadetID, deps.CadetStore)
	if err != nil {
		return nil, err
	}

	records, err := deps.AttendanceStore.List(ctx, attendance.ListFilter{CadetID: profile.ID})
	if err != nil {
		return nil, err
	}
	var absent []domainAttendance.Record
	ids := []string{}
	for _, r := range records {
		if r.IsAbsent() {
			absent = append(absent, r)
			ids = append(ids, r.ID)
		}
	}
	if len(absent) == 0 {
		return nil, nil
	}

	waivers, err := deps.WaiverStore.List(ctx, waiver.ListFilter{Status: domainWaiver.StatusAll, AttendanceRecordIDs: ids})
	if err != nil {
		return nil, err
	}
	waived := make(map[string]bool, len(waivers))
	for _, w := range waivers {
		waived[w.AttendanceRecordID] = true
	}

	var out []domainAttendance.Record
	for _, r := range absent {
		if !waived[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

// CadetWaiverView is one of a cadet's own waivers with its event resolved.
type CadetWaiverView struct {
	Waiver    domainWaiver.Waiver
	EventName string
	EventDate string
}

// CadetWaiversQuery carries query parameters. An empty CadetID means the
// caller's own profile.
type CadetWaiversQuery struct {
	Actor   access.Actor
	CadetID string
}

// CadetWaiversDeps holds dependencies for QueryCadetWaivers.
type CadetWaiversDeps struct {
	CadetStore      CadetStore
	AttendanceStore AttendanceStore
	WaiverStore     WaiverStore
	EventStore      EventStore
}

// QueryCadetWaivers lists the caller's waivers in attendance record order.
// PRE: actor is a cadet asking about their own profile
// POST: a waiver whose event is gone shows "Unknown event" and "Unknown date"
func QueryCadetWaivers(ctx context.Context, query CadetWaiversQuery, deps CadetWaiversDeps) ([]CadetWaiverView, error) {
	if err := access.Authorize(query.Actor, access.OpListOwnWaivers); err != nil {
		return nil, err
	}
	profile, err := ownProfile(ctx, query.Actor, query.CadetID, deps.CadetStore)
	if err != nil {
		return nil, err
	}

	records, err := deps.AttendanceStore.List(ctx, attendance.ListFilter{CadetID: profile.ID})
	if err != nil || len(records) == 0 {
		return nil, err
	}
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	waivers, err := deps.WaiverStore.List(ctx, waiver.ListFilter{Status: domainWaiver.StatusAll, AttendanceRecordIDs: ids})
	if err != nil {
		return nil, err
	}
	events, err := deps.EventStore.List(ctx, event.ListFilter{})
	if err != nil {
		return nil, err
	}

	byRecord := indexByID(waivers, func(w domainWaiver.Waiver) string { return w.AttendanceRecordID })
	eventsByID := indexByID(events, func(e domainEvent.Event) string { return e.ID })

	var out []CadetWaiverView
	for _, r := range records {
		w, ok := byRecord[r.ID]
		if !ok {
			continue
		}
		view := CadetWaiverView{Waiver: w, EventName: domainEvent.UnknownName, EventDate: domainEvent.UnknownDate}
		if e, ok := eventsByID[r.EventID]; ok {
			view.EventName = e.Name
			view.EventDate = e.Date()
		}
		out = append(out, view)
	}
	return out, nil
}

// WaiverApprovalsQuery carries query parameters.
type WaiverApprovalsQuery struct {
	Actor    access.Actor
	WaiverID string
}

// WaiverApprovalsDeps holds dependencies for QueryWaiverApprovals.
type WaiverApprovalsDeps struct {
	WaiverStore WaiverStore
}

// QueryWaiverApprovals returns a waiver's decision trail oldest first.
// PRE: actor is a reviewer
// POST: returns apperr.ErrNotFound if the waiver does not exist
func QueryWaiverApprovals(ctx context.Context, query WaiverApprovalsQuery, deps WaiverApprovalsDeps) ([]domainWaiver.Approval, error) {
	if err := access.Authorize(query.Actor, access.OpViewWaiverApprovals); err != nil {
		return nil, err
	}
	if _, err := deps.WaiverStore.GetByID(ctx, query.WaiverID); err != nil {
		return nil, err
	}
	return deps.WaiverStore.ListApprovals(ctx, query.WaiverID)
}

// ownProfile resolves the actor's cadet profile and rejects requests about
// any other cadet.
func ownProfile(ctx context.Context, actor access.Actor, cadetID string, store CadetStore) (domainCadet.Cadet, error) {
	profile, err := store.GetByUserID(ctx, actor.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return domainCadet.Cadet{}, fmt.Errorf("%w: no cadet profile for user", access.ErrForbidden)
	}
	if err != nil {
		return domainCadet.Cadet{}, err
	}
	if cadetID != "" && cadetID != profile.ID {
		return domainCadet.Cadet{}, fmt.Errorf("%w: cadet %s is not the caller", access.ErrForbidden, cadetID)
	}
	return profile, nil
}
