package projections

import (
	"context"
	"iter"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"rollcall/internal/adapters/storage/attendance"
	"rollcall/internal/adapters/storage/cadet"
	"rollcall/internal/adapters/storage/event"
	"rollcall/internal/adapters/storage/user"
	"rollcall/internal/adapters/storage/waiver"
	"rollcall/internal/domain/access"
	domainAttendance "rollcall/internal/domain/attendance"
	domainCadet "rollcall/internal/domain/cadet"
	domainEvent "rollcall/internal/domain/event"
	domainFlight "rollcall/internal/domain/flight"
	domainUser "rollcall/internal/domain/user"
	domainWaiver "rollcall/internal/domain/waiver"
)

// ListWaiversQuery carries the review queue filters.
type ListWaiversQuery struct {
	Actor  access.Actor
	Status string // pending, approved, denied or all; empty means all
	Flight string // flight name; empty or "All flights" means every flight
	Search string // case-insensitive substring of "name email"
}

// WaiverView is one review queue row with its references resolved.
type WaiverView struct {
	Waiver     domainWaiver.Waiver
	Record     domainAttendance.Record
	Event      domainEvent.Event
	CadetID    string
	CadetName  string
	CadetEmail string
	FlightName string
}

// ListWaiversResult is a finite, restartable sequence of review queue rows.
type ListWaiversResult struct {
	views []WaiverView
}

// All yields every row in order. It may be ranged over any number of times.
func (r ListWaiversResult) All() iter.Seq[WaiverView] {
	return slices.Values(r.views)
}

// Len returns the number of rows.
func (r ListWaiversResult) Len() int {
	return len(r.views)
}

// ListWaiversDeps holds dependencies for QueryListWaivers.
type ListWaiversDeps struct {
	WaiverStore     WaiverStore
	AttendanceStore AttendanceStore
	EventStore      EventStore
	CadetStore      CadetStore
	UserStore       UserStore
	FlightStore     FlightStore
}

// QueryListWaivers returns the review queue.
// PRE: actor is a reviewer; Status is empty, all, or a waiver status
// POST: rows are sorted by waiver creation time descending with unset times last
// INVARIANT: waivers whose record, event, cadet or user no longer resolves are
// left out; a cadet whose flight does not resolve is Unassigned
func QueryListWaivers(ctx context.Context, query ListWaiversQuery, deps ListWaiversDeps) (ListWaiversResult, error) {
	if err := access.Authorize(query.Actor, access.OpListWaivers); err != nil {
		return ListWaiversResult{}, err
	}
	status := strings.ToLower(strings.TrimSpace(query.Status))
	switch status {
	case "", domainWaiver.StatusAll, domainWaiver.StatusPending, domainWaiver.StatusApproved, domainWaiver.StatusDenied:
	default:
		return ListWaiversResult{}, domainWaiver.ErrInvalidStatus
	}

	var (
		waivers []domainWaiver.Waiver
		records []domainAttendance.Record
		events  []domainEvent.Event
		cadets  []domainCadet.Cadet
		users   []domainUser.User
		flights []domainFlight.Flight
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		waivers, err = deps.WaiverStore.List(gctx, waiver.ListFilter{Status: status})
		return err
	})
	g.Go(func() (err error) {
		records, err = deps.AttendanceStore.List(gctx, attendance.ListFilter{})
		return err
	})
	g.Go(func() (err error) {
		events, err = deps.EventStore.List(gctx, event.ListFilter{})
		return err
	})
	g.Go(func() (err error) {
		cadets, err = deps.CadetStore.List(gctx, cadet.ListFilter{})
		return err
	})
	g.Go(func() (err error) {
		users, err = deps.UserStore.List(gctx, user.ListFilter{})
		return err
	})
	g.Go(func() (err error) {
		flights, err = deps.FlightStore.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return ListWaiversResult{}, err
	}

	recordsByID := indexByID(records, func(r domainAttendance.Record) string { return r.ID })
	eventsByID := indexByID(events, func(e domainEvent.Event) string { return e.ID })
	cadetsByID := indexByID(cadets, func(c domainCadet.Cadet) string { return c.ID })
	usersByID := indexByID(users, func(u domainUser.User) string { return u.ID })
	flightsByID := indexByID(flights, func(f domainFlight.Flight) string { return f.ID })

	flightFilter := strings.TrimSpace(query.Flight)
	if flightFilter == domainFlight.AllFlights {
		flightFilter = ""
	}
	search := strings.ToLower(strings.TrimSpace(query.Search))

	var views []WaiverView
	for _, w := range waivers {
		if !w.MatchesStatus(status) {
			continue
		}
		rec, ok := recordsByID[w.AttendanceRecordID]
		if !ok {
			continue
		}
		ev, ok := eventsByID[rec.EventID]
		if !ok {
			continue
		}
		c, ok := cadetsByID[rec.CadetID]
		if !ok {
			continue
		}
		u, ok := usersByID[c.UserID]
		if !ok {
			continue
		}
		flightName := domainFlight.Unassigned
		if f, ok := flightsByID[c.FlightID]; ok && c.HasFlight() {
			flightName = f.Name
		}

		if flightFilter != "" && flightName != flightFilter {
			continue
		}
		name := u.DisplayName()
		if search != "" && !strings.Contains(strings.ToLower(name+" "+u.Email), search) {
			continue
		}

		views = append(views, WaiverView{
			Waiver:     w,
			Record:     rec,
			Event:      ev,
			CadetID:    c.ID,
			CadetName:  name,
			CadetEmail: u.Email,
			FlightName: flightName,
		})
	}

	slices.SortStableFunc(views, func(a, b WaiverView) int {
		return compareNewestFirst(a.Waiver.CreatedAt, b.Waiver.CreatedAt)
	})
	return ListWaiversResult{views: views}, nil
}

// compareNewestFirst orders later times first and zero times last.
func compareNewestFirst(a, b time.Time) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	}
	return b.Compare(a)
}
