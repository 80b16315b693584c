package projections

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"rollcall/internal/domain/access"
	domainAttendance "rollcall/internal/domain/attendance"
	domainCadet "rollcall/internal/domain/cadet"
	domainEvent "rollcall/internal/domain/event"
	domainFlight "rollcall/internal/domain/flight"
	domainUser "rollcall/internal/domain/user"
	domainWaiver "rollcall/internal/domain/waiver"
)

func at(hour int) time.Time {
	return time.Date(2024, 3, 1, hour, 0, 0, 0, time.UTC)
}

func listDeps() ListWaiversDeps {
	return ListWaiversDeps{
		WaiverStore: &mockWaiverStore{waivers: []domainWaiver.Waiver{
			{ID: "w-old", AttendanceRecordID: "r1", Status: domainWaiver.StatusPending, CreatedAt: at(8)},
			{ID: "w-zero", AttendanceRecordID: "r2", Status: ""},
			{ID: "w-new", AttendanceRecordID: "r3", Status: domainWaiver.StatusApproved, CreatedAt: at(12)},
			{ID: "w-orphan-record", AttendanceRecordID: "r-gone", Status: domainWaiver.StatusPending, CreatedAt: at(9)},
			{ID: "w-orphan-event", AttendanceRecordID: "r4", Status: domainWaiver.StatusPending, CreatedAt: at(9)},
			{ID: "w-orphan-cadet", AttendanceRecordID: "r5", Status: domainWaiver.StatusDenied, CreatedAt: at(9)},
		}},
		AttendanceStore: &mockAttendanceStore{records: []domainAttendance.Record{
			{ID: "r1", EventID: "e1", CadetID: "c-alpha", Status: "absent"},
			{ID: "r2", EventID: "e1", CadetID: "c-stale", Status: "absent"},
			{ID: "r3", EventID: "e1", CadetID: "c-none", Status: "absent"},
			{ID: "r4", EventID: "e-gone", CadetID: "c-alpha", Status: "absent"},
			{ID: "r5", EventID: "e1", CadetID: "c-gone", Status: "absent"},
		}},
		EventStore: &mockEventStore{events: []domainEvent.Event{{ID: "e1", Name: "PT", StartDate: at(6)}}},
		CadetStore: &mockCadetStore{cadets: []domainCadet.Cadet{
			{ID: "c-alpha", UserID: "u-alpha", FlightID: "f-alpha"},
			{ID: "c-stale", UserID: "u-stale", FlightID: "f-deleted"},
			{ID: "c-none", UserID: "u-none"},
		}},
		UserStore: &mockUserStore{users: []domainUser.User{
			{ID: "u-alpha", FirstName: "Tyler", LastName: "Brooks", Email: "cadet1@rollcall.local"},
			{ID: "u-stale", FirstName: "Emily", LastName: "Chen", Email: "cadet2@rollcall.local"},
			{ID: "u-none", FirstName: "Marcus", LastName: "Davis", Email: "cadet3@rollcall.local"},
		}},
		FlightStore: &mockFlightStore{flights: []domainFlight.Flight{{ID: "f-alpha", Name: "Alpha Flight"}}},
	}
}

func ids(r ListWaiversResult) []string {
	var out []string
	for v := range r.All() {
		out = append(out, v.Waiver.ID)
	}
	return out
}

// TestQueryListWaivers_Filters covers status, flight and search filters.
func TestQueryListWaivers_Filters(t *testing.T) {
	tests := []struct {
		name  string
		query ListWaiversQuery
		want  []string
	}{
		{"all newest first, zero time last", ListWaiversQuery{Status: "all"}, []string{"w-new", "w-old", "w-zero"}},
		{"empty status means all", ListWaiversQuery{}, []string{"w-new", "w-old", "w-zero"}},
		{"pending includes empty status", ListWaiversQuery{Status: "Pending"}, []string{"w-old", "w-zero"}},
		{"approved", ListWaiversQuery{Status: "approved"}, []string{"w-new"}},
		{"denied with dangling cadet", ListWaiversQuery{Status: "denied"}, nil},
		{"flight name", ListWaiversQuery{Flight: "Alpha Flight"}, []string{"w-old"}},
		{"all flights", ListWaiversQuery{Flight: domainFlight.AllFlights}, []string{"w-new", "w-old", "w-zero"}},
		{"unassigned covers none and deleted flights", ListWaiversQuery{Flight: domainFlight.Unassigned}, []string{"w-new", "w-zero"}},
		{"search name ignoring case", ListWaiversQuery{Search: "emily"}, []string{"w-zero"}},
		{"search email", ListWaiversQuery{Search: "CADET3@"}, []string{"w-new"}},
		{"search spanning name and email", ListWaiversQuery{Search: "brooks cadet1"}, []string{"w-old"}},
		{"search miss", ListWaiversQuery{Search: "zzz"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.query.Actor = reviewer
			result, err := QueryListWaivers(context.Background(), tt.query, listDeps())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := ids(result); !slices.Equal(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestQueryListWaivers_Resolution fills in names and flights.
func TestQueryListWaivers_Resolution(t *testing.T) {
	result, err := QueryListWaivers(context.Background(), ListWaiversQuery{Actor: reviewer, Status: "all"}, listDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flights := map[string]string{}
	for v := range result.All() {
		flights[v.Waiver.ID] = v.FlightName
		if v.Event.ID != "e1" || v.CadetName == "" {
			t.Errorf("view = %+v", v)
		}
	}
	want := map[string]string{"w-new": "Unassigned", "w-old": "Alpha Flight", "w-zero": "Unassigned"}
	for id, name := range want {
		if flights[id] != name {
			t.Errorf("%s flight = %q, want %q", id, flights[id], name)
		}
	}
}

// TestQueryListWaivers_Restartable yields the same rows on every range.
func TestQueryListWaivers_Restartable(t *testing.T) {
	result, err := QueryListWaivers(context.Background(), ListWaiversQuery{Actor: reviewer}, listDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, second := ids(result), ids(result)
	if !slices.Equal(first, second) || len(first) != result.Len() {
		t.Errorf("first = %v, second = %v, len = %d", first, second, result.Len())
	}
}

// TestQueryListWaivers_Errors covers bad status and forbidden callers.
func TestQueryListWaivers_Errors(t *testing.T) {
	if _, err := QueryListWaivers(context.Background(), ListWaiversQuery{Actor: reviewer, Status: "maybe"}, listDeps()); !errors.Is(err, domainWaiver.ErrInvalidStatus) {
		t.Errorf("status err = %v", err)
	}
	if _, err := QueryListWaivers(context.Background(), ListWaiversQuery{Actor: cadetOne}, listDeps()); !errors.Is(err, access.ErrForbidden) {
		t.Errorf("cadet err = %v", err)
	}
}
