package orchestrators

import (
	"context"
	"os"
	"strings"
	"testing"

	"rollcall/internal/domain/attendance"
	"rollcall/internal/domain/user"
)

func loadFixture(t *testing.T) SeedFixture {
	t.Helper()
	data, err := os.ReadFile("testdata/seed.yaml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	f, err := ParseSeedFixture(data)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return f
}

// TestParseSeedFixture_RejectsUnknownKeys keeps typos from being ignored.
func TestParseSeedFixture_RejectsUnknownKeys(t *testing.T) {
	if _, err := ParseSeedFixture([]byte("password: x\nuserz: []\n")); err == nil {
		t.Fatal("expected error for unknown key")
	}
	if _, err := ParseSeedFixture([]byte("users: []\n")); err == nil || !strings.Contains(err.Error(), "password") {
		t.Fatalf("err = %v, want missing password", err)
	}
}

// TestExecuteSeed_LoadsFixtureOnce seeds everything and is a no-op the second time.
func TestExecuteSeed_LoadsFixtureOnce(t *testing.T) {
	fixture := loadFixture(t)
	users := newMockUserStore()
	cadets := newMockCadetStore()
	flights := newMockFlightStore()
	events := &mockEventStore{}
	records := newMockAttendanceStore()
	deps := SeedDeps{
		UserStore: users, CadetStore: cadets, FlightStore: flights, EventStore: events, AttendanceStore: records,
		GenerateID: seqIDs(), Now: fixedNow,
	}

	result, err := ExecuteSeed(context.Background(), fixture, deps)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	want := SeedResult{Users: 5, Cadets: 3, Flights: 1, Events: 2, Attendance: 6}
	if result != want {
		t.Errorf("result = %+v, want %+v", result, want)
	}

	u, err := users.GetByEmail(context.Background(), "cadet1@rollcall.local")
	if err != nil {
		t.Fatalf("cadet1 missing: %v", err)
	}
	if u.CheckPassword("password") != nil || !u.HasRole(user.RoleCadet) {
		t.Errorf("cadet1 = %+v", u)
	}
	for _, c := range cadets.cadets {
		if c.FlightID == "" {
			t.Errorf("cadet %s has no flight", c.ID)
		}
	}

	counts := map[string]int{}
	for _, r := range records.records {
		counts[r.Status]++
	}
	// "PA" + fc1 default present, then "EPA".
	if counts[attendance.StatusPresent] != 3 || counts[attendance.StatusAbsent] != 2 || counts[attendance.StatusExcused] != 1 {
		t.Errorf("status counts = %v", counts)
	}

	again, err := ExecuteSeed(context.Background(), fixture, deps)
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if again != (SeedResult{}) {
		t.Errorf("reseed result = %+v, want zero", again)
	}
	if len(users.users) != 5 || len(events.events) != 2 {
		t.Errorf("reseed duplicated data: users=%d events=%d", len(users.users), len(events.events))
	}
}
