package orchestrators

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"rollcall/internal/domain/apperr"
	"rollcall/internal/domain/attendance"
	"rollcall/internal/domain/cadet"
	"rollcall/internal/domain/event"
	"rollcall/internal/domain/flight"
	"rollcall/internal/domain/user"
)

// SeedFixture is the YAML demo data loaded by the seed command.
type SeedFixture struct {
	Password   string         `yaml:"password"`
	Users      []SeedUser     `yaml:"users"`
	Cadets     map[string]int `yaml:"cadets"` // user key -> rank
	Flights    []SeedFlight   `yaml:"flights"`
	Events     []SeedEvent    `yaml:"events"`
	Attendance SeedAttendance `yaml:"attendance"`
}

// SeedUser is one fixture account. Key is the handle other sections refer to.
type SeedUser struct {
	Key       string   `yaml:"key"`
	FirstName string   `yaml:"first_name"`
	LastName  string   `yaml:"last_name"`
	Email     string   `yaml:"email"`
	Roles     []string `yaml:"roles"`
}

// SeedFlight names a flight, its commander and its members by user key.
type SeedFlight struct {
	Name      string   `yaml:"name"`
	Commander string   `yaml:"commander"`
	Members   []string `yaml:"members"`
}

// SeedEvent places an event relative to the seed time.
type SeedEvent struct {
	Name      string  `yaml:"name"`
	Type      string  `yaml:"type"`
	DaysAgo   int     `yaml:"days_ago"`
	Hours     float64 `yaml:"hours"`
	CreatedBy string  `yaml:"created_by"`
}

// SeedAttendance holds one P/A/E pattern per event, indexed by cadet order.
// Cadets beyond the end of a pattern are recorded present.
type SeedAttendance struct {
	RecordedBy string   `yaml:"recorded_by"`
	Cadets     []string `yaml:"cadets"`
	Patterns   []string `yaml:"patterns"`
}

// ParseSeedFixture decodes a fixture, rejecting unknown keys.
func ParseSeedFixture(data []byte) (SeedFixture, error) {
	var f SeedFixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return SeedFixture{}, fmt.Errorf("parse seed fixture: %w", err)
	}
	if f.Password == "" {
		return SeedFixture{}, errors.New("parse seed fixture: password is required")
	}
	return f, nil
}

var seedStatus = map[byte]string{
	'P': attendance.StatusPresent,
	'A': attendance.StatusAbsent,
	'E': attendance.StatusExcused,
}

// SeedDeps holds the stores written by Seed.
type SeedDeps struct {
	UserStore interface {
		GetByEmail(ctx context.Context, email string) (user.User, error)
		Save(ctx context.Context, u user.User) error
	}
	CadetStore interface {
		GetByUserID(ctx context.Context, userID string) (cadet.Cadet, error)
		Save(ctx context.Context, c cadet.Cadet) error
	}
	FlightStore interface {
		GetByName(ctx context.Context, name string) (flight.Flight, error)
		Save(ctx context.Context, f flight.Flight) error
	}
	EventStore interface {
		Save(ctx context.Context, e event.Event) error
	}
	AttendanceStore interface {
		Upsert(ctx context.Context, r attendance.Record) (attendance.Record, error)
	}
	GenerateID func() string
	Now        func() time.Time
}

// SeedResult counts what Seed created.
type SeedResult struct {
	Users      int
	Cadets     int
	Flights    int
	Events     int
	Attendance int
}

// ExecuteSeed loads a fixture into the stores.
// Users are matched by email and never overwritten. Events and attendance are
// only written on a run that created at least one user, so reseeding the same
// fixture is a no-op.
// PRE: the database is migrated
// POST: every fixture user, cadet profile and flight exists
func ExecuteSeed(ctx context.Context, fixture SeedFixture, deps SeedDeps) (SeedResult, error) {
	var result SeedResult
	now := deps.Now()

	hashed := user.User{}
	if err := hashed.SetPassword(fixture.Password); err != nil {
		return result, fmt.Errorf("seed: hash password: %w", err)
	}

	userIDs := make(map[string]string, len(fixture.Users))
	for _, su := range fixture.Users {
		existing, err := deps.UserStore.GetByEmail(ctx, su.Email)
		if err == nil {
			userIDs[su.Key] = existing.ID
			continue
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return result, err
		}
		u := user.User{
			ID:           deps.GenerateID(),
			FirstName:    su.FirstName,
			LastName:     su.LastName,
			Email:        strings.TrimSpace(su.Email),
			PasswordHash: hashed.PasswordHash,
			CreatedAt:    now,
		}
		for _, r := range su.Roles {
			u.AddRole(user.Role(r))
		}
		if err := u.Validate(); err != nil {
			return result, fmt.Errorf("seed user %s: %w", su.Key, err)
		}
		if err := deps.UserStore.Save(ctx, u); err != nil {
			return result, fmt.Errorf("seed user %s: %w", su.Key, err)
		}
		userIDs[su.Key] = u.ID
		result.Users++
	}

	cadets := make(map[string]cadet.Cadet, len(fixture.Cadets))
	for _, key := range slices.Sorted(maps.Keys(fixture.Cadets)) {
		rank := fixture.Cadets[key]
		userID, ok := userIDs[key]
		if !ok {
			return result, fmt.Errorf("seed cadet %s: unknown user key", key)
		}
		c, err := deps.CadetStore.GetByUserID(ctx, userID)
		if errors.Is(err, apperr.ErrNotFound) {
			c = cadet.Cadet{ID: deps.GenerateID(), UserID: userID, Rank: rank}
			if err := c.Validate(); err != nil {
				return result, fmt.Errorf("seed cadet %s: %w", key, err)
			}
			if err := deps.CadetStore.Save(ctx, c); err != nil {
				return result, fmt.Errorf("seed cadet %s: %w", key, err)
			}
			result.Cadets++
		} else if err != nil {
			return result, err
		}
		cadets[key] = c
	}

	for _, sf := range fixture.Flights {
		commander, ok := cadets[sf.Commander]
		if !ok {
			return result, fmt.Errorf("seed flight %s: commander %s is not a cadet", sf.Name, sf.Commander)
		}
		f, err := deps.FlightStore.GetByName(ctx, sf.Name)
		if errors.Is(err, apperr.ErrNotFound) {
			f = flight.Flight{ID: deps.GenerateID(), Name: sf.Name, CommanderCadetID: commander.ID}
			if err := f.Validate(); err != nil {
				return result, fmt.Errorf("seed flight %s: %w", sf.Name, err)
			}
			if err := deps.FlightStore.Save(ctx, f); err != nil {
				return result, fmt.Errorf("seed flight %s: %w", sf.Name, err)
			}
			result.Flights++
		} else if err != nil {
			return result, err
		}
		for _, key := range sf.Members {
			c, ok := cadets[key]
			if !ok {
				return result, fmt.Errorf("seed flight %s: member %s is not a cadet", sf.Name, key)
			}
			if c.FlightID == f.ID {
				continue
			}
			c.FlightID = f.ID
			if err := deps.CadetStore.Save(ctx, c); err != nil {
				return result, fmt.Errorf("seed flight %s: assign %s: %w", sf.Name, key, err)
			}
			cadets[key] = c
		}
	}

	if result.Users == 0 {
		slog.Info("seed_event", "event", "seed_skipped_events", "reason", "users_already_present")
		return result, nil
	}

	for i, se := range fixture.Events {
		start := now.AddDate(0, 0, -se.DaysAgo)
		e := event.Event{
			ID:        deps.GenerateID(),
			Name:      se.Name,
			Type:      se.Type,
			StartDate: start,
			EndDate:   start.Add(time.Duration(se.Hours * float64(time.Hour))),
			CreatedBy: userIDs[se.CreatedBy],
			CreatedAt: now,
		}
		if err := e.Validate(); err != nil {
			return result, fmt.Errorf("seed event %s: %w", se.Name, err)
		}
		if err := deps.EventStore.Save(ctx, e); err != nil {
			return result, fmt.Errorf("seed event %s: %w", se.Name, err)
		}
		result.Events++

		if i >= len(fixture.Attendance.Patterns) {
			continue
		}
		pattern := fixture.Attendance.Patterns[i]
		for j, key := range fixture.Attendance.Cadets {
			c, ok := cadets[key]
			if !ok {
				return result, fmt.Errorf("seed attendance: %s is not a cadet", key)
			}
			status := attendance.StatusPresent
			if j < len(pattern) {
				if s, ok := seedStatus[pattern[j]]; ok {
					status = s
				}
			}
			r := attendance.Record{
				ID:         deps.GenerateID(),
				EventID:    e.ID,
				CadetID:    c.ID,
				Status:     status,
				RecordedBy: userIDs[fixture.Attendance.RecordedBy],
				CreatedAt:  now,
			}
			if err := r.Validate(); err != nil {
				return result, fmt.Errorf("seed attendance %s/%s: %w", se.Name, key, err)
			}
			if _, err := deps.AttendanceStore.Upsert(ctx, r); err != nil {
				return result, fmt.Errorf("seed attendance %s/%s: %w", se.Name, key, err)
			}
			result.Attendance++
		}
	}

	slog.Info("seed_event", "event", "seed_complete", "users", result.Users, "cadets", result.Cadets, "flights", result.Flights, "events", result.Events, "attendance", result.Attendance)
	return result, nil
}
