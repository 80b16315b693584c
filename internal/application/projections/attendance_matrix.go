package projections

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"rollcall/internal/adapters/storage/attendance"
	"rollcall/internal/adapters/storage/cadet"
	"rollcall/internal/adapters/storage/event"
	"rollcall/internal/adapters/storage/user"
	"rollcall/internal/domain/access"
	domainAttendance "rollcall/internal/domain/attendance"
	domainCadet "rollcall/internal/domain/cadet"
	domainEvent "rollcall/internal/domain/event"
	domainUser "rollcall/internal/domain/user"
)

// EmptyState explains why a matrix has no grid.
type EmptyState string

// Empty states. EmptyNone means the grid is populated.
const (
	EmptyNone     EmptyState = ""
	EmptyNoCadets EmptyState = "no_cadets"
	EmptyNoEvents EmptyState = "no_events"
)

// AttendanceMatrixQuery carries query parameters.
type AttendanceMatrixQuery struct {
	Actor access.Actor
}

// MatrixColumn is one cadet column.
type MatrixColumn struct {
	CadetID string
	Name    string
}

// MatrixRow is one event row. Cells align with the result's Columns.
type MatrixRow struct {
	EventID   string
	Label     string
	StartDate time.Time
	Cells     []domainAttendance.Code
}

// AttendanceMatrixResult carries the event by cadet grid.
type AttendanceMatrixResult struct {
	Empty   EmptyState
	Columns []MatrixColumn
	Rows    []MatrixRow
}

// Cell returns the code at (eventID, cadetID), or false if either is not in the grid.
func (r AttendanceMatrixResult) Cell(eventID, cadetID string) (domainAttendance.Code, bool) {
	col := slices.IndexFunc(r.Columns, func(c MatrixColumn) bool { return c.CadetID == cadetID })
	row := slices.IndexFunc(r.Rows, func(row MatrixRow) bool { return row.EventID == eventID })
	if col < 0 || row < 0 {
		return "", false
	}
	return r.Rows[row].Cells[col], true
}

// AttendanceMatrixDeps holds dependencies for QueryAttendanceMatrix.
type AttendanceMatrixDeps struct {
	EventStore      EventStore
	CadetStore      CadetStore
	UserStore       UserStore
	AttendanceStore AttendanceStore
}

// QueryAttendanceMatrix builds the unit-wide attendance matrix.
// PRE: actor is a reviewer
// POST: rows are events by start date descending, columns are cadets by
// display name ascending ignoring case; both sorts are stable over store order
// INVARIANT: a (event, cadet) pair without a record reads as A
func QueryAttendanceMatrix(ctx context.Context, query AttendanceMatrixQuery, deps AttendanceMatrixDeps) (AttendanceMatrixResult, error) {
	if err := access.Authorize(query.Actor, access.OpViewAttendanceMatrix); err != nil {
		return AttendanceMatrixResult{}, err
	}

	var (
		events  []domainEvent.Event
		cadets  []domainCadet.Cadet
		users   []domainUser.User
		records []domainAttendance.Record
	)
	g, gctx := errgroup.WithContext(ctx)
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
		records, err = deps.AttendanceStore.List(gctx, attendance.ListFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return AttendanceMatrixResult{}, err
	}

	if len(cadets) == 0 {
		return AttendanceMatrixResult{Empty: EmptyNoCadets}, nil
	}
	if len(events) == 0 {
		return AttendanceMatrixResult{Empty: EmptyNoEvents}, nil
	}

	usersByID := indexByID(users, func(u domainUser.User) string { return u.ID })
	columns := make([]MatrixColumn, len(cadets))
	for i, c := range cadets {
		columns[i] = MatrixColumn{CadetID: c.ID, Name: domainUser.UnknownName}
		if u, ok := usersByID[c.UserID]; ok {
			columns[i].Name = u.DisplayName()
		}
	}
	slices.SortStableFunc(columns, func(a, b MatrixColumn) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	slices.SortStableFunc(events, func(a, b domainEvent.Event) int {
		return b.StartDate.Compare(a.StartDate)
	})

	colIndex := make(map[string]int, len(columns))
	for i, c := range columns {
		colIndex[c.CadetID] = i
	}
	rows := make([]MatrixRow, len(events))
	rowIndex := make(map[string]int, len(events))
	for i, e := range events {
		cells := make([]domainAttendance.Code, len(columns))
		for j := range cells {
			cells[j] = domainAttendance.CodeAbsent
		}
		rows[i] = MatrixRow{EventID: e.ID, Label: e.Label(), StartDate: e.StartDate, Cells: cells}
		rowIndex[e.ID] = i
	}

	for _, r := range records {
		i, okRow := rowIndex[r.EventID]
		j, okCol := colIndex[r.CadetID]
		if okRow && okCol {
			rows[i].Cells[j] = r.Code()
		}
	}

	return AttendanceMatrixResult{Columns: columns, Rows: rows}, nil
}
