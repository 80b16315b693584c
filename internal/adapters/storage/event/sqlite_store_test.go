package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"rollcall/internal/adapters/storage/storagetest"
	"rollcall/internal/domain/apperr"
	domain "rollcall/internal/domain/event"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 6, 0, 0, 0, time.UTC)
}

// TestSQLiteStore_SaveAndGet round-trips an event including an open end.
func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()

	e := domain.Event{ID: "e1", Name: "PT", Type: domain.TypePT, StartDate: day(2024, 3, 1), CreatedBy: "u1", CreatedAt: day(2024, 2, 1)}
	if err := store.Save(ctx, e); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.GetByID(ctx, "e1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.StartDate.Equal(e.StartDate) || !got.EndDate.IsZero() || got.Type != domain.TypePT {
		t.Errorf("got %+v", got)
	}
}

// TestSQLiteStore_ListFilters covers type and half-open date bounds.
func TestSQLiteStore_ListFilters(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()
	store.Save(ctx, domain.Event{ID: "e1", Name: "PT", Type: domain.TypePT, StartDate: day(2024, 1, 1), CreatedBy: "u"})
	store.Save(ctx, domain.Event{ID: "e2", Name: "LLAB", Type: domain.TypeLab, StartDate: day(2024, 1, 5), CreatedBy: "u"})
	store.Save(ctx, domain.Event{ID: "e3", Name: "PT", Type: domain.TypePT, StartDate: day(2024, 2, 1), CreatedBy: "u"})

	pt, err := store.List(ctx, ListFilter{Type: domain.TypePT})
	if err != nil || len(pt) != 2 {
		t.Fatalf("pt = %+v, %v", pt, err)
	}
	jan, _ := store.List(ctx, ListFilter{From: day(2024, 1, 1), To: day(2024, 2, 1)})
	if len(jan) != 2 || jan[0].ID != "e1" || jan[1].ID != "e2" {
		t.Errorf("jan = %+v", jan)
	}
}

// TestSQLiteStore_Delete removes the event only.
func TestSQLiteStore_Delete(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()
	store.Save(ctx, domain.Event{ID: "e1", Name: "PT", Type: domain.TypePT, StartDate: day(2024, 1, 1), CreatedBy: "u"})
	if err := store.Delete(ctx, "e1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetByID(ctx, "e1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}
