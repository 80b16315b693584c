package scheduleconfig

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"rollcall/internal/adapters/storage/storagetest"
	"rollcall/internal/domain/apperr"
	domain "rollcall/internal/domain/scheduleconfig"
)

// TestSQLiteStore_GetBeforeSave reports not found.
func TestSQLiteStore_GetBeforeSave(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	if _, err := store.Get(context.Background()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestSQLiteStore_SaveReplaces keeps a single row.
func TestSQLiteStore_SaveReplaces(t *testing.T) {
	store := NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()

	if err := store.Save(ctx, domain.Default()); err != nil {
		t.Fatalf("Save default: %v", err)
	}
	next := domain.Config{
		PTDays:    []time.Weekday{time.Wednesday},
		UpdatedBy: "u1",
		UpdatedAt: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := store.Save(ctx, next); err != nil {
		t.Fatalf("Save next: %v", err)
	}
	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !slices.Equal(got.PTDays, next.PTDays) || len(got.LLABDays) != 0 || got.UpdatedBy != "u1" {
		t.Errorf("got %+v", got)
	}
}
