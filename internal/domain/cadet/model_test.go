package cadet_test

import (
	"testing"

	"rollcall/internal/domain/cadet"
)

// TestCadet_Validate tests validation of Cadet.
func TestCadet_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       cadet.Cadet
		wantErr error
	}{
		{"valid", cadet.Cadet{UserID: "u1", Rank: 100}, nil},
		{"valid with flight", cadet.Cadet{UserID: "u1", Rank: 400, FlightID: "f1"}, nil},
		{"missing user", cadet.Cadet{Rank: 100}, cadet.ErrEmptyUserID},
		{"odd rank", cadet.Cadet{UserID: "u1", Rank: 175}, cadet.ErrInvalidRank},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.c.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestLabel renders roster entries.
func TestLabel(t *testing.T) {
	if got := cadet.Label("Alice A", 250); got != "Alice A (250)" {
		t.Errorf("Label = %q", got)
	}
}
