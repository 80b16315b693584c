package attendance_test

import (
	"testing"

	"rollcall/internal/domain/attendance"
)

// TestNormalize covers every documented mapping.
func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want attendance.Code
	}{
		{"", attendance.CodeAbsent},
		{"present", attendance.CodePresent},
		{"PRESENT", attendance.CodePresent},
		{"  Present  ", attendance.CodePresent},
		{"absent", attendance.CodeAbsent},
		{"excused", attendance.CodeExcused},
		{"Waived", attendance.CodeExcused},
		{"tardy", attendance.CodeAbsent},
		{"P", attendance.CodePresent},
		{"A", attendance.CodeAbsent},
		{"E", attendance.CodeExcused},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := attendance.Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestNormalize_Idempotent checks Normalize(Normalize(s)) == Normalize(s).
func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"", "present", "absent", "excused", "waived", "garbage", " P ", "e", "a"}
	for _, in := range inputs {
		once := attendance.Normalize(in)
		twice := attendance.Normalize(string(once))
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

// TestRecord_Validate tests validation of Record.
func TestRecord_Validate(t *testing.T) {
	valid := attendance.Record{EventID: "e1", CadetID: "c1", Status: attendance.StatusAbsent, RecordedBy: "u1"}
	tests := []struct {
		name    string
		mutate  func(r *attendance.Record)
		wantErr error
	}{
		{"valid", func(r *attendance.Record) {}, nil},
		{"missing event", func(r *attendance.Record) { r.EventID = "" }, attendance.ErrEmptyEventID},
		{"missing cadet", func(r *attendance.Record) { r.CadetID = "" }, attendance.ErrEmptyCadetID},
		{"unknown status", func(r *attendance.Record) { r.Status = "waived" }, attendance.ErrInvalidStatus},
		{"missing recorder", func(r *attendance.Record) { r.RecordedBy = "" }, attendance.ErrEmptyRecorder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			if err := r.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestRecord_IsAbsent treats unknown stored values as absences.
func TestRecord_IsAbsent(t *testing.T) {
	for status, want := range map[string]bool{"absent": true, "": true, "late": true, "present": false, "excused": false} {
		r := attendance.Record{Status: status}
		if got := r.IsAbsent(); got != want {
			t.Errorf("IsAbsent(%q) = %v, want %v", status, got, want)
		}
	}
}
