package waiver_test

import (
	"strings"
	"testing"

	"rollcall/internal/domain/waiver"
)

// TestWaiver_Validate tests validation of Waiver.
func TestWaiver_Validate(t *testing.T) {
	tests := []struct {
		name    string
		w       waiver.Waiver
		wantErr error
	}{
		{
			name:    "valid pending",
			w:       waiver.Waiver{AttendanceRecordID: "r1", Reason: "Sick", Status: waiver.StatusPending, SubmittedBy: "u1"},
			wantErr: nil,
		},
		{
			name:    "blank reason",
			w:       waiver.Waiver{AttendanceRecordID: "r1", Reason: "   ", Status: waiver.StatusPending, SubmittedBy: "u1"},
			wantErr: waiver.ErrEmptyReason,
		},
		{
			name:    "reason too long",
			w:       waiver.Waiver{AttendanceRecordID: "r1", Reason: strings.Repeat("x", waiver.MaxReasonLength+1), Status: waiver.StatusPending, SubmittedBy: "u1"},
			wantErr: waiver.ErrReasonTooLong,
		},
		{
			name:    "missing record",
			w:       waiver.Waiver{Reason: "Sick", Status: waiver.StatusPending, SubmittedBy: "u1"},
			wantErr: waiver.ErrEmptyRecordID,
		},
		{
			name:    "missing submitter",
			w:       waiver.Waiver{AttendanceRecordID: "r1", Reason: "Sick", Status: waiver.StatusPending},
			wantErr: waiver.ErrEmptySubmitter,
		},
		{
			name:    "unknown status",
			w:       waiver.Waiver{AttendanceRecordID: "r1", Reason: "Sick", Status: "maybe", SubmittedBy: "u1"},
			wantErr: waiver.ErrInvalidStatus,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.w.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestResolveComments covers the deny and default-approval rules.
func TestResolveComments(t *testing.T) {
	tests := []struct {
		name     string
		decision waiver.Decision
		comments string
		want     string
		wantErr  error
	}{
		{"deny blank", waiver.DecisionDeny, "  ", "", waiver.ErrEmptyCommentsOnDeny},
		{"deny with comments", waiver.DecisionDeny, "Not a valid excuse", "Not a valid excuse", nil},
		{"approve blank", waiver.DecisionApprove, "", waiver.DefaultApprovalComment, nil},
		{"approve trims", waiver.DecisionApprove, "  ok  ", "ok", nil},
		{"too long", waiver.DecisionApprove, strings.Repeat("y", waiver.MaxCommentsLength+1), "", waiver.ErrCommentsTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := waiver.ResolveComments(tt.decision, tt.comments)
			if err != tt.wantErr {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("comments = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestWaiver_Decide checks that decided states are terminal.
func TestWaiver_Decide(t *testing.T) {
	w := waiver.Waiver{Status: waiver.StatusPending}
	if err := w.Decide(waiver.DecisionApprove); err != nil {
		t.Fatalf("first decision: %v", err)
	}
	if w.Status != waiver.StatusApproved {
		t.Errorf("Status = %q, want approved", w.Status)
	}
	if err := w.Decide(waiver.DecisionDeny); err != waiver.ErrConflictAlreadyDecided {
		t.Errorf("second decision = %v, want ErrConflictAlreadyDecided", err)
	}
	if w.Status != waiver.StatusApproved {
		t.Errorf("Status changed to %q after rejected decision", w.Status)
	}
}

// TestWaiver_EmptyStatusIsPending reads legacy rows as pending.
func TestWaiver_EmptyStatusIsPending(t *testing.T) {
	w := waiver.Waiver{}
	if !w.IsPending() {
		t.Error("empty status should read as pending")
	}
	if !w.MatchesStatus(waiver.StatusPending) {
		t.Error("empty status should match the pending filter")
	}
}

// TestParseDecision accepts both verb and past-tense forms.
func TestParseDecision(t *testing.T) {
	for in, want := range map[string]waiver.Decision{
		"approve": waiver.DecisionApprove, "Approved": waiver.DecisionApprove,
		"deny": waiver.DecisionDeny, "DENIED": waiver.DecisionDeny,
	} {
		got, err := waiver.ParseDecision(in)
		if err != nil || got != want {
			t.Errorf("ParseDecision(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := waiver.ParseDecision("maybe"); err != waiver.ErrInvalidDecision {
		t.Errorf("ParseDecision(maybe) err = %v", err)
	}
}

// TestMatchesStatus tests the review-queue status filter.
func TestMatchesStatus(t *testing.T) {
	w := waiver.Waiver{Status: waiver.StatusDenied}
	for filter, want := range map[string]bool{"": true, "all": true, "ALL": true, "denied": true, "pending": false, "approved": false} {
		if got := w.MatchesStatus(filter); got != want {
			t.Errorf("MatchesStatus(%q) = %v, want %v", filter, got, want)
		}
	}
}
