package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"rollcall/internal/domain/access"
	"rollcall/internal/domain/apperr"
	"rollcall/internal/domain/attendance"
	"rollcall/internal/domain/cadet"
	"rollcall/internal/domain/waiver"
)

type waiverFixture struct {
	attendance *mockAttendanceStore
	cadets     *mockCadetStore
	waivers    *mockWaiverStore
	metrics    *recordingMetrics
}

func newWaiverFixture() *waiverFixture {
	return &waiverFixture{
		attendance: newMockAttendanceStore(
			attendance.Record{ID: "r-absent", EventID: "e1", CadetID: "c1", Status: attendance.StatusAbsent, RecordedBy: "u-cadre"},
			attendance.Record{ID: "r-present", EventID: "e2", CadetID: "c1", Status: attendance.StatusPresent, RecordedBy: "u-cadre"},
			attendance.Record{ID: "r-excused", EventID: "e3", CadetID: "c1", Status: attendance.StatusExcused, RecordedBy: "u-cadre"},
			attendance.Record{ID: "r-odd", EventID: "e4", CadetID: "c1", Status: "tardy", RecordedBy: "u-cadre"},
		),
		cadets: newMockCadetStore(
			cadet.Cadet{ID: "c1", UserID: cadetActor.UserID, Rank: 100},
			cadet.Cadet{ID: "c2", UserID: otherCadet.UserID, Rank: 100},
		),
		waivers: newMockWaiverStore(),
		metrics: &recordingMetrics{},
	}
}

func (f *waiverFixture) submitDeps() SubmitWaiverDeps {
	return SubmitWaiverDeps{
		AttendanceStore: f.attendance,
		CadetStore:      f.cadets,
		WaiverStore:     f.waivers,
		Metrics:         f.metrics,
		GenerateID:      fixedID,
		Now:             fixedNow,
	}
}

func (f *waiverFixture) decideDeps(store WaiverStoreForDecide) DecideWaiverDeps {
	return DecideWaiverDeps{WaiverStore: store, Metrics: f.metrics, GenerateID: seqIDs(), Now: fixedNow}
}

// TestExecuteSubmitWaiver_HappyPath creates a pending waiver for an own absence.
func TestExecuteSubmitWaiver_HappyPath(t *testing.T) {
	f := newWaiverFixture()

	w, err := ExecuteSubmitWaiver(context.Background(), SubmitWaiverInput{
		Actor: cadetActor, AttendanceRecordID: "r-absent", Reason: "  medical  ",
	}, f.submitDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.ID != "test-id-001" || w.Status != waiver.StatusPending || w.Reason != "medical" {
		t.Errorf("waiver = %+v", w)
	}
	if w.SubmittedBy != cadetActor.UserID || !w.CreatedAt.Equal(fixedTime) {
		t.Errorf("submitter/time = %q/%v", w.SubmittedBy, w.CreatedAt)
	}
	if len(f.waivers.waivers) != 1 {
		t.Errorf("stored waivers = %d, want 1", len(f.waivers.waivers))
	}
	if len(f.metrics.submitted) != 1 || f.metrics.submitted[0] != OutcomeOK {
		t.Errorf("metrics = %v", f.metrics.submitted)
	}
}

// TestExecuteSubmitWaiver_Rejections covers every refused submission.
func TestExecuteSubmitWaiver_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		actor    access.Actor
		recordID string
		reason   string
		wantErr  error
	}{
		{"present record", cadetActor, "r-present", "x", waiver.ErrDuplicateOrInvalidTarget},
		{"excused record", cadetActor, "r-excused", "x", waiver.ErrDuplicateOrInvalidTarget},
		{"missing record", cadetActor, "r-missing", "x", apperr.ErrNotFound},
		{"another cadet's record", otherCadet, "r-absent", "x", access.ErrForbidden},
		{"reviewer cannot submit", reviewerActor, "r-absent", "x", access.ErrForbidden},
		{"cadet without profile", access.Actor{UserID: "u-ghost", Roles: cadetActor.Roles}, "r-absent", "x", access.ErrForbidden},
		{"blank reason", cadetActor, "r-absent", "   ", waiver.ErrEmptyReason},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWaiverFixture()
			_, err := ExecuteSubmitWaiver(context.Background(), SubmitWaiverInput{
				Actor: tt.actor, AttendanceRecordID: tt.recordID, Reason: tt.reason,
			}, f.submitDeps())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if len(f.waivers.waivers) != 0 {
				t.Errorf("a waiver was created")
			}
		})
	}
}

// TestExecuteSubmitWaiver_UnrecognizedStatusCountsAsAbsent accepts a record whose stored status normalizes to A.
func TestExecuteSubmitWaiver_UnrecognizedStatusCountsAsAbsent(t *testing.T) {
	f := newWaiverFixture()
	if _, err := ExecuteSubmitWaiver(context.Background(), SubmitWaiverInput{
		Actor: cadetActor, AttendanceRecordID: "r-odd", Reason: "late bus",
	}, f.submitDeps()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExecuteSubmitWaiver_Twice fails the second submission for the same record.
func TestExecuteSubmitWaiver_Twice(t *testing.T) {
	f := newWaiverFixture()
	deps := f.submitDeps()
	deps.GenerateID = seqIDs()
	input := SubmitWaiverInput{Actor: cadetActor, AttendanceRecordID: "r-absent", Reason: "medical"}

	if _, err := ExecuteSubmitWaiver(context.Background(), input, deps); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := ExecuteSubmitWaiver(context.Background(), input, deps)
	if !errors.Is(err, waiver.ErrDuplicateOrInvalidTarget) {
		t.Fatalf("second submit err = %v", err)
	}
	if len(f.waivers.waivers) != 1 {
		t.Errorf("stored waivers = %d, want 1", len(f.waivers.waivers))
	}
	if got := f.metrics.submitted; len(got) != 2 || got[1] != OutcomeRejected {
		t.Errorf("metrics = %v", got)
	}
}

// TestExecuteSubmitWaiver_RacedInsert maps a unique violation at insert time.
func TestExecuteSubmitWaiver_RacedInsert(t *testing.T) {
	f := newWaiverFixture()
	f.waivers.createErr = fmt.Errorf("create waiver: %w", apperr.ErrDuplicate)

	_, err := ExecuteSubmitWaiver(context.Background(), SubmitWaiverInput{
		Actor: cadetActor, AttendanceRecordID: "r-absent", Reason: "medical",
	}, f.submitDeps())
	if !errors.Is(err, waiver.ErrDuplicateOrInvalidTarget) {
		t.Fatalf("err = %v, want ErrDuplicateOrInvalidTarget", err)
	}
}

// TestExecuteSubmitWaiver_StorageUnavailable surfaces storage failures verbatim.
func TestExecuteSubmitWaiver_StorageUnavailable(t *testing.T) {
	f := newWaiverFixture()
	f.waivers.createErr = fmt.Errorf("create waiver: %w", apperr.ErrStorageUnavailable)

	_, err := ExecuteSubmitWaiver(context.Background(), SubmitWaiverInput{
		Actor: cadetActor, AttendanceRecordID: "r-absent", Reason: "medical",
	}, f.submitDeps())
	if !errors.Is(err, apperr.ErrStorageUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if f.metrics.submitted[0] != OutcomeError {
		t.Errorf("outcome = %q", f.metrics.submitted[0])
	}
}

func pendingWaiver() waiver.Waiver {
	return waiver.Waiver{ID: "w1", AttendanceRecordID: "r-absent", Reason: "medical", Status: waiver.StatusPending, SubmittedBy: cadetActor.UserID}
}

// TestExecuteDecideWaiver_DenyScenario walks the deny-without-comments then deny-with-comments flow.
func TestExecuteDecideWaiver_DenyScenario(t *testing.T) {
	for _, transactional := range []bool{false, true} {
		t.Run(fmt.Sprintf("transactional=%v", transactional), func(t *testing.T) {
			f := newWaiverFixture()
			deps := f.submitDeps()
			w, err := ExecuteSubmitWaiver(context.Background(), SubmitWaiverInput{
				Actor: cadetActor, AttendanceRecordID: "r-absent", Reason: "medical",
			}, deps)
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			if w.Status != waiver.StatusPending {
				t.Fatalf("status = %q, want pending", w.Status)
			}

			var store WaiverStoreForDecide = f.waivers
			if transactional {
				store = &txWaiverStore{mockWaiverStore: f.waivers}
			}

			_, err = ExecuteDecideWaiver(context.Background(), DecideWaiverInput{
				Actor: reviewerActor, WaiverID: w.ID, Decision: "deny", Comments: "",
			}, f.decideDeps(store))
			if !errors.Is(err, waiver.ErrEmptyCommentsOnDeny) {
				t.Fatalf("deny without comments err = %v", err)
			}
			if got := f.waivers.waivers[w.ID].Status; got != waiver.StatusPending {
				t.Fatalf("status after rejected deny = %q", got)
			}
			if len(f.waivers.approvals) != 0 {
				t.Fatalf("approvals after rejected deny = %d", len(f.waivers.approvals))
			}

			approval, err := ExecuteDecideWaiver(context.Background(), DecideWaiverInput{
				Actor: reviewerActor, WaiverID: w.ID, Decision: "deny", Comments: "no documentation",
			}, f.decideDeps(store))
			if err != nil {
				t.Fatalf("deny with comments: %v", err)
			}
			if got := f.waivers.waivers[w.ID].Status; got != waiver.StatusDenied {
				t.Errorf("status = %q, want denied", got)
			}
			if len(f.waivers.approvals) != 1 || f.waivers.approvals[0].Decision != waiver.StatusDenied {
				t.Errorf("approvals = %+v", f.waivers.approvals)
			}
			if approval.Comments != "no documentation" || approval.ApproverID != reviewerActor.UserID {
				t.Errorf("approval = %+v", approval)
			}
		})
	}
}

// TestExecuteDecideWaiver_ApproveDefaultsComment stores the default comment.
func TestExecuteDecideWaiver_ApproveDefaultsComment(t *testing.T) {
	f := newWaiverFixture()
	f.waivers.waivers["w1"] = pendingWaiver()

	approval, err := ExecuteDecideWaiver(context.Background(), DecideWaiverInput{
		Actor: cadreActor, WaiverID: "w1", Decision: "Approve", Comments: "   ",
	}, f.decideDeps(f.waivers))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if approval.Comments != waiver.DefaultApprovalComment || approval.Decision != waiver.StatusApproved {
		t.Errorf("approval = %+v", approval)
	}
	if f.metrics.decided[0] != "approve/ok" {
		t.Errorf("metrics = %v", f.metrics.decided)
	}
}

// TestExecuteDecideWaiver_DecidedIsTerminal refuses a second decision.
func TestExecuteDecideWaiver_DecidedIsTerminal(t *testing.T) {
	f := newWaiverFixture()
	decided := pendingWaiver()
	decided.Status = waiver.StatusApproved
	f.waivers.waivers["w1"] = decided

	_, err := ExecuteDecideWaiver(context.Background(), DecideWaiverInput{
		Actor: adminActor, WaiverID: "w1", Decision: "deny", Comments: "changed my mind",
	}, f.decideDeps(f.waivers))
	if !errors.Is(err, waiver.ErrConflictAlreadyDecided) {
		t.Fatalf("err = %v", err)
	}
	if f.waivers.waivers["w1"].Status != waiver.StatusApproved {
		t.Errorf("status changed")
	}
}

// TestExecuteDecideWaiver_Rejections covers authorization and input failures.
func TestExecuteDecideWaiver_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		actor    access.Actor
		waiverID string
		decision string
		wantErr  error
	}{
		{"cadet cannot decide", cadetActor, "w1", "approve", access.ErrForbidden},
		{"unknown decision", adminActor, "w1", "maybe", waiver.ErrInvalidDecision},
		{"missing waiver", adminActor, "nope", "approve", apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWaiverFixture()
			f.waivers.waivers["w1"] = pendingWaiver()
			_, err := ExecuteDecideWaiver(context.Background(), DecideWaiverInput{
				Actor: tt.actor, WaiverID: tt.waiverID, Decision: tt.decision,
			}, f.decideDeps(f.waivers))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if f.waivers.waivers["w1"].Status != waiver.StatusPending {
				t.Errorf("status changed")
			}
		})
	}
}

// TestExecuteDecideWaiver_ApprovalTrailMissing surfaces a failed second write.
func TestExecuteDecideWaiver_ApprovalTrailMissing(t *testing.T) {
	f := newWaiverFixture()
	f.waivers.waivers["w1"] = pendingWaiver()
	f.waivers.saveApprovalErr = fmt.Errorf("save waiver approval: %w", apperr.ErrStorageUnavailable)

	_, err := ExecuteDecideWaiver(context.Background(), DecideWaiverInput{
		Actor: adminActor, WaiverID: "w1", Decision: "approve",
	}, f.decideDeps(f.waivers))
	if !errors.Is(err, waiver.ErrApprovalTrailMissing) {
		t.Fatalf("err = %v, want ErrApprovalTrailMissing", err)
	}
	if !errors.Is(err, apperr.ErrStorageUnavailable) {
		t.Errorf("cause lost: %v", err)
	}
}

// TestExecuteDecideWaiver_TransactionalStoreAllOrNothing prefers the atomic decider.
func TestExecuteDecideWaiver_TransactionalStoreAllOrNothing(t *testing.T) {
	f := newWaiverFixture()
	f.waivers.waivers["w1"] = pendingWaiver()
	f.waivers.saveApprovalErr = fmt.Errorf("save waiver approval: %w", apperr.ErrStorageUnavailable)
	store := &txWaiverStore{mockWaiverStore: f.waivers}

	_, err := ExecuteDecideWaiver(context.Background(), DecideWaiverInput{
		Actor: adminActor, WaiverID: "w1", Decision: "approve",
	}, f.decideDeps(store))
	if !errors.Is(err, apperr.ErrStorageUnavailable) || errors.Is(err, waiver.ErrApprovalTrailMissing) {
		t.Fatalf("err = %v", err)
	}
	if store.decideCalls != 1 {
		t.Errorf("decideCalls = %d, want 1", store.decideCalls)
	}
	if f.waivers.waivers["w1"].Status != waiver.StatusPending {
		t.Errorf("status changed without an approval")
	}
}
