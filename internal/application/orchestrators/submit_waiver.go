package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rollcall/internal/domain/access"
	"rollcall/internal/domain/apperr"
	"rollcall/internal/domain/attendance"
	"rollcall/internal/domain/cadet"
	domain "rollcall/internal/domain/waiver"
)

// Outcome labels reported to WaiverMetrics.
const (
	OutcomeOK        = "ok"
	OutcomeRejected  = "rejected"
	OutcomeForbidden = "forbidden"
	OutcomeConflict  = "conflict"
	OutcomeError     = "error"
)

// WaiverMetrics receives waiver workflow counters. A nil value records nothing.
type WaiverMetrics interface {
	WaiverSubmitted(outcome string)
	WaiverDecided(decision, outcome string)
}

// AttendanceStoreForWaiver defines the attendance lookups needed by the waiver workflow.
type AttendanceStoreForWaiver interface {
	GetByID(ctx context.Context, id string) (attendance.Record, error)
}

// CadetStoreForActor resolves the caller's own cadet profile.
type CadetStoreForActor interface {
	GetByUserID(ctx context.Context, userID string) (cadet.Cadet, error)
}

// WaiverStoreForSubmit defines the store interface needed by SubmitWaiver.
type WaiverStoreForSubmit interface {
	GetByAttendanceRecordID(ctx context.Context, recordID string) (domain.Waiver, error)
	Create(ctx context.Context, w domain.Waiver) error
}

// SubmitWaiverInput carries input for the submit waiver orchestrator.
type SubmitWaiverInput struct {
	Actor              access.Actor
	AttendanceRecordID string
	Reason             string
}

// SubmitWaiverDeps holds dependencies for SubmitWaiver.
type SubmitWaiverDeps struct {
	AttendanceStore AttendanceStoreForWaiver
	CadetStore      CadetStoreForActor
	WaiverStore     WaiverStoreForSubmit
	Metrics         WaiverMetrics
	GenerateID      func() string
	Now             func() time.Time
}

// ExecuteSubmitWaiver files a pending waiver against one of the caller's absences.
// PRE: actor holds the cadet role and owns the attendance record
// POST: a pending Waiver exists for the record, or nothing was created
// INVARIANT: at most one waiver per attendance record; only absent records qualify
func ExecuteSubmitWaiver(ctx context.Context, input SubmitWaiverInput, deps SubmitWaiverDeps) (domain.Waiver, error) {
	w, err := submitWaiver(ctx, input, deps)
	if deps.Metrics != nil {
		deps.Metrics.WaiverSubmitted(outcomeOf(err))
	}
	if err != nil {
		slog.Info("waiver_event", "event", "waiver_submit_failed", "record_id", input.AttendanceRecordID, "user_id", input.Actor.UserID, "error", err)
		return domain.Waiver{}, err
	}
	slog.Info("waiver_event", "event", "waiver_submitted", "waiver_id", w.ID, "record_id", w.AttendanceRecordID, "user_id", w.SubmittedBy)
	return w, nil
}

func submitWaiver(ctx context.Context, input SubmitWaiverInput, deps SubmitWaiverDeps) (domain.Waiver, error) {
	if err := access.Authorize(input.Actor, access.OpSubmitWaiver); err != nil {
		return domain.Waiver{}, err
	}
	profile, err := ownCadet(ctx, input.Actor, deps.CadetStore)
	if err != nil {
		return domain.Waiver{}, err
	}

	record, err := deps.AttendanceStore.GetByID(ctx, input.AttendanceRecordID)
	if err != nil {
		return domain.Waiver{}, err
	}
	if record.CadetID != profile.ID {
		return domain.Waiver{}, fmt.Errorf("%w: attendance record belongs to another cadet", access.ErrForbidden)
	}
	if !record.IsAbsent() {
		return domain.Waiver{}, domain.ErrDuplicateOrInvalidTarget
	}

	_, err = deps.WaiverStore.GetByAttendanceRecordID(ctx, record.ID)
	switch {
	case err == nil:
		return domain.Waiver{}, domain.ErrDuplicateOrInvalidTarget
	case !errors.Is(err, apperr.ErrNotFound):
		return domain.Waiver{}, err
	}

	w := domain.Waiver{
		ID:                 deps.GenerateID(),
		AttendanceRecordID: record.ID,
		Reason:             strings.TrimSpace(input.Reason),
		Status:             domain.StatusPending,
		SubmittedBy:        input.Actor.UserID,
		CreatedAt:          deps.Now(),
	}
	if err := w.Validate(); err != nil {
		return domain.Waiver{}, err
	}

	// A concurrent submit can win between the lookup above and this insert.
	if err := deps.WaiverStore.Create(ctx, w); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			return domain.Waiver{}, domain.ErrDuplicateOrInvalidTarget
		}
		return domain.Waiver{}, err
	}
	return w, nil
}

// ownCadet resolves the actor's cadet profile. A cadet-role user without a
// profile owns nothing.
func ownCadet(ctx context.Context, actor access.Actor, store CadetStoreForActor) (cadet.Cadet, error) {
	profile, err := store.GetByUserID(ctx, actor.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return cadet.Cadet{}, fmt.Errorf("%w: no cadet profile for user", access.ErrForbidden)
	}
	return profile, err
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, access.ErrForbidden):
		return OutcomeForbidden
	case errors.Is(err, domain.ErrConflictAlreadyDecided):
		return OutcomeConflict
	case errors.Is(err, apperr.ErrStorageUnavailable), errors.Is(err, domain.ErrApprovalTrailMissing):
		return OutcomeError
	default:
		return OutcomeRejected
	}
}
