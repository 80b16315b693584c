package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rollcall/internal/domain/access"
	domain "rollcall/internal/domain/waiver"
)

// WaiverStoreForDecide defines the store interface needed by DecideWaiver.
type WaiverStoreForDecide interface {
	GetByID(ctx context.Context, id string) (domain.Waiver, error)
	CompareAndSetStatus(ctx context.Context, id, from, to string) error
	SaveApproval(ctx context.Context, approval domain.Approval) error
}

// WaiverDecider writes a decision's status change and approval atomically.
// Stores that implement it are used in preference to the two-step path.
type WaiverDecider interface {
	Decide(ctx context.Context, waiverID, newStatus string, approval domain.Approval) error
}

// DecideWaiverInput carries input for the decide waiver orchestrator.
type DecideWaiverInput struct {
	Actor    access.Actor
	WaiverID string
	Decision string // approve or deny
	Comments string
}

// DecideWaiverDeps holds dependencies for DecideWaiver.
type DecideWaiverDeps struct {
	WaiverStore WaiverStoreForDecide
	Metrics     WaiverMetrics
	GenerateID  func() string
	Now         func() time.Time
}

// ExecuteDecideWaiver approves or denies a pending waiver and appends its approval.
// PRE: actor is a reviewer; input.Decision parses as approve or deny
// POST: waiver status is approved or denied and exactly one approval was appended
// INVARIANT: decided waivers are terminal; a denial always carries comments
func ExecuteDecideWaiver(ctx context.Context, input DecideWaiverInput, deps DecideWaiverDeps) (domain.Approval, error) {
	decision, parseErr := domain.ParseDecision(input.Decision)
	approval, err := decideWaiver(ctx, input, decision, parseErr, deps)
	if deps.Metrics != nil {
		label := string(decision)
		if label == "" {
			label = "invalid"
		}
		deps.Metrics.WaiverDecided(label, outcomeOf(err))
	}
	if err != nil {
		slog.Info("waiver_event", "event", "waiver_decide_failed", "waiver_id", input.WaiverID, "user_id", input.Actor.UserID, "error", err)
		return domain.Approval{}, err
	}
	slog.Info("waiver_event", "event", "waiver_decided", "waiver_id", approval.WaiverID, "decision", approval.Decision, "user_id", approval.ApproverID)
	return approval, nil
}

func decideWaiver(ctx context.Context, input DecideWaiverInput, decision domain.Decision, parseErr error, deps DecideWaiverDeps) (domain.Approval, error) {
	if err := access.Authorize(input.Actor, access.OpDecideWaiver); err != nil {
		return domain.Approval{}, err
	}
	if parseErr != nil {
		return domain.Approval{}, parseErr
	}
	comments, err := domain.ResolveComments(decision, input.Comments)
	if err != nil {
		return domain.Approval{}, err
	}

	w, err := deps.WaiverStore.GetByID(ctx, input.WaiverID)
	if err != nil {
		return domain.Approval{}, err
	}
	if err := w.Decide(decision); err != nil {
		return domain.Approval{}, err
	}

	approval := domain.Approval{
		ID:         deps.GenerateID(),
		WaiverID:   w.ID,
		ApproverID: input.Actor.UserID,
		Decision:   w.Status,
		Comments:   comments,
		CreatedAt:  deps.Now(),
	}

	if decider, ok := deps.WaiverStore.(WaiverDecider); ok {
		if err := decider.Decide(ctx, w.ID, w.Status, approval); err != nil {
			return domain.Approval{}, err
		}
		return approval, nil
	}

	if err := deps.WaiverStore.CompareAndSetStatus(ctx, w.ID, domain.StatusPending, w.Status); err != nil {
		return domain.Approval{}, err
	}
	if err := deps.WaiverStore.SaveApproval(ctx, approval); err != nil {
		slog.Error("waiver_event", "event", "approval_trail_missing", "waiver_id", w.ID, "status", w.Status, "error", err)
		return domain.Approval{}, fmt.Errorf("%w: %w", domain.ErrApprovalTrailMissing, err)
	}
	return approval, nil
}
