package waiver

import (
	"context"

	domain "rollcall/internal/domain/waiver"
)

// Store persists Waivers and their append-only approvals.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Waiver, error)
	GetByAttendanceRecordID(ctx context.Context, recordID string) (domain.Waiver, error)
	Create(ctx context.Context, value domain.Waiver) error
	CompareAndSetStatus(ctx context.Context, id, from, to string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Waiver, error)
	SaveApproval(ctx context.Context, approval domain.Approval) error
	ListApprovals(ctx context.Context, waiverID string) ([]domain.Approval, error)
	Decide(ctx context.Context, waiverID, newStatus string, approval domain.Approval) error
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Status              string
	SubmittedBy         string
	AttendanceRecordIDs []string
}
