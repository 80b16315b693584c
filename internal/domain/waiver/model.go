package waiver

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxReasonLength   = 2000
	MaxCommentsLength = 2000
)

// Status values of a Waiver.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDenied   = "denied"
)

// StatusAll is the review-queue filter value that matches every status.
const StatusAll = "all"

// Decision is the reviewer's verdict on a pending waiver.
type Decision string

// Decisions accepted by Decide.
const (
	DecisionApprove Decision = "approve"
	DecisionDeny    Decision = "deny"
)

// DefaultApprovalComment is stored when a waiver is approved without comments.
const DefaultApprovalComment = "Approved."

// Domain errors
var (
	ErrDuplicateOrInvalidTarget = errors.New("attendance record is not an absence without a waiver")
	ErrEmptyCommentsOnDeny      = errors.New("comments are required when denying a waiver")
	ErrConflictAlreadyDecided   = errors.New("waiver has already been decided")
	ErrApprovalTrailMissing     = errors.New("waiver status changed but its approval record was not stored")
	ErrInvalidDecision          = errors.New("decision must be 'approve' or 'deny'")
	ErrEmptyReason              = errors.New("a reason is required for a waiver request")
	ErrReasonTooLong            = errors.New("reason cannot exceed 2000 characters")
	ErrCommentsTooLong          = errors.New("comments cannot exceed 2000 characters")
	ErrEmptyRecordID            = errors.New("waiver must reference an attendance record")
	ErrEmptySubmitter           = errors.New("waiver must name its submitter")
	ErrInvalidStatus            = errors.New("status must be 'pending', 'approved', or 'denied'")
)

// Waiver is an excusal request tied to exactly one attendance record.
// INVARIANT: at most one Waiver per AttendanceRecordID
type Waiver struct {
	ID                 string
	AttendanceRecordID string
	Reason             string
	Status             string
	SubmittedBy        string
	CreatedAt          time.Time
}

// Approval is an immutable decision record appended for a Waiver.
type Approval struct {
	ID         string
	WaiverID   string
	ApproverID string
	Decision   string // approved or denied
	Comments   string
	CreatedAt  time.Time
}

// Validate checks if the Waiver has valid data.
// PRE: Waiver struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (w *Waiver) Validate() error {
	if w.AttendanceRecordID == "" {
		return ErrEmptyRecordID
	}
	if strings.TrimSpace(w.Reason) == "" {
		return ErrEmptyReason
	}
	if len(w.Reason) > MaxReasonLength {
		return ErrReasonTooLong
	}
	if w.SubmittedBy == "" {
		return ErrEmptySubmitter
	}
	switch w.Status {
	case StatusPending, StatusApproved, StatusDenied:
	default:
		return ErrInvalidStatus
	}
	return nil
}

// CurrentStatus returns the stored status in lower case, reading a blank
// value as pending.
func (w *Waiver) CurrentStatus() string {
	status := strings.ToLower(strings.TrimSpace(w.Status))
	if status == "" {
		return StatusPending
	}
	return status
}

// IsPending returns true if the waiver is awaiting a decision.
func (w *Waiver) IsPending() bool {
	return w.CurrentStatus() == StatusPending
}

// ParseDecision accepts approve/deny in any case, plus the past-tense forms.
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve", StatusApproved:
		return DecisionApprove, nil
	case "deny", StatusDenied:
		return DecisionDeny, nil
	}
	return "", ErrInvalidDecision
}

// Status returns the waiver status a decision transitions to.
func (d Decision) Status() string {
	if d == DecisionApprove {
		return StatusApproved
	}
	return StatusDenied
}

// ResolveComments applies the decision comment rules.
// PRE: d is a parsed Decision
// POST: deny with blank comments fails with ErrEmptyCommentsOnDeny;
// approve with blank comments yields DefaultApprovalComment
func ResolveComments(d Decision, comments string) (string, error) {
	comments = strings.TrimSpace(comments)
	if len(comments) > MaxCommentsLength {
		return "", ErrCommentsTooLong
	}
	if comments != "" {
		return comments, nil
	}
	if d == DecisionDeny {
		return "", ErrEmptyCommentsOnDeny
	}
	return DefaultApprovalComment, nil
}

// Decide moves a pending waiver to its terminal status.
// PRE: waiver is pending
// POST: Status is approved or denied; decided waivers are left unchanged and
// ErrConflictAlreadyDecided is returned
func (w *Waiver) Decide(d Decision) error {
	if d != DecisionApprove && d != DecisionDeny {
		return ErrInvalidDecision
	}
	if !w.IsPending() {
		return ErrConflictAlreadyDecided
	}
	w.Status = d.Status()
	return nil
}

// MatchesStatus reports whether the waiver passes a review-queue status filter.
// An empty filter or StatusAll matches everything.
func (w *Waiver) MatchesStatus(filter string) bool {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" || filter == StatusAll {
		return true
	}
	return w.CurrentStatus() == filter
}
