package web

import (
	"net/http"

	"rollcall/internal/application/listutil"
	"rollcall/internal/application/orchestrators"
	"rollcall/internal/application/projections"
	"rollcall/internal/domain/waiver"
)

// reviewQueueFilters are the query keys the review queue accepts besides q.
var reviewQueueFilters = []string{"status", "flight"}

type eventRef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	StartDate string `json:"start_date"`
}

type cadetRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Flight string `json:"flight"`
}

type waiverResponse struct {
	ID                 string    `json:"id"`
	AttendanceRecordID string    `json:"attendance_record_id"`
	Reason             string    `json:"reason"`
	ReasonHTML         string    `json:"reason_html"`
	Status             string    `json:"status"`
	SubmittedBy        string    `json:"submitted_by"`
	CreatedAt          string    `json:"created_at"`
	Event              *eventRef `json:"event,omitempty"`
	Cadet              *cadetRef `json:"cadet,omitempty"`
}

type pageResponse struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type waiverListResponse struct {
	Items []waiverResponse `json:"items"`
	Page  pageResponse     `json:"page"`
}

type approvalResponse struct {
	ID           string `json:"id"`
	WaiverID     string `json:"waiver_id"`
	ApproverID   string `json:"approver_id"`
	Decision     string `json:"decision"`
	Comments     string `json:"comments"`
	CommentsHTML string `json:"comments_html"`
	CreatedAt    string `json:"created_at"`
}

func toWaiverResponse(w waiver.Waiver) waiverResponse {
	return waiverResponse{
		ID:                 w.ID,
		AttendanceRecordID: w.AttendanceRecordID,
		Reason:             w.Reason,
		ReasonHTML:         renderMarkdown(w.Reason),
		Status:             w.CurrentStatus(),
		SubmittedBy:        w.SubmittedBy,
		CreatedAt:          formatTime(w.CreatedAt),
	}
}

func toApprovalResponse(a waiver.Approval) approvalResponse {
	return approvalResponse{
		ID:           a.ID,
		WaiverID:     a.WaiverID,
		ApproverID:   a.ApproverID,
		Decision:     a.Decision,
		Comments:     a.Comments,
		CommentsHTML: renderMarkdown(a.Comments),
		CreatedAt:    formatTime(a.CreatedAt),
	}
}

// handleListWaivers handles GET /api/waivers?status=&flight=&q=&page=&per_page=
// A missing status shows the pending queue.
func (s *server) handleListWaivers(w http.ResponseWriter, r *http.Request) {
	fp := listutil.ParseFilterParams(r.URL.Query(), reviewQueueFilters)
	status, ok := fp.Filters["status"]
	if !ok {
		status = waiver.StatusPending
	}

	result, err := projections.QueryListWaivers(r.Context(), projections.ListWaiversQuery{
		Actor:  actor(r),
		Status: status,
		Flight: fp.Filters["flight"],
		Search: fp.Search,
	}, projections.ListWaiversDeps{
		WaiverStore:     s.stores.WaiverStore,
		AttendanceStore: s.stores.AttendanceStore,
		EventStore:      s.stores.EventStore,
		CadetStore:      s.stores.CadetStore,
		UserStore:       s.stores.UserStore,
		FlightStore:     s.stores.FlightStore,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	pp := listutil.ParsePageParams(r.URL.Query())
	info := listutil.NewPageInfo(pp.Page, pp.PerPage, result.Len())
	page := listutil.Window(result.All(), info)
	items := make([]waiverResponse, len(page))
	for i, view := range page {
		items[i] = toWaiverResponse(view.Waiver)
		items[i].Event = &eventRef{
			ID:        view.Event.ID,
			Name:      view.Event.Name,
			Type:      view.Event.Type,
			StartDate: view.Event.Date(),
		}
		items[i].Cadet = &cadetRef{
			ID:     view.CadetID,
			Name:   view.CadetName,
			Email:  view.CadetEmail,
			Flight: view.FlightName,
		}
	}

	writeJSON(w, http.StatusOK, waiverListResponse{
		Items: items,
		Page: pageResponse{
			Page:       info.Page,
			PerPage:    info.PerPage,
			Total:      info.Total,
			TotalPages: info.TotalPages,
		},
	})
}

type submitWaiverRequest struct {
	AttendanceRecordID string `json:"attendance_record_id" validate:"required"`
	Reason             string `json:"reason" validate:"required,max=2000"`
}

// handleSubmitWaiver handles POST /api/waivers
func (s *server) handleSubmitWaiver(w http.ResponseWriter, r *http.Request) {
	var req submitWaiverRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := orchestrators.ExecuteSubmitWaiver(r.Context(), orchestrators.SubmitWaiverInput{
		Actor:              actor(r),
		AttendanceRecordID: req.AttendanceRecordID,
		Reason:             req.Reason,
	}, orchestrators.SubmitWaiverDeps{
		AttendanceStore: s.stores.AttendanceStore,
		CadetStore:      s.stores.CadetStore,
		WaiverStore:     s.stores.WaiverStore,
		Metrics:         s.metrics,
		GenerateID:      generateID,
		Now:             s.now,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWaiverResponse(created))
}

type decideWaiverRequest struct {
	Decision string `json:"decision" validate:"required"`
	Comments string `json:"comments" validate:"max=2000"`
}

// handleDecideWaiver handles POST /api/waivers/{id}/decision
func (s *server) handleDecideWaiver(w http.ResponseWriter, r *http.Request) {
	var req decideWaiverRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	approval, err := orchestrators.ExecuteDecideWaiver(r.Context(), orchestrators.DecideWaiverInput{
		Actor:    actor(r),
		WaiverID: r.PathValue("id"),
		Decision: req.Decision,
		Comments: req.Comments,
	}, orchestrators.DecideWaiverDeps{
		WaiverStore: s.stores.WaiverStore,
		Metrics:     s.metrics,
		GenerateID:  generateID,
		Now:         s.now,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApprovalResponse(approval))
}

// handleWaiverApprovals handles GET /api/waivers/{id}/approvals
func (s *server) handleWaiverApprovals(w http.ResponseWriter, r *http.Request) {
	approvals, err := projections.QueryWaiverApprovals(r.Context(), projections.WaiverApprovalsQuery{
		Actor:    actor(r),
		WaiverID: r.PathValue("id"),
	}, projections.WaiverApprovalsDeps{WaiverStore: s.stores.WaiverStore})
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]approvalResponse, len(approvals))
	for i, a := range approvals {
		resp[i] = toApprovalResponse(a)
	}
	writeJSON(w, http.StatusOK, resp)
}

type absenceResponse struct {
	AttendanceRecordID string `json:"attendance_record_id"`
	EventID            string `json:"event_id"`
	Status             string `json:"status"`
	RecordedAt         string `json:"recorded_at"`
}

// handleMyAbsences handles GET /api/me/absences
func (s *server) handleMyAbsences(w http.ResponseWriter, r *http.Request) {
	records, err := projections.QueryAbsencesWithoutWaiver(r.Context(), projections.AbsencesQuery{
		Actor: actor(r),
	}, projections.AbsencesDeps{
		CadetStore:      s.stores.CadetStore,
		AttendanceStore: s.stores.AttendanceStore,
		WaiverStore:     s.stores.WaiverStore,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]absenceResponse, len(records))
	for i, rec := range records {
		resp[i] = absenceResponse{
			AttendanceRecordID: rec.ID,
			EventID:            rec.EventID,
			Status:             rec.Status,
			RecordedAt:         formatTime(rec.CreatedAt),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleMyWaivers handles GET /api/me/waivers
func (s *server) handleMyWaivers(w http.ResponseWriter, r *http.Request) {
	views, err := projections.QueryCadetWaivers(r.Context(), projections.CadetWaiversQuery{
		Actor: actor(r),
	}, projections.CadetWaiversDeps{
		CadetStore:      s.stores.CadetStore,
		AttendanceStore: s.stores.AttendanceStore,
		WaiverStore:     s.stores.WaiverStore,
		EventStore:      s.stores.EventStore,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]waiverResponse, len(views))
	for i, v := range views {
		resp[i] = toWaiverResponse(v.Waiver)
		resp[i].Event = &eventRef{Name: v.EventName, StartDate: v.EventDate}
	}
	writeJSON(w, http.StatusOK, resp)
}
