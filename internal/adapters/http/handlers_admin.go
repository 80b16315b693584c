package web

import (
	"net/http"
	"time"

	"rollcall/internal/application/orchestrators"
	"rollcall/internal/application/projections"
	"rollcall/internal/domain/attendance"
	"rollcall/internal/domain/cadet"
	"rollcall/internal/domain/event"
	"rollcall/internal/domain/flight"
	"rollcall/internal/domain/scheduleconfig"
)

type matrixColumnResponse struct {
	CadetID string `json:"cadet_id"`
	Name    string `json:"name"`
}

type matrixRowResponse struct {
	EventID   string            `json:"event_id"`
	Label     string            `json:"label"`
	StartDate string            `json:"start_date"`
	Cells     []attendance.Code `json:"cells"`
}

type matrixResponse struct {
	Empty   string                 `json:"empty,omitempty"`
	Columns []matrixColumnResponse `json:"columns"`
	Rows    []matrixRowResponse    `json:"rows"`
}

// handleAttendanceMatrix handles GET /api/dashboard/matrix
func (s *server) handleAttendanceMatrix(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryAttendanceMatrix(r.Context(), projections.AttendanceMatrixQuery{
		Actor: actor(r),
	}, projections.AttendanceMatrixDeps{
		EventStore:      s.stores.EventStore,
		CadetStore:      s.stores.CadetStore,
		UserStore:       s.stores.UserStore,
		AttendanceStore: s.stores.AttendanceStore,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := matrixResponse{
		Empty:   string(result.Empty),
		Columns: make([]matrixColumnResponse, len(result.Columns)),
		Rows:    make([]matrixRowResponse, len(result.Rows)),
	}
	for i, c := range result.Columns {
		resp.Columns[i] = matrixColumnResponse{CadetID: c.CadetID, Name: c.Name}
	}
	for i, row := range result.Rows {
		resp.Rows[i] = matrixRowResponse{
			EventID:   row.EventID,
			Label:     row.Label,
			StartDate: row.StartDate.Format(event.DateLayout),
			Cells:     row.Cells,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type recordAttendanceRequest struct {
	EventID string `json:"event_id" validate:"required"`
	CadetID string `json:"cadet_id" validate:"required"`
	Status  string `json:"status" validate:"required"`
}

type attendanceResponse struct {
	ID         string `json:"id"`
	EventID    string `json:"event_id"`
	CadetID    string `json:"cadet_id"`
	Status     string `json:"status"`
	Code       string `json:"code"`
	RecordedBy string `json:"recorded_by"`
}

// handleRecordAttendance handles POST /api/attendance
func (s *server) handleRecordAttendance(w http.ResponseWriter, r *http.Request) {
	var req recordAttendanceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	rec, err := orchestrators.ExecuteRecordAttendance(r.Context(), orchestrators.RecordAttendanceInput{
		Actor:   actor(r),
		EventID: req.EventID,
		CadetID: req.CadetID,
		Status:  req.Status,
	}, orchestrators.RecordAttendanceDeps{
		AttendanceStore: s.stores.AttendanceStore,
		EventStore:      s.stores.EventStore,
		CadetStore:      s.stores.CadetStore,
		GenerateID:      generateID,
		Now:             s.now,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attendanceResponse{
		ID:         rec.ID,
		EventID:    rec.EventID,
		CadetID:    rec.CadetID,
		Status:     rec.Status,
		Code:       string(rec.Code()),
		RecordedBy: rec.RecordedBy,
	})
}

type eventRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Type      string `json:"type" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date"`
}

type eventResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"`
	CreatedBy string `json:"created_by"`
}

func toEventResponse(e event.Event) eventResponse {
	return eventResponse{
		ID:        e.ID,
		Name:      e.Name,
		Type:      e.Type,
		StartDate: formatTime(e.StartDate),
		EndDate:   formatTime(e.EndDate),
		CreatedBy: e.CreatedBy,
	}
}

// eventInput decodes the shared create/update body.
func eventInput(w http.ResponseWriter, r *http.Request) (orchestrators.EventInput, bool) {
	var req eventRequest
	if !decodeAndValidate(w, r, &req) {
		return orchestrators.EventInput{}, false
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
		return orchestrators.EventInput{}, false
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
		return orchestrators.EventInput{}, false
	}
	return orchestrators.EventInput{
		Actor:     actor(r),
		Name:      req.Name,
		Type:      req.Type,
		StartDate: start,
		EndDate:   end,
	}, true
}

func (s *server) eventDeps() orchestrators.EventDeps {
	return orchestrators.EventDeps{EventStore: s.stores.EventStore, GenerateID: generateID, Now: s.now}
}

// handleCreateEvent handles POST /api/events
func (s *server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	input, ok := eventInput(w, r)
	if !ok {
		return
	}
	e, err := orchestrators.ExecuteCreateEvent(r.Context(), input, s.eventDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventResponse(e))
}

// handleUpdateEvent handles PUT /api/events/{id}
func (s *server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	input, ok := eventInput(w, r)
	if !ok {
		return
	}
	input.ID = r.PathValue("id")
	e, err := orchestrators.ExecuteUpdateEvent(r.Context(), input, s.eventDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(e))
}

// handleDeleteEvent handles DELETE /api/events/{id}
func (s *server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteDeleteEvent(r.Context(), actor(r), r.PathValue("id"), s.eventDeps()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rosterEntryResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Commander string   `json:"commander"`
	Members   []string `json:"members"`
}

type rosterResponse struct {
	Flights    []rosterEntryResponse `json:"flights"`
	Unassigned []string              `json:"unassigned"`
}

func (s *server) flightDeps() orchestrators.FlightDeps {
	return orchestrators.FlightDeps{
		FlightStore: s.stores.FlightStore,
		CadetStore:  s.stores.CadetStore,
		UserStore:   s.stores.UserStore,
		GenerateID:  generateID,
	}
}

// handleFlightRoster handles GET /api/flights
func (s *server) handleFlightRoster(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryFlightRoster(r.Context(), projections.FlightRosterQuery{
		Actor: actor(r),
	}, projections.FlightRosterDeps{
		FlightStore: s.stores.FlightStore,
		CadetStore:  s.stores.CadetStore,
		UserStore:   s.stores.UserStore,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := rosterResponse{
		Flights:    make([]rosterEntryResponse, len(result.Flights)),
		Unassigned: result.Unassigned,
	}
	for i, f := range result.Flights {
		resp.Flights[i] = rosterEntryResponse{ID: f.FlightID, Name: f.Name, Commander: f.Commander, Members: f.Members}
	}
	writeJSON(w, http.StatusOK, resp)
}

type createFlightRequest struct {
	Name             string `json:"name" validate:"required,max=100"`
	CommanderCadetID string `json:"commander_cadet_id" validate:"required"`
}

type flightResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	CommanderCadetID string `json:"commander_cadet_id"`
}

func toFlightResponse(f flight.Flight) flightResponse {
	return flightResponse{ID: f.ID, Name: f.Name, CommanderCadetID: f.CommanderCadetID}
}

// handleCreateFlight handles POST /api/flights
func (s *server) handleCreateFlight(w http.ResponseWriter, r *http.Request) {
	var req createFlightRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	f, err := orchestrators.ExecuteCreateFlight(r.Context(), orchestrators.CreateFlightInput{
		Actor:            actor(r),
		Name:             req.Name,
		CommanderCadetID: req.CommanderCadetID,
	}, s.flightDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFlightResponse(f))
}

type assignMemberRequest struct {
	CadetID string `json:"cadet_id" validate:"required"`
}

type cadetResponse struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Rank     int    `json:"rank"`
	FlightID string `json:"flight_id,omitempty"`
}

func toCadetResponse(c cadet.Cadet) cadetResponse {
	return cadetResponse{ID: c.ID, UserID: c.UserID, Rank: c.Rank, FlightID: c.FlightID}
}

// handleAssignFlightMember handles POST /api/flights/{id}/members
func (s *server) handleAssignFlightMember(w http.ResponseWriter, r *http.Request) {
	var req assignMemberRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	c, err := orchestrators.ExecuteAssignCadetToFlight(r.Context(), orchestrators.AssignCadetInput{
		Actor:    actor(r),
		FlightID: r.PathValue("id"),
		CadetID:  req.CadetID,
	}, s.flightDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCadetResponse(c))
}

// handleDeleteFlight handles DELETE /api/flights/{id}
func (s *server) handleDeleteFlight(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteDeleteFlight(r.Context(), actor(r), r.PathValue("id"), s.flightDeps()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type designateCadetRequest struct {
	UserID string `json:"user_id" validate:"required_without=Email"`
	Email  string `json:"email" validate:"required_without=UserID"`
	Rank   int    `json:"rank" validate:"omitempty,min=100"`
}

type cadetProfileRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required"`
}

type cadetProfileResponse struct {
	CadetID   string `json:"cadet_id"`
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type updateRankRequest struct {
	Rank int `json:"rank" validate:"required,min=100"`
}

func (s *server) cadetDeps() orchestrators.CadetDeps {
	return orchestrators.CadetDeps{CadetStore: s.stores.CadetStore, UserStore: s.stores.UserStore, GenerateID: generateID}
}

// handleDesignateCadet handles POST /api/cadets
func (s *server) handleDesignateCadet(w http.ResponseWriter, r *http.Request) {
	var req designateCadetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	c, err := orchestrators.ExecuteDesignateCadet(r.Context(), orchestrators.DesignateCadetInput{
		Actor:  actor(r),
		UserID: req.UserID,
		Email:  req.Email,
		Rank:   req.Rank,
	}, s.cadetDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCadetResponse(c))
}

// handleUpdateCadetRank handles PATCH /api/cadets/{id}
func (s *server) handleUpdateCadetRank(w http.ResponseWriter, r *http.Request) {
	var req updateRankRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	c, err := orchestrators.ExecuteUpdateCadetRank(r.Context(), actor(r), r.PathValue("id"), req.Rank, s.cadetDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCadetResponse(c))
}

// handleUpdateCadetProfile handles PUT /api/cadets/{id}/profile
func (s *server) handleUpdateCadetProfile(w http.ResponseWriter, r *http.Request) {
	var req cadetProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	cadetID := r.PathValue("id")
	u, err := orchestrators.ExecuteUpdateCadetProfile(r.Context(), orchestrators.CadetProfileInput{
		Actor:     actor(r),
		CadetID:   cadetID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}, s.cadetDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cadetProfileResponse{
		CadetID:   cadetID,
		UserID:    u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	})
}

// handleRemoveCadet handles DELETE /api/cadets/{id}
func (s *server) handleRemoveCadet(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteRemoveCadet(r.Context(), actor(r), r.PathValue("id"), s.cadetDeps()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type scheduleResponse struct {
	PTDays    []string `json:"pt_days"`
	LLABDays  []string `json:"llab_days"`
	IsDefault bool     `json:"is_default"`
}

// handleGetSchedule handles GET /api/schedule
func (s *server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryScheduleConfig(r.Context(), projections.ScheduleConfigQuery{
		Actor: actor(r),
	}, projections.ScheduleConfigDeps{ConfigStore: s.stores.ScheduleConfigStore})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scheduleResponse{PTDays: result.PTDays, LLABDays: result.LLABDays, IsDefault: result.IsDefault})
}

type saveScheduleRequest struct {
	PTDays   []string `json:"pt_days" validate:"dive,required"`
	LLABDays []string `json:"llab_days" validate:"dive,required"`
}

// handleSaveSchedule handles PUT /api/schedule
func (s *server) handleSaveSchedule(w http.ResponseWriter, r *http.Request) {
	var req saveScheduleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	cfg, err := orchestrators.ExecuteSaveScheduleConfig(r.Context(), orchestrators.SaveScheduleConfigInput{
		Actor:    actor(r),
		PTDays:   req.PTDays,
		LLABDays: req.LLABDays,
	}, orchestrators.SaveScheduleConfigDeps{ConfigStore: s.stores.ScheduleConfigStore, Now: s.now})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scheduleResponse{
		PTDays:   scheduleconfig.WeekdayNames(cfg.PTDays),
		LLABDays: scheduleconfig.WeekdayNames(cfg.LLABDays),
	})
}

type generateScheduleRequest struct {
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
}

type generateScheduleResponse struct {
	Created []eventResponse `json:"created"`
	Skipped int             `json:"skipped"`
}

// handleGenerateSchedule handles POST /api/schedule/generate
func (s *server) handleGenerateSchedule(w http.ResponseWriter, r *http.Request) {
	var req generateScheduleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	// Both dates passed the datetime validator.
	from, _ := time.Parse(event.DateLayout, req.From)
	to, _ := time.Parse(event.DateLayout, req.To)

	result, err := orchestrators.ExecuteGenerateScheduledEvents(r.Context(), orchestrators.GenerateEventsInput{
		Actor: actor(r),
		From:  from,
		To:    to,
	}, orchestrators.GenerateEventsDeps{
		ConfigStore: s.stores.ScheduleConfigStore,
		EventStore:  s.stores.EventStore,
		GenerateID:  generateID,
		Now:         s.now,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := generateScheduleResponse{Created: make([]eventResponse, len(result.Created)), Skipped: result.Skipped}
	for i, e := range result.Created {
		resp.Created[i] = toEventResponse(e)
	}
	writeJSON(w, http.StatusCreated, resp)
}
