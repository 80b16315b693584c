package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"rollcall/internal/adapters/http/middleware"
	"rollcall/internal/application/orchestrators"
	"rollcall/internal/domain/access"
	"rollcall/internal/domain/apperr"
	"rollcall/internal/domain/attendance"
	"rollcall/internal/domain/cadet"
	"rollcall/internal/domain/event"
	"rollcall/internal/domain/flight"
	"rollcall/internal/domain/scheduleconfig"
	"rollcall/internal/domain/user"
	"rollcall/internal/domain/waiver"
)

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// validate checks request DTOs against their struct tags.
var validate = validator.New(validator.WithRequiredStructEnabled())

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// actor returns the identity of the current request.
func actor(r *http.Request) access.Actor {
	return middleware.ActorFromContext(r.Context())
}

// renderMarkdown converts free text to sanitized HTML, falling back to
// escaped text when conversion fails.
func renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTMLEscapeString(md)
	}
	return buf.String()
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// decodeAndValidate reads a JSON body into v and runs struct validation.
// It writes the error response itself and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := strictDecode(r, v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return false
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "validation failed", Fields: fields})
			return false
		}
		internalError(w, err)
		return false
	}
	return true
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode_response_failed", "error", err)
	}
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}

// validationErrors are input problems the caller can fix and resubmit.
var validationErrors = []error{
	waiver.ErrEmptyCommentsOnDeny,
	waiver.ErrEmptyReason,
	waiver.ErrReasonTooLong,
	waiver.ErrCommentsTooLong,
	waiver.ErrInvalidDecision,
	waiver.ErrInvalidStatus,
	waiver.ErrEmptyRecordID,
	attendance.ErrInvalidStatus,
	attendance.ErrEmptyEventID,
	attendance.ErrEmptyCadetID,
	event.ErrEmptyName,
	event.ErrNameTooLong,
	event.ErrEmptyType,
	event.ErrEmptyStart,
	event.ErrEndBeforeStart,
	flight.ErrEmptyName,
	flight.ErrNameTooLong,
	flight.ErrEmptyCommander,
	cadet.ErrEmptyUserID,
	cadet.ErrInvalidRank,
	scheduleconfig.ErrNoDays,
	scheduleconfig.ErrUnknownWeekday,
	scheduleconfig.ErrInvalidRange,
	scheduleconfig.ErrRangeTooLong,
	user.ErrInvalidRole,
	user.ErrProfileIncomplete,
	user.ErrInvalidFirstName,
	user.ErrInvalidLastName,
	user.ErrMalformedEmail,
	user.ErrNameTooLong,
	user.ErrEmailTooLong,
}

// statusFor maps an operation error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, access.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, orchestrators.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, waiver.ErrDuplicateOrInvalidTarget),
		errors.Is(err, waiver.ErrConflictAlreadyDecided),
		errors.Is(err, apperr.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, waiver.ErrApprovalTrailMissing):
		return http.StatusInternalServerError
	case errors.Is(err, apperr.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

// writeError is the single place operation errors become responses.
// Server-side failures are logged once here and reported generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		slog.Error("request_failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, status, errorBody{Error: "internal server error"})
	case http.StatusServiceUnavailable:
		slog.Error("request_failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, status, errorBody{Error: "storage unavailable"})
	case http.StatusForbidden:
		slog.Warn("request_forbidden", "method", r.Method, "path", r.URL.Path, "user_id", actor(r).UserID)
		writeJSON(w, status, errorBody{Error: "forbidden"})
	default:
		writeJSON(w, status, errorBody{Error: err.Error()})
	}
}

// parseDate accepts YYYY-MM-DD or RFC 3339 timestamps.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(event.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

// formatTime renders a timestamp for JSON, leaving unset times empty.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
