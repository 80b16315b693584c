// Package web is the thin JSON adapter over the attendance and waiver
// operations. Handlers translate requests into explicit operation inputs,
// carrying the session identity as an access.Actor, and map domain
// sentinels to status codes in one place.
package web

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcall/internal/adapters/http/middleware"
	"rollcall/internal/adapters/http/perf"
	attendanceStore "rollcall/internal/adapters/storage/attendance"
	cadetStore "rollcall/internal/adapters/storage/cadet"
	eventStore "rollcall/internal/adapters/storage/event"
	flightStore "rollcall/internal/adapters/storage/flight"
	scheduleConfigStore "rollcall/internal/adapters/storage/scheduleconfig"
	userStore "rollcall/internal/adapters/storage/user"
	waiverStore "rollcall/internal/adapters/storage/waiver"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Stores holds all storage dependencies.
type Stores struct {
	UserStore           userStore.Store
	CadetStore          cadetStore.Store
	FlightStore         flightStore.Store
	EventStore          eventStore.Store
	AttendanceStore     attendanceStore.Store
	WaiverStore         waiverStore.Store
	ScheduleConfigStore scheduleConfigStore.Store
	DB                  Pinger
}

// Options configures the middleware chain and the metrics endpoint.
type Options struct {
	CSRFKey        []byte // 32 bytes; a random key is generated when empty
	SecureCookies  bool
	TrustedOrigins []string
	SessionTTL     time.Duration
	RateLimit      int // requests per second per IP
	SlowRequest    time.Duration
	Collector      *perf.Collector
	Gatherer       prometheus.Gatherer // served at /metrics; nil disables the route
	Now            func() time.Time    // defaults to time.Now
}

// DefaultRateLimit applies when Options.RateLimit is not positive.
const DefaultRateLimit = 10

// server carries the dependencies shared by every handler of one mux.
type server struct {
	stores        *Stores
	sessions      *middleware.SessionStore
	secureCookies bool
	metrics       *perf.Collector // nil-safe
	now           func() time.Time
}

// NewMux builds the routed, fully wrapped handler.
// Each call owns its own sessions and stores; muxes never share state.
// PRE: s has every store set
// POST: Returns a handler with SecurityHeaders, CSRF, Auth, RateLimit and Timing applied
func NewMux(s *Stores, opts Options) http.Handler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	srv := &server{
		stores:        s,
		sessions:      middleware.NewSessionStore(opts.SessionTTL),
		secureCookies: opts.SecureCookies,
		metrics:       opts.Collector,
		now:           now,
	}

	mux := http.NewServeMux()
	srv.registerRoutes(mux)
	if opts.Gatherer != nil {
		handle(mux, "GET /metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}).ServeHTTP)
	}

	csrfKey := opts.CSRFKey
	if len(csrfKey) == 0 {
		csrfKey = randomCSRFKey()
	}

	rate := opts.RateLimit
	if rate <= 0 {
		rate = DefaultRateLimit
	}
	limiter := middleware.NewRateLimiter(rate, time.Second)

	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey, opts.SecureCookies, opts.TrustedOrigins),
		middleware.Auth(srv.sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(opts.Collector, opts.SlowRequest),
	)
}

// randomCSRFKey is used in development; forms posted before a restart fail.
func randomCSRFKey() []byte {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	slog.Warn("csrf_key_generated", "reason", "no key configured; tokens will not survive a restart")
	return key
}

// handle registers h under pattern and records the pattern for request metrics.
func handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.SetRoute(r.Context(), pattern)
		h(w, r)
	}))
}

// authed is handle for routes that need a session.
func authed(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	handle(mux, pattern, middleware.RequireAuth(h).ServeHTTP)
}

func (s *server) registerRoutes(mux *http.ServeMux) {
	handle(mux, "GET /healthz", s.handleHealthz)
	handle(mux, "POST /login", s.handleLogin)
	handle(mux, "POST /logout", s.handleLogout)

	authed(mux, "GET /api/dashboard/matrix", s.handleAttendanceMatrix)

	authed(mux, "GET /api/waivers", s.handleListWaivers)
	authed(mux, "POST /api/waivers", s.handleSubmitWaiver)
	authed(mux, "POST /api/waivers/{id}/decision", s.handleDecideWaiver)
	authed(mux, "GET /api/waivers/{id}/approvals", s.handleWaiverApprovals)

	authed(mux, "GET /api/me/absences", s.handleMyAbsences)
	authed(mux, "GET /api/me/waivers", s.handleMyWaivers)

	authed(mux, "POST /api/attendance", s.handleRecordAttendance)

	authed(mux, "POST /api/events", s.handleCreateEvent)
	authed(mux, "PUT /api/events/{id}", s.handleUpdateEvent)
	authed(mux, "DELETE /api/events/{id}", s.handleDeleteEvent)

	authed(mux, "GET /api/flights", s.handleFlightRoster)
	authed(mux, "POST /api/flights", s.handleCreateFlight)
	authed(mux, "POST /api/flights/{id}/members", s.handleAssignFlightMember)
	authed(mux, "DELETE /api/flights/{id}", s.handleDeleteFlight)

	authed(mux, "POST /api/cadets", s.handleDesignateCadet)
	authed(mux, "PATCH /api/cadets/{id}", s.handleUpdateCadetRank)
	authed(mux, "PUT /api/cadets/{id}/profile", s.handleUpdateCadetProfile)
	authed(mux, "DELETE /api/cadets/{id}", s.handleRemoveCadet)

	authed(mux, "GET /api/schedule", s.handleGetSchedule)
	authed(mux, "PUT /api/schedule", s.handleSaveSchedule)
	authed(mux, "POST /api/schedule/generate", s.handleGenerateSchedule)
}

// handleHealthz reports 200 when the database answers and 503 otherwise.
func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.stores.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.stores.DB.PingContext(ctx); err != nil {
			slog.Error("healthz_failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
