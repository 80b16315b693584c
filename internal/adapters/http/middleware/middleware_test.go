package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rollcall/internal/domain/access"
	"rollcall/internal/domain/user"
)

func TestRateLimiter_Allow(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Second)
	rl.now = func() time.Time { return now }

	for i, want := range []bool{true, true, false} {
		if got := rl.Allow("10.0.0.1"); got != want {
			t.Fatalf("call %d: Allow = %v, want %v", i, got, want)
		}
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("a different ip must have its own bucket")
	}

	now = now.Add(time.Second)
	if !rl.Allow("10.0.0.1") {
		t.Error("bucket should refill after one interval")
	}
}

func TestRateLimiter_SweepsIdleVisitors(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, time.Second)
	rl.now = func() time.Time { return now }
	rl.lastSweep = now

	rl.Allow("10.0.0.1")
	now = now.Add(visitorIdle + time.Minute)
	rl.Allow("10.0.0.2")

	if _, ok := rl.visitors["10.0.0.1"]; ok {
		t.Error("idle visitor should have been swept")
	}
}

func TestRateLimit_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rr.Code)
	}

	// Same host, different source port, same bucket.
	req.RemoteAddr = "192.0.2.1:5678"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rr.Code)
	}
}

func TestSessionStore_Expiry(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	ss := NewSessionStore(time.Hour)
	ss.now = func() time.Time { return now }

	token, err := ss.Create("u1", "a@rollcall.local", []user.Role{user.RoleCadet})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok := ss.Get(token); !ok {
		t.Fatal("fresh session should be valid")
	}

	now = now.Add(time.Hour + time.Second)
	if _, ok := ss.Get(token); ok {
		t.Fatal("expired session should be rejected")
	}
	if _, ok := ss.sessions[token]; ok {
		t.Error("expired session should be removed")
	}
}

func TestNewSessionStore_DefaultTTL(t *testing.T) {
	if got := NewSessionStore(0).TTL(); got != DefaultSessionTTL {
		t.Errorf("TTL = %v, want %v", got, DefaultSessionTTL)
	}
}

func TestAuth_PopulatesActor(t *testing.T) {
	ss := NewSessionStore(time.Hour)
	token, _ := ss.Create("u1", "a@rollcall.local", []user.Role{user.RoleCadre})

	var got access.Actor
	handler := Auth(ss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/waivers", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got.UserID != "u1" || !access.Can(got, access.OpListWaivers) {
		t.Errorf("actor = %+v", got)
	}

	got = access.Actor{UserID: "stale"}
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/waivers", nil))
	if got.UserID != "" {
		t.Errorf("anonymous actor = %+v, want zero", got)
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/me/waivers", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rr.Code)
	}

	req := httptest.NewRequest("GET", "/api/me/waivers", nil)
	req = req.WithContext(ContextWithSession(req.Context(), Session{UserID: "u1"}))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("authenticated status = %d, want 204", rr.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
}

func TestCSRF_Exemptions(t *testing.T) {
	key := make([]byte, 32)
	handler := CSRF(key, false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{"json post", "POST", "application/json", http.StatusNoContent},
		{"json post with charset", "POST", "application/json; charset=utf-8", http.StatusNoContent},
		{"bodyless delete", "DELETE", "", http.StatusNoContent},
		{"bodyless put", "PUT", "", http.StatusNoContent},
		{"bodyless patch", "PATCH", "", http.StatusNoContent},
		{"form post without token", "POST", "application/x-www-form-urlencoded", http.StatusForbidden},
		{"bare post without token", "POST", "", http.StatusForbidden},
		{"safe get", "GET", "", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/events/e1", nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}
