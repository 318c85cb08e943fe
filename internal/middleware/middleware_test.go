package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"golang.org/x/time/rate"
)

func TestIsValidBearerToken(t *testing.T) {
	log := logger_i.NewLogger("test")
	settings := config.ServerSettings{AuthToken: "secret"}

	tests := []struct {
		name     string
		header   string
		settings config.ServerSettings
		want     bool
	}{
		{"valid", "Bearer secret", settings, true},
		{"wrong token", "Bearer nope", settings, false},
		{"no bearer prefix", "secret", settings, false},
		{"empty header", "", settings, false},
		{"no token configured", "Bearer ", config.ServerSettings{}, false},
		{"bypass", "", config.ServerSettings{NoAuthBypass: true}, true},
	}
	for _, tt := range tests {
		if got := IsValidBearerToken(tt.header, tt.settings, log); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestWrap(t *testing.T) {
	m := NewMiddleware(config.ServerSettings{AuthToken: "secret"})
	var sawTrace string
	h := m.Wrap(func(w http.ResponseWriter, r *http.Request) {
		sawTrace, _ = r.Context().Value(config.TRACE_ID_KEY).(string)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/status/x", nil)
	req.Header.Set("X-Trace-Id", "trace-1")
	rec := httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated request got %d", rec.Code)
	}

	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusOK || sawTrace != "trace-1" {
		t.Errorf("got %d trace %q", rec.Code, sawTrace)
	}
	if rec.Header().Get("X-Trace-Id") != "trace-1" {
		t.Error("trace id not echoed")
	}
}

func TestWrap_RateLimit(t *testing.T) {
	m := NewMiddleware(config.ServerSettings{NoAuthBypass: true})
	m.limiter = NewIPRateLimiter(rate.Limit(0), 2)
	h := m.Wrap(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		h(rec, req)
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes %v", codes)
	}
}

func TestIPRateLimiter_EvictsIdleClients(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	for i := 0; i < maxTrackedIPs; i++ {
		l.GetLimiter("10.0.0." + strconv.Itoa(i))
	}
	if l.GetLimiter("10.0.0.1") != l.GetLimiter("10.0.0.1") {
		t.Fatal("same ip must reuse its limiter")
	}

	clock = clock.Add(limiterIdleTTL + time.Second)
	l.GetLimiter("10.0.0.1")
	l.GetLimiter("192.168.1.1")
	if got := l.tracked(); got != 2 {
		t.Errorf("tracked = %d, want 2", got)
	}
}
