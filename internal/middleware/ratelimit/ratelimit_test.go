package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(perMinute int) (*Limiter, *time.Time) {
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestAllow_WindowReset(t *testing.T) {
	rl, now := newTestLimiter(2)
	defer rl.Stop()

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("1.2.3.4"); !ok {
			t.Fatalf("request %d rejected", i+1)
		}
	}
	*now = now.Add(20 * time.Second)
	ok, retry := rl.Allow("1.2.3.4")
	if ok {
		t.Fatalf("third request allowed")
	}
	if retry != 40*time.Second {
		t.Fatalf("retry=%s", retry)
	}
	if ok, _ := rl.Allow("5.6.7.8"); !ok {
		t.Fatalf("other client limited")
	}

	*now = now.Add(40 * time.Second)
	if ok, _ := rl.Allow("1.2.3.4"); !ok {
		t.Fatalf("request after window rejected")
	}
	if m := rl.GetMetrics(); m.TotalHits != 1 || m.ClientCount != 2 {
		t.Fatalf("metrics=%+v", m)
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, now := newTestLimiter(5)
	defer rl.Stop()

	rl.Allow("old")
	*now = now.Add(2 * time.Hour)
	rl.Allow("new")
	if n := rl.cleanupStaleEntries(); n != 1 {
		t.Fatalf("removed %d", n)
	}
	if rl.GetMetrics().ClientCount != 1 {
		t.Fatalf("clients=%d", rl.GetMetrics().ClientCount)
	}
}

func TestMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(1)
	defer rl.Stop()

	h := rl.Middleware(func(r *http.Request) string { return r.RemoteAddr }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	if first.Code != http.StatusNoContent {
		t.Fatalf("first=%d", first.Code)
	}

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second=%d", second.Code)
	}
	if second.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After=%q", second.Header().Get("Retry-After"))
	}
}
