package pubnav

import (
	"testing"
	"time"
)

func TestNavLimiterBlocksAfterBurst(t *testing.T) {
	limiter := NewNavLimiter(0.001, 2, time.Minute)
	defer limiter.Close()
	key := "session-a"

	if !limiter.Allow(key) {
		t.Fatalf("expected first request to be allowed")
	}
	if !limiter.Allow(key) {
		t.Fatalf("expected second request to be allowed")
	}
	if limiter.Allow(key) {
		t.Fatalf("expected third request to be blocked")
	}
}

func TestNavLimiterRefills(t *testing.T) {
	limiter := NewNavLimiter(20, 1, time.Minute)
	defer limiter.Close()
	key := "session-b"

	if !limiter.Allow(key) {
		t.Fatalf("expected first request to be allowed")
	}
	if limiter.Allow(key) {
		t.Fatalf("expected second request to be blocked")
	}

	time.Sleep(100 * time.Millisecond)
	if !limiter.Allow(key) {
		t.Fatalf("expected request after refill to be allowed")
	}
}

func TestNavLimiterIsPerKey(t *testing.T) {
	limiter := NewNavLimiter(0.001, 1, time.Minute)
	defer limiter.Close()

	if !limiter.Allow("session-c") {
		t.Fatalf("expected first key to be allowed")
	}
	if !limiter.Allow("session-d") {
		t.Fatalf("expected second key to be allowed independently")
	}
	if limiter.Allow("session-c") {
		t.Fatalf("expected first key to be blocked after burst")
	}
}

func TestNavLimiterSweepDropsIdle(t *testing.T) {
	limiter := NewNavLimiter(1, 1, time.Minute)
	defer limiter.Close()

	limiter.Allow("session-e")
	limiter.sweep(time.Now().Add(2 * time.Minute))
	if limiter.Len() != 0 {
		t.Fatalf("expected idle limiter to be dropped, have %d", limiter.Len())
	}
}
