package http

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(3, 3, time.Minute)
	t.Cleanup(rl.Close)

	current := time.Unix(0, 0)
	rl.now = func() time.Time {
		return current
	}

	key := "1.2.3.4"

	for i := 0; i < 3; i++ {
		if !rl.Allow(key) {
			t.Fatalf("expected request %d to be allowed", i+1)
		}
	}

	if rl.Allow(key) {
		t.Fatalf("expected fourth request to be denied")
	}

	current = current.Add(time.Second)

	if !rl.Allow(key) {
		t.Fatalf("expected request after refill to be allowed")
	}
}

func TestRateLimiterTracksClientsSeparately(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 1, time.Minute)
	t.Cleanup(rl.Close)

	current := time.Unix(0, 0)
	rl.now = func() time.Time {
		return current
	}

	if !rl.Allow("a") || !rl.Allow("b") {
		t.Fatalf("expected first request of each client to be allowed")
	}
	if rl.Allow("a") {
		t.Fatalf("expected second request of client a to be denied")
	}
}

func TestRateLimiterPrunesIdleClients(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(2, 1, time.Minute)
	t.Cleanup(rl.Close)

	current := time.Unix(0, 0)
	rl.now = func() time.Time {
		return current
	}

	rl.Allow("idle")
	current = current.Add(30 * time.Second)
	rl.Allow("active")

	current = current.Add(45 * time.Second)
	rl.pruneStale()

	if got := rl.tracked(); got != 1 {
		t.Fatalf("expected one tracked client after pruning, got %d", got)
	}
}
