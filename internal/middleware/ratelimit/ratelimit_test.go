package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 3, CleanupInterval: time.Hour})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("request over the limit should be rejected")
	}
}

func TestAllowTracksClientsIndependently(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: time.Hour})
	defer rl.Stop()

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first client should be allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("second client should have its own budget")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("first client exceeded its budget")
	}
	if got := rl.ActiveClients(); got != 2 {
		t.Fatalf("ActiveClients() = %d, want 2", got)
	}
}

func TestAllowResetsAfterWindow(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: time.Hour})
	defer rl.Stop()

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("second request inside the window should be rejected")
	}

	// Age the entry past the window instead of sleeping.
	rl.mu.Lock()
	rl.clients["10.0.0.1"].lastRequest = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()

	if !rl.Allow("10.0.0.1") {
		t.Fatal("request after the window should be allowed again")
	}
}

func TestCleanupRemovesStaleEntries(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 10, CleanupInterval: time.Hour})
	defer rl.Stop()

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")

	rl.mu.Lock()
	rl.clients["10.0.0.1"].lastRequest = time.Now().Add(-20 * time.Minute)
	rl.mu.Unlock()

	rl.cleanupStaleEntries()

	if got := rl.ActiveClients(); got != 1 {
		t.Fatalf("ActiveClients() = %d after cleanup, want 1", got)
	}
}

func TestNewLimiterDefaults(t *testing.T) {
	rl := NewLimiter(Config{})
	defer rl.Stop()

	if rl.requestsPerMinute != 60 {
		t.Fatalf("requestsPerMinute = %d, want 60", rl.requestsPerMinute)
	}
	if rl.cleanupInterval != 5*time.Minute {
		t.Fatalf("cleanupInterval = %v, want 5m", rl.cleanupInterval)
	}
}
