package tokens

import (
	"testing"
	"time"
)

func TestCheckRateLimitNotLocked(t *testing.T) {
	now := time.Now().UTC()

	status := CheckRateLimit(0, nil, 5, 15*time.Minute, now)
	if status.IsLocked {
		t.Fatal("expected fresh token to be unlocked")
	}
	if status.MinutesRemaining != 0 {
		t.Fatalf("expected 0 minutes remaining, got %d", status.MinutesRemaining)
	}

	status = CheckRateLimit(4, nil, 5, 15*time.Minute, now)
	if status.IsLocked {
		t.Fatal("expected token under the attempt budget to be unlocked")
	}
}

func TestCheckRateLimitAttemptsExhausted(t *testing.T) {
	now := time.Now().UTC()

	status := CheckRateLimit(5, nil, 5, 15*time.Minute, now)
	if !status.IsLocked {
		t.Fatal("expected lock at the attempt budget")
	}
	if status.MinutesRemaining != 15 {
		t.Fatalf("expected 15 minutes remaining, got %d", status.MinutesRemaining)
	}

	status = CheckRateLimit(9, nil, 5, 15*time.Minute, now)
	if !status.IsLocked {
		t.Fatal("expected lock past the attempt budget")
	}
}

func TestCheckRateLimitActiveWindow(t *testing.T) {
	now := time.Now().UTC()

	cases := []struct {
		name      string
		remaining time.Duration
		want      int
	}{
		{"full window", 15 * time.Minute, 15},
		{"partial minute rounds up", 14*time.Minute + time.Second, 15},
		{"one second left", time.Second, 1},
		{"one millisecond left", time.Millisecond, 1},
		{"exact minutes", 3 * time.Minute, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			until := now.Add(tc.remaining)
			status := CheckRateLimit(0, &until, 5, 15*time.Minute, now)
			if !status.IsLocked {
				t.Fatal("expected active window to lock")
			}
			if status.MinutesRemaining != tc.want {
				t.Fatalf("expected %d minutes remaining, got %d", tc.want, status.MinutesRemaining)
			}
		})
	}
}

func TestCheckRateLimitExpiredWindow(t *testing.T) {
	now := time.Now().UTC()
	until := now.Add(-time.Second)

	status := CheckRateLimit(2, &until, 5, 15*time.Minute, now)
	if status.IsLocked {
		t.Fatal("expected elapsed window to permit a new attempt")
	}

	// Even an exhausted counter unlocks once the window has elapsed.
	status = CheckRateLimit(7, &until, 5, 15*time.Minute, now)
	if status.IsLocked {
		t.Fatal("expected elapsed window to permit a new attempt despite counter")
	}
}
