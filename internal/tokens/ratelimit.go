package tokens

import "time"

// RateLimitStatus reports whether redemption for a token is currently locked
// and, if so, how many whole minutes remain before the lock lifts.
type RateLimitStatus struct {
	IsLocked         bool
	MinutesRemaining int
}

// CheckRateLimit evaluates the attempt counter and lock window against now.
// An active locked_until wins; once that window elapses a new attempt is
// permitted immediately, regardless of the counter. Without a window, an
// exhausted attempt budget reports a fresh full lock. Minutes remaining round
// up, so a lock with one second left still reports a full minute.
func CheckRateLimit(attempts int, lockedUntil *time.Time, maxAttempts int, lockout time.Duration, now time.Time) RateLimitStatus {
	if lockedUntil != nil {
		if lockedUntil.After(now) {
			return RateLimitStatus{
				IsLocked:         true,
				MinutesRemaining: ceilMinutes(lockedUntil.Sub(now)),
			}
		}
		return RateLimitStatus{}
	}
	if attempts >= maxAttempts {
		return RateLimitStatus{
			IsLocked:         true,
			MinutesRemaining: ceilMinutes(lockout),
		}
	}
	return RateLimitStatus{}
}

func ceilMinutes(d time.Duration) int {
	ms := d.Milliseconds()
	if ms <= 0 {
		return 0
	}
	const minuteMs = int64(time.Minute / time.Millisecond)
	return int((ms + minuteMs - 1) / minuteMs)
}
