package tiles

import "time"

// DaysUntil compares calendar dates, not elapsed hours: an event at 00:05
// tomorrow is "1 day away" even when now is 23:55. Negative when the target
// date has passed.
func DaysUntil(now, target time.Time) int {
	ny, nm, nd := now.Date()
	ty, tm, td := target.Date()
	start := time.Date(ny, nm, nd, 0, 0, 0, 0, now.Location())
	end := time.Date(ty, tm, td, 0, 0, 0, 0, now.Location())
	return int(end.Sub(start) / (24 * time.Hour))
}

// CountdownRemaining is the full-resolution delta used for the
// countdown-to-start display; zero once the target has passed.
func CountdownRemaining(now, target time.Time) time.Duration {
	d := target.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// CountdownTickInterval throttles countdown repaints: one-minute resolution
// while more than 24h remain, one-second resolution inside the final 24h.
func CountdownTickInterval(remaining time.Duration) time.Duration {
	if remaining > 24*time.Hour {
		return time.Minute
	}
	return time.Second
}
