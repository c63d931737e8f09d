package tiles

import (
	"regexp"
	"time"
)

// Departure is one row of a live departure board. Expected carries the
// operator's live estimate, which is frequently a status word ("On time",
// "Delayed", "Cancelled") instead of a clock time.
type Departure struct {
	ScheduledDisplay string
	ExpectedDisplay  string
	Destination      string
	Platform         string
}

var clockTimeRE = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// IsClockTime reports whether a display string is a genuine HH:MM time
// rather than a status word.
func IsClockTime(s string) bool {
	return clockTimeRE.MatchString(s)
}

// EffectiveTime picks the expected/actual time when it is a real clock
// reading, falling back to the scheduled time otherwise.
func (d Departure) EffectiveTime() string {
	if IsClockTime(d.ExpectedDisplay) {
		return d.ExpectedDisplay
	}
	return d.ScheduledDisplay
}

// MinutesToDeparture converts a board row into minutes from now, applying
// the late-night rollover heuristic: a listed time earlier than now only
// means "tomorrow" when it's late enough for that to be plausible: now is
// 22:00 or later and the candidate leaves before 08:00, or now is before
// 04:00. Outside those windows an apparently past time means the train
// likely just left, so the answer is 0 rather than a day-long wraparound.
func MinutesToDeparture(now time.Time, d Departure) (int, bool) {
	display := d.EffectiveTime()
	if !IsClockTime(display) {
		return 0, false
	}
	dep, err := time.Parse("15:04", display)
	if err != nil {
		return 0, false
	}
	depMin := dep.Hour()*60 + dep.Minute()
	nowMin := now.Hour()*60 + now.Minute()

	if depMin >= nowMin {
		return depMin - nowMin, true
	}
	if (nowMin >= 22*60 && depMin < 8*60) || nowMin < 4*60 {
		return (24*60 - nowMin) + depMin, true
	}
	return 0, true
}

// NextDeparture scans board rows in order and returns the first parseable
// departure with its minutes-from-now value.
func NextDeparture(now time.Time, rows []Departure) (Departure, int, bool) {
	for _, row := range rows {
		if mins, ok := MinutesToDeparture(now, row); ok {
			return row, mins, true
		}
	}
	return Departure{}, 0, false
}
