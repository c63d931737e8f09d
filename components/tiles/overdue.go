package tiles

import "time"

// OverdueOpacity maps days-overdue to a highlight opacity percentage. The
// ramp is monotonic: 5%→20% linearly across the first 30 days, then a
// slower 20%→50% from day 30 to day 365, clamped at 50%. Zero or negative
// overdue (and completed tasks) get no highlight.
func OverdueOpacity(daysOverdue float64) float64 {
	switch {
	case daysOverdue <= 0:
		return 0
	case daysOverdue <= 30:
		return 5 + 15*daysOverdue/30
	case daysOverdue <= 365:
		return 20 + 30*(daysOverdue-30)/335
	default:
		return 50
	}
}

// TaskOverdueDays counts how many days a task's due date sits in the past.
// Any positive overdue duration counts as at least day 1, so a task due one
// second ago already carries the minimum highlight.
func TaskOverdueDays(now, due time.Time) int {
	d := now.Sub(due)
	if d <= 0 {
		return 0
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}
