package entitlements

import "time"

// TrialStatus computes trial-window membership from the account
// creation timestamp. The window is [creation day, creation day + 30]
// inclusive, compared at day granularity; the time-of-day of now is
// ignored. Pure, no failure modes.
func TrialStatus(createdAt, now time.Time) (active bool, daysRemaining int) {
	start := startOfDay(createdAt)
	end := start.AddDate(0, 0, TrialDays)
	today := startOfDay(now)

	if today.Before(start) {
		// Clock skew: account appears to be created in the future.
		// Treat the window as not started yet.
		return false, 0
	}

	days := int(end.Sub(today).Hours() / 24)
	if days < 0 {
		return false, 0
	}
	return true, days
}

// startOfDay truncates to the UTC calendar date so that day arithmetic
// is immune to DST transitions and to the location a timestamp happens
// to be carried in.
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
