package domain

import "time"

type StreakAction string

const (
	StreakStarted     StreakAction = "started"
	StreakIncremented StreakAction = "incremented"
	StreakReset       StreakAction = "reset"
	StreakUnchanged   StreakAction = "unchanged"
)

// AdvanceStreak applies one day of activity at now. Days are compared as UTC
// calendar days: same day keeps the streak, the next day extends it, any
// longer gap restarts it at 1.
func AdvanceStreak(current int, last *time.Time, now time.Time) (int, StreakAction) {
	if last == nil || last.IsZero() {
		return 1, StreakStarted
	}

	switch days := daysBetween(*last, now); {
	case days <= 0:
		if current < 1 {
			return 1, StreakStarted
		}
		return current, StreakUnchanged
	case days == 1:
		return current + 1, StreakIncremented
	default:
		return 1, StreakReset
	}
}

func daysBetween(from, to time.Time) int {
	from, to = from.UTC(), to.UTC()
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
