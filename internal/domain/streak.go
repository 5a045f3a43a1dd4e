package domain

import "time"

// NextStreak applies the daily-streak law. Time-of-day is ignored: only the
// calendar-day difference between the last activity and today matters.
//
//	no previous activity        -> 1
//	same day                    -> current (repeat activity does not double-count)
//	exactly one day later       -> current + 1
//	gap, or clock went backward -> 1
//
// The caller supplies both dates; this function never reads the system clock.
func NextStreak(current int, lastActivity *time.Time, today time.Time) int {
	if lastActivity == nil {
		return 1
	}
	switch days := daysBetween(*lastActivity, today); {
	case days == 0:
		return current
	case days == 1:
		return current + 1
	default:
		return 1
	}
}

// daysBetween returns whole calendar days from a to b (negative if b is
// earlier), truncating both to midnight in b's location.
func daysBetween(a, b time.Time) int {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, b.Location())
	end := time.Date(by, bm, bd, 0, 0, 0, 0, b.Location())
	return int(end.Sub(start).Hours() / 24)
}

// Midnight truncates t to the start of its calendar day, the canonical form
// for daily-stat keys and last-activity dates.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
