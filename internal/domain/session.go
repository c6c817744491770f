package domain

import "time"

// OnlineSpan is a number of online seconds accumulated on one UTC day.
type OnlineSpan struct {
	Day     time.Time
	Seconds int64
}

// SplitByDay splits the [from, to) online session into per-day spans at UTC midnight.
func SplitByDay(from, to time.Time) []OnlineSpan {
	from, to = from.UTC(), to.UTC()
	if !to.After(from) {
		return nil
	}
	var out []OnlineSpan
	for from.Before(to) {
		day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		next := day.AddDate(0, 0, 1)
		end := to
		if next.Before(end) {
			end = next
		}
		if secs := int64(end.Sub(from) / time.Second); secs > 0 {
			out = append(out, OnlineSpan{Day: day, Seconds: secs})
		}
		from = end
	}
	return out
}
