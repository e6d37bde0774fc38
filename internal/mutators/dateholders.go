package mutators

import "time"

const dayMillis = int64(24 * time.Hour / time.Millisecond)

// StartOfDay truncates an epoch millisecond timestamp to midnight UTC.
func StartOfDay(ms int64) int64 {
	return ms - ((ms%dayMillis)+dayMillis)%dayMillis
}

// GroupByStartOfDay groups values by the day their date falls on.
func GroupByStartOfDay[T any](values []T, date func(T) int64) map[int64][]T {
	out := make(map[int64][]T)
	for _, v := range values {
		day := StartOfDay(date(v))
		out[day] = append(out[day], v)
	}

	return out
}

// FilterBetween keeps values dated within [after, before].
func FilterBetween[T any](values []T, date func(T) int64, after, before int64) []T {
	var out []T
	for _, v := range values {
		if d := date(v); after <= d && d <= before {
			out = append(out, v)
		}
	}

	return out
}
