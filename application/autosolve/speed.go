package autosolve

import "time"

// SpeedIntervals maps speed levels 1 (slowest) to 5 (fastest) to the pause
// between solved questions.
var SpeedIntervals = []time.Duration{
	3000 * time.Millisecond,
	2000 * time.Millisecond,
	1000 * time.Millisecond,
	500 * time.Millisecond,
	200 * time.Millisecond,
}

// DefaultInterval applies to out-of-range speed levels.
const DefaultInterval = time.Second

// IntervalFor - returns the pause for speed in table, or DefaultInterval
func IntervalFor(table []time.Duration, speed int) time.Duration {
	if speed < 1 || speed > len(table) {
		return DefaultInterval
	}
	return table[speed-1]
}
