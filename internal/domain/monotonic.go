package domain

import "math"

const secondsPerDay = 86400

// previousOffsetSeed primes the wrap comparison so the first reading can
// never register as a rollover. Raw offsets are nonnegative seconds, so
// any large negative number works; -999 matches the instrument streams'
// own missing-value convention.
const previousOffsetSeed = -999

// RepairOffsets converts a raw time-offset sequence into a non-decreasing
// sequence of whole seconds. Instrument clocks reset near local midnight,
// so a reading that drops below its predecessor marks a day rollover and
// advances the running datum by one day. Multi-day inputs wrap repeatedly.
//
// The wrap test compares raw readings, not emitted values: consecutive
// equal raw samples therefore repeat the same emitted tick instead of
// falsely triggering a wrap. The output is non-decreasing by construction
// but deliberately not strictly increasing.
func RepairOffsets(offsets []float64) []int64 {
	repaired := make([]int64, len(offsets))
	previous := float64(previousOffsetSeed)
	var datum int64
	for i, raw := range offsets {
		if raw < previous {
			datum += secondsPerDay
		}
		repaired[i] = datum + int64(math.Round(raw))
		previous = raw
	}
	return repaired
}
