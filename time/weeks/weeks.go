// Package weeks provides week-aligned timestamp math used throughout the
// governance engine. Every scheduled unlock and every relative weight
// checkpoint is keyed by the start timestamp of a voting week.
package weeks

import (
	"github.com/stratafi/governance/config/params"
)

// Week is the number of a voting week since the unix epoch.
type Week uint64

// FromTime returns the week number containing the given timestamp.
func FromTime(t uint64) Week {
	return Week(t / params.GovConfig().SecondsPerWeek)
}

// StartTime returns the first timestamp of the week.
func (w Week) StartTime() uint64 {
	return uint64(w) * params.GovConfig().SecondsPerWeek
}

// FloorTime rounds a timestamp down to its week boundary.
func FloorTime(t uint64) uint64 {
	return t - t%params.GovConfig().SecondsPerWeek
}

// CeilTime rounds a timestamp up to the next week boundary. A timestamp
// already on a boundary is returned unchanged.
func CeilTime(t uint64) uint64 {
	w := params.GovConfig().SecondsPerWeek
	if t%w == 0 {
		return t
	}
	return FloorTime(t) + w
}

// IsAligned returns true if the timestamp sits exactly on a week boundary.
func IsAligned(t uint64) bool {
	return t%params.GovConfig().SecondsPerWeek == 0
}

// Prev returns the start timestamp of the week before the given week-aligned
// timestamp. It checks for underflow.
func Prev(t uint64) uint64 {
	w := params.GovConfig().SecondsPerWeek
	if t < w {
		return 0
	}
	return t - w
}

// Next returns the start timestamp of the week after the given timestamp.
func Next(t uint64) uint64 {
	return FloorTime(t) + params.GovConfig().SecondsPerWeek
}

// CountTo returns how many week buckets may hold live unlocks at or after
// timestamp t, given the protocol's maximum lock duration. Lock unlock times
// are capped at t+maxLockDuration, so a bounded traversal over this many
// buckets visits every live unlock.
func CountTo(maxLockDuration uint64) uint64 {
	w := params.GovConfig().SecondsPerWeek
	return maxLockDuration/w + 1
}
