// Package intervals turns per-sample elapsed times into contiguous time
// intervals and relates intervals across players.
package intervals

import "github.com/pable/go-cs-zones/internal/model"

// Qualifier decides whether a sample's timestamp counts toward an interval.
type Qualifier func(s *model.Sample) bool

// WeaponClassIn qualifies samples whose first inventory item has one of the given classes.
func WeaponClassIn(classes ...string) Qualifier {
	allowed := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		allowed[c] = struct{}{}
	}
	return func(s *model.Sample) bool {
		if len(s.Inventory) == 0 {
			return false
		}
		_, ok := allowed[s.PrimaryClass()]
		return ok
	}
}

// ValidTimes returns the distinct elapsed seconds of qualifying samples in
// first-seen order.
//
// A 0 marks a timer reset. Every value from the 0 onward is shifted by
// (value before the 0)+1 so run detection sees one continuous sequence. For a
// 0 at position 0 the value before it wraps to the last element. Only the
// first reset is handled; later ones are left as-is.
func ValidTimes(samples []model.Sample, qualifies Qualifier) []int {
	seen := make(map[int]struct{})
	var times []int
	for i := range samples {
		s := &samples[i]
		if !qualifies(s) {
			continue
		}
		if _, dup := seen[s.Seconds]; dup {
			continue
		}
		seen[s.Seconds] = struct{}{}
		times = append(times, s.Seconds)
	}

	for i, t := range times {
		if t != 0 {
			continue
		}
		prev := len(times) - 1
		if i > 0 {
			prev = i - 1
		}
		offset := times[prev] + 1
		for j := i; j < len(times); j++ {
			times[j] += offset
		}
		break
	}
	return times
}

// ToRuns groups adjacent values that differ by exactly 1 into intervals.
func ToRuns(times []int) []model.Interval {
	if len(times) == 0 {
		return nil
	}
	var out []model.Interval
	start := times[0]
	for i := 1; i < len(times); i++ {
		if times[i]-times[i-1] != 1 {
			out = append(out, model.Interval{Start: start, End: times[i-1]})
			start = times[i]
		}
	}
	return append(out, model.Interval{Start: start, End: times[len(times)-1]})
}

// Extract is ToRuns(ValidTimes(samples, qualifies)).
func Extract(samples []model.Sample, qualifies Qualifier) []model.Interval {
	return ToRuns(ValidTimes(samples, qualifies))
}
