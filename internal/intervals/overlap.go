package intervals

import "github.com/pable/go-cs-zones/internal/model"

// OverlapMap relates each distinct interval to the intervals that start
// before it ends. The relation is one-directional: A lands in B's list when
// A.Start < B.End, independent of whether B.Start < A.End.
type OverlapMap struct {
	keys     []model.Interval
	overlaps map[model.Interval][]model.Interval
}

// GroupOverlaps scans every ordered pair of the pooled intervals. Identical
// intervals (from different players) share one key and never overlap each
// other, but each copy is appended separately to other keys' lists.
//
// The scan is O(n²) in the pooled count.
func GroupOverlaps(pooled []model.Interval) *OverlapMap {
	m := &OverlapMap{overlaps: make(map[model.Interval][]model.Interval, len(pooled))}
	for _, iv := range pooled {
		if _, ok := m.overlaps[iv]; ok {
			continue
		}
		m.keys = append(m.keys, iv)
		m.overlaps[iv] = []model.Interval{}
	}

	for _, k := range pooled {
		for _, candidate := range pooled {
			if k != candidate && k.Start < candidate.End {
				m.overlaps[candidate] = append(m.overlaps[candidate], k)
			}
		}
	}
	return m
}

// Keys returns the distinct intervals in first-seen order.
func (m *OverlapMap) Keys() []model.Interval {
	out := make([]model.Interval, len(m.keys))
	copy(out, m.keys)
	return out
}

// Overlaps returns the intervals recorded against key, or nil when key is absent.
func (m *OverlapMap) Overlaps(key model.Interval) []model.Interval {
	list, ok := m.overlaps[key]
	if !ok {
		return nil
	}
	out := make([]model.Interval, len(list))
	copy(out, list)
	return out
}

// Has reports whether key is present.
func (m *OverlapMap) Has(key model.Interval) bool {
	_, ok := m.overlaps[key]
	return ok
}

// Len is the number of distinct keys.
func (m *OverlapMap) Len() int { return len(m.keys) }

// WithPartner counts keys whose overlap list is non-empty.
func (m *OverlapMap) WithPartner() int {
	n := 0
	for _, k := range m.keys {
		if len(m.overlaps[k]) > 0 {
			n++
		}
	}
	return n
}

// StartSum adds up the start of every key.
func (m *OverlapMap) StartSum() int {
	sum := 0
	for _, k := range m.keys {
		sum += k.Start
	}
	return sum
}
