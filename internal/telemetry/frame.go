// Package telemetry provides the already-loaded sample collection the
// analytics run against, and loaders that materialize it from files.
package telemetry

import (
	"sort"

	"github.com/pable/go-cs-zones/internal/model"
)

// Filter selects samples by equality. Zero-valued fields match anything
// unless Exact is set, in which case every field is compared as given, so an
// empty Area only matches samples with no area name.
type Filter struct {
	Team      string
	Side      model.Side
	Player    string
	Area      string
	AliveOnly bool
	Exact     bool
}

// Match reports whether s satisfies f.
func (f Filter) Match(s *model.Sample) bool {
	if !f.field(f.Team, s.Team) || !f.field(string(f.Side), string(s.Side)) ||
		!f.field(f.Player, s.Player) || !f.field(f.Area, s.AreaName) {
		return false
	}
	return !f.AliveOnly || s.IsAlive
}

func (f Filter) field(want, got string) bool {
	if want == "" && !f.Exact {
		return true
	}
	return want == got
}

// Frame is an immutable in-memory sample collection.
type Frame struct {
	samples []model.Sample
}

// NewFrame copies samples into a Frame.
func NewFrame(samples []model.Sample) *Frame {
	cp := make([]model.Sample, len(samples))
	copy(cp, samples)
	return &Frame{samples: cp}
}

// Len returns the number of samples.
func (f *Frame) Len() int { return len(f.samples) }

// Samples returns a copy of every sample in load order.
func (f *Frame) Samples() []model.Sample {
	out := make([]model.Sample, len(f.samples))
	copy(out, f.samples)
	return out
}

// Select returns the samples matching flt, preserving load order.
func (f *Frame) Select(flt Filter) []model.Sample {
	var out []model.Sample
	for i := range f.samples {
		if flt.Match(&f.samples[i]) {
			out = append(out, f.samples[i])
		}
	}
	return out
}

// WithinZ returns the samples whose vertical coordinate lies in [zMin, zMax].
func (f *Frame) WithinZ(zMin, zMax float64) []model.Sample {
	var out []model.Sample
	for _, s := range f.samples {
		if s.Pos.Z >= zMin && s.Pos.Z <= zMax {
			out = append(out, s)
		}
	}
	return out
}

// Keys returns the distinct (team, side) pairs, ordered.
func (f *Frame) Keys() []model.Key {
	seen := make(map[model.Key]struct{})
	for _, s := range f.samples {
		seen[model.Key{Team: s.Team, Side: s.Side}] = struct{}{}
	}
	keys := make([]model.Key, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// AreaCount is the number of samples recorded in one named area.
type AreaCount struct {
	Area    string
	Samples int
}

// AreaCounts returns per-area sample counts, most populated first.
func (f *Frame) AreaCounts() []AreaCount {
	counts := make(map[string]int)
	for _, s := range f.samples {
		counts[s.AreaName]++
	}
	out := make([]AreaCount, 0, len(counts))
	for a, n := range counts {
		out = append(out, AreaCount{Area: a, Samples: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Samples != out[j].Samples {
			return out[i].Samples > out[j].Samples
		}
		return out[i].Area < out[j].Area
	})
	return out
}
