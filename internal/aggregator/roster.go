package aggregator

import (
	"sort"

	"github.com/pable/go-cs-zones/internal/model"
)

// Roster indexes the distinct players seen per (team, side). It is built once
// and never modified afterwards.
type Roster struct {
	players map[model.Key][]string
	keys    []model.Key
}

// NewRoster indexes samples that already passed the vertical band filter.
func NewRoster(samples []model.Sample) *Roster {
	sets := make(map[model.Key]map[string]struct{})
	for _, s := range samples {
		k := model.Key{Team: s.Team, Side: s.Side}
		if sets[k] == nil {
			sets[k] = make(map[string]struct{})
		}
		sets[k][s.Player] = struct{}{}
	}

	r := &Roster{players: make(map[model.Key][]string, len(sets))}
	for k, set := range sets {
		names := make([]string, 0, len(set))
		for p := range set {
			names = append(names, p)
		}
		sort.Strings(names)
		r.players[k] = names
		r.keys = append(r.keys, k)
	}
	sort.Slice(r.keys, func(i, j int) bool { return r.keys[i].Less(r.keys[j]) })
	return r
}

// Players returns the sorted players for k, or nil when k was never seen.
func (r *Roster) Players(k model.Key) []string {
	names, ok := r.players[k]
	if !ok {
		return nil
	}
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Keys returns every indexed (team, side), ordered.
func (r *Roster) Keys() []model.Key {
	out := make([]model.Key, len(r.keys))
	copy(out, r.keys)
	return out
}
