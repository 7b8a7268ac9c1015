package problem

import (
	"math"
	"sort"

	internalErrors "github.com/gcbaptista/go-collection-search/internal/errors"
)

// Cull drops dominated items from each primary group and returns the number
// of (item, group) exclusions made.
//
// Within a group, items are visited by descending value. Item i is dropped from
// the group when picks[g]+ExtraKeep earlier items cost no more than i and are
// worth more than value(i)*(1+ItemTolerance). An item shared by overlapping
// groups is judged per group, so a dominator chosen for another group can
// leave a slot the dropped item could have filled; ExtraKeep tunes that.
// Exclusions are queued per group and applied together after the scan.
func (p *Problem) Cull() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized || p.costs == nil {
		return 0, internalErrors.ErrNotConfigured
	}
	pf := p.features[p.primary]
	if !pf.Configured() {
		return 0, internalErrors.ErrNotConfigured
	}

	total := 0
	for g := 0; g < pf.GroupCount(); g++ {
		order := append([]int(nil), pf.GroupItems(g)...)
		sort.SliceStable(order, func(a, b int) bool {
			return p.values[order[a]] > p.values[order[b]]
		})

		keep := p.picks[g] + p.params.ExtraKeep
		for i, item := range order {
			cost := p.costs[item]
			threshold := p.values[item] * (1 + p.params.ItemTolerance)
			dominators := 0
			for _, other := range order[:i] {
				if p.costs[other] > cost {
					continue
				}
				if p.values[other] <= threshold {
					break
				}
				dominators++
				if dominators >= keep {
					pf.RequestExclude(item, g)
					total++
					break
				}
			}
		}
	}
	pf.ApplyExclusions()
	return total, nil
}

// EstimateStateSpace returns log10 of the number of unfiltered collections,
// the product over primary groups of C(groupSize, picks). It returns -1 when a
// group holds fewer items than its pick count or the problem is not configured.
func (p *Problem) EstimateStateSpace() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return -1
	}
	pf := p.features[p.primary]
	if !pf.Configured() {
		return -1
	}
	x := 0.0
	for g, k := range p.picks {
		if k <= 0 {
			continue
		}
		n := pf.GroupSize(g)
		if n < k {
			return -1
		}
		for j := 0; j < k; j++ {
			x += math.Log10(float64(n-j)) - math.Log10(float64(j+1))
		}
	}
	return x
}
