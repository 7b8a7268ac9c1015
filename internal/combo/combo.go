// Package combo enumerates every fixed-size subset of a group's members and
// orders them for the search.
package combo

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Order selects how combinations are sorted.
type Order int

const (
	// ByValue sorts combinations by descending aggregate value.
	ByValue Order = iota
	// ByCost sorts combinations by ascending aggregate cost.
	ByCost
)

func (o Order) String() string {
	if o == ByCost {
		return "cost"
	}
	return "value"
}

// MaxEntries caps the number of combinations a single group may produce.
var MaxEntries int64 = 50_000_000

var (
	// ErrTooManyCombinations is returned when a group would produce more than MaxEntries combinations
	ErrTooManyCombinations = errors.New("too many combinations")

	// ErrTooFewMembers is returned when a group has fewer members than picks
	ErrTooFewMembers = errors.New("group has fewer members than picks")
)

// NChooseK returns the binomial coefficient. It returns 0 for negative
// arguments, k > n, or when the result overflows int64.
func NChooseK(n, k int) int64 {
	if n < 0 || k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	var r int64 = 1
	for i := 1; i <= k; i++ {
		// r*(n-k+i)/i is exact at every step
		m := int64(n - k + i)
		if r > math.MaxInt64/m {
			return 0
		}
		r = r * m / int64(i)
	}
	return r
}

// Generator holds the sorted combinations of one group.
type Generator struct {
	order   Order
	picks   int
	members []int
	raw     []int32 // count*picks member positions, row i is combination i
	values  []float32
	costs   []float32
}

// Build enumerates all picks-subsets of members in lexicographic order of
// member position, aggregates value and cost for each, and sorts them by order.
// The sort is stable, so ties keep lexicographic order. With picks == 0 the
// generator holds a single empty combination.
func Build(order Order, picks int, members []int, values, costs []float32) (*Generator, error) {
	if picks < 0 {
		return nil, fmt.Errorf("invalid pick count %d", picks)
	}
	n := len(members)
	if n < picks {
		return nil, fmt.Errorf("%w: %d members, %d picks", ErrTooFewMembers, n, picks)
	}
	for _, item := range members {
		if item < 0 || item >= len(values) || item >= len(costs) {
			return nil, fmt.Errorf("member %d outside item range", item)
		}
	}

	expected := NChooseK(n, picks)
	if expected <= 0 || expected > MaxEntries {
		return nil, fmt.Errorf("%w: C(%d,%d) exceeds %d", ErrTooManyCombinations, n, picks, MaxEntries)
	}

	raw := make([]int32, 0, expected*int64(picks))
	counter := make([]int32, picks)
	for i := range counter {
		counter[i] = int32(i)
	}
	var generated int64
	for {
		raw = append(raw, counter...)
		generated++
		if !next(counter, n) {
			break
		}
	}
	if generated != expected {
		panic(fmt.Sprintf("combo: generated %d combinations, expected C(%d,%d)=%d", generated, n, picks, expected))
	}

	g := &Generator{
		order:   order,
		picks:   picks,
		members: members,
		raw:     raw,
		values:  make([]float32, generated),
		costs:   make([]float32, generated),
	}
	for i := 0; i < int(generated); i++ {
		var v, c float32
		for _, pos := range raw[i*picks : (i+1)*picks] {
			item := members[pos]
			v += values[item]
			c += costs[item]
		}
		g.values[i] = v
		g.costs[i] = c
	}
	g.sort()
	return g, nil
}

// next advances counter to the following combination of positions in [0, n).
// It returns false when counter already holds the last combination.
func next(counter []int32, n int) bool {
	k := len(counter)
	for i := k - 1; i >= 0; i-- {
		if int(counter[i]) >= n-k+i {
			continue
		}
		counter[i]++
		for j := i + 1; j < k; j++ {
			counter[j] = counter[i] + int32(j-i)
		}
		return true
	}
	return false
}

func (g *Generator) sort() {
	perm := make([]int, len(g.values))
	for i := range perm {
		perm[i] = i
	}
	if g.order == ByCost {
		sort.SliceStable(perm, func(a, b int) bool { return g.costs[perm[a]] < g.costs[perm[b]] })
	} else {
		sort.SliceStable(perm, func(a, b int) bool { return g.values[perm[a]] > g.values[perm[b]] })
	}

	raw := make([]int32, len(g.raw))
	values := make([]float32, len(g.values))
	costs := make([]float32, len(g.costs))
	for dst, src := range perm {
		copy(raw[dst*g.picks:(dst+1)*g.picks], g.raw[src*g.picks:(src+1)*g.picks])
		values[dst] = g.values[src]
		costs[dst] = g.costs[src]
	}
	g.raw, g.values, g.costs = raw, values, costs
}

// Count returns the number of combinations.
func (g *Generator) Count() int { return len(g.values) }

// Picks returns the subset size.
func (g *Generator) Picks() int { return g.picks }

// Order returns the sort order used by Build.
func (g *Generator) Order() Order { return g.order }

// Value returns the aggregate value of combination i.
func (g *Generator) Value(i int) float32 { return g.values[i] }

// Cost returns the aggregate cost of combination i.
func (g *Generator) Cost(i int) float32 { return g.costs[i] }

// Item returns the item id at slot j of combination i.
func (g *Generator) Item(i, j int) int { return g.members[g.raw[i*g.picks+j]] }

// RawIndex returns the member position at slot j of combination i.
func (g *Generator) RawIndex(i, j int) int { return int(g.raw[i*g.picks+j]) }

// Items copies the item ids of combination i into dst and returns it.
func (g *Generator) Items(i int, dst []int) []int {
	dst = dst[:0]
	for _, pos := range g.raw[i*g.picks : (i+1)*g.picks] {
		dst = append(dst, g.members[pos])
	}
	return dst
}
