package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gcbaptista/go-collection-search/internal/combo"
)

// groupState is the search state of one primary group.
type groupState struct {
	group    int
	picks    int
	items    []int
	gen      *combo.Generator
	cheapest float32 // sum of the picks lowest costs
	best     float32 // sum of the picks highest values

	// aggregates over the groups visited after this one
	suffixBest     float32
	suffixCheapest float32
	suffixCombos   int64

	offset  int // first slot of this group in the collection buffer
	current int // combination currently selected
}

func newGroupState(group, picks int, items []int, order combo.Order, values, costs []float32) (*groupState, error) {
	if len(items) < picks {
		return nil, fmt.Errorf("group %d has %d items, fewer than its %d picks", group, len(items), picks)
	}

	gen, err := combo.Build(order, picks, items, values, costs)
	if err != nil {
		return nil, fmt.Errorf("group %d: %w", group, err)
	}

	c := make([]float32, len(items))
	v := make([]float32, len(items))
	for i, item := range items {
		c[i] = costs[item]
		v[i] = values[item]
	}
	sort.Slice(c, func(a, b int) bool { return c[a] < c[b] })
	sort.Slice(v, func(a, b int) bool { return v[a] > v[b] })

	st := &groupState{group: group, picks: picks, items: items, gen: gen}
	for i := 0; i < picks; i++ {
		st.cheapest += c[i]
		st.best += v[i]
	}
	return st, nil
}

// describe lists every combination of the group, in search order.
func (st *groupState) describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "------Combos for group %d with ni=%d, np= %d, nc= %d-----\n",
		st.group, len(st.items), st.picks, st.gen.Count())
	for i := 0; i < st.gen.Count(); i++ {
		fmt.Fprintf(&sb, "%d %f %f: [", i, st.gen.Value(i), st.gen.Cost(i))
		for j := 0; j < st.picks; j++ {
			fmt.Fprintf(&sb, "%d ", st.gen.RawIndex(i, j))
		}
		sb.WriteString("] [")
		for j := 0; j < st.picks; j++ {
			fmt.Fprintf(&sb, "%d ", st.gen.Item(i, j))
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}
