package search

import (
	"fmt"
	"math"
	"strings"
)

// Counters tallies the outcome of every candidate the search touched.
// Pruned counts all candidates removed by any rule; strict and weak prunes
// count whole subtrees.
type Counters struct {
	Added            int64   `json:"added"`
	Analyzed         int64   `json:"analyzed"`
	Pruned           int64   `json:"pruned_total"`
	PrunedStrict     int64   `json:"pruned_strict"`
	PrunedWeak       int64   `json:"pruned_weak"`
	PrunedCantAdd    int64   `json:"pruned_cant_add"`
	PrunedDuplicate  int64   `json:"pruned_duplicate"`
	PrunedConstraint int64   `json:"pruned_constraint"`
	PerConstraint    []int64 `json:"pruned_per_constraint"`
}

// Names returns the counter names in report order. Per-constraint counters
// are numbered from 1.
func (c Counters) Names() []string {
	names := []string{
		"Added",
		"Analyzed",
		"PrunedTotal",
		"PrunedStrict",
		"PrunedWeak",
		"PrunedCantAdd",
		"PrunedDup",
		"PrunedTotConst",
	}
	for i := range c.PerConstraint {
		names = append(names, fmt.Sprintf("PrunedConst%d", i+1))
	}
	return names
}

// Values returns the counter values in the order of Names.
func (c Counters) Values() []int64 {
	values := []int64{
		c.Added,
		c.Analyzed,
		c.Pruned,
		c.PrunedStrict,
		c.PrunedWeak,
		c.PrunedCantAdd,
		c.PrunedDuplicate,
		c.PrunedConstraint,
	}
	return append(values, c.PerConstraint...)
}

// String renders one "name: value" line per counter.
func (c Counters) String() string {
	var sb strings.Builder
	values := c.Values()
	for i, name := range c.Names() {
		fmt.Fprintf(&sb, "%s: %d\n", name, values[i])
	}
	return sb.String()
}

func addSat(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func mulSat(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt64/b {
		return math.MaxInt64
	}
	return a * b
}
