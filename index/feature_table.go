package index

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// AllGroups requests an exclusion from every group of a feature.
const AllGroups = -1

var (
	// ErrAlreadyConfigured is returned when Configure is called twice on the same table
	ErrAlreadyConfigured = errors.New("feature table already configured")

	// ErrInvalidShape is returned when the group count, item count or membership size do not agree
	ErrInvalidShape = errors.New("invalid feature table shape")
)

// FeatureTable records the membership of items in the groups of one
// classification axis. Membership is held as one roaring bitmap per group;
// the sorted member list of each group is derived from it and rebuilt whenever
// membership changes.
type FeatureTable struct {
	mu          sync.Mutex
	configured  bool
	groupCount  int
	itemCount   int
	isPartition bool
	groups      []*roaring.Bitmap
	members     [][]int
	excluded    *roaring.Bitmap // items that lost membership through ApplyExclusions
	pending     []Exclusion
}

// NewFeatureTable returns an unconfigured table.
func NewFeatureTable() *FeatureTable {
	return &FeatureTable{}
}

// Configure sets the shape and membership of the table. membership is an
// item-major matrix: membership[item*groupCount+group]. The table takes
// ownership of the slice. A table can only be configured once.
func (ft *FeatureTable) Configure(groupCount, itemCount int, isPartition bool, membership []bool) error {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	if ft.configured {
		return ErrAlreadyConfigured
	}
	if groupCount <= 0 || itemCount <= 0 {
		return fmt.Errorf("%w: groupCount=%d itemCount=%d", ErrInvalidShape, groupCount, itemCount)
	}
	if len(membership) != groupCount*itemCount {
		return fmt.Errorf("%w: membership has %d cells, expected %d", ErrInvalidShape, len(membership), groupCount*itemCount)
	}

	groups := make([]*roaring.Bitmap, groupCount)
	for g := range groups {
		groups[g] = roaring.New()
	}
	for item := 0; item < itemCount; item++ {
		row := membership[item*groupCount : (item+1)*groupCount]
		for g, in := range row {
			if in {
				groups[g].Add(uint32(item))
			}
		}
	}

	ft.groupCount = groupCount
	ft.itemCount = itemCount
	ft.isPartition = isPartition
	ft.groups = groups
	ft.excluded = roaring.New()
	ft.configured = true
	ft.rebuildMembers()
	return nil
}

// rebuildMembers recomputes the derived per-group member lists. Caller holds mu.
func (ft *FeatureTable) rebuildMembers() {
	members := make([][]int, ft.groupCount)
	for g, bm := range ft.groups {
		list := make([]int, 0, bm.GetCardinality())
		it := bm.Iterator()
		for it.HasNext() {
			list = append(list, int(it.Next()))
		}
		members[g] = list
	}
	ft.members = members
}

// Valid reports whether the table is configured and, for partitions, whether
// every item belongs to exactly one group. Items removed by ApplyExclusions
// may belong to no group.
func (ft *FeatureTable) Valid() bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	if !ft.configured || ft.groupCount <= 0 || ft.itemCount <= 0 {
		return false
	}
	if !ft.isPartition {
		return true
	}
	for item := 0; item < ft.itemCount; item++ {
		n := ft.membershipCount(uint32(item))
		if n == 1 {
			continue
		}
		if n == 0 && ft.excluded.Contains(uint32(item)) {
			continue
		}
		return false
	}
	return true
}

func (ft *FeatureTable) membershipCount(item uint32) int {
	n := 0
	for _, bm := range ft.groups {
		if bm.Contains(item) {
			n++
		}
	}
	return n
}

// Configured reports whether Configure has succeeded.
func (ft *FeatureTable) Configured() bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.configured
}

// GroupCount returns the number of groups.
func (ft *FeatureTable) GroupCount() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.groupCount
}

// ItemCount returns the number of items the table was configured with.
func (ft *FeatureTable) ItemCount() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.itemCount
}

// IsPartition reports whether the table was declared a partition.
func (ft *FeatureTable) IsPartition() bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.isPartition
}

// GroupSize returns the current number of members of group g, or 0 when g is out of range.
func (ft *FeatureTable) GroupSize(g int) int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if g < 0 || g >= len(ft.members) {
		return 0
	}
	return len(ft.members[g])
}

// GroupItems returns the ascending member list of group g. The returned slice
// is shared with the table and must not be modified; it is replaced, never
// mutated, by ApplyExclusions.
func (ft *FeatureTable) GroupItems(g int) []int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if g < 0 || g >= len(ft.members) {
		return nil
	}
	return ft.members[g]
}

// Contains reports whether item is currently a member of group g.
func (ft *FeatureTable) Contains(item, g int) bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if g < 0 || g >= len(ft.groups) || item < 0 || item >= ft.itemCount {
		return false
	}
	return ft.groups[g].Contains(uint32(item))
}

// GroupOf returns the lowest group that item belongs to, or -1.
// For partitions this is the item's only group.
func (ft *FeatureTable) GroupOf(item int) int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if item < 0 || item >= ft.itemCount {
		return -1
	}
	for g, bm := range ft.groups {
		if bm.Contains(uint32(item)) {
			return g
		}
	}
	return -1
}

// GroupLookup returns an item->group slice for a partition table, with -1 for
// items that belong to no group. ok is false when the table is not a
// configured partition or an item sits in more than one group.
func (ft *FeatureTable) GroupLookup() (lookup []int, ok bool) {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	if !ft.configured || !ft.isPartition {
		return nil, false
	}
	lookup = make([]int, ft.itemCount)
	for i := range lookup {
		lookup[i] = -1
	}
	for g, list := range ft.members {
		for _, item := range list {
			if lookup[item] >= 0 {
				return nil, false
			}
			lookup[item] = g
		}
	}
	return lookup, true
}

// Describe renders the membership matrix followed by the member list of each group.
func (ft *FeatureTable) Describe() string {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "NG: %d\n", ft.groupCount)
	fmt.Fprintf(&sb, "NI: %d\n", ft.itemCount)
	for item := 0; item < ft.itemCount; item++ {
		fmt.Fprintf(&sb, "I%5d ", item)
		for _, bm := range ft.groups {
			if bm.Contains(uint32(item)) {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	for g, list := range ft.members {
		fmt.Fprintf(&sb, "G%2d %3d ", g, len(list))
		for _, item := range list {
			fmt.Fprintf(&sb, "%3d ", item)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
