package constraint

import (
	"fmt"
	"sync"
)

// groupCounter holds what both built-ins share: the referenced partition
// feature and the item->group lookup built from it.
type groupCounter struct {
	mu         sync.Mutex
	src        GroupSource
	feature    int
	threshold  int
	collection int
	items      int
	groups     int
	lookup     []int // item -> group, -1 for items the feature no longer holds
}

func (gc *groupCounter) init() error {
	if gc.lookup != nil {
		return fmt.Errorf("%w: already initialized", ErrNotInitialized)
	}
	if gc.threshold <= 0 {
		return fmt.Errorf("%w: threshold %d must be positive", ErrNotInitialized, gc.threshold)
	}
	gc.collection = gc.src.CollectionSize()
	if gc.collection <= 0 {
		return fmt.Errorf("%w: collection size is %d", ErrNotInitialized, gc.collection)
	}
	gc.items = gc.src.ItemCount()
	if gc.items <= 0 {
		return fmt.Errorf("%w: item count is %d", ErrNotInitialized, gc.items)
	}
	if gc.feature < 0 || gc.feature >= gc.src.FeatureCount() {
		return fmt.Errorf("%w: feature %d out of range", ErrNotInitialized, gc.feature)
	}
	ft := gc.src.Feature(gc.feature)
	if ft == nil {
		return fmt.Errorf("%w: feature %d not configured", ErrNotInitialized, gc.feature)
	}
	lookup, ok := ft.GroupLookup()
	if !ok {
		return fmt.Errorf("%w: feature %d is not a partition", ErrNotInitialized, gc.feature)
	}
	if len(lookup) != gc.items {
		return fmt.Errorf("%w: feature %d covers %d items, problem has %d", ErrNotInitialized, gc.feature, len(lookup), gc.items)
	}
	gc.groups = ft.GroupCount()
	gc.lookup = lookup
	return nil
}

func (gc *groupCounter) valid() bool {
	if gc.src == nil || gc.lookup == nil || gc.threshold <= 0 {
		return false
	}
	if gc.collection <= 0 || gc.items <= 0 || gc.groups <= 0 {
		return false
	}
	return gc.feature >= 0 && gc.feature < gc.src.FeatureCount()
}

func (gc *groupCounter) reset() {
	gc.lookup = nil
	gc.collection = 0
	gc.items = 0
	gc.groups = 0
}

func (gc *groupCounter) describe(typeID int) string {
	return fmt.Sprintf("type=%d clen=%d ni=%d fn=%d ng=%d cnt=%d",
		typeID, gc.collection, gc.items, gc.feature, gc.groups, gc.threshold)
}

// groupOf returns the group of item, or -1 when the item is unknown.
func (gc *groupCounter) groupOf(item int) int {
	if item < 0 || item >= len(gc.lookup) {
		return -1
	}
	return gc.lookup[item]
}
