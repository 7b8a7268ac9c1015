package index

// Exclusion is a queued request to drop Item from Group (or from every group
// when Group is AllGroups).
type Exclusion struct {
	Item  int
	Group int
}

// RequestExclude queues an exclusion. Nothing changes until ApplyExclusions.
func (ft *FeatureTable) RequestExclude(item, group int) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.pending = append(ft.pending, Exclusion{Item: item, Group: group})
}

// PendingExclusions returns the number of queued exclusion requests.
func (ft *FeatureTable) PendingExclusions() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return len(ft.pending)
}

// ApplyExclusions clears the membership bits of every queued request, empties
// the queue and rebuilds the derived member lists. Out-of-range requests are
// ignored. The change cannot be undone.
func (ft *FeatureTable) ApplyExclusions() {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	if !ft.configured {
		ft.pending = nil
		return
	}
	for _, ex := range ft.pending {
		if ex.Item < 0 || ex.Item >= ft.itemCount {
			continue
		}
		item := uint32(ex.Item)
		switch {
		case ex.Group == AllGroups:
			for _, bm := range ft.groups {
				bm.Remove(item)
			}
		case ex.Group >= 0 && ex.Group < ft.groupCount:
			ft.groups[ex.Group].Remove(item)
		default:
			continue
		}
		ft.excluded.Add(item)
	}
	ft.pending = nil
	ft.rebuildMembers()
}
