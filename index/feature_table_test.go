package index

import (
	"errors"
	"strings"
	"testing"
)

// twoGroupPartition builds items 0..5 split {0,1,2} / {3,4,5}.
func twoGroupPartition() []bool {
	m := make([]bool, 6*2)
	for item := 0; item < 6; item++ {
		g := 0
		if item >= 3 {
			g = 1
		}
		m[item*2+g] = true
	}
	return m
}

func TestConfigure(t *testing.T) {
	ft := NewFeatureTable()
	if err := ft.Configure(2, 6, true, twoGroupPartition()); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	if ft.GroupCount() != 2 || ft.ItemCount() != 6 || !ft.IsPartition() {
		t.Errorf("unexpected shape: groups=%d items=%d partition=%v", ft.GroupCount(), ft.ItemCount(), ft.IsPartition())
	}
	if got := ft.GroupItems(1); len(got) != 3 || got[0] != 3 || got[2] != 5 {
		t.Errorf("expected group 1 to be [3 4 5], got %v", got)
	}
	if !ft.Valid() {
		t.Error("expected partition to be valid")
	}

	if err := ft.Configure(2, 6, true, twoGroupPartition()); !errors.Is(err, ErrAlreadyConfigured) {
		t.Errorf("expected ErrAlreadyConfigured on second Configure, got %v", err)
	}
}

func TestConfigureRejectsBadShape(t *testing.T) {
	tests := []struct {
		name       string
		groups     int
		items      int
		membership []bool
	}{
		{"zero groups", 0, 3, nil},
		{"zero items", 2, 0, nil},
		{"short membership", 2, 3, make([]bool, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := NewFeatureTable()
			if err := ft.Configure(tt.groups, tt.items, false, tt.membership); !errors.Is(err, ErrInvalidShape) {
				t.Errorf("expected ErrInvalidShape, got %v", err)
			}
			if ft.Configured() {
				t.Error("table should stay unconfigured")
			}
		})
	}
}

func TestPartitionValidity(t *testing.T) {
	m := twoGroupPartition()
	m[0*2+1] = true // item 0 in both groups

	ft := NewFeatureTable()
	if err := ft.Configure(2, 6, true, m); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if ft.Valid() {
		t.Error("item in two groups must invalidate a partition")
	}
	if _, ok := ft.GroupLookup(); ok {
		t.Error("GroupLookup should fail for an overlapping table")
	}

	overlap := NewFeatureTable()
	if err := overlap.Configure(2, 6, false, m); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if !overlap.Valid() {
		t.Error("non-partition tables allow overlap")
	}
}

func TestApplyExclusions(t *testing.T) {
	ft := NewFeatureTable()
	if err := ft.Configure(2, 6, true, twoGroupPartition()); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	ft.RequestExclude(1, 0)
	ft.RequestExclude(4, AllGroups)
	ft.RequestExclude(99, 0) // ignored

	if ft.GroupSize(0) != 3 {
		t.Error("exclusions must not apply before ApplyExclusions")
	}
	if ft.PendingExclusions() != 3 {
		t.Errorf("expected 3 pending exclusions, got %d", ft.PendingExclusions())
	}

	ft.ApplyExclusions()

	if ft.PendingExclusions() != 0 {
		t.Error("queue should be empty after ApplyExclusions")
	}
	if got := ft.GroupItems(0); len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("expected group 0 to be [0 2], got %v", got)
	}
	if got := ft.GroupItems(1); len(got) != 2 || got[0] != 3 || got[1] != 5 {
		t.Errorf("expected group 1 to be [3 5], got %v", got)
	}
	if ft.Contains(1, 0) || ft.GroupOf(4) != -1 {
		t.Error("excluded items should have lost membership")
	}
	if !ft.Valid() {
		t.Error("a culled partition stays valid")
	}

	lookup, ok := ft.GroupLookup()
	if !ok {
		t.Fatal("GroupLookup failed on culled partition")
	}
	if lookup[1] != -1 || lookup[0] != 0 || lookup[5] != 1 {
		t.Errorf("unexpected lookup %v", lookup)
	}
}

func TestDescribe(t *testing.T) {
	ft := NewFeatureTable()
	if err := ft.Configure(2, 6, true, twoGroupPartition()); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	out := ft.Describe()
	if !strings.HasPrefix(out, "NG: 2\nNI: 6\n") {
		t.Errorf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "I    3 .1") {
		t.Errorf("expected matrix row for item 3, got:\n%s", out)
	}
}
