package constraint

// MinGroupCoverage passes when a collection touches at least minGroups
// distinct groups of a partition feature.
type MinGroupCoverage struct {
	groupCounter
	seen []uint32 // generation stamp per group
	gen  uint32
}

// NewMinGroupCoverage creates an uninitialized MinGroupCoverage constraint.
func NewMinGroupCoverage(src GroupSource, feature, minGroups int) *MinGroupCoverage {
	return &MinGroupCoverage{groupCounter: groupCounter{src: src, feature: feature, threshold: minGroups}}
}

// Init builds the item->group lookup and the per-group stamps.
func (c *MinGroupCoverage) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.init(); err != nil {
		return err
	}
	c.seen = make([]uint32, c.groups)
	c.gen = 0
	return nil
}

// Test reports whether items touch at least minGroups distinct groups,
// stopping as soon as they do. It neither allocates nor locks, and must only
// run after a successful Init.
func (c *MinGroupCoverage) Test(items []int) bool {
	if c.lookup == nil {
		return false
	}
	c.gen++
	if c.gen == 0 {
		// stamp wrapped
		for i := range c.seen {
			c.seen[i] = 0
		}
		c.gen = 1
	}
	distinct := 0
	for _, item := range items {
		g := c.groupOf(item)
		if g < 0 {
			return false
		}
		if c.seen[g] == c.gen {
			continue
		}
		c.seen[g] = c.gen
		distinct++
		if distinct >= c.threshold {
			return true
		}
	}
	return false
}

// Valid reports whether Init succeeded against the current membership.
func (c *MinGroupCoverage) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valid() && len(c.seen) == c.groups
}

// Reset drops the lookup and stamps; Init must run again before Test.
func (c *MinGroupCoverage) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
	c.seen = nil
}

// Describe renders the constraint type, feature and threshold.
func (c *MinGroupCoverage) Describe() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.describe(TypeMinGroupCoverage)
}

// TypeID returns TypeMinGroupCoverage.
func (c *MinGroupCoverage) TypeID() int { return TypeMinGroupCoverage }
