package constraint

// MaxPerGroup fails a collection holding more than maxCount items from any
// single group of a partition feature.
type MaxPerGroup struct {
	groupCounter
	counts []int
}

// NewMaxPerGroup creates an uninitialized MaxPerGroup constraint.
func NewMaxPerGroup(src GroupSource, feature, maxCount int) *MaxPerGroup {
	return &MaxPerGroup{groupCounter: groupCounter{src: src, feature: feature, threshold: maxCount}}
}

// Init builds the item->group lookup and one counter per group.
func (c *MaxPerGroup) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.init(); err != nil {
		return err
	}
	c.counts = make([]int, c.groups)
	return nil
}

// Test reports whether no group holds more than maxCount of items. It neither
// allocates nor locks, and must only run after a successful Init.
func (c *MaxPerGroup) Test(items []int) bool {
	if c.lookup == nil {
		return false
	}
	for i := range c.counts {
		c.counts[i] = 0
	}
	for _, item := range items {
		g := c.groupOf(item)
		if g < 0 {
			return false
		}
		c.counts[g]++
		if c.counts[g] > c.threshold {
			return false
		}
	}
	return true
}

// Valid reports whether Init succeeded against the current membership.
func (c *MaxPerGroup) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valid() && len(c.counts) == c.groups
}

// Reset drops the lookup and counters; Init must run again before Test.
func (c *MaxPerGroup) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
	c.counts = nil
}

// Describe renders the constraint type, feature and threshold.
func (c *MaxPerGroup) Describe() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.describe(TypeMaxPerGroup)
}

// TypeID returns TypeMaxPerGroup.
func (c *MaxPerGroup) TypeID() int { return TypeMaxPerGroup }
