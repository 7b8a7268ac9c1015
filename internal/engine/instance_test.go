package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gcbaptista/go-collection-search/config"
	"github.com/gcbaptista/go-collection-search/internal/constraint"
	internalErrors "github.com/gcbaptista/go-collection-search/internal/errors"
	"github.com/gcbaptista/go-collection-search/internal/search"
	"github.com/gcbaptista/go-collection-search/model"
)

// sixItemDefinition is two groups {a,b,c} and {d,e,f}, one pick each, unit
// costs and a budget of 2.
func sixItemDefinition(name string) model.ProblemDefinition {
	return model.ProblemDefinition{
		Name:    name,
		Picks:   []int{1, 1},
		MaxCost: 2,
		Features: []model.FeatureDefinition{{
			Groups:     2,
			Partition:  true,
			Membership: [][]int{{0}, {0}, {0}, {1}, {1}, {1}},
		}},
		Items: []model.ItemDefinition{
			{ID: "a", Cost: 1, Value: 5},
			{ID: "b", Cost: 1, Value: 4},
			{ID: "c", Cost: 1, Value: 3},
			{ID: "d", Cost: 1, Value: 6},
			{ID: "e", Cost: 1, Value: 2},
			{ID: "f", Cost: 1, Value: 1},
		},
	}
}

func TestProblemInstanceBuildSequence(t *testing.T) {
	pi := NewProblemInstance("manual", nil)
	require.NoError(t, pi.InitStructure(2, 0, []int{1, 1}, 4, 10, 1))
	require.NoError(t, pi.InitParameters(config.SearchParameters{CollectionTolerance: 1, ItemTolerance: 0.5, ExtraKeep: 1}))
	require.NoError(t, pi.InitFeature(0, 2, true, [][]int{{0}, {0}, {1}, {1}}))
	require.NoError(t, pi.InitFeature(1, 2, false, [][]int{{0, 1}, {}, {1}, {0}}))
	require.NoError(t, pi.InitItems([]float32{1, 1, 1, 1}, []float32{4, 3, 2, 1}))
	require.NoError(t, pi.SetConstraint(0, constraint.TypeMinGroupCoverage, []int{0, 2}))
	require.NoError(t, pi.SetCostRoundingTolerance(0.5))

	assert.Equal(t, config.DefaultBlockSize, pi.Problem().Parameters().BlockSize, "zero block size takes the default")
	require.NoError(t, pi.LockAndLoad())
	assert.Equal(t, 2, pi.CollectionLength())

	_, err := pi.Execute(0)
	require.NoError(t, err)
	assert.Equal(t, 4, pi.PrepareResults())

	err = pi.InitFeature(1, 2, false, [][]int{{0}})
	assert.ErrorIs(t, err, internalErrors.ErrInvalidInput)
	assert.ErrorIs(t, pi.InitFeature(1, 2, false, [][]int{{0}, {5}, {0}, {0}}), internalErrors.ErrInvalidInput)
}

func TestProblemInstanceExecuteAndPage(t *testing.T) {
	pi, err := BuildInstance(sixItemDefinition("six"), config.DefaultSearchParameters(), zaptest.NewLogger(t))
	require.NoError(t, err)

	counters, err := pi.Execute(0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counters.Added)
	_, culled := pi.LastCounters()
	assert.Equal(t, 1, culled, "f is dominated by d and e")

	n := pi.PrepareResults()
	require.Equal(t, 3, n)

	items := [][]int{make([]int, 2), make([]int, 2)}
	values := make([]float32, 2)
	assert.Equal(t, 2, pi.GetResults(2, items, values))
	assert.Equal(t, []float32{11, 10}, values)
	assert.ElementsMatch(t, []int{0, 3}, items[0])
	assert.Equal(t, 1, pi.GetResults(2, items, values))
	assert.Equal(t, float32(9), values[0])
	assert.Equal(t, 0, pi.GetResults(2, items, values))
	assert.Equal(t, -1, pi.GetResults(0, items, values))
	assert.Equal(t, -1, pi.GetResults(3, items, values), "buffers too small")

	page := pi.Collections(1, 5)
	require.Len(t, page, 2)
	assert.Equal(t, 2, page[0].Rank)
	assert.Equal(t, float32(10), page[0].Value)
	assert.Equal(t, float32(2), page[0].Cost)
	assert.ElementsMatch(t, []string{"b", "d"}, page[0].ItemIDs)

	_, err = pi.Execute(0)
	assert.ErrorIs(t, err, ErrAlreadyExecuted)

	require.NoError(t, pi.ResetResults())
	assert.False(t, pi.Executed())
	assert.Equal(t, 0, pi.PrepareResults())
	_, err = pi.Execute(0)
	require.NoError(t, err)
	assert.Equal(t, 3, pi.PrepareResults())
}

func TestProblemInstanceVerbosityIsObservational(t *testing.T) {
	quiet, err := BuildInstance(sixItemDefinition("quiet"), config.DefaultSearchParameters(), nil)
	require.NoError(t, err)
	loud, err := BuildInstance(sixItemDefinition("loud"), config.DefaultSearchParameters(), zaptest.NewLogger(t))
	require.NoError(t, err)

	c1, err := quiet.Execute(0)
	require.NoError(t, err)
	c2, err := loud.Execute(127)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
	assert.Equal(t, quiet.Collections(0, 10), loud.Collections(0, 10))
}

func TestProblemInstanceNotLoaded(t *testing.T) {
	pi := NewProblemInstance("empty", nil)
	_, err := pi.Execute(search.VerboseStats)
	assert.ErrorIs(t, err, internalErrors.ErrNotLoaded)
	assert.Equal(t, 0, pi.PrepareResults())
	assert.Equal(t, -1, pi.GetResults(1, [][]int{{0}}, []float32{0}))
	assert.Nil(t, pi.Collections(0, 10))
	assert.Equal(t, float64(-1), pi.EstimateStateSpace())
}

func TestProblemInstanceRelease(t *testing.T) {
	def := sixItemDefinition("released")
	params := config.DefaultSearchParameters()
	params.SearchMode = config.ModeCostGroupsAscending
	def.Parameters = &params

	pi, err := BuildInstance(def, config.DefaultSearchParameters(), nil)
	require.NoError(t, err)
	_, err = pi.Execute(0)
	require.NoError(t, err)

	pi.Release()
	summary := pi.Summary()
	assert.False(t, summary.Loaded)
	assert.False(t, summary.Executed)
	assert.Equal(t, 0, summary.ItemCount)
	assert.Equal(t, config.ModeCostGroupsAscending, pi.Problem().Parameters().SearchMode)
}

func TestProblemInstanceUserConstraintAfterReset(t *testing.T) {
	def := sixItemDefinition("custom")
	def.Constraints = []model.ConstraintDefinition{{Type: "maxitem", Args: []int{0, 1}}}
	pi, err := BuildInstance(def, config.DefaultSearchParameters(), nil)
	require.NoError(t, err)
	_, err = pi.Execute(0)
	require.NoError(t, err)

	require.NoError(t, pi.ResetResults())
	require.NoError(t, pi.RemoveConstraint(0))
	require.NoError(t, pi.SetUserConstraint(0, &excludeItem{item: 0}))
	require.NoError(t, pi.LockAndLoad())
	_, err = pi.Execute(0)
	require.NoError(t, err)

	for _, c := range pi.Collections(0, 10) {
		assert.NotContains(t, c.Items, 0)
	}
	assert.Equal(t, float32(10), pi.Collections(0, 1)[0].Value)
}

type excludeItem struct{ item int }

func (c *excludeItem) Init() error { return nil }
func (c *excludeItem) Test(items []int) bool {
	for _, it := range items {
		if it == c.item {
			return false
		}
	}
	return true
}
func (c *excludeItem) Valid() bool      { return true }
func (c *excludeItem) Reset()           {}
func (c *excludeItem) Describe() string { return "exclude" }
func (c *excludeItem) TypeID() int      { return 99 }

// initOnce accepts its first Init and refuses every later one. Test panics
// unless the last Init succeeded.
type initOnce struct {
	inits int
	ready bool
}

func (c *initOnce) Init() error {
	c.inits++
	if c.inits > 1 {
		return assert.AnError
	}
	c.ready = true
	return nil
}
func (c *initOnce) Test(items []int) bool {
	if !c.ready {
		panic("Test called before Init")
	}
	return true
}
func (c *initOnce) Valid() bool      { return c.ready }
func (c *initOnce) Reset()           { c.ready = false }
func (c *initOnce) Describe() string { return "init once" }
func (c *initOnce) TypeID() int      { return 98 }

func TestProblemInstanceExecuteStopsWhenConstraintInitFails(t *testing.T) {
	def := sixItemDefinition("reinit")
	def.Constraints = []model.ConstraintDefinition{{Type: "maxitem", Args: []int{0, 1}}}
	pi, err := BuildInstance(def, config.DefaultSearchParameters(), nil)
	require.NoError(t, err)

	require.NoError(t, pi.RemoveConstraint(0))
	c := &initOnce{}
	require.NoError(t, pi.SetUserConstraint(0, c))
	require.NoError(t, pi.LockAndLoad())
	require.Equal(t, 1, c.inits)

	var counters search.Counters
	assert.NotPanics(t, func() { counters, err = pi.Execute(0) })
	require.Error(t, err)
	assert.ErrorIs(t, err, internalErrors.ErrInvalidInput)
	assert.Equal(t, int64(0), counters.Analyzed)
	assert.False(t, pi.Executed())
	assert.Equal(t, 0, pi.PrepareResults())
}
