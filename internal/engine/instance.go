package engine

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-collection-search/config"
	"github.com/gcbaptista/go-collection-search/internal/constraint"
	internalErrors "github.com/gcbaptista/go-collection-search/internal/errors"
	"github.com/gcbaptista/go-collection-search/internal/problem"
	"github.com/gcbaptista/go-collection-search/internal/search"
	"github.com/gcbaptista/go-collection-search/model"
)

// ErrAlreadyExecuted is returned by Execute when the store already holds the
// results of an earlier run. ResetResults clears the way for another one.
var ErrAlreadyExecuted = errors.New("problem already executed, reset results first")

// ProblemInstance is the call surface of one problem: the multi-step build,
// lock-and-load, execute, result paging and release. Builder and paging calls
// are safe for concurrent use; Execute holds the run lock for its duration so
// a problem never has two searches in flight.
type ProblemInstance struct {
	run sync.Mutex // held by Execute and every structural change

	name       string
	problem    *problem.Problem
	definition *model.ProblemDefinition
	log        *zap.Logger

	mu       sync.RWMutex
	itemIDs  []string
	executed bool
	culled   int
	counters search.Counters
}

// NewProblemInstance creates an empty, unconfigured problem.
func NewProblemInstance(name string, logger *zap.Logger) *ProblemInstance {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProblemInstance{
		name:    name,
		problem: problem.New(),
		log:     logger.With(zap.String("problem", name)),
	}
}

// Name returns the problem name.
func (pi *ProblemInstance) Name() string { return pi.name }

// Problem returns the underlying problem.
func (pi *ProblemInstance) Problem() *problem.Problem { return pi.problem }

// InitStructure fixes the feature count, primary feature, pick schedule,
// item count, budget and number of constraint slots.
func (pi *ProblemInstance) InitStructure(featureCount, primary int, picks []int, itemCount int, maxCost float32, constraintCount int) error {
	pi.run.Lock()
	defer pi.run.Unlock()
	return pi.problem.Init(featureCount, primary, picks, itemCount, maxCost, constraintCount)
}

// InitParameters replaces the tuning parameters. Zero block size and search
// mode take their defaults.
func (pi *ProblemInstance) InitParameters(params config.SearchParameters) error {
	pi.run.Lock()
	defer pi.run.Unlock()
	params.ApplyDefaults()
	return pi.problem.SetParameters(params)
}

// InitFeature configures feature fn from per-item group lists.
func (pi *ProblemInstance) InitFeature(fn, groupCount int, isPartition bool, membership [][]int) error {
	pi.run.Lock()
	defer pi.run.Unlock()

	if groupCount <= 0 {
		return internalErrors.NewValidationError("group_count", fmt.Sprintf("must be positive, got %d", groupCount))
	}
	if n := pi.problem.ItemCount(); len(membership) != n {
		return internalErrors.NewValidationError("membership", fmt.Sprintf("%d rows for %d items", len(membership), n))
	}
	matrix := make([]bool, len(membership)*groupCount)
	for item, groups := range membership {
		for _, g := range groups {
			if g < 0 || g >= groupCount {
				return internalErrors.NewValidationError("membership", fmt.Sprintf("item %d: group %d out of range", item, g))
			}
			matrix[item*groupCount+g] = true
		}
	}
	return pi.problem.SetFeature(fn, groupCount, isPartition, matrix)
}

// InitItems sets the per-item costs and values.
func (pi *ProblemInstance) InitItems(costs, values []float32) error {
	pi.run.Lock()
	defer pi.run.Unlock()
	return pi.problem.InitItems(costs, values)
}

// SetItemIDs attaches external ids, reported with every collection.
func (pi *ProblemInstance) SetItemIDs(ids []string) {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	pi.itemIDs = append([]string(nil), ids...)
}

// SetConstraint installs a built-in constraint in slot cn.
func (pi *ProblemInstance) SetConstraint(cn, typeID int, args []int) error {
	pi.run.Lock()
	defer pi.run.Unlock()
	return pi.problem.SetConstraintType(cn, typeID, args)
}

// SetUserConstraint installs a caller-supplied constraint in slot cn.
func (pi *ProblemInstance) SetUserConstraint(cn int, c constraint.Constraint) error {
	pi.run.Lock()
	defer pi.run.Unlock()
	return pi.problem.SetConstraint(cn, c)
}

// RemoveConstraint empties slot cn.
func (pi *ProblemInstance) RemoveConstraint(cn int) error {
	pi.run.Lock()
	defer pi.run.Unlock()
	return pi.problem.RemoveConstraint(cn)
}

// SetCostRoundingTolerance sets the slack added to the budget.
func (pi *ProblemInstance) SetCostRoundingTolerance(tol float32) error {
	pi.run.Lock()
	defer pi.run.Unlock()
	return pi.problem.SetCostRoundingTolerance(tol)
}

// LockAndLoad validates the structure, initializes the constraints, validates
// again with the constraints and creates the result store. On failure no
// store is created and the constraints are left reset.
func (pi *ProblemInstance) LockAndLoad() error {
	pi.run.Lock()
	defer pi.run.Unlock()
	if err := pi.problem.Load(); err != nil {
		pi.log.Warn("lock and load failed", zap.Error(err))
		return err
	}
	return nil
}

// Execute culls dominated items, re-initializes the constraints against the
// culled membership and runs the search. Verbosity only adds log output.
func (pi *ProblemInstance) Execute(verbosity search.Verbosity) (search.Counters, error) {
	pi.run.Lock()
	defer pi.run.Unlock()

	p := pi.problem
	if !p.Loaded() {
		return search.Counters{}, internalErrors.ErrNotLoaded
	}
	pi.mu.RLock()
	executed := pi.executed
	pi.mu.RUnlock()
	if executed {
		return search.Counters{}, ErrAlreadyExecuted
	}

	if verbosity.Has(search.VerboseConfig) {
		pi.log.Info("configuration", zap.String("dump", p.Describe()))
	}
	if verbosity.Has(search.VerboseStats) {
		pi.log.Info("state space before cull", zap.Float64("log10", p.EstimateStateSpace()))
	}
	if verbosity.Has(search.VerboseFeatures) {
		pi.log.Info("features before cull", zap.String("dump", p.DescribeFeatures()))
	}

	culled, err := p.Cull()
	if err != nil {
		return search.Counters{}, internalErrors.NewSearchError(pi.name, err)
	}

	if verbosity.Has(search.VerboseFeatures) {
		pi.log.Info("features after cull", zap.Int("culled", culled), zap.String("dump", p.DescribeFeatures()))
	}
	if err := p.InitConstraints(); err != nil {
		return search.Counters{}, internalErrors.NewValidationError("constraints", err.Error())
	}
	if err := p.Validate(true); err != nil {
		return search.Counters{}, err
	}
	if verbosity.Has(search.VerboseStats) {
		pi.log.Info("state space after cull", zap.Float64("log10", p.EstimateStateSpace()))
	}

	s, err := search.New(p, search.WithLogger(pi.log), search.WithVerbosity(verbosity))
	if err != nil {
		return search.Counters{}, internalErrors.NewSearchError(pi.name, err)
	}
	counters, err := s.Run()
	if err != nil {
		return search.Counters{}, internalErrors.NewSearchError(pi.name, err)
	}

	if verbosity.Has(search.VerboseStats) {
		pi.log.Info("search finished",
			zap.Int64s("counters", counters.Values()),
			zap.Strings("names", counters.Names()),
			zap.Stringer("store", p.Store().Stats()),
		)
	}

	pi.mu.Lock()
	pi.executed = true
	pi.culled = culled
	pi.counters = counters
	pi.mu.Unlock()
	return counters, nil
}

// PrepareResults evicts records below the floor, rewinds the result cursor
// and returns the number of retained collections.
func (pi *ProblemInstance) PrepareResults() int {
	st := pi.problem.Store()
	if st == nil {
		return 0
	}
	st.InitResultIterator()
	return st.Len()
}

// CollectionLength returns the number of items in every collection.
func (pi *ProblemInstance) CollectionLength() int {
	return pi.problem.CollectionSize()
}

// GetResults pages collections from the cursor. See store.CollectionStore.GetResults.
func (pi *ProblemInstance) GetResults(n int, itemsOut [][]int, valuesOut []float32) int {
	st := pi.problem.Store()
	if st == nil {
		return -1
	}
	return st.GetResults(n, itemsOut, valuesOut)
}

// Collections returns up to limit ranked collections starting at offset,
// without moving the result cursor.
func (pi *ProblemInstance) Collections(offset, limit int) []model.Collection {
	st := pi.problem.Store()
	if st == nil {
		return nil
	}
	costs := pi.problem.Costs()

	pi.mu.RLock()
	ids := pi.itemIDs
	pi.mu.RUnlock()

	records := st.Range(offset, limit)
	out := make([]model.Collection, 0, len(records))
	for i, r := range records {
		c := model.Collection{Rank: offset + i + 1, Items: r.Ints(), Value: r.Value}
		for _, item := range c.Items {
			c.Cost += costs[item]
			if len(ids) > item {
				c.ItemIDs = append(c.ItemIDs, ids[item])
			}
		}
		out = append(out, c)
	}
	return out
}

// Retained returns the number of collections in the store.
func (pi *ProblemInstance) Retained() int {
	if st := pi.problem.Store(); st != nil {
		return st.Len()
	}
	return 0
}

// ResetResults discards the stored results so the same structure can be
// searched again, possibly with different constraints.
func (pi *ProblemInstance) ResetResults() error {
	pi.run.Lock()
	defer pi.run.Unlock()
	if err := pi.problem.ResetResults(); err != nil {
		return err
	}
	pi.mu.Lock()
	pi.executed = false
	pi.counters = search.Counters{}
	pi.mu.Unlock()
	return nil
}

// Release frees features, items, constraints and results. Parameters survive.
func (pi *ProblemInstance) Release() {
	pi.run.Lock()
	defer pi.run.Unlock()
	pi.problem.Clear()

	pi.mu.Lock()
	pi.itemIDs = nil
	pi.executed = false
	pi.culled = 0
	pi.counters = search.Counters{}
	pi.mu.Unlock()
}

// EstimateStateSpace returns log10 of the unpruned search space.
func (pi *ProblemInstance) EstimateStateSpace() float64 {
	return pi.problem.EstimateStateSpace()
}

// Executed reports whether the store holds the results of a run.
func (pi *ProblemInstance) Executed() bool {
	pi.mu.RLock()
	defer pi.mu.RUnlock()
	return pi.executed
}

// LastCounters returns the counters of the last run and the number of culled items.
func (pi *ProblemInstance) LastCounters() (search.Counters, int) {
	pi.mu.RLock()
	defer pi.mu.RUnlock()
	return pi.counters, pi.culled
}

// Definition returns the definition the instance was built from, if any.
func (pi *ProblemInstance) Definition() model.ProblemDefinition {
	pi.mu.RLock()
	defer pi.mu.RUnlock()
	if pi.definition == nil {
		return model.ProblemDefinition{Name: pi.name}
	}
	return *pi.definition
}

// Summary returns the listing form of the instance.
func (pi *ProblemInstance) Summary() model.ProblemSummary {
	return model.ProblemSummary{
		Name:           pi.name,
		ItemCount:      pi.problem.ItemCount(),
		FeatureCount:   pi.problem.FeatureCount(),
		CollectionSize: pi.problem.CollectionSize(),
		Loaded:         pi.problem.Loaded(),
		Executed:       pi.Executed(),
	}
}

// BuildInstance runs the whole build sequence for a validated definition and
// loads the result.
func BuildInstance(def model.ProblemDefinition, defaults config.SearchParameters, logger *zap.Logger) (*ProblemInstance, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	pi := NewProblemInstance(def.Name, logger)

	costs := make([]float32, len(def.Items))
	values := make([]float32, len(def.Items))
	for i, item := range def.Items {
		costs[i] = item.Cost
		values[i] = item.Value
	}

	if err := pi.InitStructure(len(def.Features), def.PrimaryFeature, def.Picks, len(def.Items), def.MaxCost, len(def.Constraints)); err != nil {
		return nil, err
	}
	if err := pi.InitParameters(def.EffectiveParameters(defaults)); err != nil {
		return nil, err
	}
	for fn, f := range def.Features {
		if err := pi.InitFeature(fn, f.Groups, f.Partition, f.Membership); err != nil {
			return nil, fmt.Errorf("feature %d: %w", fn, err)
		}
	}
	if err := pi.InitItems(costs, values); err != nil {
		return nil, err
	}
	pi.SetItemIDs(def.ItemIDs())
	for cn, c := range def.Constraints {
		typeID, _ := c.TypeID()
		if err := pi.SetConstraint(cn, typeID, c.Args); err != nil {
			return nil, fmt.Errorf("constraint %d: %w", cn, err)
		}
	}
	if err := pi.LockAndLoad(); err != nil {
		return nil, err
	}

	stored := def
	pi.definition = &stored
	return pi, nil
}
