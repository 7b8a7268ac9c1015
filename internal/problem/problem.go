// Package problem holds the configuration aggregate consulted by the search:
// features, items, constraints, parameters and the result store.
package problem

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gcbaptista/go-collection-search/config"
	"github.com/gcbaptista/go-collection-search/index"
	"github.com/gcbaptista/go-collection-search/internal/constraint"
	internalErrors "github.com/gcbaptista/go-collection-search/internal/errors"
	"github.com/gcbaptista/go-collection-search/store"
)

// MaxItems is the largest item count a problem accepts; item indices must fit in an int16.
const MaxItems = store.MaxItemIndex

// Problem aggregates everything a search needs.
//
// Administrative methods lock. The accessors used by the search (Costs,
// Values, Picks, TestConstraints and the GroupSource methods) do not: the
// values they return are fixed once the problem is built, and callers must
// not mutate the problem while a search runs.
type Problem struct {
	mu sync.Mutex

	initialized    bool
	featureCount   int
	primary        int
	picks          []int
	collectionSize int
	itemCount      int
	maxCost        float32

	features    []*index.FeatureTable
	costs       []float32
	values      []float32
	constraints []constraint.Constraint

	params config.SearchParameters
	store  *store.CollectionStore
}

// New returns an empty problem carrying the default parameters.
func New() *Problem {
	return &Problem{params: config.DefaultSearchParameters()}
}

// Init fixes the structure: feature count, primary feature, pick count per
// primary group, item count, cost budget and number of constraint slots.
func (p *Problem) Init(featureCount, primary int, picks []int, itemCount int, maxCost float32, constraintCount int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return internalErrors.ErrAlreadyConfigured
	}
	if featureCount <= 0 {
		return internalErrors.NewValidationError("feature_count", "must be positive")
	}
	if primary < 0 || primary >= featureCount {
		return internalErrors.NewValidationError("primary_feature", fmt.Sprintf("%d outside [0,%d)", primary, featureCount))
	}
	if len(picks) == 0 {
		return internalErrors.NewValidationError("picks", "at least one primary group is required")
	}
	size := 0
	for g, n := range picks {
		if n < 0 {
			return internalErrors.NewValidationError("picks", fmt.Sprintf("group %d has negative pick count %d", g, n))
		}
		size += n
	}
	if itemCount <= 0 || itemCount > MaxItems {
		return internalErrors.NewValidationError("item_count", fmt.Sprintf("%d outside [1,%d]", itemCount, MaxItems))
	}
	if maxCost < 0 || store.IsBadValue(maxCost) {
		return internalErrors.NewValidationError("max_cost", fmt.Sprintf("invalid budget %v", maxCost))
	}
	if constraintCount < 0 {
		return internalErrors.NewValidationError("constraint_count", "must not be negative")
	}

	p.featureCount = featureCount
	p.primary = primary
	p.picks = append([]int(nil), picks...)
	p.collectionSize = size
	p.itemCount = itemCount
	p.maxCost = maxCost
	p.features = make([]*index.FeatureTable, featureCount)
	for i := range p.features {
		p.features[i] = index.NewFeatureTable()
	}
	p.constraints = make([]constraint.Constraint, constraintCount)
	p.initialized = true
	return nil
}

// SetParameters replaces the tuning parameters and discards any result store.
func (p *Problem) SetParameters(params config.SearchParameters) error {
	if errs := params.Validate(); len(errs) > 0 {
		return internalErrors.NewValidationError("parameters", strings.Join(errs, "; "))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.params = params
	p.store = nil
	return nil
}

// SetCostRoundingTolerance sets the slack added to the cost budget.
func (p *Problem) SetCostRoundingTolerance(tol float32) error {
	if tol < 0 || store.IsBadValue(tol) {
		return internalErrors.NewValidationError("cost_rounding_tolerance", fmt.Sprintf("invalid value %v", tol))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.params.CostRoundingTolerance = tol
	return nil
}

// Parameters returns a copy of the tuning parameters.
func (p *Problem) Parameters() config.SearchParameters {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params
}

// SetFeature configures feature fn. membership is item-major, itemCount*groupCount cells.
func (p *Problem) SetFeature(fn, groupCount int, isPartition bool, membership []bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return internalErrors.ErrNotConfigured
	}
	if fn < 0 || fn >= p.featureCount {
		return internalErrors.NewValidationError("feature", fmt.Sprintf("%d outside [0,%d)", fn, p.featureCount))
	}
	if fn == p.primary && groupCount != len(p.picks) {
		return internalErrors.NewValidationError("feature", fmt.Sprintf("primary feature has %d groups but %d pick counts", groupCount, len(p.picks)))
	}
	if err := p.features[fn].Configure(groupCount, p.itemCount, isPartition, membership); err != nil {
		return fmt.Errorf("feature %d: %w", fn, err)
	}
	return nil
}

// InitItems copies the per-item costs and values.
func (p *Problem) InitItems(costs, values []float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return internalErrors.ErrNotConfigured
	}
	if p.costs != nil {
		return internalErrors.ErrAlreadyConfigured
	}
	if len(costs) != p.itemCount || len(values) != p.itemCount {
		return internalErrors.NewValidationError("items", fmt.Sprintf("expected %d costs and values, got %d and %d", p.itemCount, len(costs), len(values)))
	}
	p.costs = append([]float32(nil), costs...)
	p.values = append([]float32(nil), values...)
	return nil
}

// SetConstraint registers c in slot cn. The problem takes ownership of c.
func (p *Problem) SetConstraint(cn int, c constraint.Constraint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setConstraint(cn, c)
}

func (p *Problem) setConstraint(cn int, c constraint.Constraint) error {
	if !p.initialized {
		return internalErrors.ErrNotConfigured
	}
	if cn < 0 || cn >= len(p.constraints) {
		return internalErrors.NewValidationError("constraint", fmt.Sprintf("slot %d outside [0,%d)", cn, len(p.constraints)))
	}
	if c == nil {
		return internalErrors.NewValidationError("constraint", "nil constraint")
	}
	if p.constraints[cn] != nil {
		return fmt.Errorf("constraint slot %d: %w", cn, internalErrors.ErrAlreadyConfigured)
	}
	p.constraints[cn] = c
	return nil
}

// SetConstraintType builds a built-in constraint and registers it in slot cn.
func (p *Problem) SetConstraintType(cn, typeID int, args []int) error {
	c, err := constraint.New(p, typeID, args)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setConstraint(cn, c)
}

// RemoveConstraint empties slot cn so a different constraint can be registered.
func (p *Problem) RemoveConstraint(cn int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cn < 0 || cn >= len(p.constraints) {
		return internalErrors.NewValidationError("constraint", fmt.Sprintf("slot %d outside [0,%d)", cn, len(p.constraints)))
	}
	if c := p.constraints[cn]; c != nil {
		c.Reset()
	}
	p.constraints[cn] = nil
	return nil
}

// Validate checks the structure. With full set it also requires every
// constraint slot to hold an initialized, valid constraint.
func (p *Problem) Validate(full bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.validate(full)
}

func (p *Problem) validate(full bool) error {
	if !p.initialized {
		return internalErrors.ErrNotConfigured
	}
	var problems []string
	for fn, ft := range p.features {
		if !ft.Valid() {
			problems = append(problems, fmt.Sprintf("feature %d is not configured or not a proper partition", fn))
		}
	}
	if pf := p.features[p.primary]; pf.Configured() {
		if pf.GroupCount() != len(p.picks) {
			problems = append(problems, fmt.Sprintf("primary feature has %d groups but %d pick counts", pf.GroupCount(), len(p.picks)))
		} else {
			for g, n := range p.picks {
				if size := pf.GroupSize(g); size < n {
					problems = append(problems, fmt.Sprintf("primary group %d has %d items, fewer than its %d picks", g, size, n))
				}
			}
		}
	}
	if p.costs == nil || p.values == nil {
		problems = append(problems, "item costs and values are not set")
	} else {
		for i := range p.costs {
			if store.IsBadValue(p.costs[i]) || store.IsBadValue(p.values[i]) {
				problems = append(problems, fmt.Sprintf("item %d has an invalid cost or value", i))
			}
		}
	}
	problems = append(problems, p.params.Validate()...)
	if full {
		for cn, c := range p.constraints {
			if c == nil {
				problems = append(problems, fmt.Sprintf("constraint slot %d is empty", cn))
			} else if !c.Valid() {
				problems = append(problems, fmt.Sprintf("constraint %d is not valid: %s", cn, c.Describe()))
			}
		}
	}
	if len(problems) > 0 {
		return internalErrors.NewValidationError("", strings.Join(problems, "; "))
	}
	return nil
}

// InitConstraints resets and initializes every constraint against the
// current feature membership.
func (p *Problem) InitConstraints() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initConstraints()
}

func (p *Problem) initConstraints() error {
	var errs []error
	for cn, c := range p.constraints {
		if c == nil {
			errs = append(errs, fmt.Errorf("constraint slot %d is empty", cn))
			continue
		}
		c.Reset()
		if err := c.Init(); err != nil {
			errs = append(errs, fmt.Errorf("constraint %d: %w", cn, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Problem) resetConstraints() {
	for _, c := range p.constraints {
		if c != nil {
			c.Reset()
		}
	}
}

// Load runs structural validation, initializes the constraints, runs full
// validation and creates the result store when there is none. When either
// step fails the constraints are left reset and no store is created.
func (p *Problem) Load() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.validate(false); err != nil {
		return err
	}
	if err := p.initConstraints(); err != nil {
		p.resetConstraints()
		return internalErrors.NewValidationError("constraints", err.Error())
	}
	if err := p.validate(true); err != nil {
		p.resetConstraints()
		return err
	}
	if p.store == nil {
		s, err := p.newStore()
		if err != nil {
			return err
		}
		p.store = s
	}
	return nil
}

func (p *Problem) newStore() (*store.CollectionStore, error) {
	return store.New(p.collectionSize, p.params.BlockSize, p.params.MaxRetained, p.params.CollectionTolerance)
}

// Loaded reports whether a result store exists.
func (p *Problem) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store != nil
}

// ResetResults replaces the result store with an empty one. It does nothing
// on a problem that was never loaded.
func (p *Problem) ResetResults() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.store == nil {
		return nil
	}
	s, err := p.newStore()
	if err != nil {
		return err
	}
	p.store = s
	return nil
}

// Clear releases features, items, constraints and the store. Parameters survive.
func (p *Problem) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.constraints {
		if c != nil {
			c.Reset()
		}
	}
	p.initialized = false
	p.featureCount = 0
	p.primary = 0
	p.picks = nil
	p.collectionSize = 0
	p.itemCount = 0
	p.maxCost = 0
	p.features = nil
	p.costs = nil
	p.values = nil
	p.constraints = nil
	p.store = nil
}

// Store returns the result store, or nil before Load.
func (p *Problem) Store() *store.CollectionStore {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store
}

// Feature returns feature i, or nil when out of range.
func (p *Problem) Feature(i int) *index.FeatureTable {
	if i < 0 || i >= len(p.features) {
		return nil
	}
	return p.features[i]
}

// PrimaryFeature returns the feature that drives the search decomposition.
func (p *Problem) PrimaryFeature() *index.FeatureTable {
	return p.Feature(p.primary)
}

// PrimaryIndex returns the index of the primary feature.
func (p *Problem) PrimaryIndex() int { return p.primary }

// FeatureCount returns the number of features.
func (p *Problem) FeatureCount() int { return p.featureCount }

// ItemCount returns the number of items.
func (p *Problem) ItemCount() int { return p.itemCount }

// CollectionSize returns the total number of picks.
func (p *Problem) CollectionSize() int { return p.collectionSize }

// MaxCost returns the cost budget.
func (p *Problem) MaxCost() float32 { return p.maxCost }

// Picks returns the pick count of every primary group. Do not modify.
func (p *Problem) Picks() []int { return p.picks }

// Costs returns the item costs. Do not modify.
func (p *Problem) Costs() []float32 { return p.costs }

// Values returns the item values. Do not modify.
func (p *Problem) Values() []float32 { return p.values }

// ConstraintCount returns the number of constraint slots.
func (p *Problem) ConstraintCount() int { return len(p.constraints) }

// Constraint returns the constraint in slot cn, or nil.
func (p *Problem) Constraint(cn int) constraint.Constraint {
	if cn < 0 || cn >= len(p.constraints) {
		return nil
	}
	return p.constraints[cn]
}

// TestConstraints returns the slot of the first constraint items fails, or -1
// when every constraint passes. Empty slots are skipped.
func (p *Problem) TestConstraints(items []int) int {
	for cn, c := range p.constraints {
		if c != nil && !c.Test(items) {
			return cn
		}
	}
	return -1
}
