// Package search runs the branch-and-bound enumeration of collections for a
// loaded problem and feeds qualifying collections into its result store.
package search

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-collection-search/internal/combo"
	internalErrors "github.com/gcbaptista/go-collection-search/internal/errors"
	"github.com/gcbaptista/go-collection-search/internal/problem"
	"github.com/gcbaptista/go-collection-search/store"
)

// ErrAlreadyRun is returned when Run is called a second time.
var ErrAlreadyRun = errors.New("search already run")

// Option configures a Search.
type Option func(*Search)

// WithLogger sets the logger used for trace output.
func WithLogger(l *zap.Logger) Option {
	return func(s *Search) {
		if l != nil {
			s.log = l
		}
	}
}

// WithVerbosity enables trace output. Only the combo, call, candidate and
// addition bits are used here.
func WithVerbosity(v Verbosity) Option {
	return func(s *Search) { s.verbosity = v }
}

// Search is a single-use search bound to one problem. The problem must not be
// modified while Run executes.
type Search struct {
	problem *problem.Problem
	store   *store.CollectionStore

	groups  []*groupState // in visiting order
	byCost  bool
	maxCost float32
	costTol float32

	collection []int
	stamp      []uint32
	stampGen   uint32

	counters Counters
	ran      bool

	log       *zap.Logger
	verbosity Verbosity
}

// New builds the per-group state of p: combination tables, best value and
// cheapest cost per group, the visiting order and the suffix bounds.
func New(p *problem.Problem, opts ...Option) (*Search, error) {
	st := p.Store()
	if st == nil {
		return nil, internalErrors.ErrNotLoaded
	}
	pf := p.PrimaryFeature()
	if pf == nil || !pf.Configured() {
		return nil, internalErrors.ErrNotConfigured
	}
	params := p.Parameters()

	s := &Search{
		problem:    p,
		store:      st,
		byCost:     params.ByCost(),
		maxCost:    p.MaxCost(),
		costTol:    params.CostRoundingTolerance,
		collection: make([]int, p.CollectionSize()),
		stamp:      make([]uint32, p.ItemCount()),
		counters:   Counters{PerConstraint: make([]int64, p.ConstraintCount())},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	order := combo.ByValue
	if s.byCost {
		order = combo.ByCost
	}
	picks := p.Picks()
	if pf.GroupCount() != len(picks) {
		return nil, internalErrors.NewSearchError("", fmt.Errorf("primary feature has %d groups, %d pick counts", pf.GroupCount(), len(picks)))
	}
	for g, n := range picks {
		gs, err := newGroupState(g, n, pf.GroupItems(g), order, p.Values(), p.Costs())
		if err != nil {
			return nil, internalErrors.NewSearchError("", err)
		}
		s.groups = append(s.groups, gs)
	}

	sort.SliceStable(s.groups, func(a, b int) bool {
		return s.groups[a].gen.Count() < s.groups[b].gen.Count()
	})
	if !params.GroupsAscending() {
		for i, j := 0, len(s.groups)-1; i < j; i, j = i+1, j-1 {
			s.groups[i], s.groups[j] = s.groups[j], s.groups[i]
		}
	}

	var best, cheapest float32
	var combos int64 = 1
	for i := len(s.groups) - 1; i >= 0; i-- {
		gs := s.groups[i]
		gs.suffixBest = best
		gs.suffixCheapest = cheapest
		gs.suffixCombos = combos
		best += gs.best
		cheapest += gs.cheapest
		combos = mulSat(combos, int64(gs.gen.Count()))
	}
	offset := 0
	for _, gs := range s.groups {
		gs.offset = offset
		offset += gs.picks
	}

	if s.verbosity&VerboseCombos != 0 {
		for _, gs := range s.groups {
			s.log.Info("group combinations", zap.Int("group", gs.group), zap.String("combos", gs.describe()))
		}
	}
	return s, nil
}

// Run executes the search once and returns its counters.
func (s *Search) Run() (Counters, error) {
	if s.ran {
		return Counters{}, ErrAlreadyRun
	}
	s.ran = true
	if len(s.groups) > 0 {
		s.search(0, s.maxCost, 0)
	}
	return s.Counters(), nil
}

// Counters returns a copy of the counters.
func (s *Search) Counters() Counters {
	c := s.counters
	c.PerConstraint = append([]int64(nil), s.counters.PerConstraint...)
	return c
}

// GroupOrder returns the primary group indices in visiting order.
func (s *Search) GroupOrder() []int {
	order := make([]int, len(s.groups))
	for i, gs := range s.groups {
		order[i] = gs.group
	}
	return order
}

func (s *Search) prune(n int64, strict bool) {
	s.counters.Pruned = addSat(s.counters.Pruned, n)
	if strict {
		s.counters.PrunedStrict = addSat(s.counters.PrunedStrict, n)
	} else {
		s.counters.PrunedWeak = addSat(s.counters.PrunedWeak, n)
	}
}

// search walks the combinations of visiting position g with remaining budget
// and the value accumulated by the earlier groups.
func (s *Search) search(g int, remaining, acc float32) {
	if s.verbosity&VerboseCalls != 0 {
		s.log.Info("search", zap.Int("position", g), zap.Float32("remaining", remaining), zap.Float32("value", acc))
	}

	gs := s.groups[g]
	gen := gs.gen
	nc := gen.Count()
	last := g == len(s.groups)-1
	floor, hasFloor := s.store.MinAllowed()

	for i := 0; i < nc; i++ {
		gs.current = i
		cost := gen.Cost(i)
		value := gen.Value(i)

		short := hasFloor && value+gs.suffixBest+acc < floor
		over := cost+gs.suffixCheapest > remaining+s.costTol

		// Value order: later combos are worth no more, so a short value ends
		// the loop. Cost order: later combos cost no less, so going over does.
		if !s.byCost {
			if short {
				s.prune(mulSat(int64(nc-i), gs.suffixCombos), true)
				s.trace(">C", g, i, remaining, acc)
				break
			}
			if over {
				s.prune(gs.suffixCombos, false)
				s.trace("=C", g, i, remaining, acc)
				continue
			}
		} else {
			if over {
				s.prune(mulSat(int64(nc-i), gs.suffixCombos), true)
				s.trace("<V", g, i, remaining, acc)
				break
			}
			if short {
				s.prune(gs.suffixCombos, false)
				s.trace("=V", g, i, remaining, acc)
				continue
			}
		}

		for k := 0; k < gs.picks; k++ {
			s.collection[gs.offset+k] = gen.Item(i, k)
		}

		if !last {
			s.search(g+1, remaining-cost, acc+value)
			floor, hasFloor = s.store.MinAllowed()
			continue
		}

		if s.evaluate(g, i, remaining, acc, acc+value) {
			floor, hasFloor = s.store.MinAllowed()
		}
	}
}

// evaluate tests the assembled collection and stores it when it qualifies.
func (s *Search) evaluate(g, i int, remaining, acc, total float32) bool {
	s.counters.Analyzed++

	if !s.store.CanAdd(total) {
		s.counters.Pruned++
		s.counters.PrunedCantAdd++
		s.trace("NV", g, i, remaining, acc)
		return false
	}
	if s.hasDuplicate() {
		s.counters.Pruned++
		s.counters.PrunedDuplicate++
		s.trace("DP", g, i, remaining, acc)
		return false
	}
	if cn := s.problem.TestConstraints(s.collection); cn >= 0 {
		s.counters.PerConstraint[cn]++
		s.counters.Pruned++
		s.counters.PrunedConstraint++
		s.trace(fmt.Sprintf("C%d", cn), g, i, remaining, acc)
		return false
	}

	if !s.store.Add(s.collection, total) {
		// another search sharing the store may have raised the floor
		if s.store.CanAdd(total) {
			panic(fmt.Sprintf("search: store refused an admissible collection %v with value %v", s.collection, total))
		}
		s.counters.Pruned++
		s.counters.PrunedCantAdd++
		s.trace("NV", g, i, remaining, acc)
		return false
	}
	s.counters.Added++
	s.trace("++", g, i, remaining, acc)
	if s.verbosity&VerboseAdds != 0 {
		s.log.Info("collection added", zap.Ints("items", s.collection), zap.Float32("value", total), zap.Stringer("store", s.store.Stats()))
	}
	return true
}

// hasDuplicate reports whether an item appears twice in the collection buffer.
func (s *Search) hasDuplicate() bool {
	s.stampGen++
	if s.stampGen == 0 {
		for i := range s.stamp {
			s.stamp[i] = 0
		}
		s.stampGen = 1
	}
	for _, item := range s.collection {
		if s.stamp[item] == s.stampGen {
			return true
		}
		s.stamp[item] = s.stampGen
	}
	return false
}
