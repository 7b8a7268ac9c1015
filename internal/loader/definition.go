package loader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gcbaptista/go-collection-search/config"
	"github.com/gcbaptista/go-collection-search/internal/constraint"
	"github.com/gcbaptista/go-collection-search/model"
)

// RunOptions are the problem settings given next to an item file. Feature
// numbers are 1-based, as in the file.
type RunOptions struct {
	Primary     int
	Picks       []int
	Partitions  []int
	Constraints []model.ConstraintDefinition
	MaxCost     float32
	Parameters  config.SearchParameters
}

// ParsePicks reads a pick schedule of the form n1:n2:...; every count must be
// >= 0 and their sum > 0.
func ParsePicks(s string) ([]int, error) {
	parts := strings.Split(s, listSep)
	picks := make([]int, 0, len(parts))
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid pick count %q", p)
		}
		if n < 0 {
			return nil, fmt.Errorf("pick count must be >= 0, got %d", n)
		}
		picks = append(picks, n)
		total += n
	}
	if total <= 0 {
		return nil, fmt.Errorf("total collection size must be > 0")
	}
	return picks, nil
}

// ParseConstraint reads t:n:m, where t is mingrp or maxitem, n a 1-based
// feature and m the threshold. The result carries the 0-based feature.
func ParseConstraint(s string) (model.ConstraintDefinition, error) {
	parts := strings.Split(s, listSep)
	if len(parts) != 3 {
		return model.ConstraintDefinition{}, fmt.Errorf("constraint %q must be of the form t:n:m", s)
	}
	typeID, ok := constraint.TypeFromName(parts[0])
	if !ok {
		return model.ConstraintDefinition{}, fmt.Errorf("constraint %q: type must be mingrp or maxitem", s)
	}
	feature, err := strconv.Atoi(parts[1])
	if err != nil || feature < 1 {
		return model.ConstraintDefinition{}, fmt.Errorf("constraint %q: feature must be a number >= 1", s)
	}
	threshold, err := strconv.Atoi(parts[2])
	if err != nil || threshold < 0 {
		return model.ConstraintDefinition{}, fmt.Errorf("constraint %q: count must be a number >= 0", s)
	}
	return model.ConstraintDefinition{
		Type: constraint.Name(typeID),
		Args: []int{feature - 1, threshold},
	}, nil
}

// BuildDefinition verifies an item file against the options and turns both
// into a problem definition. Group numbers become 0-based; the primary
// feature gets one group per pick count, every other feature as many groups
// as its largest group number.
func BuildDefinition(name string, f *ItemFile, opts RunOptions) (model.ProblemDefinition, error) {
	if err := Verify(f, opts.Primary, len(opts.Picks)); err != nil {
		return model.ProblemDefinition{}, err
	}

	partition := make(map[int]bool, len(opts.Partitions))
	for _, fn := range opts.Partitions {
		if fn < 1 || fn > f.FeatureCount() {
			return model.ProblemDefinition{}, fmt.Errorf("partition feature %d is not between 1 and %d", fn, f.FeatureCount())
		}
		partition[fn-1] = true
	}
	for _, c := range opts.Constraints {
		if len(c.Args) == 2 && c.Args[0] >= f.FeatureCount() {
			return model.ProblemDefinition{}, fmt.Errorf("constraint feature %d exceeds the %d features of the file", c.Args[0]+1, f.FeatureCount())
		}
	}

	params := opts.Parameters
	def := model.ProblemDefinition{
		Name:           name,
		PrimaryFeature: opts.Primary - 1,
		Picks:          opts.Picks,
		MaxCost:        opts.MaxCost,
		Features:       make([]model.FeatureDefinition, f.FeatureCount()),
		Items:          make([]model.ItemDefinition, f.ItemCount()),
		Constraints:    opts.Constraints,
		Parameters:     &params,
	}
	for i := range def.Items {
		def.Items[i] = model.ItemDefinition{ID: f.IDs[i], Cost: f.Costs[i], Value: f.Values[i]}
	}
	for fn, col := range f.Groups {
		groups := f.MaxGroup(fn)
		if fn == def.PrimaryFeature {
			groups = len(opts.Picks)
		}
		if groups < 1 {
			groups = 1
		}
		membership := make([][]int, len(col))
		for i, gs := range col {
			row := make([]int, len(gs))
			for k, g := range gs {
				row[k] = g - 1
			}
			membership[i] = row
		}
		def.Features[fn] = model.FeatureDefinition{
			Name:       "f" + strconv.Itoa(fn+1),
			Groups:     groups,
			Partition:  partition[fn],
			Membership: membership,
		}
	}

	if err := def.Validate(); err != nil {
		return model.ProblemDefinition{}, err
	}
	return def, nil
}
