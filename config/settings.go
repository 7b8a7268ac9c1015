// Package config provides configuration structures for the collection search engine.
// It defines the search tuning parameters and the server configuration.
package config

import (
	"fmt"
)

// Search modes combine the traversal order inside a group with the order in
// which groups are visited.
const (
	ModeValueGroupsAscending  = 1 // value-descending combos, fewest-combination groups first
	ModeValueGroupsDescending = 2 // value-descending combos, most-combination groups first
	ModeCostGroupsAscending   = 3 // cost-ascending combos, fewest-combination groups first
	ModeCostGroupsDescending  = 4 // cost-ascending combos, most-combination groups first
)

// Default parameter values.
const (
	DefaultCollectionTolerance   float32 = 0.2
	DefaultItemTolerance         float32 = 0.5
	DefaultExtraKeep                     = 1
	DefaultBlockSize                     = 10000
	DefaultMaxRetained                   = 10000
	DefaultSearchMode                    = ModeValueGroupsAscending
	DefaultCostRoundingTolerance float32 = 0.01
)

// SearchParameters contains the tuning options of a problem.
//
// CollectionTolerance sets the store floor: once a collection of value V has
// been found, collections below V*(1-CollectionTolerance) are rejected.
// ItemTolerance and ExtraKeep drive the dominance cull: an item is dropped from
// a group when picks+ExtraKeep items of no greater cost beat its value by more
// than a factor of (1+ItemTolerance). MaxRetained == 0 retains without limit.
type SearchParameters struct {
	CollectionTolerance   float32 `json:"collection_tolerance" yaml:"collection_tolerance"`       // Relative distance below the best value still retained (e.g., 0.2)
	ItemTolerance         float32 `json:"item_tolerance" yaml:"item_tolerance"`                   // Relative value margin used by the dominance cull (e.g., 0.5)
	ExtraKeep             int     `json:"extra_keep" yaml:"extra_keep"`                           // Extra dominators required beyond the pick count before culling
	BlockSize             int     `json:"block_size" yaml:"block_size"`                           // Records per store block
	MaxRetained           int     `json:"max_retained" yaml:"max_retained"`                       // Store capacity, 0 for unlimited
	SearchMode            int     `json:"search_mode" yaml:"search_mode"`                         // 1..4, see the Mode constants
	CostRoundingTolerance float32 `json:"cost_rounding_tolerance" yaml:"cost_rounding_tolerance"` // Slack added to the cost budget
}

// DefaultSearchParameters returns the parameters used when none are given.
func DefaultSearchParameters() SearchParameters {
	return SearchParameters{
		CollectionTolerance:   DefaultCollectionTolerance,
		ItemTolerance:         DefaultItemTolerance,
		ExtraKeep:             DefaultExtraKeep,
		BlockSize:             DefaultBlockSize,
		MaxRetained:           DefaultMaxRetained,
		SearchMode:            DefaultSearchMode,
		CostRoundingTolerance: DefaultCostRoundingTolerance,
	}
}

// ApplyDefaults fills the fields whose zero value is never meaningful.
// Tolerances, ExtraKeep and MaxRetained are left alone since zero is a valid setting.
func (p *SearchParameters) ApplyDefaults() {
	if p.BlockSize == 0 {
		p.BlockSize = DefaultBlockSize
	}
	if p.SearchMode == 0 {
		p.SearchMode = DefaultSearchMode
	}
}

// Validate returns one message per invalid field.
func (p *SearchParameters) Validate() []string {
	var errors []string

	if p.CollectionTolerance < 0 {
		errors = append(errors, fmt.Sprintf("collection_tolerance must be >= 0, got %v", p.CollectionTolerance))
	}
	if p.ItemTolerance < 0 {
		errors = append(errors, fmt.Sprintf("item_tolerance must be >= 0, got %v", p.ItemTolerance))
	}
	if p.ExtraKeep < 0 {
		errors = append(errors, fmt.Sprintf("extra_keep must be >= 0, got %d", p.ExtraKeep))
	}
	if p.BlockSize <= 0 {
		errors = append(errors, fmt.Sprintf("block_size must be > 0, got %d", p.BlockSize))
	}
	if p.MaxRetained < 0 {
		errors = append(errors, fmt.Sprintf("max_retained must be >= 0, got %d", p.MaxRetained))
	}
	if p.SearchMode < ModeValueGroupsAscending || p.SearchMode > ModeCostGroupsDescending {
		errors = append(errors, fmt.Sprintf("search_mode must be between 1 and 4, got %d", p.SearchMode))
	}
	if p.CostRoundingTolerance < 0 {
		errors = append(errors, fmt.Sprintf("cost_rounding_tolerance must be >= 0, got %v", p.CostRoundingTolerance))
	}

	return errors
}

// ByCost reports whether combinations are traversed by ascending cost.
func (p *SearchParameters) ByCost() bool {
	return p.SearchMode == ModeCostGroupsAscending || p.SearchMode == ModeCostGroupsDescending
}

// GroupsAscending reports whether groups with fewer combinations are visited first.
func (p *SearchParameters) GroupsAscending() bool {
	return p.SearchMode == ModeValueGroupsAscending || p.SearchMode == ModeCostGroupsAscending
}
