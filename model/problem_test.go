package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-collection-search/config"
	internalErrors "github.com/gcbaptista/go-collection-search/internal/errors"
)

func validDefinition() ProblemDefinition {
	return ProblemDefinition{
		Name:    "lineup",
		Picks:   []int{1, 1},
		MaxCost: 2,
		Features: []FeatureDefinition{{
			Groups:     2,
			Partition:  true,
			Membership: [][]int{{0}, {0}, {1}, {1}},
		}},
		Items: []ItemDefinition{
			{ID: "a", Cost: 1, Value: 5},
			{ID: "b", Cost: 1, Value: 4},
			{ID: "c", Cost: 1, Value: 6},
			{ID: "d", Cost: 1, Value: 2},
		},
	}
}

func TestProblemDefinitionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *ProblemDefinition)
		wantErr string
	}{
		{"valid", func(d *ProblemDefinition) {}, ""},
		{"missing name", func(d *ProblemDefinition) { d.Name = "" }, "Name"},
		{"bad name", func(d *ProblemDefinition) { d.Name = "has space" }, "problemname"},
		{"negative pick", func(d *ProblemDefinition) { d.Picks = []int{1, -1} }, "Picks"},
		{"empty id", func(d *ProblemDefinition) { d.Items[0].ID = "" }, "ID"},
		{"duplicate id", func(d *ProblemDefinition) { d.Items[1].ID = "a" }, "repeats id"},
		{"primary out of range", func(d *ProblemDefinition) { d.PrimaryFeature = 3 }, "primary_feature"},
		{"group count mismatch", func(d *ProblemDefinition) { d.Picks = []int{1, 1, 1} }, "pick counts"},
		{"short membership", func(d *ProblemDefinition) { d.Features[0].Membership = d.Features[0].Membership[:3] }, "membership rows"},
		{"group out of range", func(d *ProblemDefinition) { d.Features[0].Membership[3] = []int{2} }, "out of range"},
		{"partition overlap", func(d *ProblemDefinition) { d.Features[0].Membership[0] = []int{0, 1} }, "is a partition"},
		{"bad value", func(d *ProblemDefinition) { d.Items[2].Value = -999999 }, "invalid cost or value"},
		{"unknown constraint", func(d *ProblemDefinition) {
			d.Constraints = []ConstraintDefinition{{Type: "sometimes", Args: []int{0, 1}}}
		}, "unknown type"},
		{"constraint arity", func(d *ProblemDefinition) {
			d.Constraints = []ConstraintDefinition{{Type: "maxitem", Args: []int{0}}}
		}, "len"},
		{"constraint feature", func(d *ProblemDefinition) {
			d.Constraints = []ConstraintDefinition{{Type: "mingrp", Args: []int{4, 1}}}
		}, "refers to feature"},
		{"bad parameters", func(d *ProblemDefinition) {
			p := config.DefaultSearchParameters()
			p.SearchMode = 7
			d.Parameters = &p
		}, "search_mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDefinition()
			tt.mutate(&d)
			err := d.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, internalErrors.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEffectiveParameters(t *testing.T) {
	d := validDefinition()
	defaults := config.DefaultSearchParameters()
	defaults.MaxRetained = 5
	assert.Equal(t, defaults, d.EffectiveParameters(defaults))

	own := config.SearchParameters{CollectionTolerance: 0.1}
	d.Parameters = &own
	got := d.EffectiveParameters(defaults)
	assert.Equal(t, float32(0.1), got.CollectionTolerance)
	assert.Equal(t, config.DefaultBlockSize, got.BlockSize)
	assert.Equal(t, config.DefaultSearchMode, got.SearchMode)
}

func TestItemIDs(t *testing.T) {
	d := validDefinition()
	assert.Equal(t, []string{"a", "b", "c", "d"}, d.ItemIDs())
}

func TestJobProgressPercentage(t *testing.T) {
	p := &JobProgress{Current: 1, Total: 4}
	assert.Equal(t, 25.0, p.GetProgressPercentage())
	assert.Equal(t, 0.0, (&JobProgress{}).GetProgressPercentage())
}
