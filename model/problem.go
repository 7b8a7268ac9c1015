package model

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gcbaptista/go-collection-search/config"
	"github.com/gcbaptista/go-collection-search/internal/constraint"
	internalErrors "github.com/gcbaptista/go-collection-search/internal/errors"
	"github.com/gcbaptista/go-collection-search/store"
)

// definitionValidate checks the struct tags of problem definitions.
var definitionValidate *validator.Validate

var problemNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

func init() {
	definitionValidate = validator.New()
	_ = definitionValidate.RegisterValidation("problemname", func(fl validator.FieldLevel) bool {
		return problemNamePattern.MatchString(fl.Field().String())
	})
}

// ProblemDefinition is the complete, serializable description of a problem:
// its item pool, features, pick schedule, budget, constraints and parameters.
// It is what the HTTP surface accepts and what gets persisted. Results never are.
type ProblemDefinition struct {
	Name           string                   `json:"name" yaml:"name" validate:"required,max=128,problemname"`
	PrimaryFeature int                      `json:"primary_feature" yaml:"primary_feature" validate:"gte=0"`
	Picks          []int                    `json:"picks" yaml:"picks" validate:"required,min=1,dive,gte=0"`
	MaxCost        float32                  `json:"max_cost" yaml:"max_cost" validate:"gte=0"`
	Features       []FeatureDefinition      `json:"features" yaml:"features" validate:"required,min=1,dive"`
	Items          []ItemDefinition         `json:"items" yaml:"items" validate:"required,min=1,max=32767,dive"`
	Constraints    []ConstraintDefinition   `json:"constraints,omitempty" yaml:"constraints,omitempty" validate:"dive"`
	Parameters     *config.SearchParameters `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// FeatureDefinition is one feature. Membership holds, per item, the 0-based
// groups the item belongs to.
type FeatureDefinition struct {
	Name       string  `json:"name,omitempty" yaml:"name,omitempty"`
	Groups     int     `json:"groups" yaml:"groups" validate:"gte=1"`
	Partition  bool    `json:"partition" yaml:"partition"`
	Membership [][]int `json:"membership" yaml:"membership" validate:"required"`
}

// ItemDefinition is one candidate item.
type ItemDefinition struct {
	ID    string  `json:"id" yaml:"id" validate:"required"`
	Cost  float32 `json:"cost" yaml:"cost"`
	Value float32 `json:"value" yaml:"value"`
}

// ConstraintDefinition names a built-in constraint and its [feature, threshold] arguments.
type ConstraintDefinition struct {
	Type string `json:"type" yaml:"type" validate:"required"`
	Args []int  `json:"args" yaml:"args" validate:"len=2"`
}

// TypeID resolves the constraint type name to its numeric id.
func (c ConstraintDefinition) TypeID() (int, bool) {
	return constraint.TypeFromName(c.Type)
}

// EffectiveParameters returns the definition's parameters, or the given
// defaults when none are set, with zero-valued mandatory fields filled in.
func (d *ProblemDefinition) EffectiveParameters(defaults config.SearchParameters) config.SearchParameters {
	params := defaults
	if d.Parameters != nil {
		params = *d.Parameters
	}
	params.ApplyDefaults()
	return params
}

// Validate checks both the field tags and the cross-field rules: feature and
// group indices in range, one membership row per item, unique item ids and
// storable costs and values.
func (d *ProblemDefinition) Validate() error {
	if err := definitionValidate.Struct(d); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return internalErrors.NewValidationError(fe.Namespace(), fmt.Sprintf("failed on the '%s' rule", fe.Tag()))
		}
		return internalErrors.NewValidationError("", err.Error())
	}

	var problems []string
	if d.PrimaryFeature >= len(d.Features) {
		problems = append(problems, fmt.Sprintf("primary_feature %d out of range for %d features", d.PrimaryFeature, len(d.Features)))
	} else if groups := d.Features[d.PrimaryFeature].Groups; groups != len(d.Picks) {
		problems = append(problems, fmt.Sprintf("primary feature has %d groups but %d pick counts", groups, len(d.Picks)))
	}

	for fn, f := range d.Features {
		if len(f.Membership) != len(d.Items) {
			problems = append(problems, fmt.Sprintf("feature %d has %d membership rows for %d items", fn, len(f.Membership), len(d.Items)))
			continue
		}
		for item, groups := range f.Membership {
			if f.Partition && len(groups) != 1 {
				problems = append(problems, fmt.Sprintf("feature %d is a partition but item %d is in %d groups", fn, item, len(groups)))
			}
			for _, g := range groups {
				if g < 0 || g >= f.Groups {
					problems = append(problems, fmt.Sprintf("feature %d item %d: group %d out of range", fn, item, g))
				}
			}
		}
	}

	seen := make(map[string]int, len(d.Items))
	for i, item := range d.Items {
		if prev, dup := seen[item.ID]; dup {
			problems = append(problems, fmt.Sprintf("item %d repeats id '%s' of item %d", i, item.ID, prev))
		}
		seen[item.ID] = i
		if store.IsBadValue(item.Cost) || store.IsBadValue(item.Value) {
			problems = append(problems, fmt.Sprintf("item '%s' has an invalid cost or value", item.ID))
		}
	}

	for cn, c := range d.Constraints {
		if _, ok := c.TypeID(); !ok {
			problems = append(problems, fmt.Sprintf("constraint %d has unknown type '%s'", cn, c.Type))
		} else if c.Args[0] < 0 || c.Args[0] >= len(d.Features) {
			problems = append(problems, fmt.Sprintf("constraint %d refers to feature %d", cn, c.Args[0]))
		}
	}

	if d.Parameters != nil {
		params := *d.Parameters
		params.ApplyDefaults()
		problems = append(problems, params.Validate()...)
	}

	if len(problems) > 0 {
		return internalErrors.NewValidationError("", strings.Join(problems, "; "))
	}
	return nil
}

// ItemIDs returns the item ids in index order.
func (d *ProblemDefinition) ItemIDs() []string {
	ids := make([]string, len(d.Items))
	for i, item := range d.Items {
		ids[i] = item.ID
	}
	return ids
}

// ProblemSummary is the listing form of a problem.
type ProblemSummary struct {
	Name           string `json:"name"`
	ItemCount      int    `json:"item_count"`
	FeatureCount   int    `json:"feature_count"`
	CollectionSize int    `json:"collection_size"`
	Loaded         bool   `json:"loaded"`
	Executed       bool   `json:"executed"`
}
