// Package constraint defines predicates evaluated on every finished collection.
package constraint

import (
	"errors"
	"fmt"

	"github.com/gcbaptista/go-collection-search/index"
)

// Reserved type ids for the built-in constraints.
const (
	TypeMinGroupCoverage = 0
	TypeMaxPerGroup      = 1
)

var (
	// ErrUnknownConstraintType is returned by New for ids other than the built-ins
	ErrUnknownConstraintType = errors.New("unknown constraint type")

	// ErrInvalidArguments is returned by New when the argument list does not match the type
	ErrInvalidArguments = errors.New("invalid constraint arguments")

	// ErrNotInitialized is returned by Init when its prerequisites are missing
	ErrNotInitialized = errors.New("constraint cannot be initialized")
)

// Constraint is a predicate over a complete collection.
//
// Test is called from the innermost search loop: it must not allocate or lock,
// and is only called between a successful Init and the next Reset. Init must
// be repeated (after Reset) whenever the membership of a referenced feature changes.
type Constraint interface {
	Init() error
	Test(items []int) bool
	Valid() bool
	Reset()
	Describe() string
	TypeID() int
}

// GroupSource exposes the problem shape a constraint binds to.
type GroupSource interface {
	CollectionSize() int
	ItemCount() int
	FeatureCount() int
	Feature(i int) *index.FeatureTable
}

// New constructs a built-in constraint from its type id and arguments
// [feature, threshold].
func New(src GroupSource, typeID int, args []int) (Constraint, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil group source", ErrInvalidArguments)
	}
	switch typeID {
	case TypeMinGroupCoverage, TypeMaxPerGroup:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownConstraintType, typeID)
	}
	if len(args) != 2 {
		return nil, fmt.Errorf("%w: type %d takes [feature, threshold], got %d args", ErrInvalidArguments, typeID, len(args))
	}
	if typeID == TypeMinGroupCoverage {
		return NewMinGroupCoverage(src, args[0], args[1]), nil
	}
	return NewMaxPerGroup(src, args[0], args[1]), nil
}

// Name returns a short name for a built-in type id.
func Name(typeID int) string {
	switch typeID {
	case TypeMinGroupCoverage:
		return "mingrp"
	case TypeMaxPerGroup:
		return "maxitem"
	default:
		return "custom"
	}
}

// TypeFromName maps the short names used by the CLI and HTTP surfaces to type ids.
func TypeFromName(name string) (int, bool) {
	switch name {
	case "mingrp", "min_groups", "min_group_coverage":
		return TypeMinGroupCoverage, true
	case "maxitem", "max_items", "max_per_group":
		return TypeMaxPerGroup, true
	}
	return 0, false
}
