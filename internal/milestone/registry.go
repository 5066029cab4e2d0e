// Package milestone evaluates metric changes against a registry of achievement
// definitions and records the milestones a user crosses.
//
// The registry is data: adding a milestone means adding a Definition. The engine
// never changes for a new milestone, only for a new kind of EvaluatorSpec.
package milestone

import (
	"fmt"
	"maps"
)

// Category groups milestones for display
type Category string

const (
	CategorySocial      Category = "social"
	CategoryStreak      Category = "streak"
	CategoryAchievement Category = "achievement"
	CategoryFitness     Category = "fitness"
	CategoryCompetition Category = "competition"
)

// Definition is one registry row
type Definition struct {
	ID              string
	Category        Category
	Evaluator       EvaluatorSpec
	Event           string
	EventProperties map[string]any
	Repeatable      bool
}

// Registry is the immutable, ordered milestone table built once at startup
// and injected into the engine.
type Registry struct {
	definitions []Definition
	byID        map[string]int
}

// NewRegistry validates defs and copies them into a Registry. Order is preserved
// and is the order the engine evaluates in.
func NewRegistry(defs []Definition) (*Registry, error) {
	r := &Registry{
		definitions: make([]Definition, 0, len(defs)),
		byID:        make(map[string]int, len(defs)),
	}

	for i, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("milestone definition %d: id is required", i)
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("milestone %q: duplicate id", d.ID)
		}
		if d.Event == "" {
			return nil, fmt.Errorf("milestone %q: event is required", d.ID)
		}
		if d.Evaluator == nil {
			return nil, fmt.Errorf("milestone %q: evaluator is required", d.ID)
		}
		if c, ok := d.Evaluator.(Custom); ok && c.Fn == nil {
			return nil, fmt.Errorf("milestone %q: custom evaluator has no predicate", d.ID)
		}
		if !validCategory(d.Category) {
			return nil, fmt.Errorf("milestone %q: unknown category %q", d.ID, d.Category)
		}

		d.EventProperties = maps.Clone(d.EventProperties)
		r.byID[d.ID] = len(r.definitions)
		r.definitions = append(r.definitions, d)
	}

	return r, nil
}

// MustRegistry is NewRegistry for static tables; it panics on an invalid table.
func MustRegistry(defs []Definition) *Registry {
	r, err := NewRegistry(defs)
	if err != nil {
		panic(err)
	}
	return r
}

// Definitions returns a copy of the table in evaluation order
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, len(r.definitions))
	copy(out, r.definitions)
	return out
}

// Lookup finds a definition by id
func (r *Registry) Lookup(id string) (Definition, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Definition{}, false
	}
	return r.definitions[i], true
}

// Len returns the number of definitions
func (r *Registry) Len() int {
	return len(r.definitions)
}

func validCategory(c Category) bool {
	switch c {
	case CategorySocial, CategoryStreak, CategoryAchievement, CategoryFitness, CategoryCompetition:
		return true
	}
	return false
}
