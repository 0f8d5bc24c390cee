// Package keyir is the native query representation produced by the caster:
// predicates that a store able to compare strings and integers can evaluate
// without knowing anything about decimals.
//
// Comparisons and set membership operate on codec.OrderKey values, which sort
// byte-wise in numeric order. Mod operates on int64 operands and the store's
// native truncating integer conversion of the field.
//
// Like queryir, Predicate is a sealed interface; backends switch
// exhaustively over Compare, Set, Mod and Logical.
package keyir

import (
	"github.com/roach88/decstore/internal/codec"
	"github.com/roach88/decstore/internal/queryir"
)

// Predicate is a native filter condition.
type Predicate interface {
	predicateNode()
}

// Compare is Field <Op> Key for Op in eq, ne, gt, gte, lt, lte.
type Compare struct {
	Field string
	Op    queryir.Op
	Key   codec.OrderKey
}

func (Compare) predicateNode() {}

// Set is a membership test for Op in in, nin, all.
type Set struct {
	Field string
	Op    queryir.Op
	Keys  []codec.OrderKey
}

func (Set) predicateNode() {}

// Mod is trunc(Field) % Divisor == Remainder.
type Mod struct {
	Field     string
	Divisor   int64
	Remainder int64
}

func (Mod) predicateNode() {}

// Logical combines predicates with Op in and, or, nor.
type Logical struct {
	Op         queryir.Op
	Predicates []Predicate
}

func (Logical) predicateNode() {}

// Find is a native query over one collection.
type Find struct {
	Collection string
	Filter     Predicate
	Sort       []queryir.SortKey
	Limit      int
}

// Fields returns the distinct field names referenced by p, in first-seen
// order.
func Fields(p Predicate) []string {
	seen := map[string]bool{}
	var out []string
	var walk func(Predicate)
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	walk = func(p Predicate) {
		switch pred := p.(type) {
		case Compare:
			add(pred.Field)
		case *Compare:
			add(pred.Field)
		case Set:
			add(pred.Field)
		case *Set:
			add(pred.Field)
		case Mod:
			add(pred.Field)
		case *Mod:
			add(pred.Field)
		case Logical:
			for _, sub := range pred.Predicates {
				walk(sub)
			}
		case *Logical:
			for _, sub := range pred.Predicates {
				walk(sub)
			}
		}
	}
	walk(p)
	return out
}
