package keyir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/decstore/internal/queryir"
)

func TestFields(t *testing.T) {
	pred := Logical{
		Op: queryir.OpOr,
		Predicates: []Predicate{
			Compare{Field: "price", Op: queryir.OpGt, Key: "2500000412."},
			&Set{Field: "discounts", Op: queryir.OpIn, Keys: nil},
			Logical{Op: queryir.OpAnd, Predicates: []Predicate{
				Mod{Field: "price", Divisor: 2, Remainder: 1},
				&Mod{Field: "qty", Divisor: 3},
			}},
		},
	}

	assert.Equal(t, []string{"price", "discounts", "qty"}, Fields(pred))
}

func TestFields_Nil(t *testing.T) {
	assert.Empty(t, Fields(nil))
}
