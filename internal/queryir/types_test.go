package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicateOps(t *testing.T) {
	tests := []struct {
		pred Predicate
		op   Op
	}{
		{Eq{Field: "price", Value: "1.234"}, OpEq},
		{&Eq{Field: "price", Value: "1.234"}, OpEq},
		{Ne{Field: "price", Value: "1"}, OpNe},
		{Gt{Field: "price", Value: "1"}, OpGt},
		{Gte{Field: "price", Value: "1"}, OpGte},
		{Lt{Field: "price", Value: "1"}, OpLt},
		{Lte{Field: "price", Value: "1"}, OpLte},
		{In{Field: "price"}, OpIn},
		{Nin{Field: "price"}, OpNin},
		{All{Field: "discounts"}, OpAll},
		{Mod{Field: "price", Divisor: 2, Remainder: 1}, OpMod},
		{Range{Field: "price"}, OpRange},
		{Or{}, OpOr},
		{Nor{}, OpNor},
		{And{}, OpAnd},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			assert.Equal(t, tt.op, tt.pred.Op())
		})
	}
}

func TestOpClassification(t *testing.T) {
	for _, op := range []Op{OpEq, OpNe, OpGt, OpGte, OpLt, OpLte} {
		assert.True(t, op.IsComparison(), op)
		assert.False(t, op.IsSet(), op)
		assert.False(t, op.IsLogical(), op)
	}
	for _, op := range []Op{OpIn, OpNin, OpAll} {
		assert.True(t, op.IsSet(), op)
		assert.False(t, op.IsComparison(), op)
	}
	for _, op := range []Op{OpOr, OpNor, OpAnd} {
		assert.True(t, op.IsLogical(), op)
	}
	assert.False(t, OpMod.IsComparison())
	assert.False(t, OpMod.IsSet())
	assert.False(t, OpRange.IsLogical())
}

func TestFind_ImplementsQuery(t *testing.T) {
	var q Query = Find{
		Collection: "Product",
		Filter:     Gt{Field: "price", Value: "8888.7905"},
		Sort:       []SortKey{{Field: "price", Descending: true}},
	}

	// Sealed interface - can type switch exhaustively
	switch f := q.(type) {
	case Find:
		assert.Equal(t, "Product", f.Collection)
		assert.Len(t, f.Sort, 1)
	default:
		t.Fatalf("unexpected type %T", q)
	}
}
