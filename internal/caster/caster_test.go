package caster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/decstore/internal/codec"
	"github.com/roach88/decstore/internal/decimal"
	"github.com/roach88/decstore/internal/keyir"
	"github.com/roach88/decstore/internal/queryir"
)

func newCaster(t *testing.T) (*Caster, *codec.Codec) {
	t.Helper()
	c := codec.Default()
	return New(c), c
}

func mustKey(t *testing.T, c *codec.Codec, s string) codec.OrderKey {
	t.Helper()
	k, err := c.Encode(decimal.MustParse(s))
	require.NoError(t, err)
	return k
}

func TestCastComparisons(t *testing.T) {
	cs, c := newCaster(t)

	tests := []struct {
		pred queryir.Predicate
		op   queryir.Op
	}{
		{queryir.Eq{Field: "price", Value: "949"}, queryir.OpEq},
		{&queryir.Ne{Field: "price", Value: 949}, queryir.OpNe},
		{queryir.Gt{Field: "price", Value: "9.49e2"}, queryir.OpGt},
		{queryir.Gte{Field: "price", Value: 949.0}, queryir.OpGte},
		{queryir.Lt{Field: "price", Value: "949.000"}, queryir.OpLt},
		{&queryir.Lte{Field: "price", Value: int64(949)}, queryir.OpLte},
	}

	want := mustKey(t, c, "949")
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			got, err := cs.Cast(tt.pred)
			require.NoError(t, err)
			assert.Equal(t, keyir.Compare{Field: "price", Op: tt.op, Key: want}, got)
		})
	}
}

func TestCastRange(t *testing.T) {
	cs, c := newCaster(t)

	got, err := cs.Cast(queryir.Range{
		Field: "price",
		Lower: queryir.Bound{Op: queryir.OpGt, Value: "1.234"},
		Upper: queryir.Bound{Op: queryir.OpLte, Value: "949"},
	})
	require.NoError(t, err)

	assert.Equal(t, keyir.Logical{
		Op: queryir.OpAnd,
		Predicates: []keyir.Predicate{
			keyir.Compare{Field: "price", Op: queryir.OpGt, Key: mustKey(t, c, "1.234")},
			keyir.Compare{Field: "price", Op: queryir.OpLte, Key: mustKey(t, c, "949")},
		},
	}, got)
}

func TestCastSets(t *testing.T) {
	cs, c := newCaster(t)

	for _, op := range []queryir.Op{queryir.OpIn, queryir.OpNin, queryir.OpAll} {
		t.Run(string(op), func(t *testing.T) {
			values := []queryir.Operand{"1", 2, "-0.5"}
			var pred queryir.Predicate
			switch op {
			case queryir.OpIn:
				pred = queryir.In{Field: "discounts", Values: values}
			case queryir.OpNin:
				pred = queryir.Nin{Field: "discounts", Values: values}
			default:
				pred = queryir.All{Field: "discounts", Values: values}
			}

			got, err := cs.Cast(pred)
			require.NoError(t, err)
			assert.Equal(t, keyir.Set{
				Field: "discounts",
				Op:    op,
				Keys:  []codec.OrderKey{mustKey(t, c, "1"), mustKey(t, c, "2"), mustKey(t, c, "-0.5")},
			}, got)
		})
	}
}

func TestCastEmptySet(t *testing.T) {
	cs, _ := newCaster(t)

	got, err := cs.Cast(queryir.In{Field: "discounts"})
	require.NoError(t, err)
	assert.Equal(t, keyir.Set{Field: "discounts", Op: queryir.OpIn, Keys: []codec.OrderKey{}}, got)
}

func TestCastSetIsAllOrNothing(t *testing.T) {
	cs, _ := newCaster(t)

	got, err := cs.Cast(queryir.In{Field: "discounts", Values: []queryir.Operand{"1", "abc", "3"}})
	require.Error(t, err)
	assert.Nil(t, got)

	var ce *decimal.CastError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, decimal.ErrCodeMalformed, ce.Code)
	assert.Equal(t, "discounts", ce.Field)
	assert.Equal(t, "abc", ce.Operand)
}

func TestCastLogical(t *testing.T) {
	cs, c := newCaster(t)

	got, err := cs.Cast(queryir.Nor{Predicates: []queryir.Predicate{
		queryir.Eq{Field: "price", Value: "9999.9999"},
		queryir.Or{Predicates: []queryir.Predicate{
			queryir.Eq{Field: "price", Value: "8888.7905"},
		}},
	}})
	require.NoError(t, err)

	assert.Equal(t, keyir.Logical{
		Op: queryir.OpNor,
		Predicates: []keyir.Predicate{
			keyir.Compare{Field: "price", Op: queryir.OpEq, Key: mustKey(t, c, "9999.9999")},
			keyir.Logical{Op: queryir.OpOr, Predicates: []keyir.Predicate{
				keyir.Compare{Field: "price", Op: queryir.OpEq, Key: mustKey(t, c, "8888.7905")},
			}},
		},
	}, got)
}

func TestCastLogicalFailsAsAWhole(t *testing.T) {
	cs, _ := newCaster(t)

	got, err := cs.Cast(queryir.Or{Predicates: []queryir.Predicate{
		queryir.Eq{Field: "price", Value: "1"},
		queryir.Gt{Field: "cost", Value: "NaN"},
	}})
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, decimal.IsMalformed(err))
	assert.Contains(t, err.Error(), "field=cost")
}

func TestCastMod(t *testing.T) {
	cs, _ := newCaster(t)

	t.Run("integral operands", func(t *testing.T) {
		got, err := cs.Cast(queryir.Mod{Field: "price", Divisor: 2, Remainder: "1"})
		require.NoError(t, err)
		assert.Equal(t, keyir.Mod{Field: "price", Divisor: 2, Remainder: 1}, got)
	})

	t.Run("integral in scientific notation", func(t *testing.T) {
		got, err := cs.Cast(&queryir.Mod{Field: "price", Divisor: "1e1", Remainder: "-3.0"})
		require.NoError(t, err)
		assert.Equal(t, keyir.Mod{Field: "price", Divisor: 10, Remainder: -3}, got)
	})

	t.Run("fractional divisor", func(t *testing.T) {
		_, err := cs.Cast(queryir.Mod{Field: "price", Divisor: "2.5", Remainder: 1})
		require.Error(t, err)
		assert.True(t, decimal.IsUnsupportedOperation(err))

		var ue *decimal.UnsupportedOperationError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, "price", ue.Field)
		assert.Equal(t, "2.5", ue.Operand)
	})

	t.Run("fractional remainder", func(t *testing.T) {
		_, err := cs.Cast(queryir.Mod{Field: "price", Divisor: 2, Remainder: 0.5})
		assert.True(t, decimal.IsUnsupportedOperation(err))
	})

	t.Run("zero divisor", func(t *testing.T) {
		_, err := cs.Cast(queryir.Mod{Field: "price", Divisor: "0", Remainder: 0})
		assert.True(t, decimal.IsUnsupportedOperation(err))
	})

	t.Run("beyond int64", func(t *testing.T) {
		_, err := cs.Cast(queryir.Mod{Field: "price", Divisor: "9223372036854775808", Remainder: 0})
		require.Error(t, err)
		assert.True(t, decimal.IsOutOfRange(err))

		var ce *decimal.CastError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "price", ce.Field)
	})

	t.Run("malformed operand", func(t *testing.T) {
		_, err := cs.Cast(queryir.Mod{Field: "price", Divisor: "two", Remainder: 0})
		assert.True(t, decimal.IsMalformed(err))
	})
}

func TestCastOutOfRangeOperand(t *testing.T) {
	cs, _ := newCaster(t)

	_, err := cs.Cast(queryir.Gt{Field: "price", Value: "1e4999999"})
	require.Error(t, err)
	assert.True(t, decimal.IsOutOfRange(err))
	assert.Contains(t, err.Error(), "field=price")
}

func TestCastInvalidStructure(t *testing.T) {
	cs, _ := newCaster(t)

	_, err := cs.Cast(queryir.Range{
		Field: "price",
		Lower: queryir.Bound{Op: queryir.OpLt, Value: "1"},
		Upper: queryir.Bound{Op: queryir.OpLt, Value: "2"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lower bound")
	assert.Empty(t, decimal.Code(err))
}

func TestCastQuery(t *testing.T) {
	cs, c := newCaster(t)

	got, err := cs.CastQuery(queryir.Find{
		Collection: "Product",
		Filter:     queryir.Gte{Field: "price", Value: "8888.7905"},
		Sort:       []queryir.SortKey{{Field: "price", Descending: true}},
		Limit:      10,
	})
	require.NoError(t, err)

	assert.Equal(t, keyir.Find{
		Collection: "Product",
		Filter:     keyir.Compare{Field: "price", Op: queryir.OpGte, Key: mustKey(t, c, "8888.7905")},
		Sort:       []queryir.SortKey{{Field: "price", Descending: true}},
		Limit:      10,
	}, got)

	t.Run("nil filter", func(t *testing.T) {
		got, err := cs.CastQuery(queryir.Find{Collection: "Product"})
		require.NoError(t, err)
		assert.Nil(t, got.Filter)
	})

	t.Run("missing collection", func(t *testing.T) {
		_, err := cs.CastQuery(queryir.Find{})
		assert.Error(t, err)
	})
}
