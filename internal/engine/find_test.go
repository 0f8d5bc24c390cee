package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/decstore/internal/decimal"
	"github.com/roach88/decstore/internal/ir"
	"github.com/roach88/decstore/internal/queryir"
	"github.com/roach88/decstore/internal/testutil"
)

// setupProducts inserts the testutil.Products fixture as p0..p4.
func setupProducts(t *testing.T) *Engine {
	t.Helper()
	e := setupTestEngine(t, testutil.ProductIDs...)

	_, err := e.InsertMany(context.Background(), "Product", testutil.Products())
	require.NoError(t, err)
	return e
}

func docIDs(docs []Document) []string {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids
}

func TestEngine_Find_Operators(t *testing.T) {
	e := setupProducts(t)

	tests := []struct {
		name   string
		filter queryir.Predicate
		want   []string
	}{
		{
			name:   "eq",
			filter: queryir.Eq{Field: "price", Value: "1.234"},
			want:   []string{"p0"},
		},
		{
			name:   "eq matches numerically equal text",
			filter: queryir.Eq{Field: "price", Value: "949.000"},
			want:   []string{"p2"},
		},
		{
			name:   "gt",
			filter: queryir.Gt{Field: "price", Value: "8888.7905"},
			want:   []string{"p4"},
		},
		{
			name:   "gte",
			filter: queryir.Gte{Field: "price", Value: "8888.7905"},
			want:   []string{"p3", "p4"},
		},
		{
			name:   "lt",
			filter: queryir.Lt{Field: "price", Value: "98.993"},
			want:   []string{"p0"},
		},
		{
			name:   "lte",
			filter: queryir.Lte{Field: "price", Value: "949"},
			want:   []string{"p0", "p1", "p2"},
		},
		{
			name:   "ne",
			filter: queryir.Ne{Field: "price", Value: "9999.9999"},
			want:   []string{"p0", "p1", "p2", "p3"},
		},
		{
			name: "or",
			filter: queryir.Or{Predicates: []queryir.Predicate{
				queryir.Eq{Field: "price", Value: "1.234"},
				queryir.Eq{Field: "price", Value: "9999.9999"},
			}},
			want: []string{"p0", "p4"},
		},
		{
			name: "nor",
			filter: queryir.Nor{Predicates: []queryir.Predicate{
				queryir.Gte{Field: "price", Value: "8888.7905"},
			}},
			want: []string{"p0", "p1", "p2"},
		},
		{
			name: "and",
			filter: queryir.And{Predicates: []queryir.Predicate{
				queryir.Gt{Field: "price", Value: "1.234"},
				queryir.Lt{Field: "price", Value: "9999.9999"},
			}},
			want: []string{"p1", "p2", "p3"},
		},
		{
			name: "exclusive range",
			filter: queryir.Range{
				Field: "price",
				Lower: queryir.Bound{Op: queryir.OpGt, Value: "1.234"},
				Upper: queryir.Bound{Op: queryir.OpLt, Value: "949"},
			},
			want: []string{"p1"},
		},
		{
			name: "inclusive range",
			filter: queryir.Range{
				Field: "price",
				Lower: queryir.Bound{Op: queryir.OpGte, Value: "1.234"},
				Upper: queryir.Bound{Op: queryir.OpLte, Value: "949"},
			},
			want: []string{"p0", "p1", "p2"},
		},
		{
			name:   "in on array",
			filter: queryir.In{Field: "discounts", Values: []any{"1", "2"}},
			want:   []string{"p0", "p1"},
		},
		{
			name:   "nin on array",
			filter: queryir.Nin{Field: "discounts", Values: []any{"1", "2"}},
			want:   []string{"p2", "p3", "p4"},
		},
		{
			name:   "all",
			filter: queryir.All{Field: "discounts", Values: []any{"1", "2"}},
			want:   []string{"p0"},
		},
		{
			name:   "eq on array",
			filter: queryir.Eq{Field: "discounts", Value: 5},
			want:   []string{"p3", "p4"},
		},
		{
			name:   "mod",
			filter: queryir.Mod{Field: "price", Divisor: 2, Remainder: 1},
			want:   []string{"p0", "p2", "p4"},
		},
		{
			name:   "empty in",
			filter: queryir.In{Field: "price", Values: []any{}},
			want:   []string{},
		},
		{
			name:   "empty nin",
			filter: queryir.Nin{Field: "price", Values: []any{}},
			want:   []string{"p0", "p1", "p2", "p3", "p4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := e.Find(context.Background(), queryir.Find{
				Collection: "Product",
				Filter:     tt.filter,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, docIDs(docs))
		})
	}
}

func TestEngine_Find_LiteralKinds(t *testing.T) {
	e := setupProducts(t)

	for _, lit := range []any{"949", 949, int64(949), 949.0, decimal.MustParse("949")} {
		docs, err := e.Find(context.Background(), queryir.Find{
			Collection: "Product",
			Filter:     queryir.Eq{Field: "price", Value: lit},
		})
		require.NoError(t, err, "%T", lit)
		assert.Equal(t, []string{"p2"}, docIDs(docs), "%T", lit)
	}
}

func TestEngine_Find_SortAndLimit(t *testing.T) {
	ctx := context.Background()
	e := setupProducts(t)

	docs, err := e.Find(ctx, queryir.Find{
		Collection: "Product",
		Sort:       []queryir.SortKey{{Field: "price"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p0", "p1", "p2", "p3", "p4"}, docIDs(docs))

	docs, err = e.Find(ctx, queryir.Find{
		Collection: "Product",
		Sort:       []queryir.SortKey{{Field: "price", Descending: true}},
		Limit:      2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p4", "p3"}, docIDs(docs))

	_, err = e.Find(ctx, queryir.Find{
		Collection: "Product",
		Sort:       []queryir.SortKey{{Field: "discounts"}},
	})
	assert.True(t, IsInvalidQuery(err))
}

func TestEngine_Find_Materializes(t *testing.T) {
	e := setupProducts(t)

	docs, err := e.Find(context.Background(), queryir.Find{
		Collection: "Product",
		Filter:     queryir.Gt{Field: "price", Value: "949"},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	var prices []string
	for _, d := range docs {
		prices = append(prices, d.Fields["price"].(decimal.Value).String())
	}
	assert.Equal(t, []string{"8888.7905", "9999.9999"}, prices)
}

func TestEngine_Find_Errors(t *testing.T) {
	e := setupProducts(t)

	tests := []struct {
		name  string
		pred  queryir.Predicate
		check func(error) bool
	}{
		{"malformed operand", queryir.Eq{Field: "price", Value: "12abc"}, decimal.IsMalformed},
		{"exponent too large", queryir.Gt{Field: "price", Value: "1e4999999"}, decimal.IsOutOfRange},
		{"exponent too small", queryir.Lt{Field: "price", Value: "1e-5000002"}, decimal.IsOutOfRange},
		{"zero divisor", queryir.Mod{Field: "price", Divisor: 0, Remainder: 0}, decimal.IsUnsupportedOperation},
		{"fractional divisor", queryir.Mod{Field: "price", Divisor: "2.5", Remainder: 1}, decimal.IsUnsupportedOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Find(context.Background(), queryir.Find{Collection: "Product", Filter: tt.pred})
			require.Error(t, err)
			assert.True(t, IsInvalidQuery(err), err.Error())
			assert.True(t, tt.check(err), err.Error())
		})
	}

	_, err := e.Find(context.Background(), queryir.Find{
		Collection: "Product",
		Filter:     queryir.Eq{Field: "name", Value: "lamp"},
	})
	assert.True(t, IsInvalidQuery(err))
}

func TestEngine_Find_ExponentBoundary(t *testing.T) {
	ctx := context.Background()
	e := setupTestEngine(t, "big", "small")

	// The largest and smallest exponents the default codec can encode.
	_, err := e.Insert(ctx, "Product", map[string]any{"price": "1e4999998"})
	require.NoError(t, err)
	_, err = e.Insert(ctx, "Product", map[string]any{"price": "1e-5000001"})
	require.NoError(t, err)

	docs, err := e.Find(ctx, queryir.Find{
		Collection: "Product",
		Sort:       []queryir.SortKey{{Field: "price"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"small", "big"}, docIDs(docs))

	docs, err = e.Find(ctx, queryir.Find{
		Collection: "Product",
		Filter:     queryir.Gte{Field: "price", Value: "1e4999998"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"big"}, docIDs(docs))
}

func TestEngine_Find_ModExactBeyondFloat(t *testing.T) {
	ctx := context.Background()
	e := setupTestEngine(t, "big_odd", "huge_even", "small", "neg_odd", "past_int64")

	for _, price := range []string{"9007199254740993", "1e30", "7", "-9007199254740993", "18446744073709551617.5"} {
		_, err := e.Insert(ctx, "Product", map[string]any{"price": price})
		require.NoError(t, err)
	}

	find := func(divisor, remainder any) []string {
		docs, err := e.Find(ctx, queryir.Find{
			Collection: "Product",
			Filter:     queryir.Mod{Field: "price", Divisor: divisor, Remainder: remainder},
		})
		require.NoError(t, err)
		return docIDs(docs)
	}

	assert.Equal(t, []string{"big_odd", "small", "past_int64"}, find(2, 1))
	assert.Equal(t, []string{"huge_even"}, find(2, 0))
	// The remainder keeps the sign of the dividend.
	assert.Equal(t, []string{"neg_odd"}, find(2, -1))
	// 10^30 mod 7 is 1.
	assert.Equal(t, []string{"huge_even"}, find(7, 1))
}

func TestEngine_Find_ModOnArray(t *testing.T) {
	ctx := context.Background()
	e := setupTestEngine(t, "a", "b")

	_, err := e.Insert(ctx, "Product", map[string]any{"price": "1", "discounts": []any{"1e30", "9007199254740993"}})
	require.NoError(t, err)
	_, err = e.Insert(ctx, "Product", map[string]any{"price": "1", "discounts": []any{"1e30"}})
	require.NoError(t, err)

	docs, err := e.Find(ctx, queryir.Find{
		Collection: "Product",
		Filter:     queryir.Mod{Field: "discounts", Divisor: 2, Remainder: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, docIDs(docs))
}

func TestEngine_Find_NorMatchesMissingField(t *testing.T) {
	ctx := context.Background()
	e := setupTestEngine(t, "with", "without", "cheap")
	item := ir.CollectionSpec{
		Name:   "Item",
		Fields: []ir.FieldSpec{{Name: "cost", Type: ir.FieldDecimal}},
	}
	require.NoError(t, e.Register(ctx, item))

	_, err := e.Insert(ctx, "Item", map[string]any{"cost": "10"})
	require.NoError(t, err)
	_, err = e.Insert(ctx, "Item", map[string]any{})
	require.NoError(t, err)
	_, err = e.Insert(ctx, "Item", map[string]any{"cost": "3"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter queryir.Predicate
		want   []string
	}{
		{
			name:   "nor gt",
			filter: queryir.Nor{Predicates: []queryir.Predicate{queryir.Gt{Field: "cost", Value: "5"}}},
			want:   []string{"without", "cheap"},
		},
		{
			name: "nor of and",
			filter: queryir.Nor{Predicates: []queryir.Predicate{queryir.And{Predicates: []queryir.Predicate{
				queryir.Gt{Field: "cost", Value: "1"},
				queryir.Lt{Field: "cost", Value: "5"},
			}}}},
			want: []string{"with", "without"},
		},
		{
			name:   "nor in",
			filter: queryir.Nor{Predicates: []queryir.Predicate{queryir.In{Field: "cost", Values: []any{"10"}}}},
			want:   []string{"without", "cheap"},
		},
		{
			name:   "nor mod",
			filter: queryir.Nor{Predicates: []queryir.Predicate{queryir.Mod{Field: "cost", Divisor: 2, Remainder: 0}}},
			want:   []string{"without", "cheap"},
		},
		{
			name:   "gt alone skips missing",
			filter: queryir.Gt{Field: "cost", Value: "5"},
			want:   []string{"with"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := e.Find(ctx, queryir.Find{Collection: "Item", Filter: tt.filter})
			require.NoError(t, err)
			assert.Equal(t, tt.want, docIDs(docs))
		})
	}
}
