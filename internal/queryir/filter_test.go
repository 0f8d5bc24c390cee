package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name     string
		filter   map[string]any
		expected Predicate
	}{
		{
			name:     "bare value is eq",
			filter:   map[string]any{"price": "1.234"},
			expected: Eq{Field: "price", Value: "1.234"},
		},
		{
			name:     "single comparison",
			filter:   map[string]any{"price": map[string]any{"$gt": "8888.7905"}},
			expected: Gt{Field: "price", Value: "8888.7905"},
		},
		{
			name:   "range",
			filter: map[string]any{"price": map[string]any{"$gt": "1.234", "$lt": "949"}},
			expected: Range{
				Field: "price",
				Lower: Bound{Op: OpGt, Value: "1.234"},
				Upper: Bound{Op: OpLt, Value: "949"},
			},
		},
		{
			name:   "two lower bounds are a conjunction",
			filter: map[string]any{"price": map[string]any{"$gt": "1", "$gte": "2"}},
			expected: And{Predicates: []Predicate{
				Gt{Field: "price", Value: "1"},
				Gte{Field: "price", Value: "2"},
			}},
		},
		{
			name:     "in with typed slice",
			filter:   map[string]any{"discounts": map[string]any{"$in": []string{"1", "2"}}},
			expected: In{Field: "discounts", Values: []Operand{"1", "2"}},
		},
		{
			name:     "nin",
			filter:   map[string]any{"discounts": map[string]any{"$nin": []any{"1"}}},
			expected: Nin{Field: "discounts", Values: []Operand{"1"}},
		},
		{
			name:     "all",
			filter:   map[string]any{"discounts": map[string]any{"$all": []any{"1", "2"}}},
			expected: All{Field: "discounts", Values: []Operand{"1", "2"}},
		},
		{
			name:     "mod",
			filter:   map[string]any{"price": map[string]any{"$mod": []int{2, 1}}},
			expected: Mod{Field: "price", Divisor: 2, Remainder: 1},
		},
		{
			name: "or",
			filter: map[string]any{"$or": []any{
				map[string]any{"price": "9999.9999"},
				map[string]any{"price": "8888.7905"},
			}},
			expected: Or{Predicates: []Predicate{
				Eq{Field: "price", Value: "9999.9999"},
				Eq{Field: "price", Value: "8888.7905"},
			}},
		},
		{
			name: "nor",
			filter: map[string]any{"$nor": []any{
				map[string]any{"price": map[string]any{"$ne": "1"}},
			}},
			expected: Nor{Predicates: []Predicate{Ne{Field: "price", Value: "1"}}},
		},
		{
			name:   "multiple fields sorted",
			filter: map[string]any{"price": map[string]any{"$lte": "949"}, "discounts": "3"},
			expected: And{Predicates: []Predicate{
				Eq{Field: "discounts", Value: "3"},
				Lte{Field: "price", Value: "949"},
			}},
		},
		{
			name:     "explicit eq",
			filter:   map[string]any{"price": map[string]any{"$eq": 949}},
			expected: Eq{Field: "price", Value: 949},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := ParseFilter(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, pred)
			assert.True(t, Validate(pred).IsValid)
		})
	}
}

func TestParseFilter_Empty(t *testing.T) {
	pred, err := ParseFilter(map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, pred)
}

func TestParseFilter_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filter   map[string]any
		contains string
	}{
		{"unknown operator", map[string]any{"price": map[string]any{"$regex": "x"}}, "unsupported operator $regex"},
		{"in without array", map[string]any{"price": map[string]any{"$in": "1"}}, "$in requires an array"},
		{"mod arity", map[string]any{"price": map[string]any{"$mod": []any{2}}}, "$mod requires"},
		{"empty operator doc", map[string]any{"price": map[string]any{}}, "empty operator document"},
		{"mixed keys", map[string]any{"price": map[string]any{"$gt": "1", "x": "2"}}, "expected operator"},
		{"or not array", map[string]any{"$or": "x"}, "$or requires an array"},
		{"or element not doc", map[string]any{"$or": []any{"x"}}, "$or[0] must be a filter document"},
		{"empty or", map[string]any{"$or": []any{}}, "$or requires at least one filter"},
		{"unknown logical", map[string]any{"$xor": []any{}}, "unknown logical operator"},
		{"nested error", map[string]any{"$or": []any{map[string]any{"p": map[string]any{"$bad": 1}}}}, "$or[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilter(tt.filter)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
