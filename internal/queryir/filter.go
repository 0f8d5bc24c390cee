package queryir

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// ParseFilter builds a Predicate from a Mongo-style filter document.
//
//	{"price": "1.234"}                              → Eq
//	{"price": {"$gt": "98.993"}}                    → Gt
//	{"price": {"$gte": "1.234", "$lte": "949"}}     → Range
//	{"discounts": {"$all": ["1", "2"]}}             → All
//	{"price": {"$mod": [2, 1]}}                     → Mod
//	{"$or": [{"price": "1.234"}, {"price": "949"}]} → Or
//
// Several fields, or several operators on one field that do not form a
// range, become an And with keys in sorted order. An empty filter returns a
// nil Predicate, which matches every document.
func ParseFilter(filter map[string]any) (Predicate, error) {
	keys := sortedKeys(filter)
	preds := make([]Predicate, 0, len(keys))

	for _, key := range keys {
		value := filter[key]
		var (
			pred Predicate
			err  error
		)
		if strings.HasPrefix(key, "$") {
			pred, err = parseLogical(key, value)
		} else {
			pred, err = parseField(key, value)
		}
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}

	switch len(preds) {
	case 0:
		return nil, nil
	case 1:
		return preds[0], nil
	default:
		return And{Predicates: preds}, nil
	}
}

func parseLogical(key string, value any) (Predicate, error) {
	items, ok := toSlice(value)
	if !ok {
		return nil, fmt.Errorf("%s requires an array of filters, got %T", key, value)
	}

	preds := make([]Predicate, 0, len(items))
	for i, item := range items {
		doc, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a filter document, got %T", key, i, item)
		}
		pred, err := ParseFilter(doc)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		if pred == nil {
			pred = And{}
		}
		preds = append(preds, pred)
	}

	switch key {
	case "$or":
		if len(preds) == 0 {
			return nil, fmt.Errorf("$or requires at least one filter")
		}
		return Or{Predicates: preds}, nil
	case "$nor":
		if len(preds) == 0 {
			return nil, fmt.Errorf("$nor requires at least one filter")
		}
		return Nor{Predicates: preds}, nil
	case "$and":
		return And{Predicates: preds}, nil
	default:
		return nil, fmt.Errorf("unknown logical operator %s", key)
	}
}

func parseField(field string, value any) (Predicate, error) {
	doc, ok := value.(map[string]any)
	if !ok {
		return Eq{Field: field, Value: value}, nil
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("field '%s': empty operator document", field)
	}

	ops := sortedKeys(doc)
	for _, op := range ops {
		if !strings.HasPrefix(op, "$") {
			return nil, fmt.Errorf("field '%s': expected operator, got key %q", field, op)
		}
	}

	if r, ok := asRange(field, doc); ok {
		return r, nil
	}

	preds := make([]Predicate, 0, len(ops))
	for _, op := range ops {
		pred, err := parseOperator(field, op, doc[op])
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	if len(preds) == 1 {
		return preds[0], nil
	}
	return And{Predicates: preds}, nil
}

// asRange recognizes an operator document holding exactly one lower bound
// and exactly one upper bound.
func asRange(field string, doc map[string]any) (Range, bool) {
	if len(doc) != 2 {
		return Range{}, false
	}
	var (
		lower, upper       Bound
		hasLower, hasUpper bool
	)
	for op, v := range doc {
		switch op {
		case "$gt", "$gte":
			lower, hasLower = Bound{Op: Op(op[1:]), Value: v}, true
		case "$lt", "$lte":
			upper, hasUpper = Bound{Op: Op(op[1:]), Value: v}, true
		}
	}
	if !hasLower || !hasUpper {
		return Range{}, false
	}
	return Range{Field: field, Lower: lower, Upper: upper}, true
}

func parseOperator(field, op string, value any) (Predicate, error) {
	switch op {
	case "$eq":
		return Eq{Field: field, Value: value}, nil
	case "$ne":
		return Ne{Field: field, Value: value}, nil
	case "$gt":
		return Gt{Field: field, Value: value}, nil
	case "$gte":
		return Gte{Field: field, Value: value}, nil
	case "$lt":
		return Lt{Field: field, Value: value}, nil
	case "$lte":
		return Lte{Field: field, Value: value}, nil
	case "$in", "$nin", "$all":
		items, ok := toSlice(value)
		if !ok {
			return nil, fmt.Errorf("field '%s': %s requires an array, got %T", field, op, value)
		}
		switch op {
		case "$in":
			return In{Field: field, Values: items}, nil
		case "$nin":
			return Nin{Field: field, Values: items}, nil
		default:
			return All{Field: field, Values: items}, nil
		}
	case "$mod":
		items, ok := toSlice(value)
		if !ok || len(items) != 2 {
			return nil, fmt.Errorf("field '%s': $mod requires [divisor, remainder]", field)
		}
		return Mod{Field: field, Divisor: items[0], Remainder: items[1]}, nil
	default:
		return nil, fmt.Errorf("field '%s': unsupported operator %s", field, op)
	}
}

// toSlice converts any slice or array value to []any.
func toSlice(value any) ([]any, bool) {
	if items, ok := value.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
