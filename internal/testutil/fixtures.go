// Package testutil holds deterministic helpers and shared fixtures for tests
// and scenario runs.
package testutil

import "github.com/roach88/decstore/internal/ir"

// ProductIDs are the IDs conventionally given to the Products fixture.
var ProductIDs = []string{"p0", "p1", "p2", "p3", "p4"}

// ProductSpec is the collection the Products fixture belongs to.
func ProductSpec() ir.CollectionSpec {
	return ir.CollectionSpec{
		Name: "Product",
		Fields: []ir.FieldSpec{
			{Name: "discounts", Type: ir.FieldDecimal, Array: true},
			{Name: "name", Type: ir.FieldString},
			{Name: "price", Type: ir.FieldDecimal, Required: true, Index: true},
		},
	}
}

// Products returns five products. Their prices sort differently as text than
// as numbers (949 < 98.993 lexically), and each shares one discount with its
// neighbour.
//
//	p0  1.234      {1, 2}
//	p1  98.993     {2, 3}
//	p2  949        {3, 4}
//	p3  8888.7905  {4, 5}
//	p4  9999.9999  {5}
func Products() []map[string]any {
	return []map[string]any{
		{"price": "1.234", "discounts": []any{"1", "2"}, "name": "pencil"},
		{"price": "98.993", "discounts": []any{"2", "3"}, "name": "lamp"},
		{"price": "949", "discounts": []any{"3", "4"}, "name": "chair"},
		{"price": "8888.7905", "discounts": []any{"4", "5"}, "name": "piano"},
		{"price": "9999.9999", "discounts": []any{"5"}, "name": "boat"},
	}
}
