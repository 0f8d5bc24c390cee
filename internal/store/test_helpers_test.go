package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/decstore/internal/ir"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// productSpec is the collection used across store tests.
func productSpec() ir.CollectionSpec {
	return ir.CollectionSpec{
		Name: "Product",
		Fields: []ir.FieldSpec{
			{Name: "discounts", Type: ir.FieldDecimal, Array: true},
			{Name: "name", Type: ir.FieldString},
			{Name: "price", Type: ir.FieldDecimal, Required: true, Index: true},
		},
	}
}

// createTestCollection registers productSpec in s.
func createTestCollection(t *testing.T, s *Store) {
	t.Helper()
	rec := CollectionRecord{
		Spec:     productSpec(),
		SpecHash: ir.MustSchemaHash(productSpec()),
		Seq:      1,
	}
	if err := s.WriteCollection(context.Background(), rec); err != nil {
		t.Fatalf("WriteCollection() failed: %v", err)
	}
}

// createTestDocument creates a Product document with a stored price.
func createTestDocument(id string, seq int64, order, raw string) ir.DocumentRecord {
	return ir.DocumentRecord{
		ID:         id,
		Collection: "Product",
		Seq:        seq,
		Body: ir.IRObject{
			"price": ir.IRObject{
				"order": ir.IRString(order),
				"raw":   ir.IRString(raw),
			},
		},
	}
}
