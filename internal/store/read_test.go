package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/roach88/decstore/internal/ir"
	"github.com/roach88/decstore/internal/keyir"
	"github.com/roach88/decstore/internal/queryir"
	"github.com/roach88/decstore/internal/querysql"
)

func TestReadCollection_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadCollection(context.Background(), "Missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("ReadCollection() error = %v, want sql.ErrNoRows", err)
	}
}

func TestReadCollection_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	createTestCollection(t, s)

	got, err := s.ReadCollection(context.Background(), "Product")
	if err != nil {
		t.Fatalf("ReadCollection() failed: %v", err)
	}

	want := productSpec()
	if len(got.Spec.Fields) != len(want.Fields) {
		t.Fatalf("fields = %d, want %d", len(got.Spec.Fields), len(want.Fields))
	}
	for i := range want.Fields {
		if got.Spec.Fields[i] != want.Fields[i] {
			t.Errorf("field %d = %+v, want %+v", i, got.Spec.Fields[i], want.Fields[i])
		}
	}
	if got.SpecHash != ir.MustSchemaHash(want) {
		t.Error("spec hash mismatch")
	}
}

func TestReadCollections_Ordered(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	records, err := s.ReadCollections(ctx)
	if err != nil {
		t.Fatalf("ReadCollections() failed: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("ReadCollections() on empty store = %v, want empty slice", records)
	}

	for i, name := range []string{"Zeta", "Alpha", "Beta"} {
		spec := ir.CollectionSpec{Name: name, Fields: []ir.FieldSpec{{Name: "v", Type: ir.FieldDecimal}}}
		rec := CollectionRecord{Spec: spec, SpecHash: ir.MustSchemaHash(spec), Seq: int64(10 - i)}
		if err := s.WriteCollection(ctx, rec); err != nil {
			t.Fatalf("WriteCollection(%s) failed: %v", name, err)
		}
	}

	records, err = s.ReadCollections(ctx)
	if err != nil {
		t.Fatalf("ReadCollections() failed: %v", err)
	}
	var names []string
	for _, r := range records {
		names = append(names, r.Spec.Name)
	}
	want := []string{"Beta", "Alpha", "Zeta"}
	for i := range want {
		if i >= len(names) || names[i] != want[i] {
			t.Fatalf("order = %v, want %v", names, want)
		}
	}
}

func TestReadDocuments_DeterministicOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestCollection(t, s)

	docs := []ir.DocumentRecord{
		createTestDocument("c", 3, "1", "0e+0"),
		createTestDocument("b", 2, "1", "0e+0"),
		createTestDocument("a", 3, "1", "0e+0"),
	}
	if err := s.WriteDocuments(ctx, docs); err != nil {
		t.Fatalf("WriteDocuments() failed: %v", err)
	}

	got, err := s.ReadDocuments(ctx, "Product")
	if err != nil {
		t.Fatalf("ReadDocuments() failed: %v", err)
	}

	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %d documents, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("document %d = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestReadDocuments_EmptySlice(t *testing.T) {
	s := createTestStore(t)
	createTestCollection(t, s)

	got, err := s.ReadDocuments(context.Background(), "Product")
	if err != nil {
		t.Fatalf("ReadDocuments() failed: %v", err)
	}
	if got == nil {
		t.Error("ReadDocuments() returned nil, want empty slice")
	}
}

func TestQueryDocuments_CompiledOrderKeyComparison(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestCollection(t, s)

	docs := []ir.DocumentRecord{
		createTestDocument("small", 2, "250000011234.", "1.234e+0"),
		createTestDocument("negative", 3, "050000018~", "-1e-3"),
		createTestDocument("large", 4, "25000003949.", "9.49e+2"),
		createTestDocument("zero", 5, "1", "0e+0"),
	}
	if err := s.WriteDocuments(ctx, docs); err != nil {
		t.Fatalf("WriteDocuments() failed: %v", err)
	}

	query, params, err := querysql.NewSQLCompiler(productSpec()).Compile(keyir.Find{
		Collection: "Product",
		Filter:     keyir.Compare{Field: "price", Op: queryir.OpGte, Key: "1"},
		Sort:       []queryir.SortKey{{Field: "price", Descending: true}},
	})
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}

	got, err := s.QueryDocuments(ctx, query, params...)
	if err != nil {
		t.Fatalf("QueryDocuments() failed: %v", err)
	}

	want := []string{"large", "small", "zero"}
	if len(got) != len(want) {
		t.Fatalf("got %d documents, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("document %d = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestReadMaxSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.ReadMaxSeq(ctx)
	if err != nil {
		t.Fatalf("ReadMaxSeq() failed: %v", err)
	}
	if seq != 0 {
		t.Errorf("ReadMaxSeq() on empty store = %d, want 0", seq)
	}

	createTestCollection(t, s)
	if err := s.WriteDocument(ctx, createTestDocument("doc-1", 42, "1", "0e+0")); err != nil {
		t.Fatalf("WriteDocument() failed: %v", err)
	}

	seq, err = s.ReadMaxSeq(ctx)
	if err != nil {
		t.Fatalf("ReadMaxSeq() failed: %v", err)
	}
	if seq != 42 {
		t.Errorf("ReadMaxSeq() = %d, want 42", seq)
	}
}
