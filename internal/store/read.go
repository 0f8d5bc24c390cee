package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/decstore/internal/ir"
)

// ReadCollection retrieves a collection record by name.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadCollection(ctx context.Context, name string) (CollectionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT spec, spec_hash, seq
		FROM collections
		WHERE name = ?
	`, name)

	var rec CollectionRecord
	var specJSON string
	if err := row.Scan(&specJSON, &rec.SpecHash, &rec.Seq); err != nil {
		return CollectionRecord{}, err
	}

	spec, err := unmarshalSpec(specJSON)
	if err != nil {
		return CollectionRecord{}, err
	}
	rec.Spec = spec
	return rec, nil
}

// ReadCollections returns all collection records ordered by registration.
// Returns an empty slice (not nil) if none exist.
func (s *Store) ReadCollections(ctx context.Context) ([]CollectionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT spec, spec_hash, seq
		FROM collections
		ORDER BY seq ASC, name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	records := []CollectionRecord{}
	for rows.Next() {
		var rec CollectionRecord
		var specJSON string
		if err := rows.Scan(&specJSON, &rec.SpecHash, &rec.Seq); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		if rec.Spec, err = unmarshalSpec(specJSON); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return records, nil
}

// ReadDocument retrieves a single document by collection and ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadDocument(ctx context.Context, collection, id string) (ir.DocumentRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, collection, seq, body
		FROM documents
		WHERE id = ? AND collection = ?
	`, id, collection)

	return scanDocumentRow(row)
}

// ReadDocuments returns every document of a collection.
// Results are ordered deterministically: ORDER BY seq ASC, id COLLATE BINARY ASC.
func (s *Store) ReadDocuments(ctx context.Context, collection string) ([]ir.DocumentRecord, error) {
	return s.QueryDocuments(ctx, `
		SELECT id, collection, seq, body
		FROM documents
		WHERE collection = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, collection)
}

// QueryDocuments runs a compiled query selecting (id, collection, seq, body)
// and scans the result. The query is responsible for its own ORDER BY.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) QueryDocuments(ctx context.Context, query string, args ...any) ([]ir.DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := []ir.DocumentRecord{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// CountDocuments returns the number of documents in a collection.
func (s *Store) CountDocuments(ctx context.Context, collection string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM documents WHERE collection = ?
	`, collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// ReadMaxSeq returns the highest seq recorded in the store, or 0 for an
// empty store. Used to resume the logical clock after reopening.
func (s *Store) ReadMaxSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(
			(SELECT COALESCE(MAX(seq), 0) FROM collections),
			(SELECT COALESCE(MAX(seq), 0) FROM documents)
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("read max seq: %w", err)
	}
	return seq, nil
}

// scanDocument scans a row into a DocumentRecord.
func scanDocument(rows *sql.Rows) (ir.DocumentRecord, error) {
	var doc ir.DocumentRecord
	var bodyJSON string

	if err := rows.Scan(&doc.ID, &doc.Collection, &doc.Seq, &bodyJSON); err != nil {
		return ir.DocumentRecord{}, fmt.Errorf("scan document: %w", err)
	}

	body, err := unmarshalBody(bodyJSON)
	if err != nil {
		return ir.DocumentRecord{}, err
	}
	doc.Body = body
	return doc, nil
}

// scanDocumentRow scans a single row into a DocumentRecord.
func scanDocumentRow(row *sql.Row) (ir.DocumentRecord, error) {
	var doc ir.DocumentRecord
	var bodyJSON string

	if err := row.Scan(&doc.ID, &doc.Collection, &doc.Seq, &bodyJSON); err != nil {
		return ir.DocumentRecord{}, err
	}

	body, err := unmarshalBody(bodyJSON)
	if err != nil {
		return ir.DocumentRecord{}, err
	}
	doc.Body = body
	return doc, nil
}
