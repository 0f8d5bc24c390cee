package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/decstore/internal/ir"
	"github.com/roach88/decstore/internal/querysql"
)

// CollectionRecord is a registered collection.
type CollectionRecord struct {
	Spec     ir.CollectionSpec
	SpecHash string
	Seq      int64 // Logical clock at registration
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WriteCollection inserts or replaces a collection record and creates the
// expression indexes declared by its spec. Registering the same name again
// overwrites the stored spec; existing documents are left untouched.
func (s *Store) WriteCollection(ctx context.Context, rec CollectionRecord) error {
	specJSON, err := marshalSpec(rec.Spec)
	if err != nil {
		return fmt.Errorf("write collection: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write collection: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO collections (name, spec, spec_hash, seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			spec = excluded.spec,
			spec_hash = excluded.spec_hash,
			seq = excluded.seq
	`,
		rec.Spec.Name,
		specJSON,
		rec.SpecHash,
		rec.Seq,
	)
	if err != nil {
		return fmt.Errorf("write collection: %w", err)
	}

	for _, f := range rec.Spec.Fields {
		if !f.Index {
			continue
		}
		if err := ensureIndex(ctx, tx, rec.Spec.Name, f); err != nil {
			return fmt.Errorf("write collection: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write collection: commit: %w", err)
	}
	return nil
}

// EnsureIndex creates the expression index for an indexed field if it does
// not exist yet. Decimal fields are indexed on their order key.
func (s *Store) EnsureIndex(ctx context.Context, collection string, f ir.FieldSpec) error {
	return ensureIndex(ctx, s.db, collection, f)
}

func ensureIndex(ctx context.Context, db execer, collection string, f ir.FieldSpec) error {
	if !ir.ValidFieldName(collection) || !ir.ValidFieldName(f.Name) {
		return fmt.Errorf("ensure index: invalid name %s.%s", collection, f.Name)
	}
	if f.Array {
		return fmt.Errorf("ensure index: array field %s.%s cannot be indexed", collection, f.Name)
	}

	expr := querysql.ValueExpr(f.Name)
	if f.Type == ir.FieldDecimal {
		expr = querysql.OrderExpr(f.Name)
	}

	// Names are validated identifiers, so they can be embedded directly.
	stmt := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %q ON documents(collection, %s)`,
		IndexName(collection, f.Name), expr,
	)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("ensure index %s.%s: %w", collection, f.Name, err)
	}
	return nil
}

// IndexName returns the name of the expression index for a field.
func IndexName(collection, field string) string {
	return fmt.Sprintf("idx_doc_%s_%s", collection, field)
}

// WriteDocument inserts a document. Returns ErrDuplicateID (wrapped) when the
// ID is already taken.
//
// The body is serialized to canonical JSON per RFC 8785.
// Note: The collection must exist (foreign key constraint).
func (s *Store) WriteDocument(ctx context.Context, doc ir.DocumentRecord) error {
	if err := writeDocument(ctx, s.db, doc); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// WriteDocuments inserts documents in a single transaction. Either every
// document is written or none is.
func (s *Store) WriteDocuments(ctx context.Context, docs []ir.DocumentRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write documents: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for i, doc := range docs {
		if err := writeDocument(ctx, tx, doc); err != nil {
			return fmt.Errorf("write documents: document %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write documents: commit: %w", err)
	}
	return nil
}

func writeDocument(ctx context.Context, db execer, doc ir.DocumentRecord) error {
	bodyJSON, err := marshalBody(doc.Body)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO documents (id, collection, seq, body)
		VALUES (?, ?, ?, ?)
	`,
		doc.ID,
		doc.Collection,
		doc.Seq,
		bodyJSON,
	)
	if isPrimaryKeyViolation(err) {
		return fmt.Errorf("%s: %w", doc.ID, ErrDuplicateID)
	}
	return err
}

// ReplaceDocument overwrites the body and seq of an existing document.
// Returns false if no document with that ID exists in the collection.
func (s *Store) ReplaceDocument(ctx context.Context, doc ir.DocumentRecord) (bool, error) {
	bodyJSON, err := marshalBody(doc.Body)
	if err != nil {
		return false, fmt.Errorf("replace document: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE documents SET body = ?, seq = ?
		WHERE id = ? AND collection = ?
	`,
		bodyJSON,
		doc.Seq,
		doc.ID,
		doc.Collection,
	)
	if err != nil {
		return false, fmt.Errorf("replace document: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("replace document: rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteDocument removes a document. Returns false if it did not exist.
func (s *Store) DeleteDocument(ctx context.Context, collection, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM documents WHERE id = ? AND collection = ?
	`, id, collection)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete document: rows affected: %w", err)
	}
	return n > 0, nil
}
