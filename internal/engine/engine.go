package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/decstore/internal/ir"
	"github.com/roach88/decstore/internal/keyir"
	"github.com/roach88/decstore/internal/pipeline"
	"github.com/roach88/decstore/internal/queryir"
	"github.com/roach88/decstore/internal/querysql"
	"github.com/roach88/decstore/internal/store"
)

// Document is a materialized document. Decimal fields hold decimal.Value
// (or []decimal.Value for array fields).
type Document struct {
	ID         string
	Collection string
	Seq        int64
	Fields     map[string]any
}

// Engine is the document store driver.
//
// Every write passes through the pipeline's storage cast, every query through
// its query cast, and every read through materialization. Application code
// never sees an order key.
//
// Thread-safety model:
//   - All methods are safe for concurrent use.
//   - The store serializes writes (single connection); seqs come from the
//     atomic Clock, so two writes never share a seq.
type Engine struct {
	store    *store.Store
	pipeline *pipeline.Pipeline
	clock    *Clock
	ids      IDGenerator
	logger   *slog.Logger

	mu          sync.RWMutex
	collections map[string]ir.CollectionSpec
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithIDGenerator sets the document ID generator.
//
// Default: UUIDv7Generator.
// Use WithIDGenerator(NewFixedGenerator(...)) for deterministic tests.
func WithIDGenerator(g IDGenerator) EngineOption {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithLogger sets the engine's logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine with a fresh clock and no registered collections.
func New(s *store.Store, p *pipeline.Pipeline, opts ...EngineOption) *Engine {
	return NewWithClock(s, p, NewClock(), opts...)
}

// NewWithClock creates an Engine with a pre-configured clock.
// Used to resume after the last recorded write.
func NewWithClock(s *store.Store, p *pipeline.Pipeline, clock *Clock, opts ...EngineOption) *Engine {
	e := &Engine{
		store:       s,
		pipeline:    p,
		clock:       clock,
		ids:         UUIDv7Generator{},
		logger:      slog.Default(),
		collections: make(map[string]ir.CollectionSpec),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Open creates an Engine over an existing store. Collections already
// registered in the store are loaded and the clock resumes after the
// highest recorded seq.
func Open(ctx context.Context, s *store.Store, p *pipeline.Pipeline, opts ...EngineOption) (*Engine, error) {
	clock, err := ResumeClock(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("open engine: %w", err)
	}

	records, err := s.ReadCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("open engine: %w", err)
	}

	e := NewWithClock(s, p, clock, opts...)
	for _, rec := range records {
		e.collections[rec.Spec.Name] = rec.Spec
	}

	e.logger.Debug("engine opened", "collections", len(records), "seq", clock.Current())
	return e, nil
}

// Pipeline returns the engine's cast pipeline.
func (e *Engine) Pipeline() *pipeline.Pipeline {
	return e.pipeline
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// Register declares a collection.
//
// Registering the same spec again is a no-op. Registering a different spec
// under a name already in use fails with SCHEMA_CONFLICT.
func (e *Engine) Register(ctx context.Context, spec ir.CollectionSpec) error {
	if err := spec.Validate(); err != nil {
		return &Error{
			Code:       ErrCodeInvalidSchema,
			Message:    "invalid collection spec",
			Collection: spec.Name,
			Err:        err,
		}
	}

	hash, err := ir.SchemaHash(spec)
	if err != nil {
		return fmt.Errorf("register %s: %w", spec.Name, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.collections[spec.Name]; ok {
		existingHash, err := ir.SchemaHash(existing)
		if err != nil {
			return fmt.Errorf("register %s: %w", spec.Name, err)
		}
		if existingHash == hash {
			return nil
		}
		return &Error{
			Code:       ErrCodeSchemaConflict,
			Message:    fmt.Sprintf("registered spec hash %s differs from %s", existingHash, hash),
			Collection: spec.Name,
		}
	}

	spec.Fields = slices.Clone(spec.Fields)
	rec := store.CollectionRecord{
		Spec:     spec,
		SpecHash: hash,
		Seq:      e.clock.Next(),
	}
	if err := e.store.WriteCollection(ctx, rec); err != nil {
		return fmt.Errorf("register %s: %w", spec.Name, err)
	}
	e.collections[spec.Name] = spec

	e.logger.Info("registered collection",
		"collection", spec.Name,
		"fields", len(spec.Fields),
		"decimal_fields", len(spec.DecimalFields()),
		"spec_hash", hash,
	)
	return nil
}

// Collection returns the spec of a registered collection.
func (e *Engine) Collection(name string) (ir.CollectionSpec, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	spec, ok := e.collections[name]
	return spec, ok
}

// Collections returns every registered collection, sorted by name.
func (e *Engine) Collections() []ir.CollectionSpec {
	e.mu.RLock()
	defer e.mu.RUnlock()

	specs := make([]ir.CollectionSpec, 0, len(e.collections))
	for _, spec := range e.collections {
		specs = append(specs, spec)
	}
	slices.SortFunc(specs, func(a, b ir.CollectionSpec) int {
		return strings.Compare(a.Name, b.Name)
	})
	return specs
}

func (e *Engine) collection(name string) (ir.CollectionSpec, error) {
	spec, ok := e.Collection(name)
	if !ok {
		return ir.CollectionSpec{}, unknownCollection(name)
	}
	return spec, nil
}

// Insert casts fields and stores them as a new document under a generated ID.
func (e *Engine) Insert(ctx context.Context, collection string, fields map[string]any) (string, error) {
	ids, err := e.InsertMany(ctx, collection, []map[string]any{fields})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// InsertWithID is like Insert but uses the caller's document ID.
func (e *Engine) InsertWithID(ctx context.Context, collection, id string, fields map[string]any) error {
	if id == "" {
		return invalidDocument(collection, errors.New("document id is required"))
	}
	spec, err := e.collection(collection)
	if err != nil {
		return err
	}
	body, err := e.pipeline.CastDocument(spec, fields)
	if err != nil {
		return invalidDocument(collection, err)
	}
	return e.write(ctx, collection, []ir.DocumentRecord{{ID: id, Collection: collection, Body: body}})
}

// InsertMany casts and stores several documents atomically. If any document
// fails its cast, nothing is written and no IDs are consumed.
func (e *Engine) InsertMany(ctx context.Context, collection string, docs []map[string]any) ([]string, error) {
	spec, err := e.collection(collection)
	if err != nil {
		return nil, err
	}

	records := make([]ir.DocumentRecord, 0, len(docs))
	for i, fields := range docs {
		body, err := e.pipeline.CastDocument(spec, fields)
		if err != nil {
			if len(docs) > 1 {
				err = fmt.Errorf("document %d: %w", i, err)
			}
			return nil, invalidDocument(collection, err)
		}
		records = append(records, ir.DocumentRecord{Collection: collection, Body: body})
	}

	ids := make([]string, len(records))
	for i := range records {
		records[i].ID = e.ids.Generate()
		ids[i] = records[i].ID
	}

	if err := e.write(ctx, collection, records); err != nil {
		return nil, err
	}
	return ids, nil
}

// write stamps seqs and stores records in one transaction.
func (e *Engine) write(ctx context.Context, collection string, records []ir.DocumentRecord) error {
	if len(records) == 0 {
		return nil
	}
	first := e.clock.Reserve(len(records))
	for i := range records {
		records[i].Seq = first + int64(i)
	}

	if err := e.store.WriteDocuments(ctx, records); err != nil {
		if errors.Is(err, store.ErrDuplicateID) {
			return &Error{
				Code:       ErrCodeDuplicateID,
				Message:    "document id already exists",
				Collection: collection,
				Err:        err,
			}
		}
		return fmt.Errorf("insert into %s: %w", collection, err)
	}

	e.logger.Debug("inserted documents",
		"collection", collection,
		"count", len(records),
		"last_seq", records[len(records)-1].Seq,
	)
	return nil
}

// Replace overwrites an existing document with newly cast fields.
func (e *Engine) Replace(ctx context.Context, collection, id string, fields map[string]any) error {
	spec, err := e.collection(collection)
	if err != nil {
		return err
	}

	body, err := e.pipeline.CastDocument(spec, fields)
	if err != nil {
		return invalidDocument(collection, err)
	}

	ok, err := e.store.ReplaceDocument(ctx, ir.DocumentRecord{
		ID:         id,
		Collection: collection,
		Seq:        e.clock.Next(),
		Body:       body,
	})
	if err != nil {
		return fmt.Errorf("replace %s/%s: %w", collection, id, err)
	}
	if !ok {
		return notFound(collection, id)
	}

	e.logger.Debug("replaced document", "collection", collection, "id", id)
	return nil
}

// Delete removes a document.
func (e *Engine) Delete(ctx context.Context, collection, id string) error {
	if _, err := e.collection(collection); err != nil {
		return err
	}

	ok, err := e.store.DeleteDocument(ctx, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if !ok {
		return notFound(collection, id)
	}

	e.logger.Debug("deleted document", "collection", collection, "id", id)
	return nil
}

// Get reads and materializes one document.
func (e *Engine) Get(ctx context.Context, collection, id string) (Document, error) {
	spec, err := e.collection(collection)
	if err != nil {
		return Document{}, err
	}

	rec, err := e.store.ReadDocument(ctx, collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, notFound(collection, id)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}

	return e.materialize(spec, rec)
}

// Count returns the number of documents in a collection.
func (e *Engine) Count(ctx context.Context, collection string) (int64, error) {
	if _, err := e.collection(collection); err != nil {
		return 0, err
	}
	return e.store.CountDocuments(ctx, collection)
}

// FindStored runs a query and returns the matching documents as stored,
// with decimal fields still in their order/raw shape.
//
// Results are ordered by q.Sort (decimal fields by numeric value), then by
// seq and ID.
func (e *Engine) FindStored(ctx context.Context, q queryir.Find) ([]ir.DocumentRecord, error) {
	spec, err := e.collection(q.Collection)
	if err != nil {
		return nil, err
	}

	native, err := e.pipeline.CastQuery(q)
	if err != nil {
		return nil, invalidQuery(q.Collection, err)
	}

	query, params, err := querysql.NewSQLCompiler(spec).Compile(native)
	if err != nil {
		return nil, invalidQuery(q.Collection, err)
	}

	e.logger.Debug("compiled query",
		"collection", q.Collection,
		"fields", keyir.Fields(native.Filter),
		"sql", query,
		"params", len(params),
	)

	records, err := e.store.QueryDocuments(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", q.Collection, err)
	}
	return records, nil
}

// Find runs a query and materializes the matching documents.
// Returns an empty slice (not nil) if nothing matches.
func (e *Engine) Find(ctx context.Context, q queryir.Find) ([]Document, error) {
	records, err := e.FindStored(ctx, q)
	if err != nil {
		return nil, err
	}

	spec, err := e.collection(q.Collection)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(records))
	for _, rec := range records {
		doc, err := e.materialize(spec, rec)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// FindFilter parses a filter document (for example
// {"price": {"$gte": "10"}}) and runs it against a collection.
func (e *Engine) FindFilter(ctx context.Context, collection string, filter map[string]any) ([]Document, error) {
	pred, err := queryir.ParseFilter(filter)
	if err != nil {
		return nil, invalidQuery(collection, err)
	}
	return e.Find(ctx, queryir.Find{Collection: collection, Filter: pred})
}

func (e *Engine) materialize(spec ir.CollectionSpec, rec ir.DocumentRecord) (Document, error) {
	fields, err := e.pipeline.MaterializeDocument(spec, rec.Body)
	if err != nil {
		return Document{}, fmt.Errorf("read %s/%s: %w", rec.Collection, rec.ID, err)
	}
	return Document{
		ID:         rec.ID,
		Collection: rec.Collection,
		Seq:        rec.Seq,
		Fields:     fields,
	}, nil
}
