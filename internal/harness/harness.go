package harness

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/roach88/decstore/internal/codec"
	"github.com/roach88/decstore/internal/compiler"
	"github.com/roach88/decstore/internal/decimal"
	"github.com/roach88/decstore/internal/engine"
	"github.com/roach88/decstore/internal/ir"
	"github.com/roach88/decstore/internal/pipeline"
	"github.com/roach88/decstore/internal/queryir"
	"github.com/roach88/decstore/internal/store"
	"github.com/roach88/decstore/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs scenarios against a real engine with deterministic document IDs.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
//  1. Compile the scenario's CUE schemas and register every collection
//  2. Insert documents, checking expected insert errors
//  3. Run queries, checking expected IDs or error codes
//  4. Evaluate assertions against the final store
//
// A returned error means the scenario could not be executed at all; failed
// expectations are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	collections, err := loadCollections(scenario)
	if err != nil {
		return nil, err
	}

	cfg := codec.DefaultConfig()
	if scenario.Codec != nil {
		cfg = *scenario.Codec
	}
	c, err := codec.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create codec: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	h := &Harness{
		store: st,
		engine: engine.New(st, pipeline.New(c),
			engine.WithIDGenerator(testutil.NewSequentialIDs("doc")),
			engine.WithLogger(logger),
		),
		logger: logger,
	}

	result := NewResult()

	for _, spec := range collections {
		if err := h.engine.Register(ctx, spec); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", spec.Name, err)
		}
		result.addEvent(TraceEvent{
			Type:       EventRegister,
			Collection: spec.Name,
			Seq:        h.engine.Clock().Current(),
		})
	}

	if err := h.executeDocuments(ctx, scenario.Documents, result); err != nil {
		return nil, fmt.Errorf("failed to insert documents: %w", err)
	}

	h.executeQueries(ctx, scenario.Queries, result)

	actx := &AssertionContext{
		Engine: h.engine,
		Store:  st,
		Ctx:    ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// loadCollections compiles the inline schema and every spec file.
func loadCollections(scenario *Scenario) ([]ir.CollectionSpec, error) {
	sources := make([]string, 0, len(scenario.Specs)+1)
	if scenario.Schema != "" {
		sources = append(sources, scenario.Schema)
	}
	for _, path := range scenario.Specs {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read spec %s: %w", path, err)
		}
		sources = append(sources, string(data))
	}

	var specs []ir.CollectionSpec
	for _, src := range sources {
		res, errs := compiler.LoadSource(src, compiler.LoadModeFailFast)
		if len(errs) > 0 {
			return nil, fmt.Errorf("failed to compile schema: %w", errors.Join(errs...))
		}
		specs = append(specs, res.Collections...)
	}
	return specs, nil
}

// executeDocuments inserts every document.
//
// An insert that fails as expected is traced with its error code. An
// unexpected outcome is a failed expectation, not an execution error.
func (h *Harness) executeDocuments(ctx context.Context, docs []DocumentStep, result *Result) error {
	for i, step := range docs {
		id := step.ID
		var err error
		if id != "" {
			err = h.engine.InsertWithID(ctx, step.Collection, id, step.Fields)
		} else {
			id, err = h.engine.Insert(ctx, step.Collection, step.Fields)
		}

		if err != nil {
			code := ErrorCode(err)
			result.addEvent(TraceEvent{
				Type:       EventInsert,
				Collection: step.Collection,
				ID:         step.ID,
				Error:      code,
			})
			if !matchesCode(err, step.ExpectError) {
				result.AddError(fmt.Sprintf("documents[%d]: insert failed with %s: %v", i, code, err))
			}
			continue
		}

		if step.ExpectError != "" {
			result.AddError(fmt.Sprintf("documents[%d]: expected %s, insert succeeded as %s", i, step.ExpectError, id))
		}

		rec, err := h.store.ReadDocument(ctx, step.Collection, id)
		if err != nil {
			return fmt.Errorf("document %d: read back %s: %w", i, id, err)
		}
		result.addEvent(TraceEvent{
			Type:       EventInsert,
			Collection: step.Collection,
			ID:         id,
			Seq:        rec.Seq,
			Body:       rec.Body,
		})

		h.logger.Info("document inserted", "step", i, "collection", step.Collection, "id", id, "seq", rec.Seq)
	}
	return nil
}

// executeQueries runs every query and checks its expectation.
func (h *Harness) executeQueries(ctx context.Context, queries []QueryStep, result *Result) {
	for _, step := range queries {
		ids, err := h.runQuery(ctx, step)
		ev := TraceEvent{
			Type:       EventQuery,
			Collection: step.Collection,
			Query:      step.Name,
		}

		if err != nil {
			ev.Error = ErrorCode(err)
			result.addEvent(ev)
			switch {
			case step.Expect.Error == "":
				result.AddError(fmt.Sprintf("query %s: unexpected error %s: %v", step.Name, ev.Error, err))
			case !matchesCode(err, step.Expect.Error):
				result.AddError(fmt.Sprintf("query %s: expected error %s, got %s: %v", step.Name, step.Expect.Error, ev.Error, err))
			}
			continue
		}

		ev.IDs = ids
		result.addEvent(ev)

		if step.Expect.Error != "" {
			result.AddError(fmt.Sprintf("query %s: expected error %s, got ids %v", step.Name, step.Expect.Error, ids))
			continue
		}
		want := step.Expect.IDs
		if want == nil {
			want = []string{}
		}
		if !slices.Equal(want, ids) {
			result.AddError(fmt.Sprintf("query %s: expected ids %v, got %v", step.Name, want, ids))
		}

		h.logger.Info("query executed", "query", step.Name, "matches", len(ids))
	}
}

func (h *Harness) runQuery(ctx context.Context, step QueryStep) ([]string, error) {
	filter, err := queryir.ParseFilter(step.Filter)
	if err != nil {
		return nil, &engine.Error{
			Code:       engine.ErrCodeInvalidQuery,
			Message:    "invalid filter",
			Collection: step.Collection,
			Err:        err,
		}
	}

	q := queryir.Find{
		Collection: step.Collection,
		Filter:     filter,
		Limit:      step.Limit,
	}
	for _, sk := range step.Sort {
		q.Sort = append(q.Sort, queryir.SortKey{Field: sk.Field, Descending: sk.Desc})
	}

	docs, err := h.engine.Find(ctx, q)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// ErrorCode names the most specific code carried by err: a cast code
// (MALFORMED, OUT_OF_RANGE, UNSUPPORTED_OPERATION) if there is one, otherwise
// the engine code, otherwise "ERROR".
func ErrorCode(err error) string {
	if code := decimal.Code(err); code != "" {
		return string(code)
	}
	if code := engine.Code(err); code != "" {
		return string(code)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return string(engine.ErrCodeNotFound)
	}
	return "ERROR"
}

// matchesCode reports whether err carries want, either as its most specific
// code or as its engine code. An empty want never matches.
func matchesCode(err error, want string) bool {
	if want == "" {
		return false
	}
	return ErrorCode(err) == want || string(engine.Code(err)) == want
}
