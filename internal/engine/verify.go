package engine

import (
	"context"
	"fmt"

	"github.com/roach88/decstore/internal/ir"
	"github.com/roach88/decstore/internal/pipeline"
)

// Problem describes one stored decimal that fails verification.
type Problem struct {
	ID      string `json:"id"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// VerifyReport is the result of auditing a collection.
type VerifyReport struct {
	Collection string    `json:"collection"`
	Documents  int       `json:"documents"`
	Decimals   int       `json:"decimals"`
	Problems   []Problem `json:"problems"`
}

// OK reports whether the audit found no problems.
func (r VerifyReport) OK() bool {
	return len(r.Problems) == 0
}

// Verify re-reads every document of a collection and checks each stored
// decimal: its raw text must decode within the codec's limits, and its order
// key must be exactly the key of that value.
//
// Verification reads only; it never repairs. A document written by a codec
// with a different configuration shows up here before it corrupts an ordered
// query. Documents are visited in ORDER BY seq, id order so two runs over the
// same store report problems in the same order.
func (e *Engine) Verify(ctx context.Context, collection string) (VerifyReport, error) {
	spec, err := e.collection(collection)
	if err != nil {
		return VerifyReport{}, err
	}

	records, err := e.store.ReadDocuments(ctx, collection)
	if err != nil {
		return VerifyReport{}, fmt.Errorf("verify %s: %w", collection, err)
	}

	report := VerifyReport{
		Collection: collection,
		Documents:  len(records),
		Problems:   []Problem{},
	}

	for _, rec := range records {
		for _, name := range spec.DecimalFields() {
			value, ok := rec.Body[name]
			if !ok {
				continue
			}
			f, _ := spec.Field(name)
			if !f.Array {
				report.Decimals++
				if err := e.verifyValue(value); err != nil {
					report.Problems = append(report.Problems, Problem{ID: rec.ID, Field: name, Message: err.Error()})
				}
				continue
			}

			arr, ok := value.(ir.IRArray)
			if !ok {
				report.Problems = append(report.Problems, Problem{
					ID:      rec.ID,
					Field:   name,
					Message: fmt.Sprintf("expected array, got %T", value),
				})
				continue
			}
			for i, elem := range arr {
				report.Decimals++
				if err := e.verifyValue(elem); err != nil {
					report.Problems = append(report.Problems, Problem{
						ID:      rec.ID,
						Field:   fmt.Sprintf("%s[%d]", name, i),
						Message: err.Error(),
					})
				}
			}
		}
	}

	if report.OK() {
		e.logger.Debug("verified collection", "collection", collection, "documents", report.Documents, "decimals", report.Decimals)
	} else {
		e.logger.Warn("collection failed verification", "collection", collection, "problems", len(report.Problems))
	}
	return report, nil
}

func (e *Engine) verifyValue(value ir.IRValue) error {
	sf, err := pipeline.StoredFieldFromIR(value)
	if err != nil {
		return err
	}
	return e.pipeline.Codec().Verify(sf)
}
