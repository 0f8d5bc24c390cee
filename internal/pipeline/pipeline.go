// Package pipeline is the boundary between application values and the
// persisted representation of decimal fields.
//
// Writes go through CastForStorage, queries through CastForQuery, and reads
// through Materialize. Document-level helpers apply the same casts to every
// decimal field declared by a collection spec.
package pipeline

import (
	"fmt"
	"reflect"

	"github.com/roach88/decstore/internal/caster"
	"github.com/roach88/decstore/internal/codec"
	"github.com/roach88/decstore/internal/decimal"
	"github.com/roach88/decstore/internal/keyir"
	"github.com/roach88/decstore/internal/queryir"
)

// Pipeline casts values and predicates with one codec.
// It is immutable and safe for concurrent use.
type Pipeline struct {
	codec  *codec.Codec
	caster *caster.Caster
}

// New creates a Pipeline.
func New(c *codec.Codec) *Pipeline {
	return &Pipeline{codec: c, caster: caster.New(c)}
}

// Codec returns the pipeline's codec.
func (p *Pipeline) Codec() *codec.Codec {
	return p.codec
}

// CastForStorage turns an application literal into a StoredField.
func (p *Pipeline) CastForStorage(lit any) (codec.StoredField, error) {
	v, err := p.codec.ParseLiteral(lit)
	if err != nil {
		return codec.StoredField{}, err
	}
	return p.codec.Store(v)
}

// CastArrayForStorage casts every element. If any element fails, no fields
// are returned.
func (p *Pipeline) CastArrayForStorage(lits []any) ([]codec.StoredField, error) {
	out := make([]codec.StoredField, 0, len(lits))
	for i, lit := range lits {
		sf, err := p.CastForStorage(lit)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, sf)
	}
	return out, nil
}

// CastForQuery converts a query predicate into a native predicate.
func (p *Pipeline) CastForQuery(pred queryir.Predicate) (keyir.Predicate, error) {
	return p.caster.Cast(pred)
}

// CastQuery converts a Find query into a native query.
func (p *Pipeline) CastQuery(q queryir.Find) (keyir.Find, error) {
	return p.caster.CastQuery(q)
}

// Materialize reconstructs a decimal from its stored raw text. The order key
// is never consulted.
func (p *Pipeline) Materialize(sf codec.StoredField) (decimal.Value, error) {
	return p.codec.Load(sf)
}

// MaterializeArray reconstructs every element of a decimal array field.
func (p *Pipeline) MaterializeArray(fields []codec.StoredField) ([]decimal.Value, error) {
	out := make([]decimal.Value, 0, len(fields))
	for i, sf := range fields {
		v, err := p.Materialize(sf)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// toSlice converts any slice or array to []any. Other values are wrapped in a
// one-element slice.
func toSlice(value any) []any {
	if items, ok := value.([]any); ok {
		return items
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{value}
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items
}
