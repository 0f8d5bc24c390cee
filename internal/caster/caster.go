// Package caster rewrites queryir predicates over decimal fields into keyir
// predicates over order keys.
//
// Every comparison operand is parsed and encoded with the same codec used at
// write time, so a store comparing strings byte-wise evaluates the predicate
// with numeric semantics. Any failing operand aborts the whole cast; no
// partial predicate is ever returned.
package caster

import (
	"fmt"

	"github.com/roach88/decstore/internal/codec"
	"github.com/roach88/decstore/internal/decimal"
	"github.com/roach88/decstore/internal/keyir"
	"github.com/roach88/decstore/internal/queryir"
)

// Caster converts query predicates using a fixed codec.
// It holds no mutable state and is safe for concurrent use.
type Caster struct {
	codec *codec.Codec
}

// New creates a Caster.
func New(c *codec.Codec) *Caster {
	return &Caster{codec: c}
}

// CastQuery casts the filter of a Find query.
func (c *Caster) CastQuery(q queryir.Find) (keyir.Find, error) {
	if result := queryir.Validate(q); !result.IsValid {
		return keyir.Find{}, result.Err()
	}

	out := keyir.Find{
		Collection: q.Collection,
		Sort:       q.Sort,
		Limit:      q.Limit,
	}
	if q.Filter != nil {
		filter, err := c.cast(q.Filter)
		if err != nil {
			return keyir.Find{}, err
		}
		out.Filter = filter
	}
	return out, nil
}

// Cast converts a single predicate. Errors are *decimal.CastError or
// *decimal.UnsupportedOperationError naming the field and offending operand,
// or a plain error for a structurally invalid predicate.
func (c *Caster) Cast(p queryir.Predicate) (keyir.Predicate, error) {
	if result := queryir.Validate(p); !result.IsValid {
		return nil, result.Err()
	}
	return c.cast(p)
}

func (c *Caster) cast(p queryir.Predicate) (keyir.Predicate, error) {
	switch pred := p.(type) {
	case queryir.Eq:
		return c.compare(pred.Field, queryir.OpEq, pred.Value)
	case *queryir.Eq:
		return c.compare(pred.Field, queryir.OpEq, pred.Value)
	case queryir.Ne:
		return c.compare(pred.Field, queryir.OpNe, pred.Value)
	case *queryir.Ne:
		return c.compare(pred.Field, queryir.OpNe, pred.Value)
	case queryir.Gt:
		return c.compare(pred.Field, queryir.OpGt, pred.Value)
	case *queryir.Gt:
		return c.compare(pred.Field, queryir.OpGt, pred.Value)
	case queryir.Gte:
		return c.compare(pred.Field, queryir.OpGte, pred.Value)
	case *queryir.Gte:
		return c.compare(pred.Field, queryir.OpGte, pred.Value)
	case queryir.Lt:
		return c.compare(pred.Field, queryir.OpLt, pred.Value)
	case *queryir.Lt:
		return c.compare(pred.Field, queryir.OpLt, pred.Value)
	case queryir.Lte:
		return c.compare(pred.Field, queryir.OpLte, pred.Value)
	case *queryir.Lte:
		return c.compare(pred.Field, queryir.OpLte, pred.Value)
	case queryir.In:
		return c.set(pred.Field, queryir.OpIn, pred.Values)
	case *queryir.In:
		return c.set(pred.Field, queryir.OpIn, pred.Values)
	case queryir.Nin:
		return c.set(pred.Field, queryir.OpNin, pred.Values)
	case *queryir.Nin:
		return c.set(pred.Field, queryir.OpNin, pred.Values)
	case queryir.All:
		return c.set(pred.Field, queryir.OpAll, pred.Values)
	case *queryir.All:
		return c.set(pred.Field, queryir.OpAll, pred.Values)
	case queryir.Mod:
		return c.mod(pred)
	case *queryir.Mod:
		return c.mod(*pred)
	case queryir.Range:
		return c.rangePredicate(pred)
	case *queryir.Range:
		return c.rangePredicate(*pred)
	case queryir.Or:
		return c.logical(queryir.OpOr, pred.Predicates)
	case *queryir.Or:
		return c.logical(queryir.OpOr, pred.Predicates)
	case queryir.Nor:
		return c.logical(queryir.OpNor, pred.Predicates)
	case *queryir.Nor:
		return c.logical(queryir.OpNor, pred.Predicates)
	case queryir.And:
		return c.logical(queryir.OpAnd, pred.Predicates)
	case *queryir.And:
		return c.logical(queryir.OpAnd, pred.Predicates)
	default:
		return nil, fmt.Errorf("unsupported predicate type %T", p)
	}
}

// key parses and encodes one operand, annotating errors with the field.
func (c *Caster) key(field string, operand queryir.Operand) (codec.OrderKey, error) {
	v, err := c.codec.ParseLiteral(operand)
	if err != nil {
		return "", decimal.WithField(err, field)
	}
	k, err := c.codec.Encode(v)
	if err != nil {
		return "", decimal.WithField(err, field)
	}
	return k, nil
}

func (c *Caster) compare(field string, op queryir.Op, operand queryir.Operand) (keyir.Predicate, error) {
	k, err := c.key(field, operand)
	if err != nil {
		return nil, err
	}
	return keyir.Compare{Field: field, Op: op, Key: k}, nil
}

func (c *Caster) set(field string, op queryir.Op, operands []queryir.Operand) (keyir.Predicate, error) {
	keys := make([]codec.OrderKey, 0, len(operands))
	for _, operand := range operands {
		k, err := c.key(field, operand)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keyir.Set{Field: field, Op: op, Keys: keys}, nil
}

func (c *Caster) rangePredicate(r queryir.Range) (keyir.Predicate, error) {
	lower, err := c.compare(r.Field, r.Lower.Op, r.Lower.Value)
	if err != nil {
		return nil, err
	}
	upper, err := c.compare(r.Field, r.Upper.Op, r.Upper.Value)
	if err != nil {
		return nil, err
	}
	return keyir.Logical{Op: queryir.OpAnd, Predicates: []keyir.Predicate{lower, upper}}, nil
}

func (c *Caster) logical(op queryir.Op, preds []queryir.Predicate) (keyir.Predicate, error) {
	out := make([]keyir.Predicate, 0, len(preds))
	for _, p := range preds {
		sub, err := c.cast(p)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return keyir.Logical{Op: op, Predicates: out}, nil
}

// mod requires integral operands that fit in int64 and a non-zero divisor.
func (c *Caster) mod(m queryir.Mod) (keyir.Predicate, error) {
	divisor, err := c.integer(m.Field, m.Divisor)
	if err != nil {
		return nil, err
	}
	if divisor == 0 {
		return nil, &decimal.UnsupportedOperationError{
			Op:      string(queryir.OpMod),
			Field:   m.Field,
			Operand: "0",
			Message: "divisor must be non-zero",
		}
	}
	remainder, err := c.integer(m.Field, m.Remainder)
	if err != nil {
		return nil, err
	}
	return keyir.Mod{Field: m.Field, Divisor: divisor, Remainder: remainder}, nil
}

func (c *Caster) integer(field string, operand queryir.Operand) (int64, error) {
	v, err := c.codec.ParseLiteral(operand)
	if err != nil {
		return 0, decimal.WithField(err, field)
	}
	if !v.IsInteger() {
		return 0, &decimal.UnsupportedOperationError{
			Op:      string(queryir.OpMod),
			Field:   field,
			Operand: v.String(),
			Message: "requires integral divisor and remainder",
		}
	}
	n, ok := v.Int64()
	if !ok {
		return 0, &decimal.CastError{
			Code:    decimal.ErrCodeOutOfRange,
			Message: "mod operand does not fit in a 64-bit integer",
			Field:   field,
			Operand: v.String(),
		}
	}
	return n, nil
}
