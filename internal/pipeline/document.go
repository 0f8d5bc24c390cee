package pipeline

import (
	"errors"
	"fmt"

	"github.com/roach88/decstore/internal/codec"
	"github.com/roach88/decstore/internal/decimal"
	"github.com/roach88/decstore/internal/ir"
)

// DocumentError reports a document that does not match its collection spec.
type DocumentError struct {
	Collection string
	Field      string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *DocumentError) Error() string {
	msg := fmt.Sprintf("%s.%s: %s", e.Collection, e.Field, e.Message)
	if e.Field == "" {
		msg = fmt.Sprintf("%s: %s", e.Collection, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e *DocumentError) Unwrap() error {
	return e.Err
}

// IsDocumentError reports whether err is a DocumentError.
func IsDocumentError(err error) bool {
	var de *DocumentError
	return errors.As(err, &de)
}

// StoredFieldIR converts a StoredField to its body representation.
func StoredFieldIR(sf codec.StoredField) ir.IRObject {
	return ir.IRObject{
		"order": ir.IRString(sf.Order),
		"raw":   ir.IRString(sf.Raw),
	}
}

// StoredFieldFromIR reads a StoredField from a body value.
func StoredFieldFromIR(v ir.IRValue) (codec.StoredField, error) {
	obj, ok := v.(ir.IRObject)
	if !ok {
		return codec.StoredField{}, fmt.Errorf("stored decimal must be an object, got %T", v)
	}
	order, ok := obj["order"].(ir.IRString)
	if !ok {
		return codec.StoredField{}, fmt.Errorf("stored decimal is missing string member \"order\"")
	}
	raw, ok := obj["raw"].(ir.IRString)
	if !ok {
		return codec.StoredField{}, fmt.Errorf("stored decimal is missing string member \"raw\"")
	}
	if len(obj) != 2 {
		return codec.StoredField{}, fmt.Errorf("stored decimal has unexpected members")
	}
	return codec.StoredField{Order: codec.OrderKey(order), Raw: codec.RawText(raw)}, nil
}

// CastDocument converts application fields into a document body.
//
// Decimal fields become StoredField objects (arrays of them for array
// fields); other fields are checked against their declared type. Unknown
// fields, missing required fields and type mismatches are DocumentErrors.
// A nil value is treated as an absent field. The cast is all-or-nothing.
func (p *Pipeline) CastDocument(spec ir.CollectionSpec, fields map[string]any) (ir.IRObject, error) {
	for name := range fields {
		if _, ok := spec.Field(name); !ok {
			return nil, &DocumentError{Collection: spec.Name, Field: name, Message: "unknown field"}
		}
	}

	body := make(ir.IRObject, len(fields))
	for _, f := range spec.Fields {
		value, present := fields[f.Name]
		if !present || value == nil {
			if f.Required {
				return nil, &DocumentError{Collection: spec.Name, Field: f.Name, Message: "required field missing"}
			}
			continue
		}

		irv, err := p.castField(f, value)
		if err != nil {
			return nil, &DocumentError{
				Collection: spec.Name,
				Field:      f.Name,
				Message:    "invalid value",
				Err:        decimal.WithField(err, f.Name),
			}
		}
		body[f.Name] = irv
	}
	return body, nil
}

func (p *Pipeline) castField(f ir.FieldSpec, value any) (ir.IRValue, error) {
	if !f.Array {
		return p.castScalar(f.Type, value)
	}
	items := toSlice(value)
	arr := make(ir.IRArray, 0, len(items))
	for i, item := range items {
		irv, err := p.castScalar(f.Type, item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		arr = append(arr, irv)
	}
	return arr, nil
}

func (p *Pipeline) castScalar(t ir.FieldType, value any) (ir.IRValue, error) {
	if t == ir.FieldDecimal {
		sf, err := p.CastForStorage(value)
		if err != nil {
			return nil, err
		}
		return StoredFieldIR(sf), nil
	}

	irv, err := ir.ToIRValue(value)
	if err != nil {
		return nil, err
	}
	switch t {
	case ir.FieldString:
		if _, ok := irv.(ir.IRString); ok {
			return irv, nil
		}
	case ir.FieldInt:
		if _, ok := irv.(ir.IRInt); ok {
			return irv, nil
		}
	case ir.FieldBool:
		if _, ok := irv.(ir.IRBool); ok {
			return irv, nil
		}
	}
	return nil, fmt.Errorf("expected %s, got %T", t, value)
}

// MaterializeDocument converts a stored body back to application values.
// Decimal fields become decimal.Value (or []decimal.Value); strings, ints and
// bools become string, int64 and bool.
func (p *Pipeline) MaterializeDocument(spec ir.CollectionSpec, body ir.IRObject) (map[string]any, error) {
	out := make(map[string]any, len(body))
	for name, value := range body {
		f, ok := spec.Field(name)
		if !ok || f.Type != ir.FieldDecimal {
			out[name] = ir.FromIRValue(value)
			continue
		}

		if !f.Array {
			v, err := p.materializeValue(value)
			if err != nil {
				return nil, &DocumentError{Collection: spec.Name, Field: name, Message: "corrupt stored decimal", Err: err}
			}
			out[name] = v
			continue
		}

		arr, ok := value.(ir.IRArray)
		if !ok {
			return nil, &DocumentError{Collection: spec.Name, Field: name, Message: fmt.Sprintf("expected array, got %T", value)}
		}
		values := make([]decimal.Value, 0, len(arr))
		for i, elem := range arr {
			v, err := p.materializeValue(elem)
			if err != nil {
				return nil, &DocumentError{
					Collection: spec.Name,
					Field:      name,
					Message:    fmt.Sprintf("corrupt stored decimal at element %d", i),
					Err:        err,
				}
			}
			values = append(values, v)
		}
		out[name] = values
	}
	return out, nil
}

func (p *Pipeline) materializeValue(value ir.IRValue) (decimal.Value, error) {
	sf, err := StoredFieldFromIR(value)
	if err != nil {
		return decimal.Value{}, err
	}
	return p.Materialize(sf)
}
