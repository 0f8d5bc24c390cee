package compiler

import (
	"fmt"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/decstore/internal/ir"
)

// CompileCollection parses a CUE value into a CollectionSpec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the collection struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`collection: Product: { fields: { price: {type: "decimal"} } }`)
//	spec, err := CompileCollection(v.LookupPath(cue.ParsePath("collection.Product")))
//
// A field is either a struct with a type and optional array, required and
// index flags, or a shorthand: a type name string ("decimal") or a CUE type
// (string, int, bool).
func CompileCollection(v cue.Value) (*ir.CollectionSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.CollectionSpec{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{
			Field:   "fields",
			Message: "fields are required",
			Pos:     v.Pos(),
		}
	}

	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		field, err := parseField(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		spec.Fields = append(spec.Fields, field)
	}

	if len(spec.Fields) == 0 {
		return nil, &CompileError{
			Field:   "fields",
			Message: "at least one field is required",
			Pos:     fieldsVal.Pos(),
		}
	}

	slices.SortFunc(spec.Fields, func(a, b ir.FieldSpec) int {
		return strings.Compare(a.Name, b.Name)
	})

	if err := spec.Validate(); err != nil {
		return nil, &CompileError{
			Field:   "collection",
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}

	return spec, nil
}

// parseField parses one entry of a collection's fields struct.
func parseField(name string, v cue.Value) (ir.FieldSpec, error) {
	field := ir.FieldSpec{Name: name}

	if v.IncompleteKind() != cue.StructKind {
		t, err := extractFieldType(v)
		if err != nil {
			return field, err
		}
		field.Type = t
		return field, nil
	}

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return field, &CompileError{
			Field:   "fields." + name + ".type",
			Message: "field type is required",
			Pos:     v.Pos(),
		}
	}
	t, err := extractFieldType(typeVal)
	if err != nil {
		return field, err
	}
	field.Type = t

	flags := []struct {
		label string
		dst   *bool
	}{
		{"array", &field.Array},
		{"required", &field.Required},
		{"index", &field.Index},
	}
	for _, flag := range flags {
		fv := v.LookupPath(cue.ParsePath(flag.label))
		if !fv.Exists() {
			continue
		}
		b, err := fv.Bool()
		if err != nil {
			return field, &CompileError{
				Field:   "fields." + name + "." + flag.label,
				Message: fmt.Sprintf("%s must be a bool", flag.label),
				Pos:     fv.Pos(),
			}
		}
		*flag.dst = b
	}

	return field, nil
}

// extractFieldType converts a CUE value to a field type. A concrete string
// names the type; an abstract CUE type maps to the matching field type.
// Floats are forbidden: fractional numbers are declared as decimal.
func extractFieldType(v cue.Value) (ir.FieldType, error) {
	if s, err := v.String(); err == nil {
		t := ir.FieldType(s)
		if s == "float" || s == "number" {
			return "", floatError(v)
		}
		if !ir.ValidFieldTypes[t] {
			return "", &CompileError{
				Field:   "type",
				Message: fmt.Sprintf("unsupported field type %q", s),
				Pos:     v.Pos(),
			}
		}
		return t, nil
	}

	switch v.IncompleteKind() {
	case cue.StringKind:
		return ir.FieldString, nil
	case cue.IntKind:
		return ir.FieldInt, nil
	case cue.BoolKind:
		return ir.FieldBool, nil
	case cue.FloatKind, cue.NumberKind:
		return "", floatError(v)
	default:
		return "", &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

func floatError(v cue.Value) error {
	return &CompileError{
		Field:   "type",
		Message: "float types are forbidden - use decimal instead",
		Pos:     v.Pos(),
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
