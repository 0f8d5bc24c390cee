package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/decstore/internal/decimal"
	"github.com/roach88/decstore/internal/engine"
	"github.com/roach88/decstore/internal/pipeline"
	"github.com/roach88/decstore/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			switch event.Type {
			case EventInsert:
				fmt.Fprintf(&buf, "  [%d] insert %s/%s %s\n", event.Step, event.Collection, event.ID, event.Error)
			case EventQuery:
				fmt.Fprintf(&buf, "  [%d] query %s %v %s\n", event.Step, event.Query, event.IDs, event.Error)
			}
		}
	}

	return buf.String()
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Engine *engine.Engine
	Store  *store.Store
	Ctx    context.Context
}

// EvaluateAssertions evaluates all assertions against the final store.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		if actx == nil || actx.Engine == nil || actx.Store == nil {
			err = fmt.Errorf("assertion[%d]: %s requires an engine and store", i, assertion.Type)
		} else {
			switch assertion.Type {
			case AssertDocumentCount:
				err = assertDocumentCount(actx, assertion)
			case AssertStoredField:
				err = assertStoredField(actx, assertion)
			case AssertFieldValue:
				err = assertFieldValue(actx, assertion)
			case AssertVerify:
				err = assertVerify(actx, assertion)
			default:
				err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
			}
		}

		if err != nil {
			if ae, ok := err.(*AssertionError); ok {
				ae.Trace = result.Trace
			}
			errs = append(errs, err.Error())
		}
	}

	return errs
}

func assertDocumentCount(actx *AssertionContext, a Assertion) error {
	n, err := actx.Engine.Count(actx.Ctx, a.Collection)
	if err != nil {
		return fmt.Errorf("document_count %s: %w", a.Collection, err)
	}
	if n != int64(a.Count) {
		return &AssertionError{
			Type:     AssertDocumentCount,
			Expected: fmt.Sprintf("%d documents in %s", a.Count, a.Collection),
			Actual:   fmt.Sprintf("%d documents", n),
		}
	}
	return nil
}

// assertStoredField checks the persisted order/raw pair of a scalar decimal.
func assertStoredField(actx *AssertionContext, a Assertion) error {
	rec, err := actx.Store.ReadDocument(actx.Ctx, a.Collection, a.ID)
	if err != nil {
		return fmt.Errorf("stored_field %s/%s: %w", a.Collection, a.ID, err)
	}

	value, ok := rec.Body[a.Field]
	if !ok {
		return &AssertionError{
			Type:     AssertStoredField,
			Expected: fmt.Sprintf("%s/%s has field %s", a.Collection, a.ID, a.Field),
			Actual:   "field missing",
		}
	}
	sf, err := pipeline.StoredFieldFromIR(value)
	if err != nil {
		return fmt.Errorf("stored_field %s/%s.%s: %w", a.Collection, a.ID, a.Field, err)
	}

	if (a.Order != "" && string(sf.Order) != a.Order) || (a.Raw != "" && string(sf.Raw) != a.Raw) {
		return &AssertionError{
			Type:     AssertStoredField,
			Expected: fmt.Sprintf("%s.%s stored as order=%q raw=%q", a.ID, a.Field, a.Order, a.Raw),
			Actual:   fmt.Sprintf("order=%q raw=%q", sf.Order, sf.Raw),
		}
	}
	return nil
}

// assertFieldValue checks a materialized field. Decimals compare numerically,
// so "949" matches a stored 949.00; array fields are written comma-separated.
func assertFieldValue(actx *AssertionContext, a Assertion) error {
	doc, err := actx.Engine.Get(actx.Ctx, a.Collection, a.ID)
	if err != nil {
		return fmt.Errorf("field_value %s/%s: %w", a.Collection, a.ID, err)
	}

	actual, ok := doc.Fields[a.Field]
	if !ok {
		return &AssertionError{
			Type:     AssertFieldValue,
			Expected: fmt.Sprintf("%s/%s has field %s", a.Collection, a.ID, a.Field),
			Actual:   "field missing",
		}
	}

	if !fieldValueEqual(a.Value, actual) {
		return &AssertionError{
			Type:     AssertFieldValue,
			Expected: fmt.Sprintf("%s.%s = %s", a.ID, a.Field, a.Value),
			Actual:   formatFieldValue(actual),
		}
	}
	return nil
}

func assertVerify(actx *AssertionContext, a Assertion) error {
	report, err := actx.Engine.Verify(actx.Ctx, a.Collection)
	if err != nil {
		return fmt.Errorf("verify %s: %w", a.Collection, err)
	}
	if !report.OK() {
		parts := make([]string, 0, len(report.Problems))
		for _, p := range report.Problems {
			parts = append(parts, fmt.Sprintf("%s.%s: %s", p.ID, p.Field, p.Message))
		}
		return &AssertionError{
			Type:     AssertVerify,
			Expected: fmt.Sprintf("every stored decimal in %s verifies", a.Collection),
			Actual:   strings.Join(parts, "; "),
		}
	}
	return nil
}

func fieldValueEqual(expected string, actual any) bool {
	switch v := actual.(type) {
	case decimal.Value:
		want, err := decimal.Parse(expected)
		return err == nil && want.Equal(v)
	case []decimal.Value:
		parts := strings.Split(expected, ",")
		if expected == "" {
			parts = nil
		}
		if len(parts) != len(v) {
			return false
		}
		for i, part := range parts {
			want, err := decimal.Parse(strings.TrimSpace(part))
			if err != nil || !want.Equal(v[i]) {
				return false
			}
		}
		return true
	default:
		return formatFieldValue(actual) == expected
	}
}

func formatFieldValue(v any) string {
	switch val := v.(type) {
	case []decimal.Value:
		parts := make([]string, len(val))
		for i, d := range val {
			parts[i] = d.String()
		}
		return strings.Join(parts, ",")
	case []any:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = fmt.Sprint(elem)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(val)
	}
}
