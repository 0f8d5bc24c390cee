package queryir

import (
	"fmt"
	"strings"
)

// ValidationResult contains the structural problems found in a query.
type ValidationResult struct {
	// IsValid is true when Problems is empty.
	IsValid bool

	// Problems lists every structural defect, in traversal order.
	Problems []string
}

// Err returns nil for a valid result and an error joining every problem
// otherwise.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	return fmt.Errorf("invalid query: %s", strings.Join(r.Problems, "; "))
}

// Validate checks a query or predicate for structural defects: empty field
// names, misplaced range bound operators, empty or/nor lists and nil
// predicates. Operand values are not inspected; casting reports those.
//
// Validate is a pure function with no side effects.
func Validate(node any) ValidationResult {
	v := &validator{
		problems: []string{},
	}
	switch n := node.(type) {
	case Query:
		v.validateQuery(n)
	case Predicate:
		v.validatePredicate(n)
	default:
		v.addProblem("unknown node type: %T", node)
	}

	return ValidationResult{
		IsValid:  len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case Find:
		v.validateFind(query)
	case *Find:
		if query == nil {
			v.addProblem("nil query")
			return
		}
		v.validateFind(*query)
	default:
		v.addProblem("unknown query type: %T", q)
	}
}

func (v *validator) validateFind(f Find) {
	if f.Collection == "" {
		v.addProblem("find requires a collection")
	}
	for i, key := range f.Sort {
		if key.Field == "" {
			v.addProblem("sort key %d has an empty field", i)
		}
	}
	if f.Filter != nil {
		v.validatePredicate(f.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	if p == nil {
		v.addProblem("nil predicate")
		return
	}

	switch pred := p.(type) {
	case Eq:
		v.validateField(pred.Op(), pred.Field)
	case *Eq:
		v.validateField(pred.Op(), pred.Field)
	case Ne:
		v.validateField(pred.Op(), pred.Field)
	case *Ne:
		v.validateField(pred.Op(), pred.Field)
	case Gt:
		v.validateField(pred.Op(), pred.Field)
	case *Gt:
		v.validateField(pred.Op(), pred.Field)
	case Gte:
		v.validateField(pred.Op(), pred.Field)
	case *Gte:
		v.validateField(pred.Op(), pred.Field)
	case Lt:
		v.validateField(pred.Op(), pred.Field)
	case *Lt:
		v.validateField(pred.Op(), pred.Field)
	case Lte:
		v.validateField(pred.Op(), pred.Field)
	case *Lte:
		v.validateField(pred.Op(), pred.Field)
	case In:
		v.validateField(pred.Op(), pred.Field)
	case *In:
		v.validateField(pred.Op(), pred.Field)
	case Nin:
		v.validateField(pred.Op(), pred.Field)
	case *Nin:
		v.validateField(pred.Op(), pred.Field)
	case All:
		v.validateField(pred.Op(), pred.Field)
	case *All:
		v.validateField(pred.Op(), pred.Field)
	case Mod:
		v.validateField(pred.Op(), pred.Field)
	case *Mod:
		v.validateField(pred.Op(), pred.Field)
	case Range:
		v.validateRange(pred)
	case *Range:
		v.validateRange(*pred)
	case Or:
		v.validateLogical(OpOr, pred.Predicates)
	case *Or:
		v.validateLogical(OpOr, pred.Predicates)
	case Nor:
		v.validateLogical(OpNor, pred.Predicates)
	case *Nor:
		v.validateLogical(OpNor, pred.Predicates)
	case And:
		v.validateLogical(OpAnd, pred.Predicates)
	case *And:
		v.validateLogical(OpAnd, pred.Predicates)
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}

func (v *validator) validateField(op Op, field string) {
	if field == "" {
		v.addProblem("%s requires a field", op)
	}
}

func (v *validator) validateRange(r Range) {
	v.validateField(OpRange, r.Field)
	if r.Lower.Op != OpGt && r.Lower.Op != OpGte {
		v.addProblem("range on '%s': lower bound must use gt or gte, got %q", r.Field, r.Lower.Op)
	}
	if r.Upper.Op != OpLt && r.Upper.Op != OpLte {
		v.addProblem("range on '%s': upper bound must use lt or lte, got %q", r.Field, r.Upper.Op)
	}
}

func (v *validator) validateLogical(op Op, preds []Predicate) {
	if len(preds) == 0 && op != OpAnd {
		v.addProblem("%s requires at least one predicate", op)
	}
	for _, sub := range preds {
		v.validatePredicate(sub)
	}
}
