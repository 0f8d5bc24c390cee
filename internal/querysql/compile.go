package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/decstore/internal/ir"
	"github.com/roach88/decstore/internal/keyir"
	"github.com/roach88/decstore/internal/queryir"
)

var (
	// ErrUnknownField is returned for a field the collection does not declare.
	ErrUnknownField = errors.New("unknown field")

	// ErrNotDecimal is returned when a decimal predicate targets a field of
	// another type.
	ErrNotDecimal = errors.New("not a decimal field")
)

// selectColumns is the column list QueryDocuments expects.
const selectColumns = "id, collection, seq, body"

// ModFunc is the SQL function the store registers for mod:
// decimal_mod(raw, divisor, remainder) is 1 when trunc(raw) % divisor equals
// remainder and 0 otherwise, including when raw is missing.
const ModFunc = "decimal_mod"

// stableOrder is the tiebreaker appended to every ORDER BY.
const stableOrder = "seq ASC, id COLLATE BINARY ASC"

// OrderExpr returns the SQL expression for the order key of a scalar decimal
// field. Expression indexes are created from the same text so SQLite can
// match them.
func OrderExpr(field string) string {
	return fmt.Sprintf("json_extract(body, '$.%s.order')", field)
}

// RawExpr returns the SQL expression for the raw text of a scalar decimal
// field.
func RawExpr(field string) string {
	return fmt.Sprintf("json_extract(body, '$.%s.raw')", field)
}

// ValueExpr returns the SQL expression for a non-decimal scalar field.
func ValueExpr(field string) string {
	return fmt.Sprintf("json_extract(body, '$.%s')", field)
}

// SQLCompiler compiles native queries over one collection to parameterized
// SQL for SQLite.
//
// CRITICAL: ALL queries end with ORDER BY seq ASC, id COLLATE BINARY ASC.
// CRITICAL: All values are parameterized (never interpolated). Field names
// are interpolated only after ir.ValidFieldName has accepted them.
type SQLCompiler struct {
	Spec ir.CollectionSpec
}

// NewSQLCompiler creates a compiler for the given collection.
func NewSQLCompiler(spec ir.CollectionSpec) *SQLCompiler {
	return &SQLCompiler{Spec: spec}
}

// Compile converts a native query to parameterized SQL selecting
// (id, collection, seq, body).
// Returns (sql, params, error) tuple.
//
// Array fields use any-element semantics: a comparison matches when at least
// one element satisfies it. ne and nin also match documents that lack the
// field.
func (c *SQLCompiler) Compile(q keyir.Find) (string, []any, error) {
	if q.Collection != c.Spec.Name {
		return "", nil, fmt.Errorf("query targets collection %q, compiler is for %q", q.Collection, c.Spec.Name)
	}

	var sb strings.Builder
	params := []any{q.Collection}
	sb.WriteString("SELECT " + selectColumns + " FROM documents WHERE collection = ?")

	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		sb.WriteString(" AND " + filterSQL)
		params = append(params, filterParams...)
	}

	orderBy, err := c.compileSort(q.Sort)
	if err != nil {
		return "", nil, fmt.Errorf("compile sort: %w", err)
	}
	sb.WriteString(" ORDER BY " + orderBy)

	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	}

	return sb.String(), params, nil
}

// compileSort builds the ORDER BY list. The stable tiebreaker is always last.
func (c *SQLCompiler) compileSort(keys []queryir.SortKey) (string, error) {
	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		f, err := c.field(k.Field)
		if err != nil {
			return "", err
		}
		if f.Array {
			return "", fmt.Errorf("cannot sort by array field %s", f.Name)
		}

		expr := ValueExpr(f.Name)
		if f.Type == ir.FieldDecimal {
			// Order keys sort byte-wise in numeric order.
			expr = OrderExpr(f.Name)
		}
		dir := "ASC"
		if k.Descending {
			dir = "DESC"
		}
		parts = append(parts, expr+" "+dir)
	}
	parts = append(parts, stableOrder)
	return strings.Join(parts, ", "), nil
}

// compilePredicate compiles a keyir.Predicate to a WHERE clause fragment.
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p keyir.Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil // Always true
	}

	switch pred := p.(type) {
	case keyir.Compare:
		return c.compileCompare(pred)
	case *keyir.Compare:
		return c.compileCompare(*pred)
	case keyir.Set:
		return c.compileSet(pred)
	case *keyir.Set:
		return c.compileSet(*pred)
	case keyir.Mod:
		return c.compileMod(pred)
	case *keyir.Mod:
		return c.compileMod(*pred)
	case keyir.Logical:
		return c.compileLogical(pred)
	case *keyir.Logical:
		return c.compileLogical(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// comparisonOperators maps comparison ops to SQL operators.
var comparisonOperators = map[queryir.Op]string{
	queryir.OpEq:  "=",
	queryir.OpNe:  "=", // negated around the whole test
	queryir.OpGt:  ">",
	queryir.OpGte: ">=",
	queryir.OpLt:  "<",
	queryir.OpLte: "<=",
}

// compileCompare compiles Field <op> ? on the order key.
func (c *SQLCompiler) compileCompare(cmp keyir.Compare) (string, []any, error) {
	f, err := c.decimalField(cmp.Field)
	if err != nil {
		return "", nil, err
	}
	sqlOp, ok := comparisonOperators[cmp.Op]
	if !ok {
		return "", nil, fmt.Errorf("unsupported comparison operator %q", cmp.Op)
	}
	params := []any{string(cmp.Key)}

	if f.Array {
		exists := elementExists(f.Name, fmt.Sprintf("%s %s ?", elementMember("order"), sqlOp))
		if cmp.Op == queryir.OpNe {
			return "NOT " + exists, params, nil
		}
		return exists, params, nil
	}

	expr := OrderExpr(f.Name)
	if cmp.Op == queryir.OpNe {
		return fmt.Sprintf("(%s IS NULL OR %s <> ?)", expr, expr), params, nil
	}
	return fmt.Sprintf("%s %s ?", expr, sqlOp), params, nil
}

// compileSet compiles in, nin and all.
func (c *SQLCompiler) compileSet(set keyir.Set) (string, []any, error) {
	f, err := c.decimalField(set.Field)
	if err != nil {
		return "", nil, err
	}

	params := make([]any, len(set.Keys))
	for i, k := range set.Keys {
		params[i] = string(k)
	}

	switch set.Op {
	case queryir.OpIn:
		if len(set.Keys) == 0 {
			return "0 = 1", nil, nil // Nothing is in the empty set
		}
		if f.Array {
			return elementExists(f.Name, elementMember("order")+" IN "+placeholders(len(params))), params, nil
		}
		return OrderExpr(f.Name) + " IN " + placeholders(len(params)), params, nil

	case queryir.OpNin:
		if len(set.Keys) == 0 {
			return "1 = 1", nil, nil
		}
		if f.Array {
			return "NOT " + elementExists(f.Name, elementMember("order")+" IN "+placeholders(len(params))), params, nil
		}
		expr := OrderExpr(f.Name)
		return fmt.Sprintf("(%s IS NULL OR %s NOT IN %s)", expr, expr, placeholders(len(params))), params, nil

	case queryir.OpAll:
		if len(set.Keys) == 0 {
			return "0 = 1", nil, nil
		}
		parts := make([]string, len(set.Keys))
		for i := range set.Keys {
			if f.Array {
				parts[i] = elementExists(f.Name, elementMember("order")+" = ?")
			} else {
				parts[i] = OrderExpr(f.Name) + " = ?"
			}
		}
		return "(" + strings.Join(parts, " AND ") + ")", params, nil

	default:
		return "", nil, fmt.Errorf("unsupported set operator %q", set.Op)
	}
}

// compileMod compiles trunc(field) % divisor = remainder over the raw text.
// ModFunc truncates toward zero and keeps the sign of the dividend.
func (c *SQLCompiler) compileMod(mod keyir.Mod) (string, []any, error) {
	f, err := c.decimalField(mod.Field)
	if err != nil {
		return "", nil, err
	}
	if mod.Divisor == 0 {
		return "", nil, fmt.Errorf("mod on %s: divisor must be non-zero", f.Name)
	}
	params := []any{mod.Divisor, mod.Remainder}

	if f.Array {
		return elementExists(f.Name, modCall(elementMember("raw"))), params, nil
	}
	return modCall(RawExpr(f.Name)), params, nil
}

// compileLogical compiles and, or and nor.
func (c *SQLCompiler) compileLogical(l keyir.Logical) (string, []any, error) {
	var joiner string
	var negate bool
	var empty string
	switch l.Op {
	case queryir.OpAnd:
		joiner, empty = " AND ", "1 = 1" // Vacuous truth
	case queryir.OpOr:
		joiner, empty = " OR ", "0 = 1"
	case queryir.OpNor:
		joiner, empty, negate = " OR ", "1 = 1", true
	default:
		return "", nil, fmt.Errorf("unsupported logical operator %q", l.Op)
	}

	if len(l.Predicates) == 0 {
		return empty, nil, nil
	}

	sqlParts := make([]string, 0, len(l.Predicates))
	var allParams []any
	for _, pred := range l.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}

	sql := "(" + strings.Join(sqlParts, joiner) + ")"
	if negate {
		// A comparison on a missing scalar field is NULL; it must count as
		// false so that nor selects the document.
		sql = "NOT COALESCE(" + sql + ", 0)"
	}
	return sql, allParams, nil
}

// field looks up a declared field and checks that its name is safe to embed.
func (c *SQLCompiler) field(name string) (ir.FieldSpec, error) {
	f, ok := c.Spec.Field(name)
	if !ok {
		return ir.FieldSpec{}, fmt.Errorf("%s.%s: %w", c.Spec.Name, name, ErrUnknownField)
	}
	if !ir.ValidFieldName(f.Name) {
		return ir.FieldSpec{}, fmt.Errorf("invalid field name %q", f.Name)
	}
	return f, nil
}

func (c *SQLCompiler) decimalField(name string) (ir.FieldSpec, error) {
	f, err := c.field(name)
	if err != nil {
		return ir.FieldSpec{}, err
	}
	if f.Type != ir.FieldDecimal {
		return ir.FieldSpec{}, fmt.Errorf("%s.%s (%s): %w", c.Spec.Name, name, f.Type, ErrNotDecimal)
	}
	return f, nil
}

// elementExists wraps cond in an EXISTS over the elements of an array field.
func elementExists(field, cond string) string {
	return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(body, '$.%s') AS e WHERE %s)", field, cond)
}

// elementMember extracts a member of the current json_each element.
func elementMember(member string) string {
	return fmt.Sprintf("json_extract(e.value, '$.%s')", member)
}

func modCall(expr string) string {
	return fmt.Sprintf("%s(%s, ?, ?)", ModFunc, expr)
}

func placeholders(n int) string {
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
}
