package queryir

// Op names a query operator.
type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpIn  Op = "in"
	OpNin Op = "nin"
	OpAll Op = "all"
	OpMod Op = "mod"
	OpOr  Op = "or"
	OpNor Op = "nor"

	// OpAnd is the implicit conjunction of several field conditions.
	OpAnd Op = "and"

	// OpRange is a lower and an upper bound on the same field.
	OpRange Op = "range"
)

// IsComparison reports whether op compares a field with a single operand.
func (op Op) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte:
		return true
	}
	return false
}

// IsSet reports whether op compares a field with a list of operands.
func (op Op) IsSet() bool {
	switch op {
	case OpIn, OpNin, OpAll:
		return true
	}
	return false
}

// IsLogical reports whether op combines other predicates.
func (op Op) IsLogical() bool {
	switch op {
	case OpOr, OpNor, OpAnd:
		return true
	}
	return false
}

// Query represents a query against one collection.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode()
}

// Predicate represents a filter condition on decimal fields.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode()
	Op() Op
}

// Operand is an application literal accepted by decimal.ParseLiteral.
type Operand = any

// SortKey orders results by one field. Decimal fields sort by numeric value.
type SortKey struct {
	Field      string
	Descending bool
}

// Find selects documents of a collection matching Filter.
//
// Semantics:
//
//	SELECT documents FROM <collection> WHERE <filter> ORDER BY <sort>, seq, id
//
// A nil Filter matches every document. Limit <= 0 means no limit.
type Find struct {
	Collection string
	Filter     Predicate
	Sort       []SortKey
	Limit      int
}

func (Find) queryNode() {}

// Eq matches documents whose field equals Value.
// On an array field, any element may match.
type Eq struct {
	Field string
	Value Operand
}

func (Eq) predicateNode() {}
func (Eq) Op() Op         { return OpEq }

// Ne matches documents whose field does not equal Value, including documents
// without the field. On an array field, no element may equal Value.
type Ne struct {
	Field string
	Value Operand
}

func (Ne) predicateNode() {}
func (Ne) Op() Op         { return OpNe }

// Gt matches field > Value.
type Gt struct {
	Field string
	Value Operand
}

func (Gt) predicateNode() {}
func (Gt) Op() Op         { return OpGt }

// Gte matches field >= Value.
type Gte struct {
	Field string
	Value Operand
}

func (Gte) predicateNode() {}
func (Gte) Op() Op         { return OpGte }

// Lt matches field < Value.
type Lt struct {
	Field string
	Value Operand
}

func (Lt) predicateNode() {}
func (Lt) Op() Op         { return OpLt }

// Lte matches field <= Value.
type Lte struct {
	Field string
	Value Operand
}

func (Lte) predicateNode() {}
func (Lte) Op() Op         { return OpLte }

// In matches documents whose field equals any of Values.
// An empty list matches nothing.
type In struct {
	Field  string
	Values []Operand
}

func (In) predicateNode() {}
func (In) Op() Op         { return OpIn }

// Nin matches documents whose field equals none of Values, including
// documents without the field. An empty list matches everything.
type Nin struct {
	Field  string
	Values []Operand
}

func (Nin) predicateNode() {}
func (Nin) Op() Op         { return OpNin }

// All matches array fields containing every one of Values.
// An empty list matches nothing.
type All struct {
	Field  string
	Values []Operand
}

func (All) predicateNode() {}
func (All) Op() Op         { return OpAll }

// Mod matches documents where trunc(field) % Divisor == Remainder, using the
// store's native integer semantics. Divisor and Remainder must be integral.
type Mod struct {
	Field     string
	Divisor   Operand
	Remainder Operand
}

func (Mod) predicateNode() {}
func (Mod) Op() Op         { return OpMod }

// Bound is one side of a Range.
type Bound struct {
	Op    Op // gt or gte for Lower, lt or lte for Upper
	Value Operand
}

// Range matches Lower.Op(field, Lower.Value) && Upper.Op(field, Upper.Value).
type Range struct {
	Field string
	Lower Bound
	Upper Bound
}

func (Range) predicateNode() {}
func (Range) Op() Op         { return OpRange }

// Or matches when any of Predicates matches. An empty Or matches nothing.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}
func (Or) Op() Op         { return OpOr }

// Nor matches when none of Predicates matches.
type Nor struct {
	Predicates []Predicate
}

func (Nor) predicateNode() {}
func (Nor) Op() Op         { return OpNor }

// And matches when all of Predicates match. An empty And matches everything.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}
func (And) Op() Op         { return OpAnd }
