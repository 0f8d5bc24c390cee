// Package queryir provides the application-facing query representation for
// decstore: predicates over decimal fields expressed with document-store
// operators.
//
// Operands are application literals (strings, numbers, ecosystem decimal
// types). They are not parsed here; the caster package turns a queryir
// predicate into a keyir predicate over order keys and reports malformed
// operands with the offending field.
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package can implement them, so consumers can switch
// exhaustively:
//
//	switch p := pred.(type) {
//	case Eq, *Eq:
//	case Range, *Range:
//	case Or, *Or:
//	...
//	}
//
// Both value and pointer forms of each variant are accepted everywhere.
//
// OPERATORS:
//
//	eq ne gt gte lt lte   compare a field with one operand
//	in nin all            compare a field with a set of operands
//	mod                   native integer modulo of the field
//	range                 one lower bound (gt|gte) and one upper bound (lt|lte)
//	or nor and            combinators
//
// ParseFilter builds predicates from Mongo-style filter documents such as
// {"price": {"$gte": "1.234", "$lt": "949"}}.
package queryir
