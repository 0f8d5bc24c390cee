// Package decimal provides the normalized, immutable arbitrary-precision
// decimal value used by every other package in decstore.
//
// A Value is the triple (sign, digits, exponent) meaning
//
//	sign × 0.digits × 10^exponent
//
// where digits is read as a fraction. Values are always normalized: digits
// has no leading or trailing zeros and the zero value is ("0", 0). Two values
// are equal exactly when their triples are equal; floating point never enters
// the comparison.
//
// This package contains no I/O and no shared mutable state. Resource limits
// (exponent width, digit ceiling) belong to the codec that consumes values,
// not to Value itself.
package decimal
