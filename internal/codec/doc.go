// Package codec turns decimal values into their two persisted forms.
//
// Every decimal field is stored as a StoredField:
//
//	{"order": OrderKey, "raw": RawText}
//
// The OrderKey is a printable ASCII string whose byte-wise ordering equals
// numeric ordering, so a store that only compares strings can evaluate
// eq/ne/gt/gte/lt/lte/in/nin/all and sort natively. The RawText is a canonical
// scientific form from which the exact value is reconstructed.
//
// KEY LAYOUT:
//
//	zero      "1"
//	positive  '2' EE D '.'
//	negative  '0' 9c(EE) 9c(D) '~'
//
// EE is the biased exponent zero-padded to Config.ExponentDigits digits, D the
// normalized significant digits and 9c the nines' complement. The positive
// terminator sorts below every digit so that a key whose digits are a prefix of
// another's (a smaller magnitude) sorts first; the negative terminator sorts
// above every digit, mirroring the rule for complemented magnitudes.
//
// A Codec is immutable and safe for concurrent use.
package codec
