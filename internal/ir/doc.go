// Package ir provides the value and schema types shared by every other
// decstore package.
//
// Document bodies are IRObjects: a closed set of JSON-compatible value types
// with no floats. Decimal fields never appear as numbers; they are stored as
// {"order": ..., "raw": ...} objects of strings, so a body survives any
// number of JSON round trips without losing precision.
//
// Key design constraints:
//   - NO float types anywhere - decimals are strings, integers are int64
//   - Bodies are persisted as RFC 8785 canonical JSON
//   - All JSON tags use snake_case
//   - Logical clocks (seq) only, never wall-clock timestamps
package ir
