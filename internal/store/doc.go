// Package store provides SQLite-backed durable storage for decstore
// collections and documents.
//
// The store holds:
//   - Collections: compiled collection specs with their content hash
//   - Documents: canonical JSON bodies, one row per document
//
// Decimal fields inside a body are {"order", "raw"} objects. Queries compare
// the order member with plain string comparison, so decimal ordering needs
// no SQLite extension.
//
// # Critical Patterns
//
// Logical Identity and Time
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//
// Deterministic Query Results
//   - All queries MUST include: ORDER BY seq ASC, id COLLATE BINARY ASC
//
// Canonical Bodies
//   - Bodies are written as RFC 8785 canonical JSON via internal/ir
//   - Identical documents produce byte-identical rows
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Documents must reference a registered collection
package store
