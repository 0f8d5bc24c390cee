// Package engine is the document store driver facade.
//
// The engine owns the write path, the query path and the read path of a
// collection whose decimal fields are persisted as order/raw pairs:
//
//	Insert/Replace: fields -> pipeline.CastDocument -> store.WriteDocuments
//	Find:           queryir.Find -> pipeline.CastQuery -> querysql.Compile -> store.QueryDocuments
//	Get/Find:       stored body -> pipeline.MaterializeDocument -> Document
//
// Logical Clock:
// Every collection registration and document write is stamped with a
// monotonic seq from Clock.Next(). Reads order by seq and ID, never by
// wall-clock time. Open resumes the clock after the highest seq in the store.
//
// Errors:
// Engine failures are *Error values with a Code. Cast failures stay reachable
// through errors.As, so decimal.IsMalformed, decimal.IsOutOfRange and
// decimal.IsUnsupportedOperation work on any error the engine returns.
package engine
