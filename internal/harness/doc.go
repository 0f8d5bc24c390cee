// Package harness runs decstore conformance scenarios.
//
// A scenario declares collections in CUE, inserts documents through the
// engine, runs queries and checks their results. Every scenario executes
// against a fresh in-memory SQLite store with deterministic document IDs,
// so the recorded trace is byte-identical across runs and can be compared
// against a golden file.
//
// # Scenario Format
//
//	name: product_prices
//	description: "Numeric ordering of decimal prices"
//	schema: |
//	  collection: Product: fields: {
//	    price:     {type: "decimal", required: true, index: true}
//	    discounts: {type: "decimal", array: true}
//	  }
//	documents:
//	  - collection: Product
//	    id: p0
//	    fields: {price: "1.234", discounts: ["1", "2"]}
//	  - collection: Product
//	    fields: {price: "abc"}
//	    expect_error: MALFORMED
//	queries:
//	  - name: expensive
//	    collection: Product
//	    filter: {price: {$gt: "100"}}
//	    expect: {ids: [p2]}
//	assertions:
//	  - type: stored_field
//	    collection: Product
//	    id: p0
//	    field: price
//	    order: "250000011234."
//	    raw: "1.234e+0"
//
// # Assertion Types
//
//   - document_count: the collection holds exactly count documents
//   - stored_field: the persisted order key and/or raw text of a decimal
//   - field_value: the materialized value of a field (decimals compare numerically)
//   - verify: every stored decimal of the collection passes Engine.Verify
//
// Expected errors name a code: MALFORMED, OUT_OF_RANGE, UNSUPPORTED_OPERATION
// for cast failures, or an engine code such as INVALID_DOCUMENT.
package harness
