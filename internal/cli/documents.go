package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/decstore/internal/decimal"
	"github.com/roach88/decstore/internal/engine"
	"github.com/roach88/decstore/internal/ir"
	"github.com/roach88/decstore/internal/queryir"
)

// InsertOptions holds flags for the insert command.
type InsertOptions struct {
	*RootOptions
	ID string // explicit document ID
}

// InsertResult lists the inserted document IDs.
type InsertResult struct {
	Collection string   `json:"collection"`
	IDs        []string `json:"ids"`
}

// FindOptions holds flags for the find command.
type FindOptions struct {
	*RootOptions
	Sort   []string // field names, "-" prefix for descending
	Limit  int
	Stored bool // print stored bodies instead of materialized fields
}

// DocumentOutput is a document as printed by find. Decimals are rendered as
// their plain text.
type DocumentOutput struct {
	ID     string         `json:"id"`
	Seq    int64          `json:"seq"`
	Fields map[string]any `json:"fields,omitempty"`
	Body   ir.IRObject    `json:"body,omitempty"`
	Hash   string         `json:"hash,omitempty"` // content hash of the stored body
}

// NewInsertCommand creates the insert command.
func NewInsertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InsertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "insert <collection> <json>",
		Short: "Insert documents",
		Long: `Insert one document (a JSON object) or several (a JSON array of objects).

Decimal fields accept strings or JSON numbers; numbers are read exactly, never
through floating point. An array is inserted atomically.

Examples:
  decstore insert Product '{"price": "98.993", "discounts": ["2", "3"]}'
  decstore insert Product '{"price": 949}' --id p2
  decstore insert Product '[{"price": "1"}, {"price": "2"}]'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsert(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "document ID (single document only)")

	return cmd
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find <collection> [filter-json]",
		Short: "Query documents",
		Long: `Query documents with a filter document.

Filters use $eq, $ne, $gt, $gte, $lt, $lte, $in, $nin, $all, $mod and the
logical $and, $or and $nor. Decimal comparisons are numeric.

Examples:
  decstore find Product '{"price": {"$gt": "98.993"}}'
  decstore find Product --sort -price --limit 3
  decstore find Product '{"discounts": {"$in": ["1", "2"]}}' --stored`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := ""
			if len(args) == 2 {
				filter = args[1]
			}
			return runFind(opts, args[0], filter, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Sort, "sort", nil, "sort fields, prefix with - for descending")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of documents (0 = all)")
	cmd.Flags().BoolVar(&opts.Stored, "stored", false, "print stored bodies (order keys and raw text)")

	return cmd
}

func runInsert(opts *InsertOptions, collection, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	docs, err := parseDocuments(input)
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid document JSON", err)
	}
	if opts.ID != "" && len(docs) != 1 {
		return formatter.Fail(ExitCommandError, "invalid arguments", fmt.Errorf("--id requires a single document"))
	}

	sess, err := openSession(ctx, opts.RootOptions, cmd)
	if err != nil {
		return reportSessionError(formatter, err)
	}
	defer sess.Close()

	result := InsertResult{Collection: collection}
	switch {
	case opts.ID != "":
		err = sess.engine.InsertWithID(ctx, collection, opts.ID, docs[0])
		result.IDs = []string{opts.ID}
	default:
		result.IDs, err = sess.engine.InsertMany(ctx, collection, docs)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, "insert failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	for _, id := range result.IDs {
		fmt.Fprintf(formatter.Writer, "✓ %s/%s\n", collection, id)
	}
	return nil
}

// parseDocuments decodes a JSON object or array of objects, keeping numbers
// as json.Number.
func parseDocuments(input string) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(input)))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}

	switch v := raw.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		docs := make([]map[string]any, 0, len(v))
		for i, elem := range v {
			doc, ok := elem.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("element %d: expected object, got %T", i, elem)
			}
			docs = append(docs, doc)
		}
		return docs, nil
	default:
		return nil, fmt.Errorf("expected object or array, got %T", raw)
	}
}

func runFind(opts *FindOptions, collection, filterJSON string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	q, err := buildFind(collection, filterJSON, opts.Sort, opts.Limit)
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid query", err)
	}

	sess, err := openSession(ctx, opts.RootOptions, cmd)
	if err != nil {
		return reportSessionError(formatter, err)
	}
	defer sess.Close()

	var out []DocumentOutput
	if opts.Stored {
		records, err := sess.engine.FindStored(ctx, q)
		if err != nil {
			return formatter.Fail(ExitCommandError, "find failed", err)
		}
		out = make([]DocumentOutput, 0, len(records))
		for _, rec := range records {
			hash, err := ir.DocumentHash(rec.Body)
			if err != nil {
				return formatter.Fail(ExitCommandError, "find failed", err)
			}
			out = append(out, DocumentOutput{ID: rec.ID, Seq: rec.Seq, Body: rec.Body, Hash: hash})
		}
	} else {
		docs, err := sess.engine.Find(ctx, q)
		if err != nil {
			return formatter.Fail(ExitCommandError, "find failed", err)
		}
		out = make([]DocumentOutput, 0, len(docs))
		for _, d := range docs {
			out = append(out, documentOutput(d))
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	for _, d := range out {
		fmt.Fprintf(formatter.Writer, "%s\t%s\n", d.ID, formatDocument(d))
	}
	fmt.Fprintf(formatter.Writer, "(%d document(s))\n", len(out))
	return nil
}

// buildFind parses the filter and sort flags into a query.
func buildFind(collection, filterJSON string, sortFields []string, limit int) (queryir.Find, error) {
	q := queryir.Find{Collection: collection, Limit: limit}

	if strings.TrimSpace(filterJSON) != "" {
		dec := json.NewDecoder(strings.NewReader(filterJSON))
		dec.UseNumber()
		var filter map[string]any
		if err := dec.Decode(&filter); err != nil {
			return q, fmt.Errorf("filter: %w", err)
		}
		pred, err := queryir.ParseFilter(filter)
		if err != nil {
			return q, fmt.Errorf("filter: %w", err)
		}
		q.Filter = pred
	}

	for _, s := range sortFields {
		key := queryir.SortKey{Field: strings.TrimPrefix(s, "-"), Descending: strings.HasPrefix(s, "-")}
		if key.Field == "" {
			return q, fmt.Errorf("sort: empty field name")
		}
		q.Sort = append(q.Sort, key)
	}
	return q, nil
}

func documentOutput(d engine.Document) DocumentOutput {
	fields := make(map[string]any, len(d.Fields))
	for name, v := range d.Fields {
		switch val := v.(type) {
		case decimal.Value:
			fields[name] = val.String()
		case []decimal.Value:
			strs := make([]string, len(val))
			for i, elem := range val {
				strs[i] = elem.String()
			}
			fields[name] = strs
		default:
			fields[name] = val
		}
	}
	return DocumentOutput{ID: d.ID, Seq: d.Seq, Fields: fields}
}

// formatDocument renders fields (or the stored body) as name=value pairs in
// name order.
func formatDocument(d DocumentOutput) string {
	var values map[string]any
	if d.Body != nil {
		values = make(map[string]any, len(d.Body))
		for k, v := range d.Body {
			values[k] = ir.FromIRValue(v)
		}
	} else {
		values = d.Fields
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%v", name, values[name]))
	}
	return strings.Join(parts, " ")
}
