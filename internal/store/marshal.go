package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/decstore/internal/ir"
)

// marshalBody converts a document body to canonical JSON TEXT for storage.
func marshalBody(body ir.IRObject) (string, error) {
	if body == nil {
		body = ir.IRObject{}
	}
	data, err := ir.MarshalCanonical(body)
	if err != nil {
		return "", fmt.Errorf("marshal body: %w", err)
	}
	return string(data), nil
}

// unmarshalBody parses canonical JSON TEXT to IRObject.
// ir.IRObject.UnmarshalJSON decodes numbers via json.Number, so large
// integers keep their precision.
func unmarshalBody(data string) (ir.IRObject, error) {
	if data == "" || data == "{}" {
		return ir.IRObject{}, nil
	}
	var obj ir.IRObject
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal body: %w", err)
	}
	return obj, nil
}

// marshalSpec converts a CollectionSpec to JSON TEXT.
// CollectionSpec is a struct (not IRValue); HTML escaping is disabled so the
// stored text matches what was declared.
func marshalSpec(spec ir.CollectionSpec) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(spec); err != nil {
		return "", fmt.Errorf("marshal spec: %w", err)
	}
	// Encoder adds a trailing newline
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalSpec parses JSON TEXT to CollectionSpec.
func unmarshalSpec(data string) (ir.CollectionSpec, error) {
	var spec ir.CollectionSpec
	if err := json.Unmarshal([]byte(data), &spec); err != nil {
		return ir.CollectionSpec{}, fmt.Errorf("unmarshal spec: %w", err)
	}
	return spec, nil
}
