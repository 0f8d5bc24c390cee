package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionSpecJSON(t *testing.T) {
	data, err := json.Marshal(productSpec())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "Product",
		"fields": [
			{"name": "discounts", "type": "decimal", "array": true},
			{"name": "price", "type": "decimal", "required": true, "index": true}
		]
	}`, string(data))

	var decoded CollectionSpec
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, productSpec(), decoded)
}

func TestCollectionSpecLookup(t *testing.T) {
	spec := productSpec()
	spec.Fields = append(spec.Fields, FieldSpec{Name: "title", Type: FieldString})

	f, ok := spec.Field("price")
	require.True(t, ok)
	assert.True(t, f.Required)

	_, ok = spec.Field("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"discounts", "price"}, spec.DecimalFields())
}

func TestCollectionSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    CollectionSpec
		wantErr string
	}{
		{"valid", productSpec(), ""},
		{"bad collection name", CollectionSpec{Name: "a-b"}, "invalid collection name"},
		{"bad field name", CollectionSpec{Name: "P", Fields: []FieldSpec{{Name: "a.b", Type: FieldInt}}}, "invalid field name"},
		{"duplicate", CollectionSpec{Name: "P", Fields: []FieldSpec{
			{Name: "a", Type: FieldInt}, {Name: "a", Type: FieldString},
		}}, "duplicate field"},
		{"float type", CollectionSpec{Name: "P", Fields: []FieldSpec{{Name: "a", Type: "float"}}}, "unsupported type"},
		{"indexed array", CollectionSpec{Name: "P", Fields: []FieldSpec{
			{Name: "a", Type: FieldDecimal, Array: true, Index: true},
		}}, "cannot be indexed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestDocumentRecordJSON(t *testing.T) {
	rec := DocumentRecord{
		ID:         "doc-1",
		Collection: "Product",
		Seq:        3,
		Body:       IRObject{"price": IRObject{"order": IRString("1"), "raw": IRString("0e+0")}},
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t,
		`{"id":"doc-1","collection":"Product","seq":3,"body":{"price":{"order":"1","raw":"0e+0"}}}`,
		string(data))
}
