package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	values := []IRValue{IRNull{}, IRString("x"), IRInt(1), IRBool(true), IRArray{}, IRObject{}}
	assert.Len(t, values, 6)
}

func TestSortedKeysRFC8785Order(t *testing.T) {
	obj := IRObject{"b": IRInt(1), "a": IRInt(2), "\uE000": IRInt(3), "\U00010000": IRInt(4), "aa": IRInt(5)}
	assert.Equal(t, []string{"a", "aa", "b", "\U00010000", "\uE000"}, obj.SortedKeys())
}

func TestCompareKeysRFC8785(t *testing.T) {
	assert.Equal(t, 0, compareKeysRFC8785("abc", "abc"))
	assert.Equal(t, -1, compareKeysRFC8785("ab", "abc"))
	assert.Equal(t, 1, compareKeysRFC8785("b", "abc"))
	assert.Equal(t, -1, compareKeysRFC8785("\U00010000", "\uE000"))
}

func TestUnmarshalIRValue(t *testing.T) {
	val, err := UnmarshalIRValue([]byte(`{"price":{"order":"1","raw":"0e+0"},"qty":3,"ok":true,"tags":["a"]}`))
	require.NoError(t, err)

	assert.Equal(t, IRObject{
		"price": IRObject{"order": IRString("1"), "raw": IRString("0e+0")},
		"qty":   IRInt(3),
		"ok":    IRBool(true),
		"tags":  IRArray{IRString("a")},
	}, val)
}

func TestUnmarshalRejectsFloatsAndNull(t *testing.T) {
	for _, input := range []string{`1.5`, `{"price":1.234}`, `[1e3]`, `null`, `{"a":null}`, `1 2`} {
		t.Run(input, func(t *testing.T) {
			_, err := UnmarshalIRValue([]byte(input))
			assert.Error(t, err)
		})
	}
}

func TestIRObjectJSONRoundTrip(t *testing.T) {
	obj := IRObject{
		"name":  IRString("widget"),
		"price": IRObject{"order": IRString("25000003949."), "raw": IRString("9.49e+2")},
	}

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"widget","price":{"order":"25000003949.","raw":"9.49e+2"}}`, string(data))

	var decoded IRObject
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, obj, decoded)

	parsed, err := UnmarshalIRObject(data)
	require.NoError(t, err)
	assert.Equal(t, obj, parsed)
}

func TestIRObjectUnmarshalAllowsNull(t *testing.T) {
	obj, err := UnmarshalIRObject([]byte(`{"a":null}`))
	require.NoError(t, err)
	assert.Equal(t, IRObject{"a": IRNull{}}, obj)

	_, err = UnmarshalIRObject([]byte(`[1]`))
	assert.Error(t, err)
}

func TestIRArrayUnmarshal(t *testing.T) {
	var arr IRArray
	require.NoError(t, json.Unmarshal([]byte(`["a",1,false]`), &arr))
	assert.Equal(t, IRArray{IRString("a"), IRInt(1), IRBool(false)}, arr)

	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &arr))
}

func TestToIRValue(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected IRValue
	}{
		{"string", "x", IRString("x")},
		{"bool", false, IRBool(false)},
		{"int", 5, IRInt(5)},
		{"int32", int32(-5), IRInt(-5)},
		{"uint16", uint16(9), IRInt(9)},
		{"json number", json.Number("12"), IRInt(12)},
		{"string slice", []string{"a"}, IRArray{IRString("a")}},
		{"any slice", []any{1, "b"}, IRArray{IRInt(1), IRString("b")}},
		{"map", map[string]any{"k": true}, IRObject{"k": IRBool(true)}},
		{"ir passthrough", IRInt(3), IRInt(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToIRValue(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestToIRValueRejects(t *testing.T) {
	for name, input := range map[string]any{
		"nil":            nil,
		"float":          1.5,
		"json float":     json.Number("1.5"),
		"uint64 max":     uint64(1<<64 - 1),
		"struct":         struct{}{},
		"float in slice": []any{1.5},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ToIRValue(input)
			assert.Error(t, err)
		})
	}
}

func TestFromIRValue(t *testing.T) {
	got := FromIRValue(IRObject{
		"a": IRString("x"),
		"b": IRInt(2),
		"c": IRArray{IRBool(true), IRNull{}},
	})

	assert.Equal(t, map[string]any{
		"a": "x",
		"b": int64(2),
		"c": []any{true, nil},
	}, got)
}
