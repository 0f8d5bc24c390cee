package ir

import (
	"fmt"
	"regexp"
)

// FieldType is the declared type of a collection field.
type FieldType string

const (
	FieldDecimal FieldType = "decimal"
	FieldString  FieldType = "string"
	FieldInt     FieldType = "int"
	FieldBool    FieldType = "bool"
)

// ValidFieldTypes lists the accepted field types. There is deliberately no
// float type: fractional numbers are declared as decimal.
var ValidFieldTypes = map[FieldType]bool{
	FieldDecimal: true,
	FieldString:  true,
	FieldInt:     true,
	FieldBool:    true,
}

// fieldNamePattern restricts field names to identifiers so they can be
// embedded in JSON paths without quoting.
var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidFieldName reports whether name can be used as a field name.
func ValidFieldName(name string) bool {
	return fieldNamePattern.MatchString(name)
}

// FieldSpec declares one field of a collection.
type FieldSpec struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Array    bool      `json:"array,omitempty"`
	Required bool      `json:"required,omitempty"`
	Index    bool      `json:"index,omitempty"`
}

// CollectionSpec represents a compiled collection declaration.
// Fields are kept sorted by name.
type CollectionSpec struct {
	Name   string      `json:"name"`
	Fields []FieldSpec `json:"fields"`
}

// Field returns the spec of the named field.
func (c CollectionSpec) Field(name string) (FieldSpec, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// DecimalFields returns the names of decimal-typed fields in declaration order.
func (c CollectionSpec) DecimalFields() []string {
	var out []string
	for _, f := range c.Fields {
		if f.Type == FieldDecimal {
			out = append(out, f.Name)
		}
	}
	return out
}

// Validate checks names, types and duplicates.
func (c CollectionSpec) Validate() error {
	if !ValidFieldName(c.Name) {
		return fmt.Errorf("invalid collection name %q", c.Name)
	}
	seen := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		if !ValidFieldName(f.Name) {
			return fmt.Errorf("collection %s: invalid field name %q", c.Name, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("collection %s: duplicate field %q", c.Name, f.Name)
		}
		seen[f.Name] = true
		if !ValidFieldTypes[f.Type] {
			return fmt.Errorf("collection %s: field %s has unsupported type %q", c.Name, f.Name, f.Type)
		}
		if f.Index && f.Array {
			return fmt.Errorf("collection %s: array field %s cannot be indexed", c.Name, f.Name)
		}
	}
	return nil
}

// DocumentRecord is a stored document.
type DocumentRecord struct {
	ID         string   `json:"id"`
	Collection string   `json:"collection"`
	Seq        int64    `json:"seq"` // Logical clock
	Body       IRObject `json:"body"`
}
