package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/decstore/internal/codec"
)

// Scenario defines a conformance scenario: collections, the documents to
// insert, queries with their expected results, and final assertions.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is inline CUE declaring collections.
	Schema string `yaml:"schema,omitempty"`

	// Specs lists CUE files declaring collections.
	// Relative paths are resolved against the base path given to
	// LoadScenarioWithBasePath.
	Specs []string `yaml:"specs,omitempty"`

	// Codec overrides the default codec limits.
	Codec *codec.Config `yaml:"codec,omitempty"`

	// Documents are inserted in order.
	Documents []DocumentStep `yaml:"documents"`

	// Queries run after every document has been inserted.
	Queries []QueryStep `yaml:"queries,omitempty"`

	// Assertions validate the final store.
	// Supported types: document_count, stored_field, field_value, verify
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// DocumentStep inserts one document.
type DocumentStep struct {
	Collection string `yaml:"collection"`

	// ID is optional; generated IDs are doc-1, doc-2, ...
	ID string `yaml:"id,omitempty"`

	Fields map[string]any `yaml:"fields"`

	// ExpectError is the error code the insert must fail with
	// (e.g. MALFORMED, OUT_OF_RANGE, INVALID_DOCUMENT).
	ExpectError string `yaml:"expect_error,omitempty"`
}

// QueryStep runs one find.
type QueryStep struct {
	Name       string         `yaml:"name"`
	Collection string         `yaml:"collection"`
	Filter     map[string]any `yaml:"filter,omitempty"`
	Sort       []SortStep     `yaml:"sort,omitempty"`
	Limit      int            `yaml:"limit,omitempty"`
	Expect     QueryExpect    `yaml:"expect"`
}

// SortStep orders query results by one field.
type SortStep struct {
	Field string `yaml:"field"`
	Desc  bool   `yaml:"desc,omitempty"`
}

// QueryExpect is the expected query outcome. IDs are compared in order.
type QueryExpect struct {
	IDs   []string `yaml:"ids"`
	Error string   `yaml:"error,omitempty"`
}

// Assertion validates the final store.
type Assertion struct {
	// Type specifies the assertion type:
	// - "document_count": Collection holds exactly Count documents
	// - "stored_field": Field of document ID is stored as Order/Raw
	// - "field_value": Field of document ID materializes to Value
	// - "verify": every stored decimal of Collection passes verification
	Type string `yaml:"type"`

	Collection string `yaml:"collection"`
	ID         string `yaml:"id,omitempty"`
	Field      string `yaml:"field,omitempty"`
	Count      int    `yaml:"count,omitempty"`
	Order      string `yaml:"order,omitempty"`
	Raw        string `yaml:"raw,omitempty"`
	Value      string `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertDocumentCount = "document_count"
	AssertStoredField   = "stored_field"
	AssertFieldValue    = "field_value"
	AssertVerify        = "verify"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, "")
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving spec paths relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Schema == "" && len(s.Specs) == 0 {
		return fmt.Errorf("schema or specs is required")
	}
	if s.Codec != nil {
		if err := s.Codec.Validate(); err != nil {
			return fmt.Errorf("codec: %w", err)
		}
	}

	for i, d := range s.Documents {
		if d.Collection == "" {
			return fmt.Errorf("documents[%d]: collection is required", i)
		}
	}

	names := make(map[string]bool, len(s.Queries))
	for i, q := range s.Queries {
		if q.Name == "" {
			return fmt.Errorf("queries[%d]: name is required", i)
		}
		if names[q.Name] {
			return fmt.Errorf("queries[%d]: duplicate name %q", i, q.Name)
		}
		names[q.Name] = true
		if q.Collection == "" {
			return fmt.Errorf("queries[%d]: collection is required", i)
		}
		for j, sk := range q.Sort {
			if sk.Field == "" {
				return fmt.Errorf("queries[%d].sort[%d]: field is required", i, j)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, i); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(a Assertion, index int) error {
	if a.Collection == "" {
		return fmt.Errorf("assertions[%d]: collection is required", index)
	}

	switch a.Type {
	case AssertDocumentCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for document_count", index)
		}
	case AssertStoredField:
		if a.ID == "" || a.Field == "" {
			return fmt.Errorf("assertions[%d]: id and field are required for stored_field", index)
		}
		if a.Order == "" && a.Raw == "" {
			return fmt.Errorf("assertions[%d]: order or raw is required for stored_field", index)
		}
	case AssertFieldValue:
		if a.ID == "" || a.Field == "" || a.Value == "" {
			return fmt.Errorf("assertions[%d]: id, field and value are required for field_value", index)
		}
	case AssertVerify:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
