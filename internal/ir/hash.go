package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes.
// Version suffix enables future algorithm migration.
const (
	DomainSchema   = "decstore/schema/v1"
	DomainDocument = "decstore/document/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SchemaHash computes the content hash of a collection spec. Two specs with
// the same fields in any declaration order hash identically.
func SchemaHash(spec CollectionSpec) (string, error) {
	fields := make(IRObject, len(spec.Fields))
	for _, f := range spec.Fields {
		fields[f.Name] = IRObject{
			"type":     IRString(f.Type),
			"array":    IRBool(f.Array),
			"required": IRBool(f.Required),
			"index":    IRBool(f.Index),
		}
	}
	obj := IRObject{
		"name":   IRString(spec.Name),
		"fields": fields,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("SchemaHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSchema, canonical), nil
}

// DocumentHash computes the content hash of a stored document body.
func DocumentHash(body IRObject) (string, error) {
	canonical, err := MarshalCanonical(body)
	if err != nil {
		return "", fmt.Errorf("DocumentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}

// MustSchemaHash is like SchemaHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSchemaHash(spec CollectionSpec) string {
	h, err := SchemaHash(spec)
	if err != nil {
		panic(err)
	}
	return h
}
