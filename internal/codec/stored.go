package codec

import (
	"github.com/roach88/decstore/internal/decimal"
)

// StoredField is the persisted shape of one decimal field.
//
// Both members derive from the same value at write time. Order is used for
// every comparison in the store; Raw is the only source used to reconstruct
// the value on read.
type StoredField struct {
	Order OrderKey `json:"order"`
	Raw   RawText  `json:"raw"`
}

// Store encodes v into a StoredField.
func (c *Codec) Store(v decimal.Value) (StoredField, error) {
	key, err := c.Encode(v)
	if err != nil {
		return StoredField{}, err
	}
	return StoredField{Order: key, Raw: c.CanonicalText(v)}, nil
}

// Load reconstructs the value of a StoredField from its raw text.
func (c *Codec) Load(f StoredField) (decimal.Value, error) {
	return c.Decode(f.Raw)
}

// Verify checks that f.Order is the order key of the value in f.Raw.
func (c *Codec) Verify(f StoredField) error {
	v, err := c.Decode(f.Raw)
	if err != nil {
		return err
	}
	key, err := c.Encode(v)
	if err != nil {
		return err
	}
	if key != f.Order {
		return decimal.NewMalformedError(string(f.Order),
			"order key does not match raw text %q (expected %q)", f.Raw, key)
	}
	return nil
}
