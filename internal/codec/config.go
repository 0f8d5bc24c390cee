package codec

import "fmt"

const (
	// DefaultExponentDigits is the width of the biased exponent in an order key.
	DefaultExponentDigits = 7

	// DefaultMaxDigits bounds the number of significant digits accepted.
	DefaultMaxDigits = 4096

	minExponentDigits = 2
	maxExponentDigits = 18
)

// Config holds codec limits. It is captured by value in New and never
// changes afterwards.
type Config struct {
	// ExponentDigits is W, the zero-padded width of the biased exponent.
	// The supported exponent range is [-10^W/2, 10^W/2 - 1].
	ExponentDigits int `mapstructure:"exponent_digits" json:"exponent_digits" yaml:"exponent_digits"`

	// MaxDigits is the largest accepted count of significant digits.
	MaxDigits int `mapstructure:"max_digits" json:"max_digits" yaml:"max_digits"`
}

// DefaultConfig returns the default codec limits.
func DefaultConfig() Config {
	return Config{
		ExponentDigits: DefaultExponentDigits,
		MaxDigits:      DefaultMaxDigits,
	}
}

// Validate checks that the configuration can be used to build a Codec.
func (c Config) Validate() error {
	if c.ExponentDigits < minExponentDigits || c.ExponentDigits > maxExponentDigits {
		return fmt.Errorf("exponent_digits must be in [%d, %d], got %d",
			minExponentDigits, maxExponentDigits, c.ExponentDigits)
	}
	if c.MaxDigits < 1 {
		return fmt.Errorf("max_digits must be positive, got %d", c.MaxDigits)
	}
	return nil
}

// Bias returns 10^ExponentDigits / 2.
func (c Config) Bias() int64 {
	b := int64(1)
	for i := 0; i < c.ExponentDigits; i++ {
		b *= 10
	}
	return b / 2
}

// ExponentRange returns the inclusive range of supported exponents.
func (c Config) ExponentRange() (lo, hi int64) {
	b := c.Bias()
	return -b, b - 1
}
