package codec

import (
	"strconv"
	"strings"

	"github.com/roach88/decstore/internal/decimal"
)

// OrderKey is the order-preserving string form of a decimal.
type OrderKey string

// RawText is the canonical scientific text form of a decimal.
type RawText string

const (
	tagNegative = '0'
	tagZero     = '1'
	tagPositive = '2'

	termPositive = '.'
	termNegative = '~'

	zeroKey OrderKey = "1"
	zeroRaw RawText  = "0e+0"
)

// Codec encodes and decodes decimals under a fixed Config.
type Codec struct {
	cfg    Config
	bias   int64
	minExp int64
	maxExp int64
}

// New creates a Codec. The configuration is validated and copied.
func New(cfg Config) (*Codec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lo, hi := cfg.ExponentRange()
	return &Codec{
		cfg:    cfg,
		bias:   cfg.Bias(),
		minExp: lo,
		maxExp: hi,
	}, nil
}

// MustNew is like New but panics on an invalid configuration.
func MustNew(cfg Config) *Codec {
	c, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns a Codec with DefaultConfig.
func Default() *Codec {
	return MustNew(DefaultConfig())
}

// Config returns the codec's configuration.
func (c *Codec) Config() Config {
	return c.cfg
}

// Check reports whether v fits the codec's limits.
func (c *Codec) Check(v decimal.Value) error {
	if v.IsZero() {
		return nil
	}
	if n := len(v.Digits()); n > c.cfg.MaxDigits {
		return decimal.NewMalformedError(v.String(),
			"%d significant digits exceed the limit of %d", n, c.cfg.MaxDigits)
	}
	if e := v.Exponent(); e < c.minExp || e > c.maxExp {
		return decimal.NewOutOfRangeError(v.String(),
			"exponent %d outside supported range [%d, %d]", e, c.minExp, c.maxExp)
	}
	return nil
}

// Parse parses decimal text and applies the codec's limits.
func (c *Codec) Parse(text string) (decimal.Value, error) {
	v, err := decimal.Parse(text)
	if err != nil {
		return decimal.Value{}, err
	}
	if err := c.Check(v); err != nil {
		return decimal.Value{}, err
	}
	return v, nil
}

// ParseLiteral converts an application literal and applies the codec's limits.
func (c *Codec) ParseLiteral(lit any) (decimal.Value, error) {
	v, err := decimal.ParseLiteral(lit)
	if err != nil {
		return decimal.Value{}, err
	}
	if err := c.Check(v); err != nil {
		return decimal.Value{}, err
	}
	return v, nil
}

// Encode returns the order key of v.
func (c *Codec) Encode(v decimal.Value) (OrderKey, error) {
	if err := c.Check(v); err != nil {
		return "", err
	}
	if v.IsZero() {
		return zeroKey, nil
	}

	digits := v.Digits()
	ee := c.biasedExponent(v.Exponent())

	var b strings.Builder
	b.Grow(len(ee) + len(digits) + 2)
	if v.IsNegative() {
		b.WriteByte(tagNegative)
		writeComplement(&b, ee)
		writeComplement(&b, digits)
		b.WriteByte(termNegative)
	} else {
		b.WriteByte(tagPositive)
		b.WriteString(ee)
		b.WriteString(digits)
		b.WriteByte(termPositive)
	}
	return OrderKey(b.String()), nil
}

func (c *Codec) biasedExponent(exp int64) string {
	s := strconv.FormatInt(exp+c.bias, 10)
	if pad := c.cfg.ExponentDigits - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return s
}

func writeComplement(b *strings.Builder, digits string) {
	for i := 0; i < len(digits); i++ {
		b.WriteByte('9' - digits[i] + '0')
	}
}

func complement(digits string) string {
	var b strings.Builder
	b.Grow(len(digits))
	writeComplement(&b, digits)
	return b.String()
}

// DecodeKey inverts Encode.
func (c *Codec) DecodeKey(key OrderKey) (decimal.Value, error) {
	s := string(key)
	if key == zeroKey {
		return decimal.Value{}, nil
	}
	w := c.cfg.ExponentDigits
	if len(s) < w+3 {
		return decimal.Value{}, decimal.NewMalformedError(s, "order key too short")
	}

	var (
		sign decimal.Sign
		ee   string
		d    string
	)
	body := s[1 : len(s)-1]
	switch {
	case s[0] == tagPositive && s[len(s)-1] == termPositive:
		sign = decimal.Positive
		ee, d = body[:w], body[w:]
	case s[0] == tagNegative && s[len(s)-1] == termNegative:
		sign = decimal.Negative
		if !allDigits(body) {
			return decimal.Value{}, decimal.NewMalformedError(s, "order key contains non-digit characters")
		}
		ee, d = complement(body[:w]), complement(body[w:])
	default:
		return decimal.Value{}, decimal.NewMalformedError(s, "invalid order key tag or terminator")
	}

	if !allDigits(ee) || !allDigits(d) {
		return decimal.Value{}, decimal.NewMalformedError(s, "order key contains non-digit characters")
	}
	if d[0] == '0' || d[len(d)-1] == '0' {
		return decimal.Value{}, decimal.NewMalformedError(s, "order key digits are not normalized")
	}
	biased, err := strconv.ParseInt(ee, 10, 64)
	if err != nil {
		return decimal.Value{}, decimal.NewMalformedError(s, "invalid order key exponent")
	}

	v, err := decimal.New(sign, d, biased-c.bias)
	if err != nil {
		return decimal.Value{}, err
	}
	if err := c.Check(v); err != nil {
		return decimal.Value{}, err
	}
	return v, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// CanonicalText returns the canonical scientific form of v.
//
//	1.234 → 1.234e+0    949 → 9.49e+2    -0.001 → -1e-3    0 → 0e+0
func (c *Codec) CanonicalText(v decimal.Value) RawText {
	if v.IsZero() {
		return zeroRaw
	}
	digits := v.Digits()
	sci := v.Exponent() - 1

	var b strings.Builder
	b.Grow(len(digits) + 24)
	if v.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteByte(digits[0])
	if len(digits) > 1 {
		b.WriteByte('.')
		b.WriteString(digits[1:])
	}
	b.WriteByte('e')
	if sci >= 0 {
		b.WriteByte('+')
	}
	b.WriteString(strconv.FormatInt(sci, 10))
	return RawText(b.String())
}

// Decode strictly parses canonical text produced by CanonicalText. Any other
// spelling of a number, even one Parse would accept, is MALFORMED.
func (c *Codec) Decode(raw RawText) (decimal.Value, error) {
	s := string(raw)
	if raw == zeroRaw {
		return decimal.Value{}, nil
	}

	pos := 0
	sign := decimal.Positive
	if pos < len(s) && s[pos] == '-' {
		sign = decimal.Negative
		pos++
	}

	if pos >= len(s) || s[pos] < '1' || s[pos] > '9' {
		return decimal.Value{}, decimal.NewMalformedError(s, "non-canonical text: expected leading digit 1-9")
	}
	digits := s[pos : pos+1]
	pos++

	if pos < len(s) && s[pos] == '.' {
		pos++
		start := pos
		for pos < len(s) && s[pos] >= '0' && s[pos] <= '9' {
			pos++
		}
		frac := s[start:pos]
		if frac == "" || frac[len(frac)-1] == '0' {
			return decimal.Value{}, decimal.NewMalformedError(s, "non-canonical text: fraction must end in a non-zero digit")
		}
		digits += frac
	}

	if pos >= len(s) || s[pos] != 'e' {
		return decimal.Value{}, decimal.NewMalformedError(s, "non-canonical text: expected 'e'")
	}
	pos++
	if pos >= len(s) || (s[pos] != '+' && s[pos] != '-') {
		return decimal.Value{}, decimal.NewMalformedError(s, "non-canonical text: exponent sign required")
	}
	eneg := s[pos] == '-'
	pos++

	expText := s[pos:]
	if expText == "" || !allDigits(expText) {
		return decimal.Value{}, decimal.NewMalformedError(s, "non-canonical text: invalid exponent")
	}
	if len(expText) > 1 && expText[0] == '0' {
		return decimal.Value{}, decimal.NewMalformedError(s, "non-canonical text: exponent has leading zeros")
	}
	if eneg && expText == "0" {
		return decimal.Value{}, decimal.NewMalformedError(s, "non-canonical text: negative zero exponent")
	}
	sci, err := strconv.ParseInt(expText, 10, 64)
	if err != nil {
		return decimal.Value{}, decimal.NewOutOfRangeError(s, "exponent overflow")
	}
	if eneg {
		sci = -sci
	}
	if sci < c.minExp-1 || sci > c.maxExp-1 {
		return decimal.Value{}, decimal.NewOutOfRangeError(s,
			"exponent %d outside supported range [%d, %d]", sci+1, c.minExp, c.maxExp)
	}

	v, err := decimal.New(sign, digits, sci+1)
	if err != nil {
		return decimal.Value{}, err
	}
	if err := c.Check(v); err != nil {
		return decimal.Value{}, err
	}
	return v, nil
}
