package decimal

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Sign is the sign of a Value.
type Sign int8

const (
	Negative Sign = -1
	Zero     Sign = 0
	Positive Sign = 1
)

// String returns "-", "0" or "+".
func (s Sign) String() string {
	switch s {
	case Negative:
		return "-"
	case Positive:
		return "+"
	default:
		return "0"
	}
}

// Value is a normalized arbitrary-precision decimal.
//
// The Go zero value is the decimal zero. Values are immutable; every method
// that derives a new number returns a new Value.
type Value struct {
	sign   Sign
	digits string
	exp    int64
}

// maxExponent bounds the magnitude of a Value's exponent so that exponent
// arithmetic (digit counts added or removed) never overflows int64.
const maxExponent = int64(1) << 60

// New builds a normalized Value from a sign, a digit string read as a fraction,
// and an exponent: the result is sign × 0.digits × 10^exponent.
//
// Leading zeros are stripped (decrementing the exponent), trailing zeros are
// stripped, and an all-zero digit string yields the decimal zero regardless of
// sign or exponent. A non-zero digit string with sign Zero is malformed.
func New(sign Sign, digits string, exponent int64) (Value, error) {
	if digits == "" {
		return Value{}, NewMalformedError(digits, "empty digit string")
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return Value{}, NewMalformedError(digits, "invalid digit %q at position %d", digits[i], i)
		}
	}
	if sign != Negative && sign != Zero && sign != Positive {
		return Value{}, NewMalformedError(digits, "invalid sign %d", sign)
	}

	lead := 0
	for lead < len(digits) && digits[lead] == '0' {
		lead++
	}
	if lead == len(digits) {
		return Value{}, nil
	}
	if sign == Zero {
		return Value{}, NewMalformedError(digits, "non-zero digits with zero sign")
	}

	end := len(digits)
	for digits[end-1] == '0' {
		end--
	}

	exp := exponent - int64(lead)
	if exp < -maxExponent || exp > maxExponent {
		return Value{}, NewOutOfRangeError(digits, "exponent %d exceeds supported magnitude", exp)
	}
	return Value{sign: sign, digits: digits[lead:end], exp: exp}, nil
}

// MustNew is like New but panics on error. Intended for tests and constants.
func MustNew(sign Sign, digits string, exponent int64) Value {
	v, err := New(sign, digits, exponent)
	if err != nil {
		panic(err)
	}
	return v
}

// Sign returns the sign of v.
func (v Value) Sign() Sign {
	return v.sign
}

// Digits returns the normalized significant digits of v ("0" for zero).
func (v Value) Digits() string {
	if v.digits == "" {
		return "0"
	}
	return v.digits
}

// Exponent returns E such that |v| = 0.Digits() × 10^E (0 for zero).
func (v Value) Exponent() int64 {
	return v.exp
}

// IsZero reports whether v is zero.
func (v Value) IsZero() bool {
	return v.sign == Zero
}

// IsNegative reports whether v is strictly less than zero.
func (v Value) IsNegative() bool {
	return v.sign == Negative
}

// Normalize returns v. Values are normalized on construction; the method
// exists for callers that build triples by hand through New.
func (v Value) Normalize() Value {
	if v.sign == Zero || v.digits == "" {
		return Value{}
	}
	return v
}

// Neg returns -v.
func (v Value) Neg() Value {
	v.sign = -v.sign
	return v
}

// Abs returns |v|.
func (v Value) Abs() Value {
	if v.sign == Negative {
		v.sign = Positive
	}
	return v
}

// Cmp compares v and w and returns -1, 0 or +1.
func (v Value) Cmp(w Value) int {
	if v.sign != w.sign {
		if v.sign < w.sign {
			return -1
		}
		return 1
	}
	if v.sign == Zero {
		return 0
	}
	c := cmpMagnitude(v, w)
	if v.sign == Negative {
		return -c
	}
	return c
}

// cmpMagnitude compares |v| and |w| for non-zero values. With the fractional
// digit model a larger exponent always means a larger magnitude, and equal
// exponents compare digit strings lexicographically (a strict prefix is smaller).
func cmpMagnitude(v, w Value) int {
	switch {
	case v.exp < w.exp:
		return -1
	case v.exp > w.exp:
		return 1
	}
	return strings.Compare(v.digits, w.digits)
}

// Equal reports whether v and w denote the same number.
func (v Value) Equal(w Value) bool {
	return v.sign == w.sign && v.digits == w.digits && v.exp == w.exp
}

// IsInteger reports whether v has no fractional part.
func (v Value) IsInteger() bool {
	return v.sign == Zero || v.exp >= int64(len(v.digits))
}

// Int64 returns v as an int64. ok is false when v is not an integer or does
// not fit in an int64.
func (v Value) Int64() (n int64, ok bool) {
	if v.sign == Zero {
		return 0, true
	}
	if !v.IsInteger() || v.exp > 19 {
		return 0, false
	}
	s := v.integerText()
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// BigInt returns v as a *big.Int. ok is false when v is not an integer.
func (v Value) BigInt() (n *big.Int, ok bool) {
	if v.sign == Zero {
		return new(big.Int), true
	}
	if !v.IsInteger() {
		return nil, false
	}
	n, ok = new(big.Int).SetString(v.integerText(), 10)
	return n, ok
}

// integerText renders an integral non-zero v in plain notation with sign.
func (v Value) integerText() string {
	var b strings.Builder
	if v.sign == Negative {
		b.WriteByte('-')
	}
	b.WriteString(v.digits)
	b.WriteString(strings.Repeat("0", int(v.exp)-len(v.digits)))
	return b.String()
}

// Apd converts v to an apd.Decimal with the same coefficient and exponent.
// Values whose exponent does not fit apd's int32 exponent are OUT_OF_RANGE.
func (v Value) Apd() (*apd.Decimal, error) {
	if v.sign == Zero {
		return apd.New(0, 0), nil
	}
	exp := v.exp - int64(len(v.digits))
	if exp < math.MinInt32 || exp > math.MaxInt32 {
		return nil, NewOutOfRangeError(v.String(), "exponent %d does not fit apd", exp)
	}
	d := new(apd.Decimal)
	if _, ok := d.Coeff.SetString(v.digits, 10); !ok {
		// Unreachable: digits are validated on construction.
		panic("decimal: invalid digits " + v.digits)
	}
	d.Exponent = int32(exp)
	d.Negative = v.sign == Negative
	return d, nil
}

// TruncMod returns trunc(v) % divisor: the fractional part of v is dropped
// and the remainder takes the sign of v, as with Go's % on integers. It is
// exact for every Value, including integers far beyond int64. TruncMod
// panics if divisor is zero.
func (v Value) TruncMod(divisor int64) int64 {
	if divisor == 0 {
		panic("decimal: TruncMod by zero")
	}
	if v.sign == Zero || v.exp <= 0 {
		return 0
	}

	m := new(big.Int).SetInt64(divisor)
	m.Abs(m)

	intDigits := v.digits
	var zeros int64
	if v.exp < int64(len(v.digits)) {
		intDigits = v.digits[:v.exp]
	} else {
		zeros = v.exp - int64(len(v.digits))
	}

	r, _ := new(big.Int).SetString(intDigits, 10)
	r.Mod(r, m)
	if zeros > 0 {
		// digits × 10^zeros, reduced without building the full integer.
		p := new(big.Int).Exp(big.NewInt(10), big.NewInt(zeros), m)
		r.Mul(r, p).Mod(r, m)
	}
	if v.sign == Negative {
		r.Neg(r)
	}
	return r.Int64()
}

// String formats v in plain notation when its adjusted exponent lies in
// [-7, 21) and in scientific notation otherwise.
func (v Value) String() string {
	if v.sign == Zero {
		return "0"
	}
	var b strings.Builder
	if v.sign == Negative {
		b.WriteByte('-')
	}
	n := int64(len(v.digits))
	adjusted := v.exp - 1
	switch {
	case adjusted < -7 || adjusted >= 21:
		b.WriteByte(v.digits[0])
		if n > 1 {
			b.WriteByte('.')
			b.WriteString(v.digits[1:])
		}
		b.WriteByte('e')
		if adjusted >= 0 {
			b.WriteByte('+')
		}
		b.WriteString(strconv.FormatInt(adjusted, 10))
	case v.exp <= 0:
		b.WriteString("0.")
		b.WriteString(strings.Repeat("0", int(-v.exp)))
		b.WriteString(v.digits)
	case v.exp < n:
		b.WriteString(v.digits[:v.exp])
		b.WriteByte('.')
		b.WriteString(v.digits[v.exp:])
	default:
		b.WriteString(v.digits)
		b.WriteString(strings.Repeat("0", int(v.exp-n)))
	}
	return b.String()
}
