package decimal

// Parse converts decimal text into a normalized Value.
//
// Accepted syntax is an optional sign, a mantissa with at least one digit and
// an optional decimal point ("12", "1.5", "1.", ".5"), followed by an optional
// exponent ('e' or 'E', optional sign, at least one digit). Whitespace,
// "Inf", "NaN", hexadecimal and every other form are MALFORMED. An exponent
// too large to represent is OUT_OF_RANGE.
func Parse(text string) (Value, error) {
	var (
		pos      int
		width    = len(text)
		neg      bool
		hascoef  bool
		intStart int
		intEnd   int
		frcStart int
		frcEnd   int
		eneg     bool
		exp      int64
		hasexp   bool
	)

	// Sign
	switch {
	case pos == width:
		return Value{}, NewMalformedError(text, "empty decimal text")
	case text[pos] == '-':
		neg = true
		pos++
	case text[pos] == '+':
		pos++
	}

	// Integer
	intStart = pos
	for pos < width && isDigit(text[pos]) {
		hascoef = true
		pos++
	}
	intEnd = pos

	// Fraction
	frcStart, frcEnd = pos, pos
	if pos < width && text[pos] == '.' {
		pos++
		frcStart = pos
		for pos < width && isDigit(text[pos]) {
			hascoef = true
			pos++
		}
		frcEnd = pos
	}

	if !hascoef {
		return Value{}, NewMalformedError(text, "missing digits")
	}

	// Exponential part
	if pos < width && (text[pos] == 'e' || text[pos] == 'E') {
		pos++
		switch {
		case pos == width:
			// missing digits, reported below
		case text[pos] == '-':
			eneg = true
			pos++
		case text[pos] == '+':
			pos++
		}
		for pos < width && isDigit(text[pos]) {
			hasexp = true
			if exp > maxExponent/10 {
				return Value{}, NewOutOfRangeError(text, "exponent overflow")
			}
			exp = exp*10 + int64(text[pos]-'0')
			pos++
		}
		if !hasexp {
			return Value{}, NewMalformedError(text, "missing exponent digits")
		}
	}

	if pos != width {
		return Value{}, NewMalformedError(text, "unexpected character %q at position %d", text[pos], pos)
	}

	if eneg {
		exp = -exp
	}

	coef := text[intStart:intEnd] + text[frcStart:frcEnd]
	sign := Positive
	if neg {
		sign = Negative
	}
	// 0.coef × 10^(len(int) + exp) == int.frac × 10^exp
	v, err := New(sign, coef, exp+int64(intEnd-intStart))
	if err != nil {
		if ce, ok := err.(*CastError); ok {
			cp := *ce
			cp.Operand = trimOperand(text)
			return Value{}, &cp
		}
		return Value{}, err
	}
	return v, nil
}

// MustParse is like Parse but panics on error.
func MustParse(text string) Value {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
