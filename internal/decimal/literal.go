package decimal

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/cockroachdb/apd/v3"
	gvdecimal "github.com/govalues/decimal"
	ssdecimal "github.com/shopspring/decimal"
)

// ParseLiteral converts an application literal into a Value.
//
// Supported inputs: string, json.Number, every integer kind, float32 and
// float64 (formatted with the shortest text that round-trips), *big.Int,
// Value, apd.Decimal, shopspring decimal.Decimal and govalues decimal.Decimal.
// NaN and infinities are MALFORMED, as is any other type.
func ParseLiteral(lit any) (Value, error) {
	switch x := lit.(type) {
	case Value:
		return x, nil
	case *Value:
		if x == nil {
			return Value{}, NewMalformedError("", "nil decimal")
		}
		return *x, nil
	case string:
		return Parse(x)
	case json.Number:
		return Parse(string(x))
	case int:
		return Parse(strconv.FormatInt(int64(x), 10))
	case int8:
		return Parse(strconv.FormatInt(int64(x), 10))
	case int16:
		return Parse(strconv.FormatInt(int64(x), 10))
	case int32:
		return Parse(strconv.FormatInt(int64(x), 10))
	case int64:
		return Parse(strconv.FormatInt(x, 10))
	case uint:
		return Parse(strconv.FormatUint(uint64(x), 10))
	case uint8:
		return Parse(strconv.FormatUint(uint64(x), 10))
	case uint16:
		return Parse(strconv.FormatUint(uint64(x), 10))
	case uint32:
		return Parse(strconv.FormatUint(uint64(x), 10))
	case uint64:
		return Parse(strconv.FormatUint(x, 10))
	case float32:
		return parseFloat(float64(x), 32)
	case float64:
		return parseFloat(x, 64)
	case *big.Int:
		if x == nil {
			return Value{}, NewMalformedError("", "nil big.Int")
		}
		return Parse(x.String())
	case apd.Decimal:
		return parseApd(&x)
	case *apd.Decimal:
		if x == nil {
			return Value{}, NewMalformedError("", "nil apd.Decimal")
		}
		return parseApd(x)
	case ssdecimal.Decimal:
		return Parse(x.String())
	case gvdecimal.Decimal:
		return Parse(x.String())
	case nil:
		return Value{}, NewMalformedError("", "null is not a decimal")
	default:
		return Value{}, NewMalformedError(fmt.Sprintf("%v", lit), "unsupported literal type %T", lit)
	}
}

func parseFloat(f float64, bits int) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, NewMalformedError(strconv.FormatFloat(f, 'g', -1, bits), "non-finite float")
	}
	return Parse(strconv.FormatFloat(f, 'g', -1, bits))
}

func parseApd(d *apd.Decimal) (Value, error) {
	if d.Form != apd.Finite {
		return Value{}, NewMalformedError(d.String(), "non-finite apd.Decimal")
	}
	return Parse(d.String())
}
