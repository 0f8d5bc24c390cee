package codec

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/decstore/internal/decimal"
)

func TestEncodeKnownValues(t *testing.T) {
	c := Default()

	tests := []struct {
		input string
		key   OrderKey
		raw   RawText
	}{
		{"0", "1", "0e+0"},
		{"-0.000", "1", "0e+0"},
		{"1.234", "250000011234.", "1.234e+0"},
		{"949", "25000003949.", "9.49e+2"},
		{"1200", "2500000412.", "1.2e+3"},
		{"9999.9999", "2500000499999999.", "9.9999999e+3"},
		{"-0.001", "050000018~", "-1e-3"},
		{"0.5", "250000005.", "5e-1"},
		{"-98.993", "0499999701006~", "-9.8993e+1"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v := decimal.MustParse(tt.input)

			key, err := c.Encode(v)
			require.NoError(t, err)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.raw, c.CanonicalText(v))
		})
	}
}

func TestEncodeAscendingSequence(t *testing.T) {
	c := Default()

	// Strictly ascending, including values whose digit strings are prefixes
	// of each other and values that straddle an exponent boundary.
	ascending := []string{
		"-1e100", "-10", "-9.99", "-1.0000001", "-1", "-0.9999", "-0.001",
		"-1e-100", "0", "1e-100", "0.001", "0.0010001", "0.9999", "1",
		"1.0000001", "1.234", "9.99", "10", "98.993", "949", "8888.7905",
		"9999.9999", "10000", "1e100",
	}

	keys := make([]OrderKey, len(ascending))
	for i, s := range ascending {
		key, err := c.Encode(decimal.MustParse(s))
		require.NoError(t, err)
		keys[i] = key
	}

	for i := 1; i < len(keys); i++ {
		assert.Less(t, string(keys[i-1]), string(keys[i]),
			"key(%s) must sort before key(%s)", ascending[i-1], ascending[i])
	}
}

func TestRoundTrip(t *testing.T) {
	c := Default()

	inputs := []string{
		"0", "1", "-1", "1.234", "98.993", "949", "8888.7905", "9999.9999",
		"7775.55555", "-0.000000000000000000000000000000123",
		"123456789012345678901234567890.098765432109876543210",
		"1e4999998", "1e-5000001",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			v := decimal.MustParse(input)

			sf, err := c.Store(v)
			require.NoError(t, err)

			loaded, err := c.Load(sf)
			require.NoError(t, err)
			assert.True(t, loaded.Equal(v), "raw round trip: got %s want %s", loaded, v)

			fromKey, err := c.DecodeKey(sf.Order)
			require.NoError(t, err)
			assert.True(t, fromKey.Equal(v), "key round trip: got %s want %s", fromKey, v)

			require.NoError(t, c.Verify(sf))
		})
	}
}

func randomDecimalText(r *rand.Rand) string {
	var b strings.Builder
	if r.Intn(2) == 0 {
		b.WriteByte('-')
	}
	intLen := 1 + r.Intn(6)
	for i := 0; i < intLen; i++ {
		b.WriteByte(byte('0' + r.Intn(10)))
	}
	if fracLen := r.Intn(6); fracLen > 0 {
		b.WriteByte('.')
		for i := 0; i < fracLen; i++ {
			b.WriteByte(byte('0' + r.Intn(10)))
		}
		// Trailing-zero variants must collapse to the same key.
		b.WriteString(strings.Repeat("0", r.Intn(3)))
	}
	if r.Intn(2) == 0 {
		fmt.Fprintf(&b, "e%d", r.Intn(41)-20)
	}
	return b.String()
}

func TestOrderMatchesApdOracle(t *testing.T) {
	c := Default()
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 5000; i++ {
		a, b := randomDecimalText(r), randomDecimalText(r)

		da, _, err := apd.NewFromString(a)
		require.NoError(t, err)
		db, _, err := apd.NewFromString(b)
		require.NoError(t, err)
		want := da.Cmp(db)

		va, vb := decimal.MustParse(a), decimal.MustParse(b)
		ka, err := c.Encode(va)
		require.NoError(t, err)
		kb, err := c.Encode(vb)
		require.NoError(t, err)

		require.Equal(t, want, strings.Compare(string(ka), string(kb)), "compare %s with %s", a, b)
		require.Equal(t, want, va.Cmp(vb), "Value.Cmp %s with %s", a, b)
		require.Equal(t, want == 0, va.Equal(vb), "Value.Equal %s with %s", a, b)
		require.Equal(t, want == 0, c.CanonicalText(va) == c.CanonicalText(vb), "raw equality %s with %s", a, b)
	}
}

func TestSortByKeyMatchesApdOrder(t *testing.T) {
	c := Default()
	r := rand.New(rand.NewSource(7))

	type entry struct {
		key OrderKey
		dec *apd.Decimal
	}
	entries := make([]entry, 0, 1000)
	for i := 0; i < 1000; i++ {
		s := randomDecimalText(r)
		d, _, err := apd.NewFromString(s)
		require.NoError(t, err)
		key, err := c.Encode(decimal.MustParse(s))
		require.NoError(t, err)
		entries = append(entries, entry{key: key, dec: d})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	for i := 1; i < len(entries); i++ {
		assert.LessOrEqual(t, entries[i-1].dec.Cmp(entries[i].dec), 0,
			"%s sorted before %s", entries[i-1].dec, entries[i].dec)
	}
}

func TestRandomRoundTrip(t *testing.T) {
	c := Default()
	r := rand.New(rand.NewSource(1))

	for i := 0; i < 2000; i++ {
		s := randomDecimalText(r)
		v := decimal.MustParse(s)

		decoded, err := c.Decode(c.CanonicalText(v))
		require.NoError(t, err, s)
		require.True(t, decoded.Equal(v), "raw round trip of %s", s)

		key, err := c.Encode(v)
		require.NoError(t, err)
		fromKey, err := c.DecodeKey(key)
		require.NoError(t, err, s)
		require.True(t, fromKey.Equal(v), "key round trip of %s", s)
	}
}

func TestExponentBoundary(t *testing.T) {
	c := Default()

	t.Run("largest exponent encodes", func(t *testing.T) {
		_, err := c.Encode(decimal.MustParse("9.99e4999998"))
		require.NoError(t, err)
	})

	t.Run("one past largest exponent", func(t *testing.T) {
		_, err := c.Encode(decimal.MustParse("1e4999999"))
		require.Error(t, err)
		assert.True(t, decimal.IsOutOfRange(err))
	})

	t.Run("smallest exponent encodes", func(t *testing.T) {
		_, err := c.Encode(decimal.MustParse("-1e-5000001"))
		require.NoError(t, err)
	})

	t.Run("one past smallest exponent", func(t *testing.T) {
		_, err := c.Encode(decimal.MustParse("1e-5000002"))
		require.Error(t, err)
		assert.True(t, decimal.IsOutOfRange(err))
	})

	t.Run("parse applies limit", func(t *testing.T) {
		_, err := c.Parse("1e4999999")
		assert.True(t, decimal.IsOutOfRange(err))
	})

	t.Run("decode applies limit", func(t *testing.T) {
		_, err := c.Decode("1e+4999999")
		assert.True(t, decimal.IsOutOfRange(err))
	})

	t.Run("narrow codec", func(t *testing.T) {
		narrow := MustNew(Config{ExponentDigits: 2, MaxDigits: 10})

		key, err := narrow.Encode(decimal.MustParse("1e48"))
		require.NoError(t, err)
		assert.Equal(t, OrderKey("2991."), key)

		_, err = narrow.Encode(decimal.MustParse("1e49"))
		assert.True(t, decimal.IsOutOfRange(err))

		_, err = narrow.Encode(decimal.MustParse("1e-52"))
		assert.True(t, decimal.IsOutOfRange(err))
	})
}

func TestMaxDigits(t *testing.T) {
	c := MustNew(Config{ExponentDigits: DefaultExponentDigits, MaxDigits: 5})

	_, err := c.Encode(decimal.MustParse("12345e10"))
	require.NoError(t, err)

	_, err = c.Encode(decimal.MustParse("123456"))
	require.Error(t, err)
	assert.True(t, decimal.IsMalformed(err))

	_, err = c.ParseLiteral("1.23456")
	assert.True(t, decimal.IsMalformed(err))

	// Trailing zeros are not significant.
	_, err = c.ParseLiteral("1.2345000000")
	assert.NoError(t, err)
}

func TestDecodeRejectsNonCanonical(t *testing.T) {
	c := Default()

	inputs := []RawText{
		"", "abc", "1.234", "1.2340e+0", "01.2e+0", "1.2e0", "1.2E+0",
		"1.2e+01", "0.5e+0", "1e-0", "1.e+0", "+1e+0", "-0e+0", "0e-0",
		"12e+0", "1.2e+", "1.2e+1x", " 1e+0",
	}

	for _, input := range inputs {
		t.Run(string(input), func(t *testing.T) {
			_, err := c.Decode(input)
			require.Error(t, err)
			assert.True(t, decimal.IsMalformed(err), "got %v", err)
		})
	}
}

func TestDecodeKeyRejectsInvalid(t *testing.T) {
	c := Default()

	inputs := []OrderKey{
		"", "0", "2", "3500000012.", "2500000012", "250000001a2.",
		"25000001120.", "25000001012~", "050000018.", "2500000.",
	}

	for _, input := range inputs {
		t.Run(string(input), func(t *testing.T) {
			_, err := c.DecodeKey(input)
			require.Error(t, err)
			assert.True(t, decimal.IsMalformed(err), "got %v", err)
		})
	}
}

func TestVerifyDetectsMismatch(t *testing.T) {
	c := Default()

	a, err := c.Store(decimal.MustParse("1.5"))
	require.NoError(t, err)
	b, err := c.Store(decimal.MustParse("2.5"))
	require.NoError(t, err)

	err = c.Verify(StoredField{Order: a.Order, Raw: b.Raw})
	require.Error(t, err)
	assert.True(t, decimal.IsMalformed(err))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"min width", Config{ExponentDigits: 2, MaxDigits: 1}, false},
		{"max width", Config{ExponentDigits: 18, MaxDigits: 1}, false},
		{"width too small", Config{ExponentDigits: 1, MaxDigits: 10}, true},
		{"width too large", Config{ExponentDigits: 19, MaxDigits: 10}, true},
		{"zero max digits", Config{ExponentDigits: 7, MaxDigits: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	lo, hi := DefaultConfig().ExponentRange()
	assert.Equal(t, int64(-5000000), lo)
	assert.Equal(t, int64(4999999), hi)
}

func TestCodecsCoexist(t *testing.T) {
	wide := Default()
	narrow := MustNew(Config{ExponentDigits: 3, MaxDigits: 8})
	v := decimal.MustParse("1.5")

	kw, err := wide.Encode(v)
	require.NoError(t, err)
	kn, err := narrow.Encode(v)
	require.NoError(t, err)

	assert.Equal(t, OrderKey("2500000115."), kw)
	assert.Equal(t, OrderKey("250115."), kn)
}

func TestConcurrentEncode(t *testing.T) {
	c := Default()
	v := decimal.MustParse("8888.7905")
	want, err := c.Encode(v)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				got, err := c.Encode(v)
				assert.NoError(t, err)
				assert.Equal(t, want, got)
			}
		}()
	}
	wg.Wait()
}
