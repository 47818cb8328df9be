package tokens

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFixed(t *testing.T) {
	v, err := ParseFixed("1.5", 18)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", v.String())

	v, err = ParseFixed("100", 6)
	require.NoError(t, err)
	assert.Equal(t, "100000000", v.String())

	// Excess fractional digits are truncated, not rounded.
	v, err = ParseFixed("1.9999999", 6)
	require.NoError(t, err)
	assert.Equal(t, "1999999", v.String())

	v, err = ParseFixed("0", 18)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v.Int64())
}

func TestParseFixed_Invalid(t *testing.T) {
	_, err := ParseFixed("not-a-number", 18)
	assert.Error(t, err)

	_, err = ParseFixed("-1", 18)
	assert.Error(t, err)

	_, err = ParseFixed("", 18)
	assert.Error(t, err)
}

func TestFormatFixed_RoundTrip(t *testing.T) {
	cases := []struct {
		amount   string
		decimals uint8
	}{
		{"1.5", 18},
		{"0.000001", 6},
		{"123456.789", 8},
		{"1", 0},
	}

	for _, tc := range cases {
		scaled, err := ParseFixed(tc.amount, tc.decimals)
		require.NoError(t, err)

		back, err := ParseFixed(FormatFixed(scaled, tc.decimals), tc.decimals)
		require.NoError(t, err)
		assert.Equal(t, scaled.String(), back.String(), "round trip for %s at %d decimals", tc.amount, tc.decimals)
	}

	assert.Equal(t, "0", FormatFixed(nil, 18))
}

func TestNormalize(t *testing.T) {
	v := Normalize(big.NewInt(98500000), 6)
	assert.True(t, v.Equal(decimal.RequireFromString("98.5")))

	assert.True(t, Normalize(nil, 18).IsZero())
}

func TestFormatDisplay_RoundDown(t *testing.T) {
	v := decimal.RequireFromString("1.23456789")
	assert.Equal(t, "1.234567", FormatDisplay(v, RoundDown))

	// Exact values are padded to six digits.
	assert.Equal(t, "100.000000", FormatDisplay(decimal.RequireFromString("100"), RoundDown))
}

func TestFormatDisplay_RoundUp(t *testing.T) {
	v := decimal.RequireFromString("1.23456789")
	assert.Equal(t, "1.234568", FormatDisplay(v, RoundUp))

	// Values that are already exact do not move.
	assert.Equal(t, "1.234500", FormatDisplay(decimal.RequireFromString("1.2345"), RoundUp))

	// Dust below display precision still rounds up to the smallest shown unit.
	assert.Equal(t, "0.000001", FormatDisplay(decimal.RequireFromString("0.0000000001"), RoundUp))
}

func TestFormatDisplay_NonPositive(t *testing.T) {
	assert.Equal(t, "", FormatDisplay(decimal.Zero, RoundDown))
	assert.Equal(t, "", FormatDisplay(decimal.RequireFromString("-1"), RoundDown))

	// Truncation collapsing to zero produces the empty field, not "0.000000".
	assert.Equal(t, "", FormatDisplay(decimal.RequireFromString("0.0000000001"), RoundDown))
}
