package amount

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dexerr "dex-seasonal/pkg/errors"
)

func TestToBaseUnits(t *testing.T) {
	cases := []struct {
		in       string
		decimals int32
		want     string
	}{
		{"1", 18, "1000000000000000000"},
		{"1.5", 6, "1500000"},
		{"0.0000001", 6, "0"},
		{"1.23456789", 6, "1234567"},
		{"42", 0, "42"},
		{" 2.5 ", 9, "2500000000"},
	}
	for _, tc := range cases {
		got, err := ToBaseUnits(tc.in, tc.decimals)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got.String(), tc.in)
	}
}

func TestToBaseUnitsRejectsBadInput(t *testing.T) {
	for _, in := range []string{"", "abc", "-1"} {
		_, err := ToBaseUnits(in, 18)
		require.Error(t, err, in)
		assert.True(t, dexerr.Is(err, dexerr.CodeInvalidInput), in)
	}
}

func TestRoundTripWithinOneUnit(t *testing.T) {
	inputs := []string{"0", "1", "0.5", "3.14159265358979", "1000000.000001", "0.123456789012345678901", "99.99"}
	for _, decimals := range []int32{0, 6, 9, 18} {
		unit := decimal.New(1, -decimals)
		for _, in := range inputs {
			base, err := ToBaseUnits(in, decimals)
			require.NoError(t, err)
			back := decimal.RequireFromString(FromBaseUnits(base, decimals))
			orig := decimal.RequireFromString(in)

			assert.True(t, back.LessThanOrEqual(orig), "%s@%d: %s > %s", in, decimals, back, orig)
			assert.True(t, orig.Sub(back).LessThan(unit), "%s@%d drifted by %s", in, decimals, orig.Sub(back))
		}
	}
}

func TestFromBaseUnits(t *testing.T) {
	assert.Equal(t, "1.5", FromBaseUnits(big.NewInt(1500000), 6))
	assert.Equal(t, "0", FromBaseUnits(nil, 6))
	assert.Equal(t, "0.000000001", FromBaseUnits(big.NewInt(1), 9))

	s, err := FromBaseUnitString("2500000000", 9)
	require.NoError(t, err)
	assert.Equal(t, "2.5", s)

	_, err = FromBaseUnitString("2.5", 9)
	assert.Error(t, err)
}

func TestMinimumReceived(t *testing.T) {
	got, err := MinimumReceived("100", 0.5)
	require.NoError(t, err)
	assert.Equal(t, "99.5", got)

	got, err = MinimumReceived("2000", 1)
	require.NoError(t, err)
	assert.Equal(t, "1980", got)

	_, err = MinimumReceived("100", 120)
	assert.True(t, dexerr.Is(err, dexerr.CodeInvalidInput))
}

func TestMinimumUnitsFloors(t *testing.T) {
	got, err := MinimumUnits(big.NewInt(1001), 0.5)
	require.NoError(t, err)
	// 1001 * 0.995 = 995.995
	assert.Equal(t, "995", got.String())
}

func TestSlippageBpsAndZero(t *testing.T) {
	assert.Equal(t, 50, SlippageBps(0.5))
	assert.Equal(t, 100, SlippageBps(1))
	assert.Equal(t, 5, SlippageBps(0.05))

	assert.True(t, IsZero(""))
	assert.True(t, IsZero("0.000"))
	assert.False(t, IsZero("0.1"))
	assert.False(t, IsZero("nope"))
}
