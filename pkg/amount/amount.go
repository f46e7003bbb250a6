// Package amount converts between human-readable decimal strings and integer
// base units, and applies slippage floors.
package amount

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	dexerr "dex-seasonal/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Parse reads a non-negative decimal amount.
func Parse(amount string) (decimal.Decimal, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return decimal.Zero, dexerr.New(dexerr.CodeInvalidInput, "amount is required")
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, dexerr.Wrap(dexerr.CodeInvalidInput, "invalid amount "+amount, err)
	}
	if d.IsNegative() {
		return decimal.Zero, dexerr.New(dexerr.CodeInvalidInput, "amount must not be negative")
	}
	return d, nil
}

// IsZero reports whether amount is empty or parses to zero. Unparseable input
// is not zero.
func IsZero(amount string) bool {
	if strings.TrimSpace(amount) == "" {
		return true
	}
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	return err == nil && d.IsZero()
}

// ToBaseUnits scales amount by 10^decimals, flooring toward zero.
func ToBaseUnits(amount string, decimals int32) (*big.Int, error) {
	d, err := Parse(amount)
	if err != nil {
		return nil, err
	}
	return d.Shift(decimals).Truncate(0).BigInt(), nil
}

// FromBaseUnits formats base units as a decimal string without trailing zeros.
func FromBaseUnits(units *big.Int, decimals int32) string {
	if units == nil {
		return "0"
	}
	return decimal.NewFromBigInt(units, -decimals).String()
}

// FromBaseUnitString is FromBaseUnits for integer strings returned by HTTP APIs.
func FromBaseUnitString(units string, decimals int32) (string, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(units), 10)
	if !ok {
		return "", dexerr.New(dexerr.CodeInvalidInput, "invalid base unit amount "+units)
	}
	return FromBaseUnits(n, decimals), nil
}

func slippageFactor(slippagePct float64) decimal.Decimal {
	return decimal.NewFromInt(1).Sub(decimal.NewFromFloat(slippagePct).Div(hundred))
}

// MinimumReceived returns quoted * (1 - slippagePct/100) as a decimal string.
func MinimumReceived(quoted string, slippagePct float64) (string, error) {
	d, err := Parse(quoted)
	if err != nil {
		return "", err
	}
	if err := ValidateSlippage(slippagePct); err != nil {
		return "", err
	}
	return d.Mul(slippageFactor(slippagePct)).String(), nil
}

// MinimumUnits applies the slippage floor to a base-unit amount, flooring toward zero.
func MinimumUnits(quoted *big.Int, slippagePct float64) (*big.Int, error) {
	if err := ValidateSlippage(slippagePct); err != nil {
		return nil, err
	}
	d := decimal.NewFromBigInt(quoted, 0).Mul(slippageFactor(slippagePct))
	return d.Truncate(0).BigInt(), nil
}

// SlippageBps converts a percentage to basis points, flooring.
func SlippageBps(slippagePct float64) int {
	return int(decimal.NewFromFloat(slippagePct).Mul(hundred).IntPart())
}

func ValidateSlippage(slippagePct float64) error {
	if slippagePct < 0 || slippagePct >= 100 {
		return dexerr.Newf(dexerr.CodeInvalidInput, "slippage must be in [0, 100), got %v", slippagePct)
	}
	return nil
}
