// Package chain holds the two chain services behind the DEX facade: a
// Uniswap V2 router client for EVM chains and a Jupiter client for Solana.
// Each service is bound to one approved wallet account.
package chain

import (
	"time"

	dexerr "dex-seasonal/pkg/errors"
)

// SwapDeadline is how long a submitted router call stays valid.
const SwapDeadline = 20 * time.Minute

// LiquidityUnsupportedMessage is returned for liquidity operations on Solana.
const LiquidityUnsupportedMessage = "Solana liquidity operations require direct integration with Raydium or Orca. Please use their official interfaces."

// Quote is a chain service's view of a swap before slippage is applied.
type Quote struct {
	// OutputAmount is the expected output as a decimal string.
	OutputAmount string
	// PriceImpact is a percentage as a decimal string.
	PriceImpact string
}

// classify keeps an already classified error and wraps anything else with code.
func classify(code dexerr.Code, msg string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := dexerr.As(err); ok {
		return err
	}
	return dexerr.Wrap(code, msg, err)
}

// quoteStepFailed reports a failed quote inside a swap as a failed swap.
func quoteStepFailed(err error) error {
	if dexerr.CodeOf(err) == dexerr.CodeQuoteFailed {
		return dexerr.Wrap(dexerr.CodeSwapFailed, "swap failed", err)
	}
	return err
}
