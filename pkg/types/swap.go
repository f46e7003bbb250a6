package types

import dexerr "dex-seasonal/pkg/errors"

// SwapRequest represents a user's quote or swap command
type SwapRequest struct {
	TokenIn  string  `json:"token_in"`  // Symbol or address of the token sold
	TokenOut string  `json:"token_out"` // Symbol or address of the token bought
	AmountIn string  `json:"amount_in"` // Human-readable decimal amount
	Slippage float64 `json:"slippage"`  // Percent, 0.5 means 0.5%
	// Recipient receives the output; empty means the connected account.
	Recipient string `json:"recipient,omitempty"`
}

// AddLiquidityRequest pairs a token with the chain's native asset
type AddLiquidityRequest struct {
	Token        string  `json:"token"`
	AmountToken  string  `json:"amount_token"`
	AmountNative string  `json:"amount_native"`
	Slippage     float64 `json:"slippage"`
}

// RemoveLiquidityRequest burns LP tokens of a token/native pair
type RemoveLiquidityRequest struct {
	Token     string `json:"token"`
	Liquidity string `json:"liquidity"` // LP token amount, human-readable
}

// QuoteResult holds an indicative swap outcome. All fields are decimal strings.
type QuoteResult struct {
	OutputAmount    string `json:"output_amount"`
	MinimumReceived string `json:"minimum_received"`
	PriceImpact     string `json:"price_impact"` // Percent
}

// ZeroQuote is the quote returned when no quote could be produced
func ZeroQuote() QuoteResult {
	return QuoteResult{OutputAmount: "0", MinimumReceived: "0", PriceImpact: "0"}
}

// IsZero reports whether the quote carries no output
func (q QuoteResult) IsZero() bool {
	return q == ZeroQuote() || q == QuoteResult{}
}

// SwapResult is the normalized outcome of any state-changing operation
type SwapResult struct {
	Success   bool   `json:"success"`
	TxHash    string `json:"tx_hash,omitempty"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	// Code classifies a failure; it is zero on success.
	Code dexerr.Code `json:"code,omitempty"`
}

// Err returns the failure as a classified error, or nil on success.
func (r SwapResult) Err() error {
	if r.Success {
		return nil
	}
	code := r.Code
	if code == dexerr.CodeSuccess {
		code = dexerr.CodeSwapFailed
	}
	return dexerr.New(code, r.Error)
}

// TxState is the confirmation state of a submitted transaction
type TxState string

const (
	TxPending   TxState = "pending"   // Submitted, not yet included
	TxConfirmed TxState = "confirmed" // Included and successful
	TxFinalized TxState = "finalized" // Rooted (Solana only)
	TxFailed    TxState = "failed"    // Included and reverted
	TxUnknown   TxState = "unknown"   // Not found
)

// TxStatus describes a transaction looked up by hash or signature
type TxStatus struct {
	ID    string  `json:"id"`
	State TxState `json:"state"`
	Block uint64  `json:"block,omitempty"` // Block number or slot
	Error string  `json:"error,omitempty"`
}

// Done reports whether the state will not change anymore
func (s TxStatus) Done() bool {
	return s.State == TxConfirmed || s.State == TxFinalized || s.State == TxFailed
}

// SignatureInfo is one entry of an account's recent transaction history
type SignatureInfo struct {
	Signature string `json:"signature"`
	Slot      uint64 `json:"slot"`
	BlockTime int64  `json:"block_time,omitempty"` // Unix seconds
	Failed    bool   `json:"failed"`
	Memo      string `json:"memo,omitempty"`
}
