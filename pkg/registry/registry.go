// Package registry maps token symbols to chain-specific addresses for each
// supported chain family.
package registry

import (
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"

	dexerr "dex-seasonal/pkg/errors"
	"dex-seasonal/pkg/wallet"
)

const (
	// DefaultEVMDecimals is used for EVM tokens whose precision is not known.
	DefaultEVMDecimals int32 = 18
	// DefaultSolanaDecimals is used for SPL mints whose precision is not known.
	DefaultSolanaDecimals int32 = 9
)

// Token describes one asset on one chain family.
type Token struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Decimals int32  `json:"decimals"`
	// Native marks the chain's gas asset. Its Address is the wrapped asset.
	Native bool `json:"native,omitempty"`
}

const (
	WETHAddress = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	WSOLMint    = "So11111111111111111111111111111111111111112"
)

var evmTokens = []Token{
	{Symbol: "ETH", Name: "Ether", Address: WETHAddress, Decimals: 18, Native: true},
	{Symbol: "WETH", Name: "Wrapped Ether", Address: WETHAddress, Decimals: 18},
	{Symbol: "USDC", Name: "USD Coin", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6},
	{Symbol: "USDT", Name: "Tether USD", Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6},
	{Symbol: "DAI", Name: "Dai Stablecoin", Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Decimals: 18},
}

var solanaTokens = []Token{
	{Symbol: "SOL", Name: "Solana", Address: WSOLMint, Decimals: 9, Native: true},
	{Symbol: "USDC", Name: "USD Coin", Address: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Decimals: 6},
	{Symbol: "USDT", Name: "Tether USD", Address: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", Decimals: 6},
	{Symbol: "RAY", Name: "Raydium", Address: "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R", Decimals: 6},
	{Symbol: "ORCA", Name: "Orca", Address: "orcaEKTdK7LKz57vaAYr9QeNsVEPfiu6QeMU1kektZE", Decimals: 6},
}

var (
	bySymbol  = map[wallet.Kind]map[string]Token{}
	byAddress = map[wallet.Kind]map[string]Token{}
)

func init() {
	register(wallet.KindEVM, evmTokens)
	register(wallet.KindSolana, solanaTokens)
}

func register(kind wallet.Kind, tokens []Token) {
	bySymbol[kind] = make(map[string]Token, len(tokens))
	byAddress[kind] = make(map[string]Token, len(tokens))
	for _, t := range tokens {
		bySymbol[kind][t.Symbol] = t
		key := addressKey(kind, t.Address)
		// the wrapped entry wins the address lookup over the native alias
		if existing, ok := byAddress[kind][key]; !ok || existing.Native {
			byAddress[kind][key] = t
		}
	}
}

func addressKey(kind wallet.Kind, address string) string {
	if kind == wallet.KindEVM {
		return strings.ToLower(address)
	}
	return address
}

// Lookup finds a token by symbol (case-insensitive).
func Lookup(kind wallet.Kind, symbol string) (Token, bool) {
	t, ok := bySymbol[kind][strings.ToUpper(strings.TrimSpace(symbol))]
	return t, ok
}

// Resolve accepts either a registered symbol or a raw address. Unknown
// addresses resolve with Decimals set to zero so callers can look the
// precision up on chain or fall back to the family default.
func Resolve(kind wallet.Kind, symbolOrAddress string) (Token, error) {
	in := strings.TrimSpace(symbolOrAddress)
	if in == "" {
		return Token{}, dexerr.New(dexerr.CodeInvalidInput, "token is required")
	}
	if t, ok := Lookup(kind, in); ok {
		return t, nil
	}
	if t, ok := byAddress[kind][addressKey(kind, in)]; ok {
		return t, nil
	}
	if !looksLikeAddress(kind, in) {
		return Token{}, dexerr.Newf(dexerr.CodeInvalidInput, "unknown %s token %q", kind, in)
	}
	return Token{Symbol: shortAddress(in), Address: in}, nil
}

// Wrapped returns the wrapped native asset for the chain family.
func Wrapped(kind wallet.Kind) Token {
	switch kind {
	case wallet.KindSolana:
		t, _ := Lookup(kind, "SOL")
		return t
	default:
		t, _ := Lookup(kind, "WETH")
		return t
	}
}

// DefaultDecimals returns the fallback precision for the chain family.
func DefaultDecimals(kind wallet.Kind) int32 {
	if kind == wallet.KindSolana {
		return DefaultSolanaDecimals
	}
	return DefaultEVMDecimals
}

// Tokens lists the registered tokens of a chain family sorted by symbol.
func Tokens(kind wallet.Kind) []Token {
	out := make([]Token, 0, len(bySymbol[kind]))
	for _, t := range bySymbol[kind] {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func looksLikeAddress(kind wallet.Kind, s string) bool {
	switch kind {
	case wallet.KindEVM:
		return common.IsHexAddress(s)
	case wallet.KindSolana:
		_, err := solana.PublicKeyFromBase58(s)
		return err == nil
	}
	return false
}

func shortAddress(s string) string {
	if len(s) <= 10 {
		return s
	}
	return s[:6] + "..." + s[len(s)-4:]
}
