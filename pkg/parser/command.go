package parser

import (
	"fmt"
	"regexp"
	"strings"

	"dex-seasonal/pkg/amount"
	dexerr "dex-seasonal/pkg/errors"
	"dex-seasonal/pkg/types"
)

var (
	// <amount> <token> to <token>; tokens may be symbols or raw addresses
	swapPattern = regexp.MustCompile(`(?i)^(\d+\.?\d*|\.\d+)\s+([A-Za-z0-9]+)\s+to\s+([A-Za-z0-9]+)$`)
	// <token> to <token>
	pairPattern = regexp.MustCompile(`(?i)^([A-Za-z0-9]+)\s+to\s+([A-Za-z0-9]+)$`)
)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 1 ETH to USDC"
//   - "1.5 SOL to USDC"
//   - "100 USDT to 0x6B175474E89094C44Da98b954EedeAC495271d0F"
func ParseSwapCommand(command string) (*types.SwapRequest, error) {
	command = trimVerb(command)

	matches := swapPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, dexerr.New(dexerr.CodeInvalidInput, "invalid swap command format. Expected: 'swap <amount> <token> to <token>' (e.g., 'swap 1 ETH to USDC')")
	}

	req := &types.SwapRequest{
		AmountIn: matches[1],
		TokenIn:  NormalizeTokenSymbol(matches[2]),
		TokenOut: NormalizeTokenSymbol(matches[3]),
	}
	if err := ValidateSwapRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}

// ParsePair parses "<token> to <token>" as used by the quote watcher
func ParsePair(command string) (tokenIn, tokenOut string, err error) {
	command = trimVerb(command)
	matches := pairPattern.FindStringSubmatch(command)
	if matches == nil {
		return "", "", dexerr.New(dexerr.CodeInvalidInput, "invalid pair format. Expected: '<token> to <token>' (e.g., 'SOL to USDC')")
	}
	tokenIn, tokenOut = NormalizeTokenSymbol(matches[1]), NormalizeTokenSymbol(matches[2])
	if tokenIn == tokenOut {
		return "", "", dexerr.New(dexerr.CodeInvalidInput, "source and destination tokens must differ")
	}
	return tokenIn, tokenOut, nil
}

// ValidateSwapRequest validates that a swap request has all required fields
func ValidateSwapRequest(req *types.SwapRequest) error {
	if req.AmountIn == "" {
		return dexerr.New(dexerr.CodeInvalidInput, "amount is required")
	}
	if _, err := amount.Parse(req.AmountIn); err != nil {
		return err
	}
	if req.TokenIn == "" {
		return dexerr.New(dexerr.CodeInvalidInput, "source token is required")
	}
	if req.TokenOut == "" {
		return dexerr.New(dexerr.CodeInvalidInput, "destination token is required")
	}
	if req.TokenIn == req.TokenOut {
		return dexerr.New(dexerr.CodeInvalidInput, "source and destination tokens must differ")
	}
	return nil
}

// NormalizeTokenSymbol normalizes token symbols to standard format. Raw
// addresses keep their case since Solana mints are case-sensitive.
func NormalizeTokenSymbol(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	if isAddressLike(symbol) {
		return symbol
	}
	symbol = strings.ToUpper(symbol)

	// Handle common aliases
	aliases := map[string]string{
		"WSOL":  "SOL",
		"ETHER": "ETH",
	}

	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}

	return symbol
}

func isAddressLike(s string) bool {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return len(s) == 42
	}
	return len(s) >= 32
}

func trimVerb(command string) string {
	command = strings.Join(strings.Fields(command), " ")
	if len(command) > 5 && strings.EqualFold(command[:5], "swap ") {
		command = command[5:]
	}
	if len(command) > 6 && strings.EqualFold(command[:6], "quote ") {
		command = command[6:]
	}
	return command
}

// FormatPair renders a pair for display, shortening raw addresses
func FormatPair(tokenIn, tokenOut string) string {
	return fmt.Sprintf("%s → %s", short(tokenIn), short(tokenOut))
}

func short(s string) string {
	if !isAddressLike(s) {
		return s
	}
	return s[:6] + "..." + s[len(s)-4:]
}
