package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dexerr "dex-seasonal/pkg/errors"
	"dex-seasonal/pkg/wallet"
)

func TestResolveSymbols(t *testing.T) {
	eth, err := Resolve(wallet.KindEVM, "eth")
	require.NoError(t, err)
	assert.True(t, eth.Native)
	assert.Equal(t, WETHAddress, eth.Address)

	usdc, err := Resolve(wallet.KindSolana, "USDC")
	require.NoError(t, err)
	assert.Equal(t, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", usdc.Address)
	assert.EqualValues(t, 6, usdc.Decimals)
}

func TestResolveAddressPrefersWrappedEntry(t *testing.T) {
	tok, err := Resolve(wallet.KindEVM, "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")
	require.NoError(t, err)
	assert.Equal(t, "WETH", tok.Symbol)
	assert.False(t, tok.Native)
}

func TestResolveUnknownAddress(t *testing.T) {
	addr := "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984"
	tok, err := Resolve(wallet.KindEVM, addr)
	require.NoError(t, err)
	assert.Equal(t, addr, tok.Address)
	assert.Zero(t, tok.Decimals)
	assert.Equal(t, "0x1f98...F984", tok.Symbol)

	mint := "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	tok, err = Resolve(wallet.KindSolana, mint)
	require.NoError(t, err)
	assert.Equal(t, mint, tok.Address)
}

func TestResolveRejectsGarbage(t *testing.T) {
	_, err := Resolve(wallet.KindEVM, "PEPE")
	assert.True(t, dexerr.Is(err, dexerr.CodeInvalidInput))

	_, err = Resolve(wallet.KindSolana, "")
	assert.True(t, dexerr.Is(err, dexerr.CodeInvalidInput))

	// an EVM address is not a Solana mint
	_, err = Resolve(wallet.KindSolana, WETHAddress)
	assert.Error(t, err)
}

func TestWrappedAndDefaults(t *testing.T) {
	assert.Equal(t, "WETH", Wrapped(wallet.KindEVM).Symbol)
	assert.Equal(t, WSOLMint, Wrapped(wallet.KindSolana).Address)
	assert.EqualValues(t, 18, DefaultDecimals(wallet.KindEVM))
	assert.EqualValues(t, 9, DefaultDecimals(wallet.KindSolana))
}

func TestTokensSorted(t *testing.T) {
	tokens := Tokens(wallet.KindEVM)
	require.Len(t, tokens, 5)
	assert.Equal(t, "DAI", tokens[0].Symbol)
	assert.Equal(t, "WETH", tokens[len(tokens)-1].Symbol)
}
