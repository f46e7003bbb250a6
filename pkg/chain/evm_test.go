package chain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-seasonal/pkg/amount"
	dexerr "dex-seasonal/pkg/errors"
	"dex-seasonal/pkg/registry"
	dextypes "dex-seasonal/pkg/types"
	"dex-seasonal/pkg/wallet"
)

const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	weth    = common.HexToAddress(registry.WETHAddress)
	usdc    = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	usdt    = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	dai     = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	uni     = common.HexToAddress("0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984")
	router  = common.HexToAddress(DefaultRouter)
	factory = common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
	pair    = common.HexToAddress("0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc")
)

func units(n int64, decimals int) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
}

func assertBig(t *testing.T, want *big.Int, got interface{}) {
	t.Helper()
	g, ok := got.(*big.Int)
	require.True(t, ok, "not a *big.Int: %T", got)
	assert.Equal(t, want.String(), g.String())
}

type sentTx struct {
	to     common.Address
	method string
	args   []interface{}
	value  *big.Int
}

// fakeEVM prices every hop as in*R[b]/(R[a]+in) over a per-token reserve.
type fakeEVM struct {
	mu sync.Mutex

	rABI, eABI, fABI abi.ABI

	reserves      map[common.Address]*big.Int
	onchainDec    map[common.Address]uint8
	decimalsCalls int
	allowances    map[common.Address]*big.Int
	balances      map[common.Address]*big.Int
	native        *big.Int
	revertSwaps   bool
	noRoute       bool

	sent     []sentTx
	receipts map[common.Hash]*types.Receipt
}

func newFakeEVM(t *testing.T) *fakeEVM {
	t.Helper()
	parse := func(s string) abi.ABI {
		a, err := abi.JSON(strings.NewReader(s))
		require.NoError(t, err)
		return a
	}
	return &fakeEVM{
		rABI: parse(routerABI),
		eABI: parse(erc20ABI),
		fABI: parse(factoryABI),
		reserves: map[common.Address]*big.Int{
			weth: units(1000, 18),
			usdc: units(3_000_000, 6),
			usdt: units(3_000_000, 6),
			dai:  units(3_000_000, 18),
			uni:  units(500_000, 8),
		},
		onchainDec: map[common.Address]uint8{uni: 8},
		allowances: map[common.Address]*big.Int{},
		balances:   map[common.Address]*big.Int{usdc: units(250, 6)},
		native:     units(2, 18),
		receipts:   map[common.Hash]*types.Receipt{},
	}
}

func (f *fakeEVM) amountsOut(in *big.Int, path []common.Address) []*big.Int {
	amounts := []*big.Int{in}
	cur := in
	for i := 0; i+1 < len(path); i++ {
		ra, rb := f.reserves[path[i]], f.reserves[path[i+1]]
		num := new(big.Int).Mul(cur, rb)
		cur = num.Quo(num, new(big.Int).Add(ra, cur))
		amounts = append(amounts, cur)
	}
	return amounts
}

func (f *fakeEVM) contractABI(to common.Address) abi.ABI {
	switch to {
	case router:
		return f.rABI
	case factory:
		return f.fABI
	default:
		return f.eABI
	}
}

func (f *fakeEVM) decode(to common.Address, data []byte) (*abi.Method, []interface{}, error) {
	contract := f.contractABI(to)
	m, err := contract.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := m.Inputs.Unpack(data[4:])
	return m, args, err
}

func (f *fakeEVM) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, args, err := f.decode(*msg.To, msg.Data)
	if err != nil {
		return nil, err
	}
	switch m.Name {
	case "getAmountsOut":
		if f.noRoute {
			return nil, errors.New("execution reverted: INSUFFICIENT_LIQUIDITY")
		}
		return m.Outputs.Pack(f.amountsOut(args[0].(*big.Int), args[1].([]common.Address)))
	case "factory":
		return m.Outputs.Pack(factory)
	case "getPair":
		return m.Outputs.Pack(pair)
	case "decimals":
		f.decimalsCalls++
		d, ok := f.onchainDec[*msg.To]
		if !ok {
			return nil, errors.New("execution reverted")
		}
		return m.Outputs.Pack(d)
	case "allowance":
		a := f.allowances[*msg.To]
		if a == nil {
			a = big.NewInt(0)
		}
		return m.Outputs.Pack(a)
	case "balanceOf":
		b := f.balances[*msg.To]
		if b == nil {
			b = big.NewInt(0)
		}
		return m.Outputs.Pack(b)
	}
	return nil, errors.New("unexpected call " + m.Name)
}

func (f *fakeEVM) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, args, err := f.decode(*tx.To(), tx.Data())
	if err != nil {
		return err
	}
	f.sent = append(f.sent, sentTx{to: *tx.To(), method: m.Name, args: args, value: tx.Value()})

	status := types.ReceiptStatusSuccessful
	if m.Name == "approve" {
		f.allowances[*tx.To()] = args[1].(*big.Int)
	}
	if f.revertSwaps && strings.HasPrefix(m.Name, "swap") {
		status = types.ReceiptStatusFailed
	}
	f.receipts[tx.Hash()] = &types.Receipt{Status: status, TxHash: tx.Hash(), BlockNumber: big.NewInt(100)}
	return nil
}

func (f *fakeEVM) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.receipts[hash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

func (f *fakeEVM) TransactionByHash(context.Context, common.Hash) (*types.Transaction, bool, error) {
	return nil, false, ethereum.NotFound
}

func (f *fakeEVM) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{1}, nil
}

func (f *fakeEVM) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.sent)), nil
}

func (f *fakeEVM) SuggestGasPrice(context.Context) (*big.Int, error) { return big.NewInt(1e9), nil }

func (f *fakeEVM) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) { return 100_000, nil }

func (f *fakeEVM) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return f.native, nil
}

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestEVM(t *testing.T) (*EVMService, *fakeEVM) {
	t.Helper()
	key, err := crypto.HexToECDSA(testKey)
	require.NoError(t, err)
	fake := newFakeEVM(t)
	svc, err := NewEVMService(fake, wallet.NewEVMAccount(key, 1), EVMConfig{}, zerolog.Nop())
	require.NoError(t, err)
	svc.now = func() time.Time { return fixedNow }
	return svc, fake
}

func TestPath(t *testing.T) {
	svc, _ := newTestEVM(t)

	eth, err := svc.resolve("ETH")
	require.NoError(t, err)
	assert.Equal(t, []common.Address{weth, usdc}, svc.Path(eth.addr, usdc))
	assert.Equal(t, []common.Address{usdc, weth}, svc.Path(usdc, weth))
	assert.Equal(t, []common.Address{usdt, weth, dai}, svc.Path(usdt, dai))
}

func TestEVMQuote(t *testing.T) {
	svc, fake := newTestEVM(t)

	q, err := svc.Quote(context.Background(), dextypes.SwapRequest{TokenIn: "ETH", TokenOut: "USDC", AmountIn: "1"})
	require.NoError(t, err)

	want := fake.amountsOut(units(1, 18), []common.Address{weth, usdc})[1]
	assert.Equal(t, amount.FromBaseUnits(want, 6), q.OutputAmount)

	impact := decimal.RequireFromString(q.PriceImpact)
	assert.True(t, impact.IsPositive(), "impact %s", q.PriceImpact)
	assert.True(t, impact.LessThan(decimal.NewFromInt(1)), "impact %s", q.PriceImpact)
}

func TestEVMQuoteRejectsSamePairAndDust(t *testing.T) {
	svc, _ := newTestEVM(t)

	_, err := svc.Quote(context.Background(), dextypes.SwapRequest{TokenIn: "ETH", TokenOut: "WETH", AmountIn: "1"})
	assert.True(t, dexerr.Is(err, dexerr.CodeInvalidInput))

	_, err = svc.Quote(context.Background(), dextypes.SwapRequest{TokenIn: "USDC", TokenOut: "DAI", AmountIn: "0.0000001"})
	assert.True(t, dexerr.Is(err, dexerr.CodeInvalidInput))
}

func TestEVMDecimalsReadOnChainOnce(t *testing.T) {
	svc, fake := newTestEVM(t)
	req := dextypes.SwapRequest{TokenIn: uni.Hex(), TokenOut: "DAI", AmountIn: "1"}

	for i := 0; i < 3; i++ {
		_, err := svc.Quote(context.Background(), req)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, fake.decimalsCalls)

	want := fake.amountsOut(units(1, 8), []common.Address{uni, weth, dai})[2]
	q, err := svc.Quote(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, amount.FromBaseUnits(want, 18), q.OutputAmount)
}

func TestEVMSwapNativeIn(t *testing.T) {
	svc, fake := newTestEVM(t)

	hash, err := svc.Swap(context.Background(), dextypes.SwapRequest{TokenIn: "ETH", TokenOut: "USDC", AmountIn: "0.5", Slippage: 0.5})
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	require.Len(t, fake.sent, 1, "native input needs no approval")
	tx := fake.sent[0]
	assert.Equal(t, "swapExactETHForTokens", tx.method)
	assertBig(t, units(5, 17), tx.value)

	out := fake.amountsOut(units(5, 17), []common.Address{weth, usdc})[1]
	minOut, _ := amount.MinimumUnits(out, 0.5)
	assertBig(t, minOut, tx.args[0])
	assert.Equal(t, []common.Address{weth, usdc}, tx.args[1])
	assertBig(t, big.NewInt(fixedNow.Add(20*time.Minute).Unix()), tx.args[3])
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), tx.args[2])
}

func TestEVMSwapRecipient(t *testing.T) {
	svc, fake := newTestEVM(t)
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	_, err := svc.Swap(context.Background(), dextypes.SwapRequest{TokenIn: "ETH", TokenOut: "USDC", AmountIn: "0.1", Slippage: 0.5, Recipient: to.Hex()})
	require.NoError(t, err)
	require.Len(t, fake.sent, 1)
	assert.Equal(t, to, fake.sent[0].args[2])

	_, err = svc.Swap(context.Background(), dextypes.SwapRequest{TokenIn: "ETH", TokenOut: "USDC", AmountIn: "0.1", Slippage: 0.5, Recipient: "bob"})
	assert.True(t, dexerr.Is(err, dexerr.CodeInvalidInput))
	assert.Len(t, fake.sent, 1)
}

func TestEVMSwapTokenToTokenApprovesFirst(t *testing.T) {
	svc, fake := newTestEVM(t)

	_, err := svc.Swap(context.Background(), dextypes.SwapRequest{TokenIn: "USDC", TokenOut: "DAI", AmountIn: "100", Slippage: 1})
	require.NoError(t, err)

	require.Len(t, fake.sent, 2)
	assert.Equal(t, "approve", fake.sent[0].method)
	assert.Equal(t, usdc, fake.sent[0].to)
	assert.Equal(t, router, fake.sent[0].args[0])
	assertBig(t, math.MaxBig256, fake.sent[0].args[1])

	swap := fake.sent[1]
	assert.Equal(t, "swapExactTokensForTokens", swap.method)
	assertBig(t, units(100, 6), swap.args[0])
	assert.Equal(t, []common.Address{usdc, weth, dai}, swap.args[2])

	// allowance now covers the next swap
	_, err = svc.Swap(context.Background(), dextypes.SwapRequest{TokenIn: "USDC", TokenOut: "ETH", AmountIn: "1", Slippage: 1})
	require.NoError(t, err)
	require.Len(t, fake.sent, 3)
	assert.Equal(t, "swapExactTokensForETH", fake.sent[2].method)
}

func TestEVMSwapReverted(t *testing.T) {
	svc, fake := newTestEVM(t)
	fake.revertSwaps = true

	hash, err := svc.Swap(context.Background(), dextypes.SwapRequest{TokenIn: "ETH", TokenOut: "DAI", AmountIn: "1", Slippage: 0.5})
	require.Error(t, err)
	assert.True(t, dexerr.Is(err, dexerr.CodeSwapFailed))
	assert.NotEmpty(t, hash)
}

func TestEVMSwapQuoteFailure(t *testing.T) {
	svc, fake := newTestEVM(t)
	fake.noRoute = true

	_, err := svc.Quote(context.Background(), dextypes.SwapRequest{TokenIn: "ETH", TokenOut: "DAI", AmountIn: "1"})
	assert.Equal(t, dexerr.CodeQuoteFailed, dexerr.CodeOf(err))

	hash, err := svc.Swap(context.Background(), dextypes.SwapRequest{TokenIn: "ETH", TokenOut: "DAI", AmountIn: "1", Slippage: 0.5})
	require.Error(t, err)
	assert.Equal(t, dexerr.CodeSwapFailed, dexerr.CodeOf(err))
	assert.True(t, dexerr.Is(err, dexerr.CodeQuoteFailed))
	assert.Empty(t, hash)
	assert.Empty(t, fake.sent)

	_, err = svc.Swap(context.Background(), dextypes.SwapRequest{TokenIn: "ETH", TokenOut: "NOPE", AmountIn: "1", Slippage: 0.5})
	assert.Equal(t, dexerr.CodeInvalidInput, dexerr.CodeOf(err))
}

func TestEVMLiquidity(t *testing.T) {
	svc, fake := newTestEVM(t)

	_, err := svc.AddLiquidity(context.Background(), dextypes.AddLiquidityRequest{Token: "USDC", AmountToken: "300", AmountNative: "0.1", Slippage: 0.5})
	require.NoError(t, err)
	require.Len(t, fake.sent, 2)
	add := fake.sent[1]
	assert.Equal(t, "addLiquidityETH", add.method)
	assert.Equal(t, usdc, add.args[0])
	assertBig(t, units(300, 6), add.args[1])
	assertBig(t, big.NewInt(298_500_000), add.args[2])
	assertBig(t, units(1, 17), add.value)

	_, err = svc.RemoveLiquidity(context.Background(), dextypes.RemoveLiquidityRequest{Token: "USDC", Liquidity: "0.25"})
	require.NoError(t, err)
	require.Len(t, fake.sent, 4)
	assert.Equal(t, "approve", fake.sent[2].method)
	assert.Equal(t, pair, fake.sent[2].to)
	remove := fake.sent[3]
	assert.Equal(t, "removeLiquidityETH", remove.method)
	assertBig(t, units(25, 16), remove.args[1])
	assert.Zero(t, remove.args[2].(*big.Int).Sign())
	assert.Zero(t, remove.args[3].(*big.Int).Sign())

	_, err = svc.AddLiquidity(context.Background(), dextypes.AddLiquidityRequest{Token: "ETH", AmountToken: "1", AmountNative: "1"})
	assert.True(t, dexerr.Is(err, dexerr.CodeInvalidInput))
}

func TestEVMBalanceAndPrice(t *testing.T) {
	svc, _ := newTestEVM(t)

	bal, err := svc.Balance(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "2", bal)

	bal, err = svc.Balance(context.Background(), "USDC", "")
	require.NoError(t, err)
	assert.Equal(t, "250", bal)

	_, err = svc.Balance(context.Background(), "USDC", "nope")
	assert.True(t, dexerr.Is(err, dexerr.CodeInvalidInput))

	p, err := svc.Price(context.Background(), "USDC")
	require.NoError(t, err)
	assert.Equal(t, "1", p)

	p, err = svc.Price(context.Background(), "ETH")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString(p).GreaterThan(decimal.NewFromInt(2900)))
}

func TestEVMTxStatus(t *testing.T) {
	svc, _ := newTestEVM(t)

	hash, err := svc.Swap(context.Background(), dextypes.SwapRequest{TokenIn: "ETH", TokenOut: "USDC", AmountIn: "0.1", Slippage: 0.5})
	require.NoError(t, err)

	st, err := svc.TxStatus(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, dextypes.TxConfirmed, st.State)
	assert.EqualValues(t, 100, st.Block)

	st, err = svc.TxStatus(context.Background(), "0x"+strings.Repeat("ab", 32))
	require.NoError(t, err)
	assert.Equal(t, dextypes.TxUnknown, st.State)

	_, err = svc.TxStatus(context.Background(), "0x1234")
	assert.True(t, dexerr.Is(err, dexerr.CodeInvalidInput))
}
