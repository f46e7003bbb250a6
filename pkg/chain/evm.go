package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"dex-seasonal/pkg/amount"
	dexerr "dex-seasonal/pkg/errors"
	"dex-seasonal/pkg/registry"
	dextypes "dex-seasonal/pkg/types"
	"dex-seasonal/pkg/wallet"
)

// DefaultRouter is the Uniswap V2 router on Ethereum mainnet.
const DefaultRouter = "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"

const routerABI = `[
 {"inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"view","type":"function"},
 {"inputs":[],"name":"factory","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
 {"inputs":[{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactETHForTokens","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"payable","type":"function"},
 {"inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactTokensForETH","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"nonpayable","type":"function"},
 {"inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactTokensForTokens","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"nonpayable","type":"function"},
 {"inputs":[{"name":"token","type":"address"},{"name":"amountTokenDesired","type":"uint256"},{"name":"amountTokenMin","type":"uint256"},{"name":"amountETHMin","type":"uint256"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"addLiquidityETH","outputs":[{"name":"amountToken","type":"uint256"},{"name":"amountETH","type":"uint256"},{"name":"liquidity","type":"uint256"}],"stateMutability":"payable","type":"function"},
 {"inputs":[{"name":"token","type":"address"},{"name":"liquidity","type":"uint256"},{"name":"amountTokenMin","type":"uint256"},{"name":"amountETHMin","type":"uint256"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"removeLiquidityETH","outputs":[{"name":"amountToken","type":"uint256"},{"name":"amountETH","type":"uint256"}],"stateMutability":"nonpayable","type":"function"}
]`

const erc20ABI = `[
 {"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
 {"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
 {"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
 {"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

const factoryABI = `[
 {"inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"}],"name":"getPair","outputs":[{"name":"pair","type":"address"}],"stateMutability":"view","type":"function"}
]`

// lpDecimals is the precision of every Uniswap V2 pair token.
const lpDecimals int32 = 18

// probeDivisor sizes the small trade used to estimate the spot rate.
var probeDivisor = big.NewInt(1000)

// EVMBackend is the subset of *ethclient.Client the service uses.
type EVMBackend interface {
	bind.DeployBackend
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
}

// EVMConfig holds the router deployment the service talks to.
type EVMConfig struct {
	Router common.Address
	WETH   common.Address
	// GasLimit overrides gas estimation when non-zero.
	GasLimit uint64
}

// EVMService quotes and trades through a Uniswap V2 router.
type EVMService struct {
	backend  EVMBackend
	account  *wallet.EVMAccount
	router   common.Address
	weth     common.Address
	gasLimit uint64

	routerABI  abi.ABI
	erc20ABI   abi.ABI
	factoryABI abi.ABI

	decMu    sync.RWMutex
	decimals map[common.Address]int32

	// txMu serializes nonce assignment for this account
	txMu sync.Mutex

	now func() time.Time
	log zerolog.Logger
}

// NewEVMService binds a router client to an approved account.
func NewEVMService(backend EVMBackend, account *wallet.EVMAccount, cfg EVMConfig, log zerolog.Logger) (*EVMService, error) {
	if backend == nil || account == nil {
		return nil, dexerr.New(dexerr.CodeInternal, "EVM service needs a backend and an account")
	}
	rABI, err := abi.JSON(strings.NewReader(routerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}
	eABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}
	fABI, err := abi.JSON(strings.NewReader(factoryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse factory ABI: %w", err)
	}
	if cfg.Router == (common.Address{}) {
		cfg.Router = common.HexToAddress(DefaultRouter)
	}
	if cfg.WETH == (common.Address{}) {
		cfg.WETH = common.HexToAddress(registry.Wrapped(wallet.KindEVM).Address)
	}
	return &EVMService{
		backend:    backend,
		account:    account,
		router:     cfg.Router,
		weth:       cfg.WETH,
		gasLimit:   cfg.GasLimit,
		routerABI:  rABI,
		erc20ABI:   eABI,
		factoryABI: fABI,
		decimals:   make(map[common.Address]int32, 8),
		now:        time.Now,
		log:        log.With().Str("component", "evm").Logger(),
	}, nil
}

// evmToken is a resolved registry token with its on-chain address.
type evmToken struct {
	registry.Token
	addr common.Address
}

func (s *EVMService) resolve(symbolOrAddress string) (evmToken, error) {
	t, err := registry.Resolve(wallet.KindEVM, symbolOrAddress)
	if err != nil {
		return evmToken{}, err
	}
	addr := common.HexToAddress(t.Address)
	if t.Native {
		addr = s.weth
	}
	return evmToken{Token: t, addr: addr}, nil
}

func (s *EVMService) resolvePair(tokenIn, tokenOut string) (evmToken, evmToken, error) {
	in, err := s.resolve(tokenIn)
	if err != nil {
		return evmToken{}, evmToken{}, err
	}
	out, err := s.resolve(tokenOut)
	if err != nil {
		return evmToken{}, evmToken{}, err
	}
	if in.addr == out.addr {
		return evmToken{}, evmToken{}, dexerr.New(dexerr.CodeInvalidInput, "source and destination tokens must differ")
	}
	return in, out, nil
}

// Path routes directly when either side is the wrapped native token and
// through it otherwise.
func (s *EVMService) Path(in, out common.Address) []common.Address {
	if in == s.weth || out == s.weth {
		return []common.Address{in, out}
	}
	return []common.Address{in, s.weth, out}
}

// tokenDecimals prefers the registry, then the token contract, then 18.
func (s *EVMService) tokenDecimals(ctx context.Context, t evmToken) int32 {
	if t.Decimals > 0 || t.Native {
		return t.Decimals
	}
	s.decMu.RLock()
	d, ok := s.decimals[t.addr]
	s.decMu.RUnlock()
	if ok {
		return d
	}

	d = registry.DefaultEVMDecimals
	var out []interface{}
	if err := s.call(ctx, s.erc20ABI, t.addr, &out, "decimals"); err != nil {
		s.log.Warn().Err(err).Str("token", t.addr.Hex()).Msg("decimals() failed, assuming 18")
	} else if v, ok := out[0].(uint8); ok {
		d = int32(v)
	}

	s.decMu.Lock()
	s.decimals[t.addr] = d
	s.decMu.Unlock()
	return d
}

// call packs method, runs a read-only call against to and unpacks into out.
func (s *EVMService) call(ctx context.Context, contract abi.ABI, to common.Address, out *[]interface{}, method string, args ...interface{}) error {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("failed to pack %s: %w", method, err)
	}
	raw, err := s.backend.CallContract(ctx, ethereum.CallMsg{From: s.account.From(), To: &to, Data: data}, nil)
	if err != nil {
		return fmt.Errorf("%s call failed: %w", method, err)
	}
	res, err := contract.Unpack(method, raw)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", method, err)
	}
	if len(res) == 0 {
		return fmt.Errorf("%s returned no data", method)
	}
	*out = res
	return nil
}

func (s *EVMService) amountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) (*big.Int, error) {
	var out []interface{}
	if err := s.call(ctx, s.routerABI, s.router, &out, "getAmountsOut", amountIn, path); err != nil {
		return nil, err
	}
	amounts, ok := out[0].([]*big.Int)
	if !ok || len(amounts) < 2 {
		return nil, errors.New("bad getAmountsOut result")
	}
	return amounts[len(amounts)-1], nil
}

// Quote prices a swap of amountIn through the router.
func (s *EVMService) Quote(ctx context.Context, req dextypes.SwapRequest) (Quote, error) {
	q, _, err := s.quote(ctx, req)
	return q, err
}

type evmQuote struct {
	in, out  evmToken
	path     []common.Address
	amountIn *big.Int
	outUnits *big.Int
}

func (s *EVMService) quote(ctx context.Context, req dextypes.SwapRequest) (Quote, *evmQuote, error) {
	in, out, err := s.resolvePair(req.TokenIn, req.TokenOut)
	if err != nil {
		return Quote{}, nil, err
	}
	decIn, decOut := s.tokenDecimals(ctx, in), s.tokenDecimals(ctx, out)

	amountIn, err := amount.ToBaseUnits(req.AmountIn, decIn)
	if err != nil {
		return Quote{}, nil, err
	}
	if amountIn.Sign() == 0 {
		return Quote{}, nil, dexerr.Newf(dexerr.CodeInvalidInput, "amount %s is below the precision of %s", req.AmountIn, in.Symbol)
	}

	path := s.Path(in.addr, out.addr)
	outUnits, err := s.amountsOut(ctx, amountIn, path)
	if err != nil {
		return Quote{}, nil, classify(dexerr.CodeQuoteFailed, "failed to get quote", err)
	}

	q := Quote{
		OutputAmount: amount.FromBaseUnits(outUnits, decOut),
		PriceImpact:  s.priceImpact(ctx, amountIn, outUnits, path),
	}
	return q, &evmQuote{in: in, out: out, path: path, amountIn: amountIn, outUnits: outUnits}, nil
}

// priceImpact compares the real output with the output a trade 1/1000 the
// size would give when scaled up. The probe trade moves the pool so little
// that its rate stands in for the spot rate.
func (s *EVMService) priceImpact(ctx context.Context, amountIn, outUnits *big.Int, path []common.Address) string {
	probeIn := new(big.Int).Quo(amountIn, probeDivisor)
	if probeIn.Sign() == 0 {
		return "0"
	}
	probeOut, err := s.amountsOut(ctx, probeIn, path)
	if err != nil || probeOut.Sign() == 0 {
		s.log.Debug().Err(err).Msg("price impact probe failed")
		return "0"
	}

	expected := decimal.NewFromBigInt(probeOut, 0).Mul(decimal.NewFromBigInt(amountIn, 0)).Div(decimal.NewFromBigInt(probeIn, 0))
	if expected.IsZero() {
		return "0"
	}
	impact := expected.Sub(decimal.NewFromBigInt(outUnits, 0)).Div(expected).Mul(decimal.NewFromInt(100))
	if impact.IsNegative() {
		return "0"
	}
	return impact.Round(2).String()
}

// Swap executes an exact-input swap and waits for it to be mined.
func (s *EVMService) Swap(ctx context.Context, req dextypes.SwapRequest) (string, error) {
	_, q, err := s.quote(ctx, req)
	if err != nil {
		return "", quoteStepFailed(err)
	}
	minOut, err := amount.MinimumUnits(q.outUnits, req.Slippage)
	if err != nil {
		return "", err
	}

	to := s.account.From()
	if req.Recipient != "" {
		if !common.IsHexAddress(req.Recipient) {
			return "", dexerr.Newf(dexerr.CodeInvalidInput, "invalid recipient address %q", req.Recipient)
		}
		to = common.HexToAddress(req.Recipient)
	}

	if !q.in.Native {
		if err := s.ensureAllowance(ctx, q.in.addr, q.amountIn); err != nil {
			return "", classify(dexerr.CodeSwapFailed, "token approval failed", err)
		}
	}

	deadline := s.deadline()
	var (
		data  []byte
		value *big.Int
	)
	switch {
	case q.in.Native:
		data, err = s.routerABI.Pack("swapExactETHForTokens", minOut, q.path, to, deadline)
		value = q.amountIn
	case q.out.Native:
		data, err = s.routerABI.Pack("swapExactTokensForETH", q.amountIn, minOut, q.path, to, deadline)
	default:
		data, err = s.routerABI.Pack("swapExactTokensForTokens", q.amountIn, minOut, q.path, to, deadline)
	}
	if err != nil {
		return "", dexerr.Wrap(dexerr.CodeSwapFailed, "failed to pack swap", err)
	}

	s.log.Info().
		Str("in", q.in.Symbol).Str("out", q.out.Symbol).
		Str("amount_in", q.amountIn.String()).Str("min_out", minOut.String()).
		Msg("submitting swap")
	hash, err := s.transact(ctx, s.router, value, data)
	if err != nil {
		return hash, classify(dexerr.CodeSwapFailed, "swap failed", err)
	}
	return hash, nil
}

// AddLiquidity deposits a token and the native asset into their pair.
func (s *EVMService) AddLiquidity(ctx context.Context, req dextypes.AddLiquidityRequest) (string, error) {
	tok, err := s.resolve(req.Token)
	if err != nil {
		return "", err
	}
	if tok.Native || tok.addr == s.weth {
		return "", dexerr.New(dexerr.CodeInvalidInput, "liquidity is added against the native asset; pick a non-native token")
	}
	amountToken, err := amount.ToBaseUnits(req.AmountToken, s.tokenDecimals(ctx, tok))
	if err != nil {
		return "", err
	}
	amountETH, err := amount.ToBaseUnits(req.AmountNative, registry.DefaultEVMDecimals)
	if err != nil {
		return "", err
	}
	if amountToken.Sign() == 0 || amountETH.Sign() == 0 {
		return "", dexerr.New(dexerr.CodeInvalidInput, "both liquidity amounts must be positive")
	}
	minToken, err := amount.MinimumUnits(amountToken, req.Slippage)
	if err != nil {
		return "", err
	}
	minETH, err := amount.MinimumUnits(amountETH, req.Slippage)
	if err != nil {
		return "", err
	}

	if err := s.ensureAllowance(ctx, tok.addr, amountToken); err != nil {
		return "", classify(dexerr.CodeSwapFailed, "token approval failed", err)
	}
	data, err := s.routerABI.Pack("addLiquidityETH", tok.addr, amountToken, minToken, minETH, s.account.From(), s.deadline())
	if err != nil {
		return "", dexerr.Wrap(dexerr.CodeSwapFailed, "failed to pack addLiquidityETH", err)
	}
	hash, err := s.transact(ctx, s.router, amountETH, data)
	if err != nil {
		return hash, classify(dexerr.CodeSwapFailed, "add liquidity failed", err)
	}
	return hash, nil
}

// RemoveLiquidity burns LP tokens of the token/native pair. Minimum outputs
// are zero.
func (s *EVMService) RemoveLiquidity(ctx context.Context, req dextypes.RemoveLiquidityRequest) (string, error) {
	tok, err := s.resolve(req.Token)
	if err != nil {
		return "", err
	}
	liquidity, err := amount.ToBaseUnits(req.Liquidity, lpDecimals)
	if err != nil {
		return "", err
	}
	if liquidity.Sign() == 0 {
		return "", dexerr.New(dexerr.CodeInvalidInput, "liquidity amount must be positive")
	}

	pair, err := s.pairAddress(ctx, tok.addr)
	if err != nil {
		return "", classify(dexerr.CodeSwapFailed, "failed to find pool", err)
	}
	if err := s.ensureAllowance(ctx, pair, liquidity); err != nil {
		return "", classify(dexerr.CodeSwapFailed, "LP token approval failed", err)
	}

	zero := big.NewInt(0)
	data, err := s.routerABI.Pack("removeLiquidityETH", tok.addr, liquidity, zero, zero, s.account.From(), s.deadline())
	if err != nil {
		return "", dexerr.Wrap(dexerr.CodeSwapFailed, "failed to pack removeLiquidityETH", err)
	}
	hash, err := s.transact(ctx, s.router, nil, data)
	if err != nil {
		return hash, classify(dexerr.CodeSwapFailed, "remove liquidity failed", err)
	}
	return hash, nil
}

func (s *EVMService) pairAddress(ctx context.Context, token common.Address) (common.Address, error) {
	var out []interface{}
	if err := s.call(ctx, s.routerABI, s.router, &out, "factory"); err != nil {
		return common.Address{}, err
	}
	factory, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, errors.New("bad factory result")
	}
	if err := s.call(ctx, s.factoryABI, factory, &out, "getPair", token, s.weth); err != nil {
		return common.Address{}, err
	}
	pair, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, errors.New("bad getPair result")
	}
	if pair == (common.Address{}) {
		return common.Address{}, dexerr.Newf(dexerr.CodeInvalidInput, "no pool for %s", token.Hex())
	}
	return pair, nil
}

// ensureAllowance approves the router for the maximum amount when the
// current allowance does not cover needed.
func (s *EVMService) ensureAllowance(ctx context.Context, token common.Address, needed *big.Int) error {
	var out []interface{}
	if err := s.call(ctx, s.erc20ABI, token, &out, "allowance", s.account.From(), s.router); err != nil {
		return err
	}
	current, ok := out[0].(*big.Int)
	if ok && current.Cmp(needed) >= 0 {
		return nil
	}

	data, err := s.erc20ABI.Pack("approve", s.router, new(big.Int).Set(math.MaxBig256))
	if err != nil {
		return fmt.Errorf("failed to pack approve: %w", err)
	}
	s.log.Info().Str("token", token.Hex()).Msg("approving router")
	_, err = s.transact(ctx, token, nil, data)
	return err
}

func (s *EVMService) deadline() *big.Int {
	return big.NewInt(s.now().Add(SwapDeadline).Unix())
}

// transact signs and submits a legacy transaction, then waits for its receipt.
func (s *EVMService) transact(ctx context.Context, to common.Address, value *big.Int, data []byte) (string, error) {
	if value == nil {
		value = big.NewInt(0)
	}
	from := s.account.From()

	s.txMu.Lock()
	signed, err := s.buildTx(ctx, from, to, value, data)
	if err == nil {
		err = s.backend.SendTransaction(ctx, signed)
	}
	s.txMu.Unlock()
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	hash := signed.Hash().Hex()
	s.log.Debug().Str("tx", hash).Msg("transaction sent, waiting for receipt")
	receipt, err := bind.WaitMined(ctx, s.backend, signed)
	if err != nil {
		return hash, fmt.Errorf("failed waiting for %s: %w", hash, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return hash, dexerr.Newf(dexerr.CodeSwapFailed, "transaction %s reverted", hash)
	}
	return hash, nil
}

func (s *EVMService) buildTx(ctx context.Context, from, to common.Address, value *big.Int, data []byte) (*types.Transaction, error) {
	nonce, err := s.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	gasLimit := s.gasLimit
	if gasLimit == 0 {
		gasLimit = 300_000
		estimated, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: data})
		if err == nil {
			gasLimit = estimated * 120 / 100
		} else {
			s.log.Debug().Err(err).Msg("gas estimation failed, using default limit")
		}
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	return s.account.SignTx(tx)
}

// Balance returns owner's balance of token; an empty owner means the
// connected account.
func (s *EVMService) Balance(ctx context.Context, token, owner string) (string, error) {
	who := s.account.From()
	if owner != "" {
		if !common.IsHexAddress(owner) {
			return "", dexerr.Newf(dexerr.CodeInvalidInput, "invalid address %q", owner)
		}
		who = common.HexToAddress(owner)
	}
	if token == "" {
		token = wallet.KindEVM.NativeSymbol()
	}
	tok, err := s.resolve(token)
	if err != nil {
		return "", err
	}

	if tok.Native {
		wei, err := s.backend.BalanceAt(ctx, who, nil)
		if err != nil {
			return "", fmt.Errorf("failed to get balance: %w", err)
		}
		return amount.FromBaseUnits(wei, registry.DefaultEVMDecimals), nil
	}

	var out []interface{}
	if err := s.call(ctx, s.erc20ABI, tok.addr, &out, "balanceOf", who); err != nil {
		return "", err
	}
	bal, ok := out[0].(*big.Int)
	if !ok {
		return "", errors.New("bad balanceOf result")
	}
	return amount.FromBaseUnits(bal, s.tokenDecimals(ctx, tok)), nil
}

// Price values one unit of token in USDC through the router.
func (s *EVMService) Price(ctx context.Context, token string) (string, error) {
	usdc, _ := registry.Lookup(wallet.KindEVM, "USDC")
	tok, err := s.resolve(token)
	if err != nil {
		return "", err
	}
	if tok.Address == usdc.Address {
		return "1", nil
	}
	q, err := s.Quote(ctx, dextypes.SwapRequest{TokenIn: token, TokenOut: usdc.Symbol, AmountIn: "1"})
	if err != nil {
		return "", err
	}
	return q.OutputAmount, nil
}

// TxStatus looks a transaction up by hash.
func (s *EVMService) TxStatus(ctx context.Context, id string) (dextypes.TxStatus, error) {
	st := dextypes.TxStatus{ID: id, State: dextypes.TxUnknown}
	if len(strings.TrimPrefix(id, "0x")) != 64 {
		return st, dexerr.Newf(dexerr.CodeInvalidInput, "invalid transaction hash %q", id)
	}
	hash := common.HexToHash(id)

	receipt, err := s.backend.TransactionReceipt(ctx, hash)
	switch {
	case err == nil:
		if receipt.BlockNumber != nil {
			st.Block = receipt.BlockNumber.Uint64()
		}
		if receipt.Status == types.ReceiptStatusSuccessful {
			st.State = dextypes.TxConfirmed
		} else {
			st.State = dextypes.TxFailed
			st.Error = "execution reverted"
		}
		return st, nil
	case !errors.Is(err, ethereum.NotFound):
		return st, fmt.Errorf("failed to get transaction receipt: %w", err)
	}

	_, pending, err := s.backend.TransactionByHash(ctx, hash)
	switch {
	case err == nil && pending:
		st.State = dextypes.TxPending
	case err != nil && !errors.Is(err, ethereum.NotFound):
		return st, fmt.Errorf("failed to get transaction: %w", err)
	}
	return st, nil
}

// Close is a no-op; the backend is owned by the caller.
func (s *EVMService) Close() {}
