// Package dex is the single entry point for trading operations. It forwards
// each call to whichever chain service is installed and normalizes the
// results: quotes and balances fail soft, state-changing operations never
// return an error but report it inside the result.
package dex

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"dex-seasonal/pkg/amount"
	dexerr "dex-seasonal/pkg/errors"
	"dex-seasonal/pkg/types"
	"dex-seasonal/pkg/wallet"
)

// Facade owns at most one live chain service.
type Facade struct {
	mu         sync.RWMutex
	backend    Backend
	generation uint64
	log        zerolog.Logger
}

// New creates an uninitialized facade.
func New(log zerolog.Logger) *Facade {
	return &Facade{log: log.With().Str("component", "dex").Logger()}
}

// Initialize replaces the current backend, closing the previous one, and
// returns the new generation.
func (f *Facade) Initialize(b Backend) uint64 {
	f.mu.Lock()
	prev := f.backend
	f.backend = b
	f.generation++
	gen := f.generation
	f.mu.Unlock()

	prev.Close()
	f.log.Debug().Str("kind", b.Kind().String()).Uint64("generation", gen).Msg("backend installed")
	return gen
}

// Reset drops the backend.
func (f *Facade) Reset() {
	f.Initialize(Backend{})
}

// Kind returns the wallet kind of the installed backend, or "".
func (f *Facade) Kind() wallet.Kind {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.backend.Kind()
}

func (f *Facade) IsInitialized() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return !f.backend.IsZero()
}

// Generation changes every time the backend is replaced or reset.
func (f *Facade) Generation() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.generation
}

func (f *Facade) current() (Backend, Service, error) {
	f.mu.RLock()
	b := f.backend
	f.mu.RUnlock()
	svc, err := b.service()
	return b, svc, err
}

// Quote never fails. Empty or zero amounts, a missing backend and any
// upstream error all yield the zero quote.
func (f *Facade) Quote(ctx context.Context, req types.SwapRequest) types.QuoteResult {
	if amount.IsZero(req.AmountIn) {
		return types.ZeroQuote()
	}
	_, svc, err := f.current()
	if err != nil {
		f.log.Debug().Err(err).Msg("quote skipped")
		return types.ZeroQuote()
	}

	q, err := svc.Quote(ctx, req)
	if err != nil {
		f.log.Warn().Err(err).Str("in", req.TokenIn).Str("out", req.TokenOut).Msg("quote failed")
		return types.ZeroQuote()
	}
	minimum, err := amount.MinimumReceived(q.OutputAmount, req.Slippage)
	if err != nil {
		f.log.Warn().Err(err).Msg("minimum received")
		return types.ZeroQuote()
	}
	impact := q.PriceImpact
	if impact == "" {
		impact = "0"
	}
	return types.QuoteResult{OutputAmount: q.OutputAmount, MinimumReceived: minimum, PriceImpact: impact}
}

// Swap executes a swap on the active chain.
func (f *Facade) Swap(ctx context.Context, req types.SwapRequest) types.SwapResult {
	return f.run("swap", func(svc Service) (string, error) {
		if err := validateSwap(req); err != nil {
			return "", err
		}
		return svc.Swap(ctx, req)
	})
}

// AddLiquidity deposits a token/native pair on the active chain.
func (f *Facade) AddLiquidity(ctx context.Context, req types.AddLiquidityRequest) types.SwapResult {
	return f.run("add_liquidity", func(svc Service) (string, error) {
		return svc.AddLiquidity(ctx, req)
	})
}

// RemoveLiquidity withdraws from a token/native pair on the active chain.
func (f *Facade) RemoveLiquidity(ctx context.Context, req types.RemoveLiquidityRequest) types.SwapResult {
	return f.run("remove_liquidity", func(svc Service) (string, error) {
		return svc.RemoveLiquidity(ctx, req)
	})
}

func (f *Facade) run(op string, fn func(Service) (string, error)) types.SwapResult {
	res := types.SwapResult{RequestID: uuid.NewString()}
	log := f.log.With().Str("op", op).Str("request_id", res.RequestID).Logger()

	_, svc, err := f.current()
	if err == nil {
		res.TxHash, err = fn(svc)
	}
	if err != nil {
		res.Error = err.Error()
		res.Code = dexerr.CodeOf(err)
		log.Warn().Err(err).Str("code", dexerr.CodeOf(err).String()).Msg("operation failed")
		return res
	}
	res.Success = true
	log.Info().Str("tx", res.TxHash).Msg("operation succeeded")
	return res
}

func validateSwap(req types.SwapRequest) error {
	if amount.IsZero(req.AmountIn) {
		return dexerr.New(dexerr.CodeInvalidInput, "amount must be greater than zero")
	}
	if _, err := amount.Parse(req.AmountIn); err != nil {
		return err
	}
	return amount.ValidateSlippage(req.Slippage)
}

// TokenBalance returns owner's balance of token, or "0" on any failure. An
// empty token means the native asset and an empty owner the connected account.
func (f *Facade) TokenBalance(ctx context.Context, token, owner string) string {
	_, svc, err := f.current()
	if err != nil {
		return "0"
	}
	bal, err := svc.Balance(ctx, token, owner)
	if err != nil {
		f.log.Warn().Err(err).Str("token", token).Msg("balance failed")
		return "0"
	}
	return bal
}

// Price returns the USD price of token, or "0" on any failure.
func (f *Facade) Price(ctx context.Context, token string) string {
	_, svc, err := f.current()
	if err != nil {
		return "0"
	}
	p, err := svc.Price(ctx, token)
	if err != nil {
		f.log.Warn().Err(err).Str("token", token).Msg("price failed")
		return "0"
	}
	return p
}

// TxStatus reports the confirmation state of a transaction on the active chain.
func (f *Facade) TxStatus(ctx context.Context, id string) (types.TxStatus, error) {
	_, svc, err := f.current()
	if err != nil {
		return types.TxStatus{ID: id, State: types.TxUnknown}, err
	}
	return svc.TxStatus(ctx, id)
}

// RecentSignatures lists recent transactions of the connected account. Only
// Solana backends keep an address history.
func (f *Facade) RecentSignatures(ctx context.Context, limit int) ([]types.SignatureInfo, error) {
	b, svc, err := f.current()
	if err != nil {
		return nil, err
	}
	h, ok := svc.(historyService)
	if !ok {
		return nil, dexerr.Newf(dexerr.CodeUnsupportedOperation, "transaction history is not available for %s wallets", b.Kind())
	}
	return h.RecentSignatures(ctx, limit)
}
