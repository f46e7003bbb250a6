package dex

import (
	"context"

	"dex-seasonal/pkg/chain"
	dexerr "dex-seasonal/pkg/errors"
	"dex-seasonal/pkg/types"
	"dex-seasonal/pkg/wallet"
)

// Service is what the facade needs from a chain service. *chain.EVMService
// and *chain.SolanaService implement it.
type Service interface {
	Quote(ctx context.Context, req types.SwapRequest) (chain.Quote, error)
	Swap(ctx context.Context, req types.SwapRequest) (string, error)
	AddLiquidity(ctx context.Context, req types.AddLiquidityRequest) (string, error)
	RemoveLiquidity(ctx context.Context, req types.RemoveLiquidityRequest) (string, error)
	Balance(ctx context.Context, token, owner string) (string, error)
	Price(ctx context.Context, token string) (string, error)
	TxStatus(ctx context.Context, id string) (types.TxStatus, error)
	Close()
}

type historyService interface {
	RecentSignatures(ctx context.Context, limit int) ([]types.SignatureInfo, error)
}

// Backend is the chain service handle owned by the facade. It carries
// exactly one service and the wallet kind it belongs to.
type Backend struct {
	kind wallet.Kind
	svc  Service
}

// EVMBackend wraps a router service.
func EVMBackend(s *chain.EVMService) Backend {
	if s == nil {
		return Backend{}
	}
	return Backend{kind: wallet.KindEVM, svc: s}
}

// SolanaBackend wraps an aggregator service.
func SolanaBackend(s *chain.SolanaService) Backend {
	if s == nil {
		return Backend{}
	}
	return Backend{kind: wallet.KindSolana, svc: s}
}

// NewBackend tags an arbitrary service with a wallet kind.
func NewBackend(kind wallet.Kind, svc Service) Backend {
	if svc == nil {
		return Backend{}
	}
	return Backend{kind: kind, svc: svc}
}

// NativeBalance reads the connected account's gas token balance.
func (b Backend) NativeBalance(ctx context.Context) (string, error) {
	svc, err := b.service()
	if err != nil {
		return "", err
	}
	return svc.Balance(ctx, "", "")
}

// Close releases the service. The facade closes backends it replaces;
// callers close backends they never installed.
func (b Backend) Close() {
	if b.svc != nil {
		b.svc.Close()
	}
}

// Kind is empty for the zero Backend.
func (b Backend) Kind() wallet.Kind { return b.kind }

func (b Backend) IsZero() bool { return b.svc == nil }

// service is the single dispatch point for every delegated call.
func (b Backend) service() (Service, error) {
	switch {
	case b.svc == nil:
		return nil, dexerr.New(dexerr.CodeNotInitialized, "DEX service not initialized: connect a wallet first")
	case b.kind != wallet.KindEVM && b.kind != wallet.KindSolana:
		return nil, dexerr.Newf(dexerr.CodeInternal, "unknown backend kind %q", b.kind)
	}
	return b.svc, nil
}
