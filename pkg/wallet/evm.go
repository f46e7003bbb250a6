package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"

	dexerr "dex-seasonal/pkg/errors"
)

// ChainIDReader is the part of an EVM client the provider needs.
type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// EVMAccount is an approved EVM account able to sign transactions.
type EVMAccount struct {
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID int64
}

// NewEVMAccount wraps a private key for the given chain.
func NewEVMAccount(key *ecdsa.PrivateKey, chainID int64) *EVMAccount {
	return &EVMAccount{key: key, from: crypto.PubkeyToAddress(key.PublicKey), chainID: chainID}
}

func (a *EVMAccount) Kind() Kind { return KindEVM }

func (a *EVMAccount) Address() string { return a.from.Hex() }

// From is the sender address used when building transactions.
func (a *EVMAccount) From() common.Address { return a.from }

func (a *EVMAccount) ChainID() int64 { return a.chainID }

func (a *EVMAccount) ChainIDBig() *big.Int { return big.NewInt(a.chainID) }

// SignTx signs tx for the account's chain.
func (a *EVMAccount) SignTx(tx *types.Transaction) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.NewEIP155Signer(a.ChainIDBig()), a.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

// EVMProvider connects a locally held EVM key.
type EVMProvider struct {
	key      *ecdsa.PrivateKey
	chain    ChainIDReader
	approve  Approver
	interval time.Duration
	pending  atomic.Bool
	log      zerolog.Logger
}

// NewEVMProvider parses a hex private key. interval controls how often the
// connected chain is polled for changes; zero disables polling.
func NewEVMProvider(hexKey string, chain ChainIDReader, approve Approver, interval time.Duration, log zerolog.Logger) (*EVMProvider, error) {
	hexKey = strings.TrimSpace(hexKey)
	if hexKey == "" {
		return nil, dexerr.New(dexerr.CodeProviderMissing, "EVM wallet is not configured. Set DEX_SEASONAL_EVM_PRIVATE_KEY to continue")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, dexerr.Wrap(dexerr.CodeInvalidInput, "invalid EVM private key", err)
	}
	return &EVMProvider{
		key:      key,
		chain:    chain,
		approve:  approve,
		interval: interval,
		log:      log.With().Str("component", "evm-wallet").Logger(),
	}, nil
}

func (p *EVMProvider) Kind() Kind { return KindEVM }

func (p *EVMProvider) Connect(ctx context.Context) (Account, error) {
	if !p.pending.CompareAndSwap(false, true) {
		return nil, pendingError(KindEVM)
	}
	defer p.pending.Store(false)

	from := crypto.PubkeyToAddress(p.key.PublicKey)
	if err := approve(ctx, p.approve, KindEVM, from.Hex()); err != nil {
		return nil, err
	}

	chainID, err := p.chain.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get network: %w", err)
	}
	p.log.Debug().Str("address", from.Hex()).Int64("chain_id", chainID.Int64()).Msg("wallet approved")
	return NewEVMAccount(p.key, chainID.Int64()), nil
}

// Subscribe polls the chain id and reports switches as EventChainChanged.
func (p *EVMProvider) Subscribe(ctx context.Context) <-chan Event {
	if p.interval <= 0 {
		return closedEvents()
	}
	out := make(chan Event, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		var last int64
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			id, err := p.chain.ChainID(ctx)
			if err != nil {
				p.log.Debug().Err(err).Msg("chain poll failed")
				continue
			}
			current := id.Int64()
			if last != 0 && current != last {
				select {
				case out <- Event{Kind: KindEVM, Type: EventChainChanged, ChainID: current}:
				case <-ctx.Done():
					return
				}
			}
			last = current
		}
	}()
	return out
}
