package wallet

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	dexerr "dex-seasonal/pkg/errors"
)

// HealthChecker is the part of a Solana RPC client the provider polls.
type HealthChecker interface {
	GetHealth(ctx context.Context) (string, error)
}

// SolanaAccount is an approved Solana account able to sign transactions.
type SolanaAccount struct {
	key solana.PrivateKey
}

func NewSolanaAccount(key solana.PrivateKey) *SolanaAccount {
	return &SolanaAccount{key: key}
}

func (a *SolanaAccount) Kind() Kind { return KindSolana }

func (a *SolanaAccount) Address() string { return a.key.PublicKey().String() }

func (a *SolanaAccount) PublicKey() solana.PublicKey { return a.key.PublicKey() }

// SignTransaction places the account's signature in its signer slot.
// Transactions built by an aggregator arrive with zeroed placeholder
// signatures, so the slot is overwritten rather than appended.
func (a *SolanaAccount) SignTransaction(tx *solana.Transaction) error {
	pub := a.key.PublicKey()
	required := int(tx.Message.Header.NumRequiredSignatures)

	slot := -1
	for i := 0; i < required && i < len(tx.Message.AccountKeys); i++ {
		if tx.Message.AccountKeys[i].Equals(pub) {
			slot = i
			break
		}
	}
	if slot < 0 {
		return fmt.Errorf("account %s is not a signer of this transaction", pub)
	}

	content, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	sig, err := a.key.Sign(content)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	for len(tx.Signatures) < required {
		tx.Signatures = append(tx.Signatures, solana.Signature{})
	}
	tx.Signatures[slot] = sig
	return nil
}

// SolanaProvider connects a locally held Solana key.
type SolanaProvider struct {
	key       solana.PrivateKey
	health    HealthChecker
	approve   Approver
	interval  time.Duration
	pending   atomic.Bool
	connected atomic.Bool
	log       zerolog.Logger
}

// NewSolanaProvider parses a base58 private key. interval controls how often
// the RPC endpoint health is polled while connected; zero disables polling.
func NewSolanaProvider(base58Key string, health HealthChecker, approve Approver, interval time.Duration, log zerolog.Logger) (*SolanaProvider, error) {
	base58Key = strings.TrimSpace(base58Key)
	if base58Key == "" {
		return nil, dexerr.New(dexerr.CodeProviderMissing, "Solana wallet is not configured. Set DEX_SEASONAL_SOLANA_PRIVATE_KEY to continue")
	}
	key, err := solana.PrivateKeyFromBase58(base58Key)
	if err != nil {
		return nil, dexerr.Wrap(dexerr.CodeInvalidInput, "invalid Solana private key", err)
	}
	return &SolanaProvider{
		key:      key,
		health:   health,
		approve:  approve,
		interval: interval,
		log:      log.With().Str("component", "solana-wallet").Logger(),
	}, nil
}

func (p *SolanaProvider) Kind() Kind { return KindSolana }

func (p *SolanaProvider) Connect(ctx context.Context) (Account, error) {
	if !p.pending.CompareAndSwap(false, true) {
		return nil, pendingError(KindSolana)
	}
	defer p.pending.Store(false)

	account := NewSolanaAccount(p.key)
	if err := approve(ctx, p.approve, KindSolana, account.Address()); err != nil {
		return nil, err
	}
	p.connected.Store(true)
	p.log.Debug().Str("address", account.Address()).Msg("wallet approved")
	return account, nil
}

// Disconnect ends the provider session. Health polling stops reporting
// until the next Connect.
func (p *SolanaProvider) Disconnect(context.Context) error {
	p.connected.Store(false)
	return nil
}

// Connected reports whether the provider holds an approved session.
func (p *SolanaProvider) Connected() bool { return p.connected.Load() }

// Subscribe polls endpoint health while connected and reports the first
// failure after a healthy check as EventDisconnect.
func (p *SolanaProvider) Subscribe(ctx context.Context) <-chan Event {
	if p.interval <= 0 || p.health == nil {
		return closedEvents()
	}
	out := make(chan Event, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		healthy := true
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if !p.connected.Load() {
				healthy = true
				continue
			}
			_, err := p.health.GetHealth(ctx)
			if err == nil {
				healthy = true
				continue
			}
			if ctx.Err() != nil {
				return
			}
			if !healthy {
				continue
			}
			healthy = false
			p.log.Warn().Err(err).Msg("solana endpoint unhealthy, dropping session")
			p.connected.Store(false)
			select {
			case out <- Event{Kind: KindSolana, Type: EventDisconnect}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
