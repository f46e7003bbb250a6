package chain

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/big"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"dex-seasonal/pkg/amount"
	"dex-seasonal/pkg/client"
	dexerr "dex-seasonal/pkg/errors"
	"dex-seasonal/pkg/registry"
	dextypes "dex-seasonal/pkg/types"
	"dex-seasonal/pkg/wallet"
)

// SolanaRPC is the subset of *rpc.Client the service uses.
type SolanaRPC interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	GetSignaturesForAddressWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error)
}

// Aggregator is the quote and swap-building API, satisfied by *client.JupiterClient.
type Aggregator interface {
	GetQuote(ctx context.Context, p client.QuoteParams) (*client.JupiterQuote, error)
	BuildSwapTransaction(ctx context.Context, quote *client.JupiterQuote, userPublicKey string) (string, error)
	GetPrice(ctx context.Context, mint string) (string, error)
}

// SolanaConfig tunes confirmation handling.
type SolanaConfig struct {
	Commitment rpc.CommitmentType
	// ConfirmTimeout bounds the wait for a swap to be confirmed.
	ConfirmTimeout time.Duration
	// PollInterval is the delay between signature status checks.
	PollInterval time.Duration
}

// ParseCommitment maps a config string to a commitment level, defaulting to confirmed.
func ParseCommitment(s string) rpc.CommitmentType {
	switch s {
	case "finalized":
		return rpc.CommitmentFinalized
	case "processed":
		return rpc.CommitmentProcessed
	default:
		return rpc.CommitmentConfirmed
	}
}

// SolanaService quotes and trades through the Jupiter aggregator.
type SolanaService struct {
	rpc     SolanaRPC
	agg     Aggregator
	account *wallet.SolanaAccount
	cfg     SolanaConfig
	log     zerolog.Logger
}

// NewSolanaService binds an aggregator client to an approved account.
func NewSolanaService(rpcClient SolanaRPC, agg Aggregator, account *wallet.SolanaAccount, cfg SolanaConfig, log zerolog.Logger) (*SolanaService, error) {
	if rpcClient == nil || agg == nil || account == nil {
		return nil, dexerr.New(dexerr.CodeInternal, "Solana service needs an RPC client, an aggregator and an account")
	}
	if cfg.Commitment == "" {
		cfg.Commitment = rpc.CommitmentConfirmed
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 90 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return &SolanaService{
		rpc:     rpcClient,
		agg:     agg,
		account: account,
		cfg:     cfg,
		log:     log.With().Str("component", "solana").Logger(),
	}, nil
}

func resolveMint(token string) (registry.Token, int32, error) {
	t, err := registry.Resolve(wallet.KindSolana, token)
	if err != nil {
		return registry.Token{}, 0, err
	}
	dec := t.Decimals
	if dec == 0 {
		dec = registry.DefaultSolanaDecimals
	}
	return t, dec, nil
}

func (s *SolanaService) quote(ctx context.Context, req dextypes.SwapRequest, slippageBps int) (*client.JupiterQuote, int32, error) {
	in, decIn, err := resolveMint(req.TokenIn)
	if err != nil {
		return nil, 0, err
	}
	out, decOut, err := resolveMint(req.TokenOut)
	if err != nil {
		return nil, 0, err
	}
	if in.Address == out.Address {
		return nil, 0, dexerr.New(dexerr.CodeInvalidInput, "source and destination tokens must differ")
	}
	units, err := amount.ToBaseUnits(req.AmountIn, decIn)
	if err != nil {
		return nil, 0, err
	}
	if units.Sign() == 0 {
		return nil, 0, dexerr.Newf(dexerr.CodeInvalidInput, "amount %s is below the precision of %s", req.AmountIn, in.Symbol)
	}

	q, err := s.agg.GetQuote(ctx, client.QuoteParams{
		InputMint:   in.Address,
		OutputMint:  out.Address,
		Amount:      units.String(),
		SlippageBps: slippageBps,
	})
	if err != nil {
		return nil, 0, dexerr.Wrap(dexerr.CodeQuoteFailed, "failed to get quote", err)
	}
	return q, decOut, nil
}

// Quote asks the aggregator for the best route. The aggregator reports price
// impact as a fraction; it is returned as a percentage.
func (s *SolanaService) Quote(ctx context.Context, req dextypes.SwapRequest) (Quote, error) {
	q, decOut, err := s.quote(ctx, req, amount.SlippageBps(req.Slippage))
	if err != nil {
		return Quote{}, err
	}
	out, err := amount.FromBaseUnitString(q.OutAmount, decOut)
	if err != nil {
		return Quote{}, dexerr.Wrap(dexerr.CodeQuoteFailed, "bad quote output", err)
	}

	impact := "0"
	if q.PriceImpactPct != "" {
		if d, err := decimal.NewFromString(q.PriceImpactPct.String()); err == nil {
			impact = d.Mul(decimal.NewFromInt(100)).Round(2).String()
		}
	}
	return Quote{OutputAmount: out, PriceImpact: impact}, nil
}

// Swap quotes, has the aggregator build the transaction, signs and submits
// it, then waits for confirmation.
func (s *SolanaService) Swap(ctx context.Context, req dextypes.SwapRequest) (string, error) {
	if err := amount.ValidateSlippage(req.Slippage); err != nil {
		return "", err
	}
	// the aggregator settles into the signer's own token accounts
	if req.Recipient != "" && req.Recipient != s.account.Address() {
		return "", dexerr.New(dexerr.CodeInvalidInput, "Solana swaps can only pay out to the connected wallet")
	}
	q, _, err := s.quote(ctx, req, amount.SlippageBps(req.Slippage))
	if err != nil {
		return "", quoteStepFailed(err)
	}

	encoded, err := s.agg.BuildSwapTransaction(ctx, q, s.account.Address())
	if err != nil {
		return "", dexerr.Wrap(dexerr.CodeSwapFailed, "failed to build swap transaction", err)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", dexerr.Wrap(dexerr.CodeSwapFailed, "failed to decode swap transaction", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return "", dexerr.Wrap(dexerr.CodeSwapFailed, "failed to unmarshal swap transaction", err)
	}
	if err := s.account.SignTransaction(tx); err != nil {
		return "", dexerr.Wrap(dexerr.CodeSwapFailed, "failed to sign swap transaction", err)
	}

	sig, err := s.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: s.cfg.Commitment,
	})
	if err != nil {
		return "", dexerr.Wrap(dexerr.CodeSwapFailed, "failed to send transaction", err)
	}
	s.log.Info().Str("signature", sig.String()).Str("in", req.TokenIn).Str("out", req.TokenOut).Msg("swap submitted")

	if err := s.waitConfirmed(ctx, sig); err != nil {
		return sig.String(), classify(dexerr.CodeSwapFailed, "swap not confirmed", err)
	}
	return sig.String(), nil
}

func (s *SolanaService) waitConfirmed(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		st, err := s.status(ctx, sig)
		if err != nil {
			s.log.Debug().Err(err).Msg("signature status lookup failed")
		} else if st.State == dextypes.TxFailed {
			return dexerr.Newf(dexerr.CodeSwapFailed, "transaction %s failed: %s", sig, st.Error)
		} else if st.Done() {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("transaction %s not confirmed: %w", sig, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s *SolanaService) status(ctx context.Context, sig solana.Signature) (dextypes.TxStatus, error) {
	st := dextypes.TxStatus{ID: sig.String(), State: dextypes.TxUnknown}
	res, err := s.rpc.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return st, fmt.Errorf("failed to get signature status: %w", err)
	}
	if res == nil || len(res.Value) == 0 || res.Value[0] == nil {
		return st, nil
	}
	v := res.Value[0]
	st.Block = v.Slot
	switch {
	case v.Err != nil:
		st.State = dextypes.TxFailed
		st.Error = fmt.Sprint(v.Err)
	case v.ConfirmationStatus == rpc.ConfirmationStatusFinalized:
		st.State = dextypes.TxFinalized
	case v.ConfirmationStatus == rpc.ConfirmationStatusConfirmed:
		st.State = dextypes.TxConfirmed
	default:
		st.State = dextypes.TxPending
	}
	return st, nil
}

// TxStatus looks a transaction up by signature.
func (s *SolanaService) TxStatus(ctx context.Context, id string) (dextypes.TxStatus, error) {
	sig, err := solana.SignatureFromBase58(id)
	if err != nil {
		return dextypes.TxStatus{ID: id, State: dextypes.TxUnknown}, dexerr.Wrap(dexerr.CodeInvalidInput, "invalid transaction signature", err)
	}
	return s.status(ctx, sig)
}

// AddLiquidity is not offered on Solana.
func (s *SolanaService) AddLiquidity(context.Context, dextypes.AddLiquidityRequest) (string, error) {
	return "", dexerr.New(dexerr.CodeUnsupportedOperation, LiquidityUnsupportedMessage)
}

// RemoveLiquidity is not offered on Solana.
func (s *SolanaService) RemoveLiquidity(context.Context, dextypes.RemoveLiquidityRequest) (string, error) {
	return "", dexerr.New(dexerr.CodeUnsupportedOperation, LiquidityUnsupportedMessage)
}

// Balance returns the native balance or the associated token account balance
// of owner; an empty owner means the connected account.
func (s *SolanaService) Balance(ctx context.Context, token, owner string) (string, error) {
	who := s.account.PublicKey()
	if owner != "" {
		pk, err := solana.PublicKeyFromBase58(owner)
		if err != nil {
			return "", dexerr.Wrap(dexerr.CodeInvalidInput, "invalid address", err)
		}
		who = pk
	}
	if token == "" {
		token = wallet.KindSolana.NativeSymbol()
	}
	t, dec, err := resolveMint(token)
	if err != nil {
		return "", err
	}

	if t.Native {
		res, err := s.rpc.GetBalance(ctx, who, s.cfg.Commitment)
		if err != nil {
			return "", fmt.Errorf("failed to get balance: %w", err)
		}
		return amount.FromBaseUnits(new(big.Int).SetUint64(res.Value), registry.DefaultSolanaDecimals), nil
	}

	mint, err := solana.PublicKeyFromBase58(t.Address)
	if err != nil {
		return "", dexerr.Wrap(dexerr.CodeInvalidInput, "invalid mint", err)
	}
	ata, _, err := solana.FindAssociatedTokenAddress(who, mint)
	if err != nil {
		return "", fmt.Errorf("failed to derive associated token address: %w", err)
	}
	res, err := s.rpc.GetTokenAccountBalance(ctx, ata, s.cfg.Commitment)
	if err != nil {
		return "", fmt.Errorf("failed to get token balance: %w", err)
	}
	if res.Value == nil {
		return "0", nil
	}
	if res.Value.Decimals > 0 {
		dec = int32(res.Value.Decimals)
	}
	return amount.FromBaseUnitString(res.Value.Amount, dec)
}

// Price returns the USD price of a token.
func (s *SolanaService) Price(ctx context.Context, token string) (string, error) {
	t, _, err := resolveMint(token)
	if err != nil {
		return "", err
	}
	p, err := s.agg.GetPrice(ctx, t.Address)
	if err != nil {
		return "", dexerr.Wrap(dexerr.CodeQuoteFailed, "failed to get price", err)
	}
	return p, nil
}

// RecentSignatures lists the latest transactions touching the account.
func (s *SolanaService) RecentSignatures(ctx context.Context, limit int) ([]dextypes.SignatureInfo, error) {
	if limit <= 0 {
		limit = 10
	}
	sigs, err := s.rpc.GetSignaturesForAddressWithOpts(ctx, s.account.PublicKey(), &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: s.cfg.Commitment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get recent transactions: %w", err)
	}
	out := make([]dextypes.SignatureInfo, 0, len(sigs))
	for _, sig := range sigs {
		if sig == nil {
			continue
		}
		info := dextypes.SignatureInfo{
			Signature: sig.Signature.String(),
			Slot:      sig.Slot,
			Failed:    sig.Err != nil,
		}
		if sig.BlockTime != nil {
			info.BlockTime = int64(*sig.BlockTime)
		}
		if sig.Memo != nil {
			info.Memo = *sig.Memo
		}
		out = append(out, info)
	}
	return out, nil
}

// Close is a no-op; the RPC client is owned by the caller.
func (s *SolanaService) Close() {}
