package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"dex-seasonal/config"
	"dex-seasonal/pkg/chain"
	"dex-seasonal/pkg/client"
	"dex-seasonal/pkg/dex"
	dexerr "dex-seasonal/pkg/errors"
	"dex-seasonal/pkg/logging"
	"dex-seasonal/pkg/session"
	"dex-seasonal/pkg/wallet"
)

// app wires configuration, clients, wallet providers, the facade and the
// session manager for one command invocation.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	facade  *dex.Facade
	session *session.Manager

	evm     *ethclient.Client
	sol     *rpc.Client
	jupiter *client.JupiterClient

	jsonOutput bool
}

func newApp(cmd *cobra.Command) (*app, error) {
	verbose, jsonOutput := flags(cmd)
	cfg := config.Get()
	log := logging.New(os.Stderr, cfg.LogLevel, verbose)

	a := &app{
		cfg:        cfg,
		log:        log,
		facade:     dex.New(log),
		jupiter:    client.NewJupiterClient(cfg.Jupiter.BaseURL, cfg.Jupiter.PriceURL, cfg.Jupiter.Timeout),
		jsonOutput: jsonOutput,
	}

	var providers []wallet.Provider
	if cfg.EVM.PrivateKey != "" {
		evm, err := ethclient.Dial(cfg.EVM.RPCURL)
		if err != nil {
			return nil, dexerr.Wrap(dexerr.CodeInternal, "failed to connect to EVM RPC", err)
		}
		a.evm = evm
		p, err := wallet.NewEVMProvider(cfg.EVM.PrivateKey, evm, a.approver(), cfg.EVM.ChainPoll, log)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if cfg.Solana.PrivateKey != "" {
		a.sol = rpc.New(cfg.Solana.RPCURL)
		p, err := wallet.NewSolanaProvider(cfg.Solana.PrivateKey, a.sol, a.approver(), cfg.Solana.HealthPoll, log)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	a.session = session.NewManager(a.facade, a.backendFor, log, providers...)
	return a, nil
}

func (a *app) backendFor(ctx context.Context, account wallet.Account) (dex.Backend, error) {
	switch acc := account.(type) {
	case *wallet.EVMAccount:
		svc, err := chain.NewEVMService(a.evm, acc, chain.EVMConfig{
			Router:   common.HexToAddress(a.cfg.EVM.Router),
			WETH:     common.HexToAddress(a.cfg.EVM.WETH),
			GasLimit: a.cfg.EVM.GasLimit,
		}, a.log)
		if err != nil {
			return dex.Backend{}, err
		}
		return dex.EVMBackend(svc), nil
	case *wallet.SolanaAccount:
		svc, err := chain.NewSolanaService(a.sol, a.jupiter, acc, chain.SolanaConfig{
			Commitment:     chain.ParseCommitment(a.cfg.Solana.Commitment),
			ConfirmTimeout: a.cfg.Solana.ConfirmTimeout,
		}, a.log)
		if err != nil {
			return dex.Backend{}, err
		}
		return dex.SolanaBackend(svc), nil
	}
	return dex.Backend{}, dexerr.Newf(dexerr.CodeInternal, "unsupported account type %T", account)
}

// walletKind picks the wallet from --wallet, or the only configured one.
func (a *app) walletKind() (wallet.Kind, error) {
	if walletFlag != "" {
		return wallet.ParseKind(walletFlag)
	}
	evm, sol := a.session.Available(wallet.KindEVM), a.session.Available(wallet.KindSolana)
	switch {
	case evm && sol:
		return "", dexerr.New(dexerr.CodeInvalidInput, "both wallets are configured: choose one with --wallet evm|solana")
	case evm:
		return wallet.KindEVM, nil
	case sol:
		return wallet.KindSolana, nil
	}
	return "", dexerr.New(dexerr.CodeProviderMissing,
		"no wallet configured. Set DEX_SEASONAL_EVM_PRIVATE_KEY or DEX_SEASONAL_SOLANA_PRIVATE_KEY to continue")
}

// connect approves the selected wallet and installs its chain service.
func (a *app) connect(ctx context.Context) (session.Session, error) {
	kind, err := a.walletKind()
	if err != nil {
		return session.Session{}, err
	}
	if !assumeYes {
		// a running spinner would overwrite the approval prompt
		return a.session.Connect(ctx, kind)
	}
	var s session.Session
	err = a.spin(fmt.Sprintf(" Connecting %s wallet...", kind), func() error {
		var cerr error
		s, cerr = a.session.Connect(ctx, kind)
		return cerr
	})
	return s, err
}

// approver prompts on the terminal unless --yes was given.
func (a *app) approver() wallet.Approver {
	if assumeYes {
		return wallet.AutoApprove
	}
	return func(ctx context.Context, kind wallet.Kind, address string) (bool, error) {
		fmt.Fprintf(os.Stderr, "\nConnect %s wallet %s? (y/N): ", kind, color.CyanString(address))
		return readYes(ctx, input), nil
	}
}

// spin runs fn behind a spinner. Spinners are skipped for JSON output.
func (a *app) spin(suffix string, fn func() error) error {
	if a.jsonOutput {
		return fn()
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = suffix
	s.Start()
	defer s.Stop()
	return fn()
}

func (a *app) close() {
	if a.evm != nil {
		a.evm.Close()
	}
	a.facade.Reset()
}

func readYes(ctx context.Context, in *lineRouter) bool {
	response, ok := in.Ask(ctx)
	if !ok {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// confirm asks before anything is signed, in every output mode. Only --yes
// skips it; the prompt goes to stderr so JSON on stdout stays parseable.
func confirm(ctx context.Context, prompt string) bool {
	if assumeYes {
		return true
	}
	fmt.Fprintf(os.Stderr, "\n%s (y/N): ", prompt)
	return readYes(ctx, input)
}

// mustConnect builds the app and connects a wallet, exiting on failure.
func mustConnect(cmd *cobra.Command) (*app, session.Session) {
	_, jsonOutput := flags(cmd)
	a, err := newApp(cmd)
	if err != nil {
		exitWith(err, jsonOutput)
	}
	s, err := a.connect(cmd.Context())
	if err != nil {
		a.close()
		exitWith(err, jsonOutput)
	}
	return a, s
}
