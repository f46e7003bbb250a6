package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	dexerr "dex-seasonal/pkg/errors"
	"dex-seasonal/pkg/parser"
	"dex-seasonal/pkg/quote"
	"dex-seasonal/pkg/types"
)

var watchQuote bool

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <token> to <token>",
	Short: "Get a swap quote without trading",
	Long: `Show the expected output, minimum received and price impact for a swap.

With --watch, give only the pair and type amounts on stdin, one per line.
Quotes are requested once typing pauses, and a quote that arrives after a
newer amount or after the wallet changed is discarded.

Examples:
  dex-seasonal quote 1 ETH to USDC
  dex-seasonal quote 2.5 SOL to USDC --wallet solana --json
  dex-seasonal quote --watch ETH to DAI`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().BoolVar(&watchQuote, "watch", false, "Read amounts from stdin and quote as they change")
}

func runQuote(cmd *cobra.Command, args []string) {
	_, jsonOutput := flags(cmd)
	command := strings.Join(args, " ")

	if watchQuote {
		tokenIn, tokenOut, err := parser.ParsePair(command)
		if err != nil {
			exitWith(err, jsonOutput)
		}
		a, _ := mustConnect(cmd)
		defer a.close()
		watchQuotes(cmd.Context(), a, tokenIn, tokenOut)
		return
	}

	swapReq, err := parser.ParseSwapCommand(command)
	if err != nil {
		exitWith(err, jsonOutput)
	}
	swapReq.Slippage = slippage

	a, sess := mustConnect(cmd)
	defer a.close()

	var result types.QuoteResult
	_ = a.spin(" Fetching quote...", func() error {
		result = a.facade.Quote(cmd.Context(), *swapReq)
		return nil
	})

	if jsonOutput {
		printJSON(map[string]interface{}{
			"token_in":         swapReq.TokenIn,
			"token_out":        swapReq.TokenOut,
			"amount_in":        swapReq.AmountIn,
			"output_amount":    result.OutputAmount,
			"minimum_received": result.MinimumReceived,
			"price_impact":     result.PriceImpact,
			"wallet":           sess.Kind,
		})
		return
	}
	if result.IsZero() {
		a.close()
		exitWith(dexerr.Newf(dexerr.CodeQuoteFailed, "no quote available for %s", parser.FormatPair(swapReq.TokenIn, swapReq.TokenOut)), false)
	}
	displayQuote(sess, swapReq, result)
}

func watchQuotes(ctx context.Context, a *app, tokenIn, tokenOut string) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// wallet events (chain switches, dropped sessions) replace the backend
	// while the watcher runs
	sessions, unsubscribe := a.session.Subscribe()
	defer unsubscribe()
	go a.session.Run(ctx)

	d := quote.NewDebouncer(ctx, a.facade, a.cfg.Debounce, a.log)
	defer d.Close()

	pair := parser.FormatPair(tokenIn, tokenOut)
	fmt.Printf("\nQuoting %s. Type an amount and press Enter, Ctrl+D to stop.\n\n", color.YellowString(pair))

	// approval prompts from event-driven reconnects claim the next line
	lines := input.Lines(ctx)

	// after EOF, wait for the last pending quote
	var drain <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-drain:
			return
		case line, ok := <-lines:
			if !ok {
				lines = nil
				drain = time.After(a.cfg.Debounce + a.cfg.Jupiter.Timeout)
				continue
			}
			amt := strings.TrimSpace(line)
			if amt == "" {
				continue
			}
			d.Request(types.SwapRequest{TokenIn: tokenIn, TokenOut: tokenOut, AmountIn: amt, Slippage: slippage})
		case s := <-sessions:
			if !s.Connected {
				color.Yellow("  wallet disconnected, quotes paused")
				continue
			}
			color.Cyan("  wallet %s on %s", s.Address, s.Kind)
		case u, ok := <-d.Updates():
			if !ok {
				return
			}
			fmt.Printf("  %s %s → %s %s  (min %s, impact %s)\n",
				u.Request.AmountIn, tokenIn,
				color.GreenString(u.Result.OutputAmount), tokenOut,
				u.Result.MinimumReceived, coloredImpact(u.Result.PriceImpact))
			if lines == nil {
				return
			}
		}
	}
}
