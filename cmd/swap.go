package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	dexerr "dex-seasonal/pkg/errors"
	"dex-seasonal/pkg/parser"
	"dex-seasonal/pkg/session"
	"dex-seasonal/pkg/types"
)

var recipientAddr string

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <token> to <token>",
	Short: "Swap tokens on the connected wallet's chain",
	Long: `Swap an exact input amount through the Uniswap V2 router (EVM wallets) or
the Jupiter aggregator (Solana wallets). A quote with the minimum amount
received is shown before anything is signed.

Tokens may be registry symbols (see: dex-seasonal tokens) or raw addresses.

Examples:
  dex-seasonal swap 1 ETH to USDC --wallet evm
  dex-seasonal swap 100 USDT to DAI --slippage 1
  dex-seasonal swap 0.25 SOL to USDC --wallet solana --yes
  dex-seasonal swap 0.1 ETH to USDC --recipient 0x1234...`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().StringVar(&recipientAddr, "recipient", "", "Address receiving the output (defaults to the connected wallet)")
}

func runSwap(cmd *cobra.Command, args []string) {
	verbose, jsonOutput := flags(cmd)

	swapReq, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		exitWith(err, jsonOutput)
	}
	swapReq.Slippage = slippage
	swapReq.Recipient = recipientAddr

	a, sess := mustConnect(cmd)
	defer a.close()
	ctx := cmd.Context()

	var quote types.QuoteResult
	_ = a.spin(" Fetching quote...", func() error {
		quote = a.facade.Quote(ctx, *swapReq)
		return nil
	})
	if quote.IsZero() {
		a.close()
		exitWith(dexerr.Newf(dexerr.CodeQuoteFailed, "no quote available for %s", parser.FormatPair(swapReq.TokenIn, swapReq.TokenOut)), jsonOutput)
	}

	if !jsonOutput {
		displayQuote(sess, swapReq, quote)
	}

	if !confirm(ctx, "Proceed with swap?") {
		cancelled("Swap cancelled.", jsonOutput)
		return
	}

	var result types.SwapResult
	_ = a.spin(" Waiting for confirmation...", func() error {
		result = a.facade.Swap(ctx, *swapReq)
		return nil
	})

	if jsonOutput {
		printJSON(map[string]interface{}{
			"request": swapReq,
			"quote":   quote,
			"result":  result,
		})
	} else {
		displayResult("SWAP", sess, result, verbose)
	}
	if !result.Success {
		a.close()
		os.Exit(dexerr.ExitCode(result.Err()))
	}
}

func displayQuote(sess session.Session, req *types.SwapRequest, quote types.QuoteResult) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Wallet:            %s (%s)\n", color.CyanString(sess.Address), sess.Kind)
	fmt.Printf("  From:              %s %s\n", req.AmountIn, color.YellowString(req.TokenIn))
	fmt.Printf("  To:                ~%s %s\n", quote.OutputAmount, color.YellowString(req.TokenOut))
	fmt.Printf("  Minimum Received:  %s %s\n", quote.MinimumReceived, req.TokenOut)
	fmt.Printf("  Price Impact:      %s\n", coloredImpact(quote.PriceImpact))
	fmt.Printf("  Slippage:          %.2f%%\n", req.Slippage)
	if req.Recipient != "" {
		fmt.Printf("  Recipient:         %s\n", req.Recipient)
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func displayResult(title string, sess session.Session, result types.SwapResult, verbose bool) {
	if !result.Success {
		color.Red("\n✗ %s failed: %s", title, result.Error)
		if result.TxHash != "" {
			fmt.Printf("  Transaction: %s\n", color.HiBlackString(result.TxHash))
		}
		fmt.Println()
		return
	}

	color.Green("\n✓ %s confirmed", title)
	fmt.Printf("  Transaction: %s\n", color.CyanString(result.TxHash))
	if verbose {
		fmt.Printf("  Request ID:  %s\n", result.RequestID)
		fmt.Printf("  Wallet:      %s\n", sess.Address)
	}
	fmt.Println("\nYou can check the transaction using:")
	color.Cyan("  dex-seasonal status %s --wallet %s\n", result.TxHash, sess.Kind)
}

func coloredImpact(impact string) string {
	pct, err := decimal.NewFromString(impact)
	if err != nil {
		return impact
	}
	label := pct.String() + "%"
	switch {
	case pct.LessThan(decimal.NewFromInt(1)):
		return color.GreenString(label)
	case pct.LessThan(decimal.NewFromInt(5)):
		return color.YellowString(label)
	default:
		return color.RedString(label)
	}
}
