package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	dexerr "dex-seasonal/pkg/errors"
	"dex-seasonal/pkg/parser"
	"dex-seasonal/pkg/session"
	"dex-seasonal/pkg/types"
)

var liquidityCmd = &cobra.Command{
	Use:     "liquidity",
	Aliases: []string{"lp"},
	Short:   "Add or remove token/native liquidity",
	Long: `Provide or withdraw liquidity in a Uniswap V2 token/ETH pool.

Solana wallets are not supported: Solana liquidity operations require direct
integration with Raydium or Orca.`,
}

var liquidityAddCmd = &cobra.Command{
	Use:   "add <token> <amount-token> <amount-native>",
	Short: "Deposit a token and the native asset into their pool",
	Long: `Deposit a token together with the chain's native asset. Minimum deposit
amounts are derived from --slippage.

Examples:
  dex-seasonal liquidity add USDC 100 0.05
  dex-seasonal liquidity add DAI 250 0.1 --slippage 1`,
	Args: cobra.ExactArgs(3),
	Run:  runLiquidityAdd,
}

var liquidityRemoveCmd = &cobra.Command{
	Use:   "remove <token> <liquidity>",
	Short: "Burn LP tokens and withdraw the token and native asset",
	Long: `Withdraw from a token/native pool by burning an amount of LP tokens.

Examples:
  dex-seasonal liquidity remove USDC 0.5`,
	Args: cobra.ExactArgs(2),
	Run:  runLiquidityRemove,
}

func init() {
	rootCmd.AddCommand(liquidityCmd)
	liquidityCmd.AddCommand(liquidityAddCmd)
	liquidityCmd.AddCommand(liquidityRemoveCmd)
}

func runLiquidityAdd(cmd *cobra.Command, args []string) {
	verbose, jsonOutput := flags(cmd)
	req := types.AddLiquidityRequest{
		Token:        parser.NormalizeTokenSymbol(args[0]),
		AmountToken:  args[1],
		AmountNative: args[2],
		Slippage:     slippage,
	}

	a, sess := mustConnect(cmd)
	defer a.close()

	if !jsonOutput {
		fmt.Println("\n" + strings.Repeat("=", 60))
		color.Green("                   ADD LIQUIDITY")
		fmt.Println(strings.Repeat("=", 60))
		fmt.Printf("\n  Wallet:    %s (%s)\n", color.CyanString(sess.Address), sess.Kind)
		fmt.Printf("  Token:     %s %s\n", req.AmountToken, color.YellowString(req.Token))
		fmt.Printf("  Native:    %s %s\n", req.AmountNative, color.YellowString(sess.Kind.NativeSymbol()))
		fmt.Printf("  Slippage:  %.2f%%\n", req.Slippage)
		fmt.Println("\n" + strings.Repeat("=", 60))
	}
	if !confirm(cmd.Context(), "Proceed with deposit?") {
		cancelled("Cancelled.", jsonOutput)
		return
	}

	var result types.SwapResult
	_ = a.spin(" Adding liquidity...", func() error {
		result = a.facade.AddLiquidity(cmd.Context(), req)
		return nil
	})
	finishLiquidity(a, "ADD LIQUIDITY", sess, req, result, verbose, jsonOutput)
}

func runLiquidityRemove(cmd *cobra.Command, args []string) {
	verbose, jsonOutput := flags(cmd)
	req := types.RemoveLiquidityRequest{
		Token:     parser.NormalizeTokenSymbol(args[0]),
		Liquidity: args[1],
	}

	a, sess := mustConnect(cmd)
	defer a.close()

	if !confirm(cmd.Context(), fmt.Sprintf("Burn %s LP tokens of the %s/%s pool?", req.Liquidity, req.Token, sess.Kind.NativeSymbol())) {
		cancelled("Cancelled.", jsonOutput)
		return
	}

	var result types.SwapResult
	_ = a.spin(" Removing liquidity...", func() error {
		result = a.facade.RemoveLiquidity(cmd.Context(), req)
		return nil
	})
	finishLiquidity(a, "REMOVE LIQUIDITY", sess, req, result, verbose, jsonOutput)
}

func finishLiquidity(a *app, title string, sess session.Session, req interface{}, result types.SwapResult, verbose, jsonOutput bool) {
	if jsonOutput {
		printJSON(map[string]interface{}{"request": req, "result": result})
	} else {
		displayResult(title, sess, result, verbose)
	}
	if !result.Success {
		a.close()
		os.Exit(dexerr.ExitCode(result.Err()))
	}
}
