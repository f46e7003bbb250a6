package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dex-seasonal/config"
	dexerr "dex-seasonal/pkg/errors"
)

var (
	cfgFile    string
	walletFlag string
	assumeYes  bool
	slippage   float64
)

var rootCmd = &cobra.Command{
	Use:   "dex-seasonal",
	Short: "Swap tokens through Uniswap V2 on EVM chains or Jupiter on Solana",
	Long: `dex-seasonal is a command-line DEX aggregator front-end. Connect an EVM or a
Solana wallet, then quote, swap, manage liquidity and check balances. Routing
and transaction building are done by the Uniswap V2 router and the Jupiter
aggregator.

Wallet keys are read from DEX_SEASONAL_EVM_PRIVATE_KEY and
DEX_SEASONAL_SOLANA_PRIVATE_KEY (or a .dex-seasonal.yaml config file).

Examples:
  dex-seasonal quote 1 ETH to USDC --wallet evm
  dex-seasonal swap 0.5 SOL to USDC --wallet solana --slippage 1
  dex-seasonal quote --watch ETH to DAI
  dex-seasonal liquidity add USDC 100 0.05
  dex-seasonal status <tx-hash>`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("slippage") {
			slippage = cfg.Slippage
		}
		return nil
	},
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $HOME/.dex-seasonal.yaml)")
	rootCmd.PersistentFlags().StringVarP(&walletFlag, "wallet", "w", "", "Wallet to use: evm or solana (aliases: metamask, phantom)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Approve wallet connections and skip confirmation prompts")
	rootCmd.PersistentFlags().Float64Var(&slippage, "slippage", 0.5, "Slippage tolerance in percent")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "\n%s %v\n\n", color.RedString("Error:"), err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", color.GreenString(message))
}

// exitWith reports err and exits with its code.
func exitWith(err error, jsonOutput bool) {
	if jsonOutput {
		printJSON(map[string]interface{}{
			"error": err.Error(),
			"code":  dexerr.CodeOf(err).String(),
		})
	} else {
		printError(err)
	}
	os.Exit(dexerr.ExitCode(err))
}

// cancelled reports a declined confirmation.
func cancelled(message string, jsonOutput bool) {
	if jsonOutput {
		printJSON(map[string]interface{}{"cancelled": true})
		return
	}
	fmt.Println("\n" + message)
}

func printJSON(v interface{}) {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(jsonData))
}

func flags(cmd *cobra.Command) (verbose, jsonOutput bool) {
	verbose, _ = cmd.Flags().GetBool("verbose")
	jsonOutput, _ = cmd.Flags().GetBool("json")
	return verbose, jsonOutput
}
