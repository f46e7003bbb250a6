package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dex-seasonal/pkg/parser"
)

var priceCmd = &cobra.Command{
	Use:   "price <token...>",
	Short: "Show USD prices",
	Long: `Show the USD price of one or more tokens. EVM prices come from a router
quote against USDC, Solana prices from the Jupiter price API. A price that
cannot be fetched is shown as 0.

Examples:
  dex-seasonal price ETH UNI --wallet evm
  dex-seasonal price SOL BONK --wallet solana`,
	Args: cobra.MinimumNArgs(1),
	Run:  runPrice,
}

func init() {
	rootCmd.AddCommand(priceCmd)
}

func runPrice(cmd *cobra.Command, args []string) {
	_, jsonOutput := flags(cmd)
	a, _ := mustConnect(cmd)
	defer a.close()

	prices := make(map[string]string, len(args))
	for _, arg := range args {
		token := parser.NormalizeTokenSymbol(arg)
		prices[token] = a.facade.Price(cmd.Context(), token)
	}

	if jsonOutput {
		printJSON(prices)
		return
	}
	fmt.Println()
	for _, arg := range args {
		token := parser.NormalizeTokenSymbol(arg)
		fmt.Printf("  %-12s $%s\n", color.YellowString(token), prices[token])
	}
	fmt.Println()
}
