package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dex-seasonal/pkg/registry"
	"dex-seasonal/pkg/wallet"
)

var (
	filterChain  string
	filterSymbol string
)

var tokensCmd = &cobra.Command{
	Use:     "tokens",
	Aliases: []string{"list-tokens", "ls"},
	Short:   "List the built-in token registry",
	Long: `List the tokens that can be referenced by symbol. Any other token can still
be used by passing its address (EVM) or mint (Solana).

Examples:
  dex-seasonal tokens
  dex-seasonal tokens --chain solana
  dex-seasonal tokens --symbol USD`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterChain, "chain", "", "Filter by chain family: evm or solana")
	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
}

func runListTokens(cmd *cobra.Command, args []string) {
	_, jsonOutput := flags(cmd)

	kinds := []wallet.Kind{wallet.KindEVM, wallet.KindSolana}
	if filterChain != "" {
		kind, err := wallet.ParseKind(filterChain)
		if err != nil {
			exitWith(err, jsonOutput)
		}
		kinds = []wallet.Kind{kind}
	}

	// Apply filters
	filtered := make(map[wallet.Kind][]registry.Token, len(kinds))
	total := 0
	for _, kind := range kinds {
		for _, token := range registry.Tokens(kind) {
			if filterSymbol != "" && !strings.Contains(token.Symbol, strings.ToUpper(filterSymbol)) {
				continue
			}
			filtered[kind] = append(filtered[kind], token)
			total++
		}
	}

	// Output
	if jsonOutput {
		printJSON(filtered)
		return
	}
	displayTokens(kinds, filtered, total)
}

func displayTokens(kinds []wallet.Kind, tokens map[wallet.Kind][]registry.Token, total int) {
	if total == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                              KNOWN TOKENS")
	fmt.Println(strings.Repeat("=", 90))

	for _, kind := range kinds {
		if len(tokens[kind]) == 0 {
			continue
		}
		color.Cyan("\n%s", strings.ToUpper(kind.String()))
		fmt.Println(strings.Repeat("-", 90))

		for _, token := range tokens[kind] {
			address := token.Address
			if token.Native {
				address = "native (wraps " + address + ")"
			}
			if len(address) > 60 {
				address = address[:57] + "..."
			}

			fmt.Printf("  %-10s  %2d decimals  %s\n",
				color.YellowString(token.Symbol),
				token.Decimals,
				color.HiBlackString(address))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens\n\n", total)
}
