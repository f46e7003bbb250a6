package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dex-seasonal/pkg/parser"
)

var balanceOwner string

var balanceCmd = &cobra.Command{
	Use:   "balance [token...]",
	Short: "Show native and token balances of the connected wallet",
	Long: `Show the native balance of the connected wallet, plus any tokens given.
Balances that cannot be read are shown as 0.

Examples:
  dex-seasonal balance
  dex-seasonal balance USDC DAI --wallet evm
  dex-seasonal balance USDC --owner 9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM`,
	Run: runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)

	balanceCmd.Flags().StringVar(&balanceOwner, "owner", "", "Read balances of another address")
}

func runBalance(cmd *cobra.Command, args []string) {
	_, jsonOutput := flags(cmd)
	a, sess := mustConnect(cmd)
	defer a.close()
	ctx := cmd.Context()

	owner := sess.Address
	native := sess.Balance
	if balanceOwner != "" {
		owner = balanceOwner
		native = a.facade.TokenBalance(ctx, "", owner)
	}

	type row struct {
		Token   string `json:"token"`
		Balance string `json:"balance"`
	}
	rows := []row{{Token: sess.Kind.NativeSymbol(), Balance: native}}
	for _, arg := range args {
		token := parser.NormalizeTokenSymbol(arg)
		rows = append(rows, row{Token: token, Balance: a.facade.TokenBalance(ctx, token, balanceOwner)})
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"address": owner, "wallet": sess.Kind, "balances": rows})
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                      BALANCES")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("\n  Address: %s (%s)\n\n", color.CyanString(owner), sess.Kind)
	for _, r := range rows {
		fmt.Printf("  %-12s %s\n", color.YellowString(r.Token), r.Balance)
	}
	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
