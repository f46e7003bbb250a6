package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dex-seasonal/pkg/session"
)

var watchWallet bool

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Connect a wallet and show the session",
	Long: `Connect the selected wallet and show its address, chain and native balance.

With --watch, keep the session open and follow wallet events: an EVM chain
change reconnects, a Solana endpoint failure disconnects.

Examples:
  dex-seasonal wallet --wallet evm
  dex-seasonal wallet --wallet solana --watch`,
	Run: runWallet,
}

func init() {
	rootCmd.AddCommand(walletCmd)

	walletCmd.Flags().BoolVar(&watchWallet, "watch", false, "Follow wallet events until interrupted")
}

func runWallet(cmd *cobra.Command, args []string) {
	_, jsonOutput := flags(cmd)
	a, sess := mustConnect(cmd)
	defer a.close()

	if !watchWallet {
		if jsonOutput {
			printJSON(sess)
		} else {
			displaySession(sess)
		}
		return
	}

	ctx := cmd.Context()
	updates, unsubscribe := a.session.Subscribe()
	defer unsubscribe()
	go a.session.Run(ctx)

	displaySession(sess)
	fmt.Println("Watching wallet events. Press Ctrl+C to stop.")
	for {
		select {
		case <-ctx.Done():
			_ = a.session.Disconnect(ctx)
			return
		case s := <-updates:
			if jsonOutput {
				printJSON(s)
				continue
			}
			displaySession(s)
		}
	}
}

func displaySession(s session.Session) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                       WALLET")
	fmt.Println(strings.Repeat("=", 60))

	if !s.Connected {
		color.Yellow("\n  Not connected")
		fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
		return
	}
	fmt.Printf("\n  Wallet:   %s\n", s.Kind)
	fmt.Printf("  Address:  %s\n", color.CyanString(s.Address))
	if s.ChainID != 0 {
		fmt.Printf("  Chain ID: %d\n", s.ChainID)
	}
	fmt.Printf("  Balance:  %s %s\n", s.Balance, color.YellowString(s.Kind.NativeSymbol()))

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
