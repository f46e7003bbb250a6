package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dex-seasonal/pkg/types"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <tx>",
	Short: "Check the status of a transaction",
	Long: `Check whether a transaction sent by the connected wallet's chain is pending,
confirmed, finalized or failed. Pass an EVM transaction hash or a Solana
signature, matching --wallet.

Examples:
  dex-seasonal status 0x5c50...e9a1 --wallet evm
  dex-seasonal status 4sGj...Uj3 --wallet solana --watch
  dex-seasonal status 0x5c50...e9a1 --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&watchStatus, "watch", false, "Poll until the transaction is settled")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	id := args[0]
	_, jsonOutput := flags(cmd)
	a, _ := mustConnect(cmd)
	defer a.close()

	if watchStatus {
		if jsonOutput {
			fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
			return
		}
		watchTxStatus(cmd.Context(), a, id)
		return
	}

	var status types.TxStatus
	err := a.spin(" Checking transaction status...", func() error {
		var serr error
		status, serr = a.facade.TxStatus(cmd.Context(), id)
		return serr
	})
	if err != nil {
		a.close()
		exitWith(err, jsonOutput)
	}

	if jsonOutput {
		printJSON(status)
	} else {
		displayStatus(status)
	}
}

func watchTxStatus(ctx context.Context, a *app, id string) {
	if watchInterval <= 0 {
		watchInterval = 5
	}
	fmt.Printf("\nWatching transaction %s\n", color.CyanString(id))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	for {
		status, err := a.facade.TxStatus(ctx, id)
		if err != nil {
			color.Red("Error: %v", err)
		} else {
			displayStatus(status)
			if status.Done() {
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func displayStatus(status types.TxStatus) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                     TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Transaction: %s\n", color.CyanString(status.ID))
	fmt.Printf("  Status:      %s\n", getColoredStatus(status.State))
	if status.Block > 0 {
		fmt.Printf("  Block/Slot:  %d\n", status.Block)
	}
	if status.Error != "" {
		fmt.Printf("  Error:       %s\n", color.RedString(status.Error))
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func getColoredStatus(state types.TxState) string {
	label := strings.ToUpper(string(state))

	switch state {
	case types.TxConfirmed, types.TxFinalized:
		return color.GreenString(label)
	case types.TxPending:
		return color.YellowString(label)
	case types.TxFailed:
		return color.RedString(label)
	default:
		return label
	}
}
