package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dex-seasonal/pkg/types"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent transactions of the Solana wallet",
	Long: `List the most recent transaction signatures of the connected Solana wallet.

Examples:
  dex-seasonal history --wallet solana
  dex-seasonal history --limit 25 --json`,
	Run: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of signatures to show")
}

func runHistory(cmd *cobra.Command, args []string) {
	_, jsonOutput := flags(cmd)
	a, sess := mustConnect(cmd)
	defer a.close()

	var sigs []types.SignatureInfo
	err := a.spin(" Fetching history...", func() error {
		var herr error
		sigs, herr = a.facade.RecentSignatures(cmd.Context(), historyLimit)
		return herr
	})
	if err != nil {
		a.close()
		exitWith(err, jsonOutput)
	}

	if jsonOutput {
		printJSON(sigs)
		return
	}
	if len(sigs) == 0 {
		fmt.Printf("\nNo transactions found for %s\n\n", sess.Address)
		return
	}

	fmt.Printf("\nRecent transactions of %s\n\n", color.CyanString(sess.Address))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIGNATURE\tSLOT\tTIME\tSTATUS")
	for _, s := range sigs {
		when := "-"
		if s.BlockTime > 0 {
			when = time.Unix(s.BlockTime, 0).Format("2006-01-02 15:04:05")
		}
		state := color.GreenString("ok")
		if s.Failed {
			state = color.RedString("failed")
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", s.Signature, s.Slot, when, state)
	}
	w.Flush()
	fmt.Println()
}
