package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/emberchain/ember-go/storage"
)

var flagVotersOnly bool

var delegatesCmd = &cobra.Command{
	Use:   "delegates",
	Short: "Print the delegate table ordered by rank",
	RunE:  runDelegates,
}

func init() {
	rootCmd.AddCommand(delegatesCmd)

	delegatesCmd.Flags().BoolVar(&flagVotersOnly, "voters-only", false,
		"only show delegates with a positive vote")
}

func runDelegates(*cobra.Command, []string) error {
	db, accounts, _, _, err := openStores()
	if err != nil {
		return err
	}
	defer db.Close()

	delegates, err := accounts.Delegates(storage.DelegateFilter{VotersOnly: flagVotersOnly})
	if err != nil {
		return fmt.Errorf("could not read delegate table: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tUSERNAME\tADDRESS\tVOTE\tWEIGHT\tBALANCE\tPRODUCED\tMISSED")
	for _, delegate := range delegates {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			delegate.Rank, delegate.Username, delegate.Address,
			delegate.Vote, delegate.VotesWeight, delegate.Balance,
			delegate.ProducedBlocks, delegate.MissedBlocks)
	}
	return w.Flush()
}
