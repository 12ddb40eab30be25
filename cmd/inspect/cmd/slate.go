package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberchain/ember-go/consensus/dpos"
	roundmath "github.com/emberchain/ember-go/consensus/rounds"
)

var flagHeight uint64

var slateCmd = &cobra.Command{
	Use:   "slate",
	Short: "Print the delegate slate of the round containing a height",
	RunE:  runSlate,
}

func init() {
	rootCmd.AddCommand(slateCmd)

	slateCmd.Flags().Uint64Var(&flagHeight, "height", 1,
		"block height whose round slate to print")
}

func runSlate(*cobra.Command, []string) error {
	db, accounts, blocks, cfg, err := openStores()
	if err != nil {
		return err
	}
	defer db.Close()

	generator, err := dpos.NewGenerator(log, cfg, accounts, blocks)
	if err != nil {
		return err
	}
	slate, err := generator.GenerateList(flagHeight)
	if err != nil {
		return fmt.Errorf("could not generate slate: %w", err)
	}

	round := roundmath.RoundOf(flagHeight, cfg.ActiveDelegates)
	fmt.Printf("round %d (heights %d..%d)\n",
		round,
		roundmath.FirstInRound(round, cfg.ActiveDelegates),
		roundmath.LastInRound(round, cfg.ActiveDelegates))
	for slot, pk := range slate {
		fmt.Printf("%3d  %s\n", slot, pk.Hex())
	}
	return nil
}
