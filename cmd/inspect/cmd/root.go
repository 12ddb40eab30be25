// Package cmd implements the inspect tool: offline read access to the
// delegate table and round slates of a node's database.
package cmd

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/emberchain/ember-go/config"
	bstorage "github.com/emberchain/ember-go/storage/badger"
)

var (
	flagDataDir    string
	flagConfigFile string

	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
)

var rootCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect the delegate table and round slates of a node database",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "datadir", "",
		"path to the badger database directory")
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "",
		"path to an optional config file overriding the chain defaults")
	_ = rootCmd.MarkPersistentFlagRequired("datadir")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("inspect failed")
	}
}

// openStores opens the database read-only and wires the stores.
func openStores() (*badger.DB, *bstorage.Accounts, *bstorage.Blocks, config.Config, error) {
	cfg, err := config.Load(flagConfigFile)
	if err != nil {
		return nil, nil, nil, config.Config{}, err
	}

	opts := badger.DefaultOptions(flagDataDir).
		WithReadOnly(true).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, nil, nil, config.Config{}, fmt.Errorf("could not open database %s: %w", flagDataDir, err)
	}

	return db, bstorage.NewAccounts(db), bstorage.NewBlocks(db, cfg), cfg, nil
}
