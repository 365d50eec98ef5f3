// Package commands contains the admin commands for working with a ledger.
package commands

import (
	"fmt"

	"github.com/ardanlabs/powledger/business/core/ledger"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/logger"
	"github.com/spf13/cobra"
)

var (
	ledgerFile    string
	ledgerStorage string
	ledgerHasher  string
	verbose       bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&ledgerFile, "file", "f", "blockchain.json", "Path to the ledger.")
	rootCmd.PersistentFlags().StringVarP(&ledgerStorage, "storage", "s", ledger.StorageDisk, "Storage holding the ledger (disk|bolt).")
	rootCmd.PersistentFlags().StringVar(&ledgerHasher, "hasher", "", "Hasher for a new ledger (sha256|keccak256).")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log ledger events to stderr.")
}

var rootCmd = &cobra.Command{
	Use:          "admin",
	Short:        "Administer a proof of work ledger",
	SilenceUsage: true,
}

// Execute runs the command line.
func Execute(build string) error {
	rootCmd.Version = build
	return rootCmd.Execute()
}

// openState opens the ledger with the difficulty that is stored with it.
func openState() (*state.State, func(), error) {
	var ev state.EventHandler
	if verbose {
		log, err := logger.New("ADMIN", "stderr")
		if err != nil {
			return nil, nil, fmt.Errorf("constructing logger: %w", err)
		}
		ev = func(v string, args ...any) {
			log.Infow(fmt.Sprintf(v, args...), "traceid", "00000000-0000-0000-0000-000000000000")
		}
	}

	st, err := ledger.Open(ledger.Config{
		Storage:   ledgerStorage,
		Path:      ledgerFile,
		Hasher:    ledgerHasher,
		EvHandler: ev,
	})
	if err != nil {
		return nil, nil, err
	}

	return st, func() { st.Shutdown() }, nil
}
