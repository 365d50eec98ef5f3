package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var txs []string

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Mine a block holding the specified transactions.",
	RunE:  addRun,
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringArrayVarP(&txs, "tx", "t", nil, "Transaction as from:to:amount, repeat for more.")
}

func addRun(cmd *cobra.Command, args []string) error {
	trans := make([]database.Tx, len(txs))
	for i, s := range txs {
		tx, err := parseTx(s)
		if err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
		trans[i] = tx
	}

	st, done, err := openState()
	if err != nil {
		return err
	}
	defer done()

	out, err := st.Append(trans)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), pterm.Success.Sprintfln("block %d mined: nonce[%d] hash[%s]", out.Number, out.Block.Nonce, out.Block.CurrentHash))

	return nil
}

// parseTx converts from:to:amount into a transaction.
func parseTx(s string) (database.Tx, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return database.Tx{}, fmt.Errorf("invalid format %q, expected from:to:amount", s)
	}

	amount, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return database.Tx{}, fmt.Errorf("invalid amount %q: %w", parts[2], err)
	}

	return database.NewTx(amount, parts[0], parts[1]), nil
}
