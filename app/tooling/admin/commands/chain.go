package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print every block in the ledger.",
	RunE:  chainRun,
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the latest block in the ledger.",
	RunE:  latestRun,
}

func init() {
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(latestCmd)
}

func chainRun(cmd *cobra.Command, args []string) error {
	st, done, err := openState()
	if err != nil {
		return err
	}
	defer done()

	snap := st.Snapshot()

	data := pterm.TableData{
		{"Block", "Time", "Trans", "Nonce", "Hash", "Prev Hash"},
	}
	for i, block := range snap.Blocks() {
		data = append(data, []string{
			strconv.Itoa(i),
			time.Unix(block.TimeStamp, 0).UTC().Format(time.RFC3339),
			strconv.Itoa(len(block.Transactions)),
			strconv.FormatUint(block.Nonce, 10),
			short(block.CurrentHash),
			short(block.PrevHash),
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), table)
	fmt.Fprintf(cmd.OutOrStdout(), "blocks: %d difficulty: %d hasher: %s\n", snap.Len(), snap.Difficulty(), snap.Hasher())

	return nil
}

func latestRun(cmd *cobra.Command, args []string) error {
	st, done, err := openState()
	if err != nil {
		return err
	}
	defer done()

	snap := st.Snapshot()

	block, exists := snap.LatestBlock()
	if !exists {
		return database.ErrEmptyChain
	}

	fmt.Fprint(cmd.OutOrStdout(), renderBlock(snap.Len()-1, snap.Difficulty(), block))

	return nil
}

// renderBlock formats a block and its transactions for the terminal.
func renderBlock(number int, difficulty int, block database.Block) string {
	info := pterm.Sprintfln("number:     %d", number) +
		pterm.Sprintfln("difficulty: %d", difficulty) +
		pterm.Sprintfln("time:       %s", time.Unix(block.TimeStamp, 0).UTC().Format(time.RFC3339)) +
		pterm.Sprintfln("nonce:      %d", block.Nonce) +
		pterm.Sprintfln("hash:       %s", block.CurrentHash) +
		pterm.Sprintfln("prev hash:  %s", block.PrevHash)

	data := pterm.TableData{{"#", "From", "To", "Amount"}}
	for i, tx := range block.Transactions {
		data = append(data, []string{
			strconv.Itoa(i),
			tx.From,
			tx.To,
			strconv.FormatFloat(tx.Amount, 'f', -1, 64),
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		table = err.Error()
	}

	box := pterm.DefaultBox.WithTitle(pterm.LightYellow("|LATEST BLOCK|")).WithTitleTopCenter()

	return box.Sprint(info+table) + "\n"
}

// short abbreviates a hash for table output.
func short(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16] + "..."
}
