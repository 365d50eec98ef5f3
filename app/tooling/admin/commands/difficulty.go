package commands

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var difficultyCmd = &cobra.Command{
	Use:   "difficulty [n]",
	Short: "Print or change the ledger difficulty.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  difficultyRun,
}

func init() {
	rootCmd.AddCommand(difficultyCmd)
}

func difficultyRun(cmd *cobra.Command, args []string) error {
	st, done, err := openState()
	if err != nil {
		return err
	}
	defer done()

	if len(args) == 0 {
		difficulty, blocks := st.Difficulty()
		fmt.Fprintf(cmd.OutOrStdout(), "difficulty: %d blocks: %d\n", difficulty, blocks)
		return nil
	}

	difficulty, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("parsing difficulty %q: %w", args[0], err)
	}

	old, err := st.SetDifficulty(difficulty)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), pterm.Success.Sprintfln("difficulty updated from %d to %d", old, difficulty))

	return nil
}
