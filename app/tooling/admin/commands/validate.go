package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate every block in the ledger.",
	RunE:  validateRun,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateRun(cmd *cobra.Command, args []string) error {
	st, done, err := openState()
	if err != nil {
		return err
	}
	defer done()

	vr := st.VerifyChain()

	if vr.Err != nil {
		fmt.Fprint(cmd.OutOrStdout(), pterm.Error.Sprintfln("ledger is not valid: blocks[%d] difficulty[%d]: %s", vr.Blocks, vr.Difficulty, vr.Err))
		return fmt.Errorf("validation failed: %w", vr.Err)
	}

	fmt.Fprint(cmd.OutOrStdout(), pterm.Success.Sprintfln("ledger is valid: blocks[%d] difficulty[%d]", vr.Blocks, vr.Difficulty))

	return nil
}
