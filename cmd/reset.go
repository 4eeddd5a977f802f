package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset learner data",
	Long: `Reset the student's grid to an empty one at the default guardrail.

Session history is kept. With --locks-only, mastery is kept and only the
locks are cleared so mastered facts come back into practice.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if locksOnly, _ := cmd.Flags().GetBool("locks-only"); locksOnly {
			if err := e.store.ResetLocks(e.ctx, e.student); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unlocked every fact for %s\n", e.student)
			return nil
		}
		if err := e.store.ResetGrid(e.ctx, e.student); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reset the grid for %s\n", e.student)
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("locks-only", false, "Only clear locks; keep mastery")
}
