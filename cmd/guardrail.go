package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathwiz/internal/grid"
)

var guardrailCmd = &cobra.Command{
	Use:   "guardrail",
	Short: "Show or change the range of facts offered in practice",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		g, err := e.store.FetchGrid(e.ctx, e.student)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), g.Guardrail)
		return nil
	},
}

var guardrailSetCmd = &cobra.Command{
	Use:       "set <1-5|1-9|1-12>",
	Short:     "Set the guardrail",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"1-5", "1-9", "1-12"},
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := grid.ParseGuardrail(args[0])
		if err != nil {
			return err
		}
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.store.SetGuardrail(e.ctx, e.student, g); err != nil {
			return err
		}
		if unlock, _ := cmd.Flags().GetBool("unlock"); unlock {
			if err := e.store.ResetLocks(e.ctx, e.student); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Guardrail set to %s\n", g)
		return nil
	},
}

func init() {
	guardrailSetCmd.Flags().Bool("unlock", false, "Also unlock mastered facts so they are practiced again")
	guardrailCmd.AddCommand(guardrailSetCmd)
}
