package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mathwiz",
	Short: "Multiplication fact practice",
	Long: `Mathwiz helps children master the 1-12 multiplication facts.

A placement session finds the right starting range, then practice sessions
pick the facts that need work until every fact is answered correctly three
times in a row. Run without a subcommand to continue where the student left
off.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd, "")
	},
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides MATHWIZ_DB env var)")
	pf.String("config", "", "Path to config file (default $XDG_CONFIG_HOME/mathwiz/config.toml)")
	pf.String("student", defaultStudent, "Student ID")
	pf.String("grade", "", "Student grade level, used to seed placement")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(journeyCmd)
	rootCmd.AddCommand(guardrailCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(bucketsCmd)
	rootCmd.AddCommand(versionCmd)
}
