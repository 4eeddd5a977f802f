package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathwiz/internal/mastery"
)

var bucketsCmd = &cobra.Command{
	Use:   "buckets",
	Short: "Show or change the response time buckets",
}

var bucketsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the fast and medium thresholds in seconds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		t, err := e.store.TimeBuckets(e.ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "fast < %gs, medium < %gs, slow otherwise\n", t.FastSeconds, t.MediumSeconds)
		return nil
	},
}

var bucketsSetCmd = &cobra.Command{
	Use:   "set <fast> <medium>",
	Short: "Save new thresholds in seconds",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fast, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("fast threshold: %w", err)
		}
		medium, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("medium threshold: %w", err)
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		t := mastery.Thresholds{FastSeconds: fast, MediumSeconds: medium}
		if err := e.store.SetTimeBuckets(e.ctx, t); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved: fast < %gs, medium < %gs\n", fast, medium)
		return nil
	},
}

func init() {
	bucketsCmd.AddCommand(bucketsGetCmd)
	bucketsCmd.AddCommand(bucketsSetCmd)
}
