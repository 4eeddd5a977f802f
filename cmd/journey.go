package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathwiz/internal/store"
)

var journeyHints = map[store.Journey]string{
	store.JourneyNeedsPlacement:      "run `mathwiz play` to take the placement",
	store.JourneyPlacementInProgress: "a placement was started but not finished; `mathwiz play` starts a new one",
	store.JourneyPlacementCompleted:  "placement done; `mathwiz play` starts practice",
	store.JourneyPracticeReady:       "`mathwiz play` continues practice",
}

var journeyCmd = &cobra.Command{
	Use:   "journey",
	Short: "Show where the student is in the placement and practice flow",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		j, err := e.store.JourneyState(e.ctx, e.student)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", j, journeyHints[j])
		return nil
	},
}
