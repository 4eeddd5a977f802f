package cmd

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/abhisek/mathwiz/internal/fact"
	"github.com/abhisek/mathwiz/internal/grid"
	"github.com/abhisek/mathwiz/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the mastery grid and recent sessions",
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
		limit, _ := cmd.Flags().GetInt("sessions")
		sessions, err := e.store.Sessions(e.ctx, e.student, limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, gridTable(g))
		fmt.Fprintln(out, "★ mastered and locked   ☆ mastered, unlocked   0-2 current streak   · not tried")
		fmt.Fprintf(out, "\nGuardrail %s: %d%% mastered   All facts: %d%% mastered\n",
			g.Guardrail, g.MasteryPercentage(grid.ScopeGuardrail), g.MasteryPercentage(grid.ScopeAll))
		fmt.Fprintf(out, "Answered %d, correct %d\n", g.TotalAttempts, g.TotalCorrect)

		if len(sessions) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, sessionTable(sessions))
		}

		if show, _ := cmd.Flags().GetBool("attempts"); show && len(sessions) > 0 {
			attempts, err := e.store.Attempts(e.ctx, sessions[0].ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nAttempts in %s session %s\n", sessions[0].Type, sessions[0].StartedAt.Local().Format("2006-01-02 15:04"))
			fmt.Fprintln(out, attemptTable(attempts))
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("sessions", 10, "Number of recent sessions to list (0 for all)")
	statsCmd.Flags().Bool("attempts", false, "Also list every answer in the most recent session")
}

// gridTable renders one row per multiplicand and one column per multiplier.
func gridTable(g *grid.Grid) string {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)

	header := table.Row{"×"}
	for n := fact.Min; n <= fact.Max; n++ {
		header = append(header, n)
	}
	w.AppendHeader(header)

	for a := fact.Min; a <= fact.Max; a++ {
		row := table.Row{a}
		for b := fact.Min; b <= fact.Max; b++ {
			row = append(row, cellMark(g.CellFor(fact.MustNew(a, b))))
		}
		w.AppendRow(row)
	}

	cfgs := make([]table.ColumnConfig, 0, grid.Size+1)
	for n := 1; n <= grid.Size+1; n++ {
		cfgs = append(cfgs, table.ColumnConfig{Number: n, Align: text.AlignCenter, AlignHeader: text.AlignCenter})
	}
	w.SetColumnConfigs(cfgs)
	return w.Render()
}

func cellMark(c grid.Cell) string {
	switch {
	case c.Mastered() && c.IsLocked:
		return "★"
	case c.Mastered():
		return "☆"
	case c.Attempts == 0:
		return "·"
	}
	return strconv.Itoa(c.ConsecutiveCorrect)
}

func sessionTable(sessions []store.SessionRecord) string {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row{"Started", "Type", "Status", "Correct", "Accuracy", "Guardrail"})
	for _, s := range sessions {
		correct, accuracy, rail := "-", "-", "-"
		if s.Summary != nil {
			correct = fmt.Sprintf("%d/%d", s.Summary.CorrectAnswers, s.Summary.TotalProblems)
			accuracy = fmt.Sprintf("%.0f%%", s.Summary.Accuracy)
			rail = string(s.Summary.Guardrail)
		}
		w.AppendRow(table.Row{s.StartedAt.Local().Format("2006-01-02 15:04"), s.Type, s.Status, correct, accuracy, rail})
	}
	w.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	return w.Render()
}

func attemptTable(attempts []store.AttemptData) string {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row{"#", "Fact", "Answer", "Result", "Time", "Speed"})
	for _, a := range attempts {
		result := "✗"
		if a.Correct {
			result = "✓"
		}
		w.AppendRow(table.Row{a.AttemptNumber, a.Fact, a.UserAnswer, result, fmt.Sprintf("%.1fs", a.TimeSpentSeconds), a.TimeClass})
	}
	w.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	return w.Render()
}
