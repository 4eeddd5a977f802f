package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathwiz/internal/fault"
	"github.com/abhisek/mathwiz/internal/flush"
	"github.com/abhisek/mathwiz/internal/grid"
	"github.com/abhisek/mathwiz/internal/session"
	"github.com/abhisek/mathwiz/internal/store"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Run a placement or practice session in the terminal",
	Long: `Run one session over stdin and stdout.

Without --type the session type follows the student's journey: placement
until one has been completed, practice afterwards. A positive reveal delay
(reveal-delay-ms in the config file) keeps each result on screen for that
long before the next problem appears.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var typ session.Type
		if s, _ := cmd.Flags().GetString("type"); s != "" {
			t, err := session.ParseType(s)
			if err != nil {
				return err
			}
			typ = t
		}
		return runPlay(cmd, typ)
	},
}

func init() {
	playCmd.Flags().String("type", "", "Session type: placement or practice (default: follow the journey)")
	playCmd.Flags().String("bounds", "", "Practice only: limit facts to 1-5, 1-9 or 1-12 for this session")
}

// runPlay opens the environment and plays one session. An empty typ picks
// placement or practice from the journey state.
func runPlay(cmd *cobra.Command, typ session.Type) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	var bounds grid.Guardrail
	if f := cmd.Flags().Lookup("bounds"); f != nil && f.Value.String() != "" {
		if bounds, err = grid.ParseGuardrail(f.Value.String()); err != nil {
			return err
		}
	}

	if typ == "" {
		j, err := e.store.JourneyState(e.ctx, e.student)
		if err != nil {
			return fmt.Errorf("journey state: %w", err)
		}
		typ = session.TypePractice
		if j == store.JourneyNeedsPlacement || j == store.JourneyPlacementInProgress {
			typ = session.TypePlacement
		}
	}

	thresholds, err := e.store.TimeBuckets(e.ctx)
	if err != nil {
		return err
	}
	retry := flush.DefaultRetryPolicy
	retry.MaxTries = e.cfg.Flush.MaxTries

	opts := []session.Option{
		session.WithThresholds(thresholds),
		session.WithPlacementLength(e.cfg.Session.PlacementLength),
		session.WithPracticeLength(e.cfg.Session.PracticeLength),
		session.WithRevealDelay(e.cfg.RevealDelay()),
		session.WithRetry(retry),
	}
	var revealed chan *session.Problem
	if e.cfg.RevealDelay() > 0 {
		revealed = make(chan *session.Problem, 1)
		opts = append(opts, session.OnAdvance(func(p *session.Problem) { revealed <- p }))
	}
	eng := session.New(e.store, opts...)
	return play(e.ctx, eng, typ, bounds, cmd.InOrStdin(), cmd.OutOrStdout(), time.Now, revealed)
}

// play drives eng over in and out until the session completes or the input
// closes, which abandons it. When revealed is non-nil the engine advances on
// its own reveal timer and delivers the next problem there; otherwise play
// advances as soon as the result is printed.
func play(ctx context.Context, eng *session.Engine, typ session.Type, bounds grid.Guardrail, in io.Reader, out io.Writer, now func() time.Time, revealed <-chan *session.Problem) error {
	p, err := eng.Start(ctx, typ, bounds)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	fmt.Fprintf(out, "Starting %s session (%d problems).\n\n", typ, p.Total)

	scanner := bufio.NewScanner(in)
	for p != nil {
		fmt.Fprintf(out, "── Problem %d/%d ──\n", p.Index+1, p.Total)
		fmt.Fprintf(out, "%d × %d = ", p.Fact.Multiplicand, p.Fact.Multiplier)

		shown := now()
		if !scanner.Scan() {
			fmt.Fprintln(out, "\n(input closed, session abandoned)")
			return eng.Abandon(ctx)
		}
		res, err := eng.SubmitAnswer(ctx, scanner.Text(), now().Sub(shown))
		if errors.Is(err, fault.ErrValidation) {
			fmt.Fprintln(out, "Please type a whole number.")
			continue
		}
		if err != nil {
			return err
		}

		if res.Correct {
			fmt.Fprintf(out, "\033[32m✓ Correct!\033[0m (%s)\n", res.TimeClass)
		} else {
			fmt.Fprintf(out, "\033[31m✗ Wrong.\033[0m %s = %d\n", res.Fact, res.CorrectAnswer)
		}
		if res.Mastered {
			fmt.Fprintf(out, "★ %s mastered!\n", res.Fact)
		}
		fmt.Fprintln(out)

		if revealed != nil {
			select {
			case p = <-revealed:
			case <-ctx.Done():
				if err := eng.Abandon(context.WithoutCancel(ctx)); err != nil {
					return err
				}
				return ctx.Err()
			}
			continue
		}
		if p, err = eng.Advance(ctx); err != nil {
			return err
		}
	}

	sum, err := eng.Complete(ctx)
	if errors.Is(err, fault.ErrPersistence) {
		fmt.Fprintln(out, "Saving failed, trying again...")
		sum, err = eng.Complete(ctx)
	}
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	printSummary(out, sum)
	return nil
}

func printSummary(out io.Writer, s *session.Summary) {
	fmt.Fprintf(out, "── Summary: %d/%d correct (%.0f%%) ──\n", s.CorrectAnswers, s.TotalProblems, s.Accuracy)
	fmt.Fprintf(out, "Average time: %.1fs  fast %d, medium %d, slow %d\n",
		s.AverageTimeSeconds, s.Fast, s.Medium, s.Slow)
	if len(s.Mastered) > 0 {
		fmt.Fprintf(out, "Mastered: %v\n", s.Mastered)
	}
	if len(s.IncorrectFacts) > 0 {
		fmt.Fprintf(out, "To review: %v\n", s.IncorrectFacts)
	}
	fmt.Fprintf(out, "Guardrail: %s\n", s.Guardrail)
}
