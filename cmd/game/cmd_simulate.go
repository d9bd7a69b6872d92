package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tatianab/fallen-god/internal/models"
	"github.com/tatianab/fallen-god/internal/random"
	"github.com/tatianab/fallen-god/internal/simulate"
)

var simulateFlags struct {
	runs     int
	policy   string
	doctrine string
	seed     uint64
	maxSteps int
	record   bool
	quiet    bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Play runs automatically and print what happened",
	RunE:  runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.IntVar(&simulateFlags.runs, "runs", 1, "Number of back-to-back runs")
	f.StringVar(&simulateFlags.policy, "policy", "greedy", "Decision policy: greedy or random")
	f.StringVar(&simulateFlags.doctrine, "doctrine", "", "Doctrine for the greedy policy (default: first in content)")
	f.Uint64Var(&simulateFlags.seed, "seed", 0, "Seed (default: FALLEN_GOD_SEED or random)")
	f.IntVar(&simulateFlags.maxSteps, "max-steps", simulate.DefaultMaxSteps, "Step budget per run")
	f.BoolVar(&simulateFlags.record, "record", false, "Record finished runs in the history database")
	f.BoolVar(&simulateFlags.quiet, "quiet", false, "Print only the per-run summary")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	if simulateFlags.runs < 1 {
		return fmt.Errorf("--runs must be at least 1")
	}
	a, err := newApp(cmd.ErrOrStderr(), appOptions{openHistory: simulateFlags.record})
	if err != nil {
		return err
	}
	defer a.Close()

	seed, err := a.seed(simulateFlags.seed)
	if err != nil {
		return err
	}
	var policy simulate.Policy
	switch simulateFlags.policy {
	case "greedy":
		policy = simulate.Greedy{DoctrineID: models.DoctrineID(simulateFlags.doctrine)}
	case "random":
		policy = simulate.Random{Rng: random.New(seed + 1)}
	default:
		return fmt.Errorf("unknown policy %q", simulateFlags.policy)
	}

	eng := a.newEngine(cmd.Context(), seed)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Seed: %d\n", seed)

	for i := 1; i <= simulateFlags.runs; i++ {
		r, err := simulate.Run(cmd.Context(), eng, policy, simulateFlags.maxSteps)
		if err != nil {
			return fmt.Errorf("run %d: %w", i, err)
		}
		fmt.Fprintf(out, "--- Run %d ---\n", i)
		if !simulateFlags.quiet {
			for _, line := range r.Transcript {
				fmt.Fprintln(out, line)
			}
		}
		fmt.Fprintf(out, "Result: %d/%d encounters, %d casts, %d essence gained, bank %d, outcomes %v\n",
			r.Summary.EncountersCompleted, r.Summary.EncountersTarget, r.Casts,
			r.Summary.EssenceGained, r.Final.Essence, r.Summary.Outcomes)
	}
	return nil
}
