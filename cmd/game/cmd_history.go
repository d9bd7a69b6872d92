package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/tatianab/fallen-god/internal/models"
)

var historyFlags struct {
	limit int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", 20, "Maximum number of runs to list")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.ErrOrStderr(), appOptions{openHistory: true})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	totals, err := a.history.Totals(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if totals.Runs == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}
	fmt.Fprintf(out, "Runs: %d (%d completed, %d abandoned), %d essence gathered\n",
		totals.Runs, totals.Completed, totals.Abandoned, totals.EssenceGained)

	runs, err := a.history.ListRuns(ctx, historyFlags.limit)
	if err != nil {
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "ENDED", "DOCTRINE", "ENCOUNTERS", "ESSENCE", "P/Pa/M/C", "STATUS")
	for _, r := range runs {
		status := "complete"
		if r.Abandoned {
			status = "abandoned"
		}
		t.Row(
			strconv.FormatInt(r.ID, 10),
			r.EndedAt.Local().Format("2006-01-02 15:04"),
			string(r.Doctrine),
			fmt.Sprintf("%d/%d", r.EncountersCompleted, r.EncountersTarget),
			strconv.Itoa(r.EssenceGained),
			fmt.Sprintf("%d/%d/%d/%d",
				r.Outcomes[models.OutcomePerfect], r.Outcomes[models.OutcomePartial],
				r.Outcomes[models.OutcomeMinimal], r.Outcomes[models.OutcomeCatastrophic]),
			status,
		)
	}
	fmt.Fprintln(out, t.Render())
	return nil
}
