package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tatianab/fallen-god/internal/logging"
	"github.com/tatianab/fallen-god/internal/tui"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal, resuming the saved game if there is one",
	RunE:  runPlay,
}

func runPlay(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.ErrOrStderr(), appOptions{logToFile: true, openHistory: true})
	if err != nil {
		return err
	}
	defer a.Close()

	seed, err := a.seed(0)
	if err != nil {
		return err
	}
	eng := a.newEngine(cmd.Context(), seed)
	if err := a.restore(eng); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	return tui.Run(eng, a.cfg.SaveDir, logging.Component(a.log, "tui"))
}
