package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tatianab/fallen-god/internal/models"
	"github.com/tatianab/fallen-god/internal/tui"
)

var resetFlags struct {
	yes bool
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the saved game, including permanent progress",
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetFlags.yes, "yes", false, "Confirm the reset")
}

func runReset(cmd *cobra.Command, _ []string) error {
	if !resetFlags.yes {
		return fmt.Errorf("refusing to erase progress without --yes")
	}
	a, err := newApp(cmd.ErrOrStderr(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := models.DeleteSnapshot(a.cfg.SaveDir, tui.SnapshotName); err != nil {
		return err
	}
	a.log.Info("snapshot deleted", "dir", a.cfg.SaveDir)
	fmt.Fprintln(cmd.OutOrStdout(), "Saved game erased.")
	return nil
}
