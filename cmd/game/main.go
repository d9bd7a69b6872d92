// fallen-god is a roguelite about a deity answering mortal crises.
//
// Usage:
//
//	fallen-god [play]
//	fallen-god simulate [--runs=N] [--policy=greedy|random] [--doctrine=<id>] [--record]
//	fallen-god history [--limit=N]
//	fallen-god reset --yes
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "fallen-god",
	Short: "Answer mortal crises without breaking yourself",
	Long: "Fallen God is a turn-based roguelite. Each run is a short string of\n" +
		"crises; cast abilities to relieve pressure while keeping strain and\n" +
		"consequence in check, then spend the essence you gathered on upgrades.",
	RunE: runPlay,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
