package cli

import (
	"github.com/mev-engine/sandwich-arb-engine/internal/tui"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Start terminal-based monitoring interface",
	Long: `Launch an interactive terminal-based monitoring UI that polls the engine's
status API and shows its status, uptime, strategy counters, and the number of
recent opportunities. Press 'r' to refresh manually, 'q' to quit.`,
	RunE: runMonitor,
}

var (
	refreshRate int
	compactMode bool
)

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().IntVarP(&refreshRate, "refresh", "r", 1000, "refresh rate in milliseconds")
	monitorCmd.Flags().BoolVarP(&compactMode, "compact", "c", false, "compact display mode (accepted, but the display does not change)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	config := tui.Config{
		RefreshRate: refreshRate,
		CompactMode: compactMode,
		Debug:       cmd.Flag("debug").Value.String() == "true",
	}

	return tui.StartMonitor(config)
}
