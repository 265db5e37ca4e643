package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"swarmmesh-sim/internal/config"
	"swarmmesh-sim/internal/sim"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay an agent telemetry log file",
	Long:  "replay feeds agent rows from a JSONL log back into GreptimeDB or STDOUT.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		writer, _, cleanup, err := newWriters(config.Default(), writerOptions{
			printOnly: replayPrintOnly,
			endpoint:  viper.GetString("greptime.endpoint"),
			database:  viper.GetString("greptime.database"),
		})
		if err != nil {
			return err
		}
		defer cleanup()
		return sim.ReplayLogFile(cmd.Context(), replayInput, writer, replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to agent telemetry log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier (0 replays without delay)")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print rows to STDOUT instead of writing to GreptimeDB")
	_ = replayCmd.MarkFlagRequired("input")
}
