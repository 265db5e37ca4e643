package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"swarmmesh-sim/internal/admin"
	"swarmmesh-sim/internal/config"
	"swarmmesh-sim/internal/logging"
	"swarmmesh-sim/internal/scenario"
	"swarmmesh-sim/internal/sim"
)

var (
	simPrintOnly  bool
	simConfigPath string
	simSchemaPath string
	simTick       time.Duration
	simSeed       int64
	simLogFile    string
	simScenario   string
	simAdminAddr  string
	simTUI        bool
	simMission    bool
	simDuration   time.Duration
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the real-time swarm simulator",
	Long: `simulate runs the swarm on a wall-clock ticker, writing agent telemetry,
election events and swarm state to the configured sinks. An optional scenario
scripts commands on the simulated timeline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.FromContext(cmd.Context())

		cfg := config.Default()
		if simConfigPath != "" {
			loaded, err := config.Load(simConfigPath, simSchemaPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if d := viper.GetDuration("tick_interval"); d > 0 {
			cfg.TickInterval = d
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = simSeed
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		var sc *scenario.Scenario
		if simScenario != "" {
			var err error
			if sc, err = scenario.Lookup(simScenario); err != nil {
				return err
			}
		}

		runID := viper.GetString("run_id")
		if runID == "" {
			runID = uuid.New().String()
		}

		useTUI := simTUI && !simPrintOnly && term.IsTerminal(int(os.Stdout.Fd()))
		writer, tui, cleanup, err := newWriters(cfg, writerOptions{
			printOnly: simPrintOnly,
			tui:       useTUI,
			colorize:  term.IsTerminal(int(os.Stdout.Fd())),
			logFile:   simLogFile,
			endpoint:  viper.GetString("greptime.endpoint"),
			database:  viper.GetString("greptime.database"),
		})
		if err != nil {
			return err
		}
		defer cleanup()
		if tui != nil {
			log = logging.NewWriter(tui.LogWriter(), viper.GetString("log_level"), viper.GetString("log_format"))
		}

		ctx, stop := signal.NotifyContext(logging.NewContext(cmd.Context(), log), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if simDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, simDuration)
			defer cancel()
		}

		simulator := sim.NewSimulator(runID, cfg, writer, sim.WithLogger(log))
		if sc != nil {
			if err := simulator.ApplyScenario(sc); err != nil {
				return err
			}
		}
		if simMission {
			simulator.StartMission()
		}
		if tui != nil {
			tui.SetController(simulator)
		}

		if addr := viper.GetString("admin_addr"); addr != "" {
			srv := admin.NewServer(simulator)
			srv.SetLogger(log)
			go func() {
				if err := srv.Start(ctx, addr); err != nil {
					log.Error("admin server failed", "err", err)
				}
			}()
			if tui != nil {
				tui.SetAdminStatus(true)
			}
		}

		log.Info("simulation configured", "run_id", runID, "agents", cfg.DroneCount, "seed", cfg.Seed, "scenario", simScenario)
		simulator.Run(ctx)
		log.Info("swarm simulation stopped", "elections", simulator.Metrics().Elections)
		return nil
	},
}

func init() {
	f := simulateCmd.Flags()
	f.BoolVar(&simPrintOnly, "print-only", false, "Print rows to STDOUT instead of writing to GreptimeDB")
	f.StringVar(&simConfigPath, "config", "", "Path to swarm configuration YAML (defaults are used when empty)")
	f.StringVar(&simSchemaPath, "schema", "schemas/swarm.cue", "Path to CUE schema file")
	f.DurationVar(&simTick, "tick", 0, "Tick interval override (e.g. 50ms)")
	f.Int64Var(&simSeed, "seed", 0, "Random seed override")
	f.StringVar(&simLogFile, "log-file", "", "Path to export agent rows as JSONL; events, state and heartbeats go to sibling files")
	f.StringVar(&simScenario, "scenario", "", "Built-in scenario name or scenario YAML path")
	f.StringVar(&simAdminAddr, "admin-addr", ":8080", "Admin HTTP listen address (empty disables)")
	f.BoolVar(&simTUI, "tui", true, "Render the terminal UI when STDOUT is a terminal")
	f.BoolVar(&simMission, "mission", false, "Start the mission immediately")
	f.DurationVar(&simDuration, "duration", 0, "Stop after this long (0 runs until interrupted)")

	_ = viper.BindPFlag("tick_interval", f.Lookup("tick"))
	_ = viper.BindPFlag("admin_addr", f.Lookup("admin-addr"))
	bindEnv("tick_interval", "SWARM_TICK_INTERVAL")
	bindEnv("run_id", "SWARM_RUN_ID")
	bindEnv("admin_addr", "SWARM_ADMIN_ADDR")
}
