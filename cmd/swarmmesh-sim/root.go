package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"swarmmesh-sim/internal/logging"
)

var (
	envFile   string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "swarmmesh-sim",
	Short: "Drone swarm mesh simulation toolkit",
	Long: `swarmmesh-sim runs a deterministic drone swarm with flocking motion,
a simulated mesh network under jamming, leader election and task allocation,
and replays the telemetry it records.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnv(cmd, envFile); err != nil {
			return err
		}
		log := logging.New(viper.GetString("log_level"), viper.GetString("log_format"))
		slog.SetDefault(log)
		cmd.SetContext(logging.NewContext(cmd.Context(), log))
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadEnv reads a dotenv file into the process environment. A missing
// default file is not an error.
func loadEnv(cmd *cobra.Command, path string) error {
	err := godotenv.Load(path)
	if err == nil || (errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("env-file")) {
		return nil
	}
	return fmt.Errorf("load env file: %w", err)
}

func bindEnv(key string, env ...string) {
	_ = viper.BindEnv(append([]string{key}, env...)...)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before flags are resolved")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	bindEnv("log_level", "SWARM_LOG_LEVEL")
	bindEnv("log_format", "SWARM_LOG_FORMAT")
	bindEnv("greptime.endpoint", "GREPTIMEDB_ENDPOINT")
	bindEnv("greptime.database", "GREPTIMEDB_DATABASE")
	viper.SetDefault("greptime.database", "public")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(scenariosCmd)
}
