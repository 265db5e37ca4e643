package main

import (
	"swarmmesh-sim/internal/config"
	"swarmmesh-sim/internal/sim"
)

// writerOptions selects the sinks a run writes to.
type writerOptions struct {
	printOnly bool
	tui       bool
	colorize  bool
	logFile   string
	endpoint  string
	database  string
}

// newWriters sets up the output writers. Rows go to GreptimeDB when an
// endpoint is configured and print-only is off, to the TUI when requested,
// and to STDOUT otherwise. A log file adds JSONL copies of every row kind.
// It returns the writer, the TUI when one was started, and a cleanup function
// to close any resources.
func newWriters(cfg *config.Config, opts writerOptions) (sim.TelemetryWriter, *sim.TUIWriter, func(), error) {
	cleanup := func() {}

	writer, err := baseWriter(cfg, opts)
	if err != nil {
		return nil, nil, nil, err
	}
	tui, _ := writer.(*sim.TUIWriter)
	if c, ok := writer.(interface{ Close() error }); ok {
		cleanup = func() { _ = c.Close() }
	}
	if opts.logFile == "" {
		return writer, tui, cleanup, nil
	}

	fw, err := sim.NewFileWriter(opts.logFile, opts.logFile+".events", opts.logFile+".state", opts.logFile+".heartbeats")
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	base := cleanup
	cleanup = func() {
		base()
		_ = fw.Close()
	}
	return sim.NewMultiWriter(writer, fw), tui, cleanup, nil
}

// baseWriter chooses the primary sink.
func baseWriter(cfg *config.Config, opts writerOptions) (sim.TelemetryWriter, error) {
	if !opts.printOnly && opts.endpoint != "" {
		return sim.NewGreptimeDBWriter(opts.endpoint, opts.database)
	}
	if opts.tui {
		return sim.NewTUIWriter(cfg), nil
	}
	return sim.NewStdoutWriter(cfg, opts.colorize), nil
}
