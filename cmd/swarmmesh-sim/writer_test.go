package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"swarmmesh-sim/internal/config"
	"swarmmesh-sim/internal/sim"
	"swarmmesh-sim/internal/telemetry"
)

func TestNewWritersPrintOnly(t *testing.T) {
	w, tui, cleanup, err := newWriters(config.Default(), writerOptions{printOnly: true, endpoint: "localhost:4001"})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if tui != nil {
		t.Fatalf("unexpected TUI writer")
	}
	cleanup()
	if _, ok := w.(*sim.StdoutWriter); !ok {
		t.Fatalf("expected *sim.StdoutWriter, got %T", w)
	}
}

func TestNewWritersGreptimeFallback(t *testing.T) {
	w, tui, cleanup, err := newWriters(config.Default(), writerOptions{})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if tui != nil {
		t.Fatalf("unexpected TUI writer")
	}
	cleanup()
	if _, ok := w.(*sim.StdoutWriter); !ok {
		t.Fatalf("expected *sim.StdoutWriter, got %T", w)
	}
}

func TestNewWritersLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agents.jsonl")
	w, tui, cleanup, err := newWriters(config.Default(), writerOptions{printOnly: true, logFile: path})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if tui != nil {
		t.Fatalf("unexpected TUI writer")
	}
	defer cleanup()
	if _, ok := w.(*sim.MultiWriter); !ok {
		t.Fatalf("expected *sim.MultiWriter, got %T", w)
	}
	if err := w.Write(telemetry.AgentRow{RunID: "r1", AgentID: "drone_1", Timestamp: time.Now()}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	sw, ok := w.(sim.StateWriter)
	if !ok {
		t.Fatalf("writer does not implement StateWriter")
	}
	if err := sw.WriteState(telemetry.StateRow{RunID: "r1", MasterID: "drone_1", Timestamp: time.Now()}); err != nil {
		t.Fatalf("write state failed: %v", err)
	}
	for _, p := range []string{path, path + ".state"} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s failed: %v", p, err)
		}
		if info.Size() == 0 {
			t.Fatalf("expected %s to be non-empty", p)
		}
	}
}
