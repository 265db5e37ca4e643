// Writer implementation printing telemetry to STDOUT
package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"swarmmesh-sim/internal/config"
	"swarmmesh-sim/internal/swarm"
	"swarmmesh-sim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorWhite   = "\x1b[37m"
	colorGray    = "\x1b[90m"
)

// StdoutWriter prints rows to STDOUT, either as JSON lines or as colorized
// human-readable lines preceded by a one-time configuration overview.
type StdoutWriter struct {
	cfg      *config.Config
	out      io.Writer
	colorize bool
	once     sync.Once
}

// NewStdoutWriter creates a StdoutWriter writing to os.Stdout.
func NewStdoutWriter(cfg *config.Config, colorize bool) *StdoutWriter {
	return &StdoutWriter{cfg: cfg, out: os.Stdout, colorize: colorize}
}

func (w *StdoutWriter) printJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

func (w *StdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}
	fmt.Fprintln(w.out, "Simulation Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Agents:\t%d\n", w.cfg.DroneCount)
	fmt.Fprintf(tw, "Area:\t%.0fx%.0f (margin %.0f)\n", w.cfg.Area.Width, w.cfg.Area.Height, w.cfg.Area.Margin)
	fmt.Fprintf(tw, "Formation:\t%s\n", w.cfg.Formation.Kind)
	fmt.Fprintf(tw, "Tick / Heartbeat:\t%s / %s\n", w.cfg.TickInterval, w.cfg.HeartbeatInterval)
	fmt.Fprintf(tw, "Heartbeat Timeout:\t%s\n", w.cfg.HeartbeatTimeout)
	fmt.Fprintf(tw, "Handoff Threshold:\t%.0f%%\n", w.cfg.HandoffThreshold)
	fmt.Fprintf(tw, "Seed:\t%d\n", w.cfg.Seed)
	tw.Flush()
	fmt.Fprintln(w.out)
}

func healthColor(h string) string {
	switch swarm.Health(h) {
	case swarm.HealthWarning:
		return colorYellow
	case swarm.HealthCritical, swarm.HealthDestroyed:
		return colorRed
	}
	return colorGreen
}

func roleColor(role string, phone bool) string {
	switch {
	case phone:
		return colorCyan
	case swarm.Role(role) == swarm.RoleMaster:
		return colorMagenta
	}
	return colorWhite
}

func eventColor(kind string) string {
	switch swarm.EventKind(kind) {
	case swarm.EventMasterLost, swarm.EventJammingDetected:
		return colorRed
	case swarm.EventElectionComplete, swarm.EventMasterAnnounce:
		return colorMagenta
	}
	return colorBlue
}

func stamp(ts time.Time) string {
	return fmt.Sprintf("%s[%s]%s", colorGray, ts.Format("15:04:05.000"), colorReset)
}

// Write outputs a single agent row.
func (w *StdoutWriter) Write(row telemetry.AgentRow) error {
	if !w.colorize {
		return w.printJSON(row)
	}
	w.once.Do(w.printOverview)
	fmt.Fprintf(w.out, "%s %sagent=%s%s ", stamp(row.Timestamp), roleColor(row.Role, row.IsPhone), row.AgentID, colorReset)
	fmt.Fprintf(w.out, "%srole=%s%s ", colorBlue, row.Role, colorReset)
	fmt.Fprintf(w.out, "%stask=%s%s ", colorYellow, row.Task, colorReset)
	fmt.Fprintf(w.out, "%spos=(%.1f,%.1f)%s ", colorGreen, row.X, row.Y, colorReset)
	fmt.Fprintf(w.out, "%shdg=%.0f%s ", colorCyan, row.Heading, colorReset)
	fmt.Fprintf(w.out, "%sbatt=%.1f%s ", colorCyan, row.Battery, colorReset)
	fmt.Fprintf(w.out, "%slinks=%d%s ", colorGray, row.Neighbors, colorReset)
	fmt.Fprintf(w.out, "%shealth=%s%s", healthColor(row.Health), row.Health, colorReset)
	if row.InJammingZone {
		fmt.Fprintf(w.out, " %sjammed%s", colorRed, colorReset)
	}
	if row.AssignedTargetID != "" {
		fmt.Fprintf(w.out, " %starget=%s%s", colorMagenta, row.AssignedTargetID, colorReset)
	}
	fmt.Fprintln(w.out)
	return nil
}

// WriteBatch outputs multiple agent rows.
func (w *StdoutWriter) WriteBatch(rows []telemetry.AgentRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvent prints a log entry.
func (w *StdoutWriter) WriteEvent(e telemetry.EventRow) error {
	if !w.colorize {
		return w.printJSON(e)
	}
	w.once.Do(w.printOverview)
	fmt.Fprintf(w.out, "%s %sEVENT%s kind=%s %s\n", stamp(e.Timestamp), eventColor(e.Kind), colorReset, e.Kind, e.Details)
	return nil
}

// WriteState prints the swarm summary.
func (w *StdoutWriter) WriteState(row telemetry.StateRow) error {
	if !w.colorize {
		return w.printJSON(row)
	}
	w.once.Do(w.printOverview)
	master := row.MasterID
	if master == "" {
		master = "none"
	}
	fmt.Fprintf(w.out, "%s %sSTATE%s master=%s formation=%s mission=%t active=%d/%d avg_batt=%.1f jammed=%d targets_done=%d elections=%d\n",
		stamp(row.Timestamp), colorBlue, colorReset, master, row.Formation, row.MissionActive,
		row.ActiveAgents, row.TotalAgents, row.AverageBattery, row.JammedAgents, row.TargetsCompleted, row.Elections)
	return nil
}

// WriteHeartbeat prints the master's liveness message.
func (w *StdoutWriter) WriteHeartbeat(hb telemetry.HeartbeatRow) error {
	if !w.colorize {
		return w.printJSON(hb)
	}
	w.once.Do(w.printOverview)
	fmt.Fprintf(w.out, "%s %sHEARTBEAT%s master=%s size=%d formation=%s\n",
		stamp(hb.Timestamp), colorMagenta, colorReset, hb.MasterID, hb.SwarmSize, hb.Formation)
	return nil
}
