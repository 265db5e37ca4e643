package sim

import (
	"context"
	"fmt"
	"log/slog"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"swarmmesh-sim/internal/telemetry"
)

type client interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes agent, event, state and heartbeat rows to GreptimeDB
// via the ingester client. Tables are created on first write.
type GreptimeDBWriter struct {
	client         client
	agentTable     string
	eventTable     string
	stateTable     string
	heartbeatTable string
	log            *slog.Logger
}

// NewGreptimeDBWriter connects to endpoint and targets database.
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	cfg := greptime.NewConfig(endpoint).WithDatabase(database)
	c, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return newGreptimeDBWriter(c), nil
}

func newGreptimeDBWriter(c client) *GreptimeDBWriter {
	return &GreptimeDBWriter{
		client:         c,
		agentTable:     telemetry.AgentTableName,
		eventTable:     telemetry.EventTableName,
		stateTable:     telemetry.StateTableName,
		heartbeatTable: telemetry.HeartbeatTableName,
		log:            slog.Default(),
	}
}

// Write inserts a single agent row.
func (w *GreptimeDBWriter) Write(row telemetry.AgentRow) error {
	return w.WriteBatch([]telemetry.AgentRow{row})
}

// WriteBatch inserts multiple agent rows.
func (w *GreptimeDBWriter) WriteBatch(rows []telemetry.AgentRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.agentTable)
	if err != nil {
		return err
	}
	if err := addColumns(tbl,
		tag("run_id"), tag("agent_id"),
		field("x", types.FLOAT64), field("y", types.FLOAT64),
		field("vx", types.FLOAT64), field("vy", types.FLOAT64),
		field("heading", types.FLOAT64), field("battery", types.FLOAT64),
		field("role", types.STRING), field("task", types.STRING), field("health", types.STRING),
		field("is_phone", types.BOOLEAN), field("in_jamming_zone", types.BOOLEAN),
		field("neighbors", types.INT64), field("assigned_target_id", types.STRING),
		timeIndex("ts"),
	); err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(
			r.RunID, r.AgentID,
			r.X, r.Y, r.VX, r.VY, r.Heading, r.Battery,
			r.Role, r.Task, r.Health,
			r.IsPhone, r.InJammingZone,
			int64(r.Neighbors), r.AssignedTargetID,
			r.Timestamp,
		); err != nil {
			return err
		}
	}
	return w.write(tbl, len(rows))
}

// WriteEvent inserts a single election or mission event.
func (w *GreptimeDBWriter) WriteEvent(e telemetry.EventRow) error {
	return w.WriteEvents([]telemetry.EventRow{e})
}

// WriteEvents inserts multiple event rows.
func (w *GreptimeDBWriter) WriteEvents(rows []telemetry.EventRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.eventTable)
	if err != nil {
		return err
	}
	if err := addColumns(tbl,
		tag("run_id"), tag("kind"),
		field("details", types.STRING), field("candidate_id", types.STRING),
		field("winner_id", types.STRING), field("reason", types.STRING),
		timeIndex("ts"),
	); err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(r.RunID, r.Kind, r.Details, r.CandidateID, r.WinnerID, r.Reason, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl, len(rows))
}

// WriteState inserts a swarm state summary.
func (w *GreptimeDBWriter) WriteState(r telemetry.StateRow) error {
	tbl, err := table.New(w.stateTable)
	if err != nil {
		return err
	}
	if err := addColumns(tbl,
		tag("run_id"),
		field("master_id", types.STRING), field("formation", types.STRING),
		field("mission_active", types.BOOLEAN), field("election_in_progress", types.BOOLEAN),
		field("paused", types.BOOLEAN),
		field("total_agents", types.INT64), field("active_agents", types.INT64),
		field("average_battery", types.FLOAT64), field("formation_integrity", types.FLOAT64),
		field("jammed_agents", types.INT64), field("targets_completed", types.INT64),
		field("master_uptime_s", types.FLOAT64), field("elections", types.INT64),
		timeIndex("ts"),
	); err != nil {
		return err
	}
	if err := tbl.AddRow(
		r.RunID, r.MasterID, r.Formation,
		r.MissionActive, r.ElectionInProgress, r.Paused,
		int64(r.TotalAgents), int64(r.ActiveAgents),
		r.AverageBattery, r.FormationIntegrity,
		int64(r.JammedAgents), int64(r.TargetsCompleted),
		r.MasterUptimeSec, int64(r.Elections),
		r.Timestamp,
	); err != nil {
		return err
	}
	return w.write(tbl, 1)
}

// WriteHeartbeat inserts a master heartbeat.
func (w *GreptimeDBWriter) WriteHeartbeat(hb telemetry.HeartbeatRow) error {
	tbl, err := table.New(w.heartbeatTable)
	if err != nil {
		return err
	}
	if err := addColumns(tbl,
		tag("run_id"), tag("master_id"),
		field("swarm_size", types.INT64), field("formation", types.STRING),
		timeIndex("ts"),
	); err != nil {
		return err
	}
	if err := tbl.AddRow(hb.RunID, hb.MasterID, int64(hb.SwarmSize), hb.Formation, hb.Timestamp); err != nil {
		return err
	}
	return w.write(tbl, 1)
}

func (w *GreptimeDBWriter) write(tbl *table.Table, n int) error {
	name, err := tbl.GetName()
	if err != nil {
		return fmt.Errorf("greptime table name: %w", err)
	}
	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		w.log.Error("greptime write failed", "table", name, "err", err)
		return err
	}
	w.log.Debug("greptime rows written", "table", name, "rows", n)
	return nil
}

type column struct {
	name string
	kind int
	typ  types.ColumnType
}

const (
	columnTag = iota
	columnField
	columnTime
)

func tag(name string) column { return column{name: name, kind: columnTag, typ: types.STRING} }

func field(name string, typ types.ColumnType) column {
	return column{name: name, kind: columnField, typ: typ}
}

func timeIndex(name string) column {
	return column{name: name, kind: columnTime, typ: types.TIMESTAMP_MILLISECOND}
}

func addColumns(tbl *table.Table, cols ...column) error {
	for _, c := range cols {
		var err error
		switch c.kind {
		case columnTag:
			err = tbl.AddTagColumn(c.name, c.typ)
		case columnField:
			err = tbl.AddFieldColumn(c.name, c.typ)
		case columnTime:
			err = tbl.AddTimestampColumn(c.name, c.typ)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
