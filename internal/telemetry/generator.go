package telemetry

import (
	"time"

	"swarmmesh-sim/internal/swarm"
)

// Generator turns swarm snapshots into output rows stamped with a run id.
type Generator struct {
	RunID string
}

// NewGenerator creates a generator for runID.
func NewGenerator(runID string) *Generator {
	return &Generator{RunID: runID}
}

// AgentRow converts a single agent.
func (g *Generator) AgentRow(a swarm.Agent, ts time.Time) AgentRow {
	return AgentRow{
		RunID:            g.RunID,
		AgentID:          a.ID,
		X:                a.Position.X,
		Y:                a.Position.Y,
		VX:               a.Velocity.X,
		VY:               a.Velocity.Y,
		Heading:          a.Heading,
		Battery:          a.Battery,
		Role:             string(a.Role),
		Task:             string(a.Task),
		Health:           string(a.Health),
		IsPhone:          a.IsPhone,
		InJammingZone:    a.InJammingZone,
		Neighbors:        len(a.Neighbors),
		AssignedTargetID: a.AssignedTargetID,
		Timestamp:        ts.UTC(),
	}
}

// AgentRows converts the whole roster in roster order.
func (g *Generator) AgentRows(s swarm.State, ts time.Time) []AgentRow {
	rows := make([]AgentRow, 0, len(s.Agents))
	for _, a := range s.Agents {
		rows = append(rows, g.AgentRow(a, ts))
	}
	return rows
}

// EventRow converts a log entry.
func (g *Generator) EventRow(e swarm.ElectionEvent) EventRow {
	return EventRow{
		RunID:       g.RunID,
		Kind:        string(e.Kind),
		Details:     e.Details,
		CandidateID: e.CandidateID,
		WinnerID:    e.WinnerID,
		Reason:      e.Reason,
		Timestamp:   e.Timestamp.UTC(),
	}
}

// StateRow combines a snapshot with its derived metrics.
func (g *Generator) StateRow(s swarm.State, m swarm.Metrics, paused bool, ts time.Time) StateRow {
	return StateRow{
		RunID:              g.RunID,
		MasterID:           s.MasterID,
		Formation:          string(s.Formation),
		MissionActive:      s.MissionActive,
		ElectionInProgress: s.ElectionInProgress,
		Paused:             paused,
		TotalAgents:        m.TotalAgents,
		ActiveAgents:       m.ActiveAgents,
		AverageBattery:     m.AverageBattery,
		FormationIntegrity: m.FormationIntegrity,
		JammedAgents:       m.JammedAgents,
		TargetsCompleted:   m.TargetsCompleted,
		MasterUptimeSec:    m.MasterUptime.Seconds(),
		Elections:          m.Elections,
		Timestamp:          ts.UTC(),
	}
}

// HeartbeatRow builds the master's liveness message.
func (g *Generator) HeartbeatRow(s swarm.State, ts time.Time) HeartbeatRow {
	return HeartbeatRow{
		RunID:     g.RunID,
		MasterID:  s.MasterID,
		SwarmSize: len(s.Agents),
		Formation: string(s.Formation),
		Timestamp: ts.UTC(),
	}
}
