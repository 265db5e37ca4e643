// Output row types with greptime column roles
package telemetry

import (
	"os"
	"time"
)

// AgentRow is one telemetry sample of a single agent.
type AgentRow struct {
	RunID            string    `json:"run_id"`   // TAG
	AgentID          string    `json:"agent_id"` // TAG
	X                float64   `json:"x"`        // FIELD
	Y                float64   `json:"y"`        // FIELD
	VX               float64   `json:"vx"`       // FIELD
	VY               float64   `json:"vy"`       // FIELD
	Heading          float64   `json:"heading"`  // FIELD
	Battery          float64   `json:"battery"`  // FIELD
	Role             string    `json:"role"`     // FIELD
	Task             string    `json:"task"`     // FIELD
	Health           string    `json:"health"`   // FIELD
	IsPhone          bool      `json:"is_phone"`
	InJammingZone    bool      `json:"in_jamming_zone"`
	Neighbors        int       `json:"neighbors"`
	AssignedTargetID string    `json:"assigned_target_id,omitempty"`
	Timestamp        time.Time `json:"ts"` // TIME INDEX
}

// EventRow is one entry of the election and mission audit trail.
type EventRow struct {
	RunID       string    `json:"run_id"`
	Kind        string    `json:"kind"`
	Details     string    `json:"details"`
	CandidateID string    `json:"candidate_id,omitempty"`
	WinnerID    string    `json:"winner_id,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Timestamp   time.Time `json:"ts"`
}

// StateRow summarizes the swarm once per heartbeat.
type StateRow struct {
	RunID              string    `json:"run_id"`
	MasterID           string    `json:"master_id"`
	Formation          string    `json:"formation"`
	MissionActive      bool      `json:"mission_active"`
	ElectionInProgress bool      `json:"election_in_progress"`
	Paused             bool      `json:"paused"`
	TotalAgents        int       `json:"total_agents"`
	ActiveAgents       int       `json:"active_agents"`
	AverageBattery     float64   `json:"average_battery"`
	FormationIntegrity float64   `json:"formation_integrity"`
	JammedAgents       int       `json:"jammed_agents"`
	TargetsCompleted   int       `json:"targets_completed"`
	MasterUptimeSec    float64   `json:"master_uptime_s"`
	Elections          int       `json:"elections"`
	Timestamp          time.Time `json:"ts"`
}

// HeartbeatRow is the liveness message broadcast by the master.
type HeartbeatRow struct {
	RunID     string    `json:"run_id"`
	MasterID  string    `json:"master_id"`
	SwarmSize int       `json:"swarm_size"`
	Formation string    `json:"formation"`
	Timestamp time.Time `json:"ts"`
}

func tableName(env, def string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

// Table names used when writing to GreptimeDB. Each can be overridden
// through the environment.
var (
	AgentTableName     = tableName("GREPTIMEDB_AGENT_TABLE", "swarm_agents")
	EventTableName     = tableName("GREPTIMEDB_EVENT_TABLE", "swarm_events")
	StateTableName     = tableName("GREPTIMEDB_STATE_TABLE", "swarm_state")
	HeartbeatTableName = tableName("GREPTIMEDB_HEARTBEAT_TABLE", "swarm_heartbeats")
)

func (AgentRow) TableName() string     { return AgentTableName }
func (EventRow) TableName() string     { return EventTableName }
func (StateRow) TableName() string     { return StateTableName }
func (HeartbeatRow) TableName() string { return HeartbeatTableName }
