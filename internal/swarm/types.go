// Swarm data model: agents, targets, jamming zones and the shared state
package swarm

import (
	"fmt"
	"time"

	"swarmmesh-sim/internal/geom"
)

// Role marks an agent as the coordinating master or a follower.
type Role string

const (
	RoleMaster Role = "master"
	RoleSlave  Role = "slave"
)

// Task is the mission duty currently held by an agent.
type Task string

const (
	TaskIdle     Task = "idle"
	TaskScout    Task = "scout"
	TaskObserver Task = "observer"
	TaskRelay    Task = "relay"
	TaskAttack   Task = "attack"
)

// Health is derived from battery and never set on its own.
type Health string

const (
	HealthHealthy   Health = "healthy"
	HealthWarning   Health = "warning"
	HealthCritical  Health = "critical"
	HealthDestroyed Health = "destroyed"
)

// FormationKind names a target-position layout.
type FormationKind string

const (
	FormationLine   FormationKind = "line"
	FormationGrid   FormationKind = "grid"
	FormationCircle FormationKind = "circle"
)

// Formations lists every formation kind in display order.
var Formations = []FormationKind{FormationLine, FormationGrid, FormationCircle}

// ParseFormation converts s to a FormationKind.
func ParseFormation(s string) (FormationKind, error) {
	switch FormationKind(s) {
	case FormationLine, FormationGrid, FormationCircle:
		return FormationKind(s), nil
	}
	return "", fmt.Errorf("unknown formation %q", s)
}

// TargetType is the kind of mission objective.
type TargetType string

const (
	TargetObserve TargetType = "observe"
	TargetAttack  TargetType = "attack"
	TargetRelay   TargetType = "relay"
)

// TargetTypes lists every target type.
var TargetTypes = []TargetType{TargetObserve, TargetAttack, TargetRelay}

// TaskFor maps a target type to the task an assigned agent takes on.
func TaskFor(t TargetType) Task {
	switch t {
	case TargetAttack:
		return TaskAttack
	case TargetObserve:
		return TaskObserver
	case TargetRelay:
		return TaskRelay
	}
	return TaskRelay
}

// TargetStatus only ever moves forward: pending → assigned → completed.
type TargetStatus string

const (
	TargetPending   TargetStatus = "pending"
	TargetAssigned  TargetStatus = "assigned"
	TargetCompleted TargetStatus = "completed"
)

func (s TargetStatus) rank() int {
	switch s {
	case TargetPending:
		return 0
	case TargetAssigned:
		return 1
	case TargetCompleted:
		return 2
	}
	return -1
}

// CanAdvanceTo reports whether a transition from s to next is allowed.
func (s TargetStatus) CanAdvanceTo(next TargetStatus) bool {
	return next.rank() > s.rank()
}

// NeighborLink is one simulated mesh connection seen from an agent.
type NeighborLink struct {
	PeerID         string  `json:"peer_id"`
	Distance       float64 `json:"distance"`
	SignalStrength float64 `json:"signal_strength"`
	Latency        float64 `json:"latency_ms"`
	Jammed         bool    `json:"jammed"`
}

// Agent is one drone in the roster.
type Agent struct {
	ID               string         `json:"id"`
	Position         geom.Vec       `json:"position"`
	Velocity         geom.Vec       `json:"velocity"`
	Battery          float64        `json:"battery"`
	Role             Role           `json:"role"`
	Task             Task           `json:"task"`
	Health           Health         `json:"health"`
	Heading          float64        `json:"heading"`
	LastHeartbeat    time.Time      `json:"last_heartbeat"`
	IsPhone          bool           `json:"is_phone"`
	Neighbors        []NeighborLink `json:"neighbors"`
	InJammingZone    bool           `json:"in_jamming_zone"`
	AssignedTargetID string         `json:"assigned_target_id,omitempty"`
	Avoidance        geom.Vec       `json:"avoidance"`
}

// Alive reports whether the agent still takes part in the simulation.
func (a Agent) Alive() bool { return a.Health != HealthDestroyed }

// Speed returns the magnitude of the agent's velocity.
func (a Agent) Speed() float64 { return a.Velocity.Len() }

// Target is a static mission objective.
type Target struct {
	ID              string       `json:"id" yaml:"id"`
	Position        geom.Vec     `json:"position" yaml:"position"`
	Priority        int          `json:"priority" yaml:"priority"`
	Type            TargetType   `json:"type" yaml:"type"`
	Status          TargetStatus `json:"status" yaml:"-"`
	AssignedAgentID string       `json:"assigned_agent_id,omitempty" yaml:"-"`
}

// JammingZone is a static circular interference region.
type JammingZone struct {
	ID        string   `json:"id" yaml:"id"`
	Center    geom.Vec `json:"center" yaml:"center"`
	Radius    float64  `json:"radius" yaml:"radius"`
	Intensity float64  `json:"intensity" yaml:"intensity"`
}

// MotionSample is one reading of the external two-axis-plus-yaw controller.
// All components are in [-1, 1].
type MotionSample struct {
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Yaw       float64   `json:"yaw"`
	Timestamp time.Time `json:"timestamp"`
}

// Clamp bounds every axis to [-1, 1].
func (m MotionSample) Clamp() MotionSample {
	m.X = clampUnit(m.X)
	m.Y = clampUnit(m.Y)
	m.Yaw = clampUnit(m.Yaw)
	return m
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
