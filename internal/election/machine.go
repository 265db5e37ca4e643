package election

import (
	"fmt"
	"time"

	"swarmmesh-sim/internal/swarm"
	"swarmmesh-sim/internal/tasking"
)

// Phase is the state of the election protocol.
type Phase int

const (
	PhaseStable Phase = iota
	PhaseLost
	PhaseElecting
	PhaseAnnouncing
	PhaseLeaderless
)

func (p Phase) String() string {
	switch p {
	case PhaseStable:
		return "stable"
	case PhaseLost:
		return "lost"
	case PhaseElecting:
		return "electing"
	case PhaseAnnouncing:
		return "announcing"
	case PhaseLeaderless:
		return "leaderless"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Reason explains why the master was lost.
type Reason string

const (
	ReasonKilled    Reason = "master_killed"
	ReasonDestroyed Reason = "master_destroyed"
	ReasonTimeout   Reason = "heartbeat_timeout"
	ReasonHandoff   Reason = "low_battery_handoff"
)

// Trigger describes a loss condition detected by the orchestrator.
type Trigger struct {
	Reason   Reason
	MasterID string
	Battery  float64
}

func (t Trigger) describe() string {
	switch t.Reason {
	case ReasonHandoff:
		return fmt.Sprintf("Master %s battery critical (%.1f%%) - initiating leadership transfer", t.MasterID, t.Battery)
	case ReasonTimeout:
		if t.MasterID == "" {
			return "No master heartbeat - initiating election"
		}
		return fmt.Sprintf("Master %s heartbeat timed out - initiating election", t.MasterID)
	case ReasonDestroyed:
		return fmt.Sprintf("Master %s destroyed - initiating election", t.MasterID)
	case ReasonKilled:
		return fmt.Sprintf("Master %s lost - initiating election", t.MasterID)
	}
	return fmt.Sprintf("Master %s lost (%s)", t.MasterID, t.Reason)
}

// Outcome is the result of resolving an election.
type Outcome struct {
	State       swarm.State
	Events      []swarm.ElectionEvent
	WinnerID    string
	Assignments []tasking.Assignment
}

// Machine tracks the protocol phase across the deferred steps of an election.
// The ElectionInProgress flag on the swarm state is the authoritative guard.
type Machine struct {
	phase   Phase
	pending Trigger
}

// NewMachine starts Stable when the swarm has a master, Leaderless otherwise.
func NewMachine(hasMaster bool) *Machine {
	if hasMaster {
		return &Machine{phase: PhaseStable}
	}
	return &Machine{phase: PhaseLeaderless}
}

// Phase returns the current protocol phase.
func (m *Machine) Phase() Phase { return m.phase }

// Pending returns the trigger of the election in progress.
func (m *Machine) Pending() (Trigger, bool) {
	switch m.phase {
	case PhaseLost, PhaseElecting, PhaseAnnouncing:
		return m.pending, true
	}
	return Trigger{}, false
}

// Begin enters Lost and raises the in-progress flag. It is a no-op returning
// false while another election is in progress.
func (m *Machine) Begin(st swarm.State, t Trigger, at time.Time) (swarm.State, []swarm.ElectionEvent, bool) {
	if st.ElectionInProgress {
		return st, nil, false
	}
	if _, busy := m.Pending(); busy {
		return st, nil, false
	}
	out := st.Clone()
	out.ElectionInProgress = true
	m.phase = PhaseLost
	m.pending = t
	return out, []swarm.ElectionEvent{{
		Timestamp: at,
		Kind:      swarm.EventMasterLost,
		Details:   t.describe(),
		Reason:    string(t.Reason),
	}}, true
}

// Resolve runs the pending election through Electing and Announcing and
// settles in Stable or Leaderless, clearing the in-progress flag. Without a
// pending election it returns st unchanged.
func (m *Machine) Resolve(st swarm.State, at time.Time) Outcome {
	if m.phase != PhaseLost {
		return Outcome{State: st}
	}
	t := m.pending
	m.phase = PhaseElecting

	exclude := ""
	if t.Reason == ReasonHandoff {
		exclude = t.MasterID
	}
	ballot := Elect(st.Agents, exclude, at)

	out := st.Clone()
	out.ElectionInProgress = false
	if ballot.Winner == nil {
		for i := range out.Agents {
			if out.Agents[i].Role == swarm.RoleMaster {
				out.Agents[i].Role = swarm.RoleSlave
			}
		}
		out.MasterID = ""
		m.phase = PhaseLeaderless
		m.pending = Trigger{}
		return Outcome{State: out, Events: ballot.Events}
	}

	m.phase = PhaseAnnouncing
	winnerID := ballot.Winner.ID
	for i := range out.Agents {
		a := &out.Agents[i]
		switch {
		case a.ID == winnerID:
			a.Role = swarm.RoleMaster
			a.LastHeartbeat = at
		case a.Role == swarm.RoleMaster:
			a.Role = swarm.RoleSlave
		}
	}
	out.MasterID = winnerID
	events := append(ballot.Events, swarm.ElectionEvent{
		Timestamp: at,
		Kind:      swarm.EventMasterAnnounce,
		Details:   fmt.Sprintf("%s broadcasting I_AM_MASTER to swarm", winnerID),
		WinnerID:  winnerID,
	})

	alloc := tasking.Allocate(out.Agents, winnerID, out.Targets)
	out.Agents = alloc.Agents
	out.Targets = alloc.Targets

	m.phase = PhaseStable
	m.pending = Trigger{}
	return Outcome{State: out, Events: events, WinnerID: winnerID, Assignments: alloc.Assignments}
}
