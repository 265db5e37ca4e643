package sim

import (
	"errors"
	"fmt"
	"time"

	"swarmmesh-sim/internal/election"
	"swarmmesh-sim/internal/geom"
	"swarmmesh-sim/internal/swarm"
	"swarmmesh-sim/internal/tasking"
)

var (
	ErrUnknownFormation = errors.New("unknown formation")
	ErrPhoneConnected   = errors.New("phone agent already connected")
	ErrNoPhone          = errors.New("no phone agent connected")
	ErrNoMaster         = errors.New("swarm has no master")
)

// StartMission activates the mission and allocates pending targets. It
// returns false when the mission was already active.
func (s *Simulator) StartMission() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startMission()
}

func (s *Simulator) startMission() bool {
	if s.state.MissionActive {
		return false
	}
	now := s.clock.Now()
	alloc := tasking.Allocate(s.state.Agents, s.state.MasterID, s.state.Targets)
	s.state = s.state.Clone()
	s.state.MissionActive = true
	s.state.Agents = alloc.Agents
	s.state.Targets = alloc.Targets
	s.record(swarm.ElectionEvent{
		Timestamp: now,
		Kind:      swarm.EventMission,
		Details:   fmt.Sprintf("Mission started with %d targets", len(s.state.Targets)),
	})
	s.record(assignmentEvents(alloc.Assignments, now)...)
	s.log.Info("mission started", "assignments", len(alloc.Assignments))
	return true
}

// StopMission deactivates the mission; agents fall back to formation goals.
func (s *Simulator) StopMission() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopMission()
}

func (s *Simulator) stopMission() bool {
	if !s.state.MissionActive {
		return false
	}
	s.state.MissionActive = false
	s.record(swarm.ElectionEvent{Timestamp: s.clock.Now(), Kind: swarm.EventMission, Details: "Mission stopped"})
	s.log.Info("mission stopped")
	return true
}

// ToggleMission flips the mission flag and returns the new value.
func (s *Simulator) ToggleMission() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.MissionActive {
		s.stopMission()
	} else {
		s.startMission()
	}
	return s.state.MissionActive
}

// KillMaster destroys the current master and schedules an election.
func (s *Simulator) KillMaster() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.killMaster()
}

func (s *Simulator) killMaster() error {
	mi := s.state.AgentIndex(s.state.MasterID)
	if mi < 0 {
		return ErrNoMaster
	}
	s.state = s.state.Clone()
	m := &s.state.Agents[mi]
	m.Battery = 0
	m.Health = swarm.HealthDestroyed
	m.Role = swarm.RoleSlave
	m.Velocity = geom.Vec{}
	s.state.MasterID = ""
	s.beginElection(election.Trigger{Reason: election.ReasonKilled, MasterID: m.ID}, s.cfg.KillElectionDelay)
	return nil
}

// SetFormation switches the formation layout.
func (s *Simulator) SetFormation(kind swarm.FormationKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setFormation(kind)
}

func (s *Simulator) setFormation(kind swarm.FormationKind) error {
	if _, err := swarm.ParseFormation(string(kind)); err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownFormation, kind)
	}
	if s.state.Formation == kind {
		return nil
	}
	s.state.Formation = kind
	s.record(swarm.ElectionEvent{
		Timestamp: s.clock.Now(),
		Kind:      swarm.EventFormation,
		Details:   fmt.Sprintf("Formation changed to %s", kind),
	})
	return nil
}

// Pause freezes the swarm clock. Pausing twice is a no-op.
func (s *Simulator) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPaused(true)
}

// Resume restarts the swarm clock. Resuming twice is a no-op.
func (s *Simulator) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPaused(false)
}

// TogglePause flips the paused flag and returns the new value.
func (s *Simulator) TogglePause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPaused(!s.paused)
	return s.paused
}

func (s *Simulator) setPaused(p bool) {
	if s.paused == p {
		return
	}
	s.paused = p
	s.log.Info("simulation pause changed", "paused", p)
}

// ConnectPhone adds the externally driven agent to the roster.
func (s *Simulator) ConnectPhone() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectPhone()
}

func (s *Simulator) connectPhone() error {
	if s.state.PhoneIndex() >= 0 {
		return ErrPhoneConnected
	}
	now := s.clock.Now()
	area := s.env.Area
	a := swarm.NewAgent(swarm.PhoneAgentID, geom.Vec{X: area.Width / 2, Y: area.Height - 100}, true, s.rand, now)
	a.Task = swarm.TaskRelay
	s.state = s.state.Clone()
	s.state.Agents = append(s.state.Agents, a)
	s.phone = nil
	s.record(swarm.ElectionEvent{Timestamp: now, Kind: swarm.EventPhone, Details: fmt.Sprintf("%s joined the swarm", a.ID)})
	return nil
}

// DisconnectPhone removes the phone agent and drops its pending input.
func (s *Simulator) DisconnectPhone() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnectPhone()
}

func (s *Simulator) disconnectPhone() error {
	pi := s.state.PhoneIndex()
	if pi < 0 {
		return ErrNoPhone
	}
	id := s.state.Agents[pi].ID
	s.state = s.state.Clone()
	s.state.Agents = append(s.state.Agents[:pi], s.state.Agents[pi+1:]...)
	s.phone = nil
	s.record(swarm.ElectionEvent{Timestamp: s.clock.Now(), Kind: swarm.EventPhone, Details: fmt.Sprintf("%s left the swarm", id)})
	return nil
}

// UpdatePhoneMotion stores the latest controller sample for the phone agent.
func (s *Simulator) UpdatePhoneMotion(m swarm.MotionSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatePhoneMotion(m)
}

func (s *Simulator) updatePhoneMotion(m swarm.MotionSample) error {
	if s.state.PhoneIndex() < 0 {
		return ErrNoPhone
	}
	c := m.Clamp()
	if c.Timestamp.IsZero() {
		c.Timestamp = s.clock.Now()
	}
	s.phone = &c
	return nil
}

// Snapshot returns a deep copy of the swarm state.
func (s *Simulator) Snapshot() swarm.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Events returns the retained log, newest first.
func (s *Simulator) Events() []swarm.ElectionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events.Entries()
}

// Metrics derives the summary figures of the current state.
func (s *Simulator) Metrics() swarm.Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics()
}

// Paused reports whether the swarm clock is frozen.
func (s *Simulator) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Now returns the simulated time.
func (s *Simulator) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.Now()
}

// Phase returns the election protocol phase.
func (s *Simulator) Phase() election.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Phase()
}

func assignmentEvents(assignments []tasking.Assignment, now time.Time) []swarm.ElectionEvent {
	events := make([]swarm.ElectionEvent, 0, len(assignments))
	for _, a := range assignments {
		events = append(events, swarm.ElectionEvent{
			Timestamp:   now,
			Kind:        swarm.EventTargetAssigned,
			Details:     fmt.Sprintf("%s assigned to %s (%s, %.0fm)", a.AgentID, a.TargetID, a.Task, a.Distance),
			CandidateID: a.AgentID,
		})
	}
	return events
}
