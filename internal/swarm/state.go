package swarm

import "time"

// State is the single unit of shared mutable swarm state. The orchestrator
// owns it; every other component receives copies and returns new values.
type State struct {
	Agents             []Agent       `json:"agents"`
	MasterID           string        `json:"master_id,omitempty"`
	Formation          FormationKind `json:"formation"`
	MissionActive      bool          `json:"mission_active"`
	ElectionInProgress bool          `json:"election_in_progress"`
	Targets            []Target      `json:"targets"`
	JammingZones       []JammingZone `json:"jamming_zones"`
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Agents = CloneAgents(s.Agents)
	out.Targets = append([]Target(nil), s.Targets...)
	out.JammingZones = append([]JammingZone(nil), s.JammingZones...)
	return out
}

// CloneAgents copies agents including their neighbor lists.
func CloneAgents(agents []Agent) []Agent {
	if agents == nil {
		return nil
	}
	out := make([]Agent, len(agents))
	for i, a := range agents {
		out[i] = a
		out[i].Neighbors = append([]NeighborLink(nil), a.Neighbors...)
	}
	return out
}

// AgentIndex returns the roster position of id or -1.
func (s State) AgentIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.Agents {
		if s.Agents[i].ID == id {
			return i
		}
	}
	return -1
}

// Agent returns the agent with id.
func (s State) Agent(id string) (Agent, bool) {
	if i := s.AgentIndex(id); i >= 0 {
		return s.Agents[i], true
	}
	return Agent{}, false
}

// Master returns the agent currently holding the master id, if any.
func (s State) Master() (Agent, bool) {
	return s.Agent(s.MasterID)
}

// PhoneIndex returns the roster position of the externally driven agent or -1.
func (s State) PhoneIndex() int {
	for i := range s.Agents {
		if s.Agents[i].IsPhone {
			return i
		}
	}
	return -1
}

// TargetIndex returns the position of target id or -1.
func (s State) TargetIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.Targets {
		if s.Targets[i].ID == id {
			return i
		}
	}
	return -1
}

// EventKind classifies log entries.
type EventKind string

const (
	EventMasterLost       EventKind = "master_lost"
	EventElectionStart    EventKind = "election_start"
	EventVote             EventKind = "vote"
	EventElectionComplete EventKind = "election_complete"
	EventMasterAnnounce   EventKind = "master_announce"
	EventJammingDetected  EventKind = "jamming_detected"
	EventTargetAssigned   EventKind = "target_assigned"
	EventTargetCompleted  EventKind = "target_completed"
	EventAvoidanceActive  EventKind = "avoidance_active"
	EventMission          EventKind = "mission"
	EventFormation        EventKind = "formation"
	EventPhone            EventKind = "phone"
)

// ElectionEvent is one append-only entry of the audit trail.
type ElectionEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Kind        EventKind `json:"kind"`
	Details     string    `json:"details"`
	CandidateID string    `json:"candidate_id,omitempty"`
	WinnerID    string    `json:"winner_id,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}
