// Leader election: candidate filtering, ranking and the protocol state machine
package election

import (
	"fmt"
	"sort"
	"time"

	"swarmmesh-sim/internal/swarm"
)

// MinBattery is the battery an agent must exceed to stand for election.
const MinBattery = 10.0

// maxVotes bounds the diagnostic vote events per election.
const maxVotes = 3

// Eligible reports whether a can become master.
func Eligible(a swarm.Agent) bool {
	switch a.Health {
	case swarm.HealthDestroyed, swarm.HealthCritical:
		return false
	case swarm.HealthHealthy, swarm.HealthWarning:
		return a.Battery > MinBattery
	}
	return false
}

// Rank returns the eligible candidates ordered by battery descending, then id
// ascending. exclude names an agent that may not stand (a yielding master).
func Rank(agents []swarm.Agent, exclude string) []swarm.Agent {
	ranked := make([]swarm.Agent, 0, len(agents))
	for _, a := range agents {
		if exclude != "" && a.ID == exclude {
			continue
		}
		if Eligible(a) {
			ranked = append(ranked, a)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Battery != ranked[j].Battery {
			return ranked[i].Battery > ranked[j].Battery
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

// Ballot is the outcome of one ranking round.
type Ballot struct {
	Winner *swarm.Agent
	Events []swarm.ElectionEvent
}

// Elect ranks the roster and picks the winner, recording the audit trail.
func Elect(agents []swarm.Agent, exclude string, at time.Time) Ballot {
	ranked := Rank(agents, exclude)
	if len(ranked) == 0 {
		return Ballot{Events: []swarm.ElectionEvent{{
			Timestamp: at,
			Kind:      swarm.EventElectionComplete,
			Details:   "No eligible candidates - swarm has no leader",
		}}}
	}

	events := []swarm.ElectionEvent{{
		Timestamp: at,
		Kind:      swarm.EventElectionStart,
		Details:   fmt.Sprintf("Election started with %d candidates", len(ranked)),
	}}
	for i, c := range ranked {
		if i == maxVotes {
			break
		}
		events = append(events, swarm.ElectionEvent{
			Timestamp:   at,
			Kind:        swarm.EventVote,
			Details:     fmt.Sprintf("Candidate %d: %s (Battery: %.1f%%)", i+1, c.ID, c.Battery),
			CandidateID: c.ID,
		})
	}
	winner := ranked[0]
	events = append(events, swarm.ElectionEvent{
		Timestamp: at,
		Kind:      swarm.EventElectionComplete,
		Details:   fmt.Sprintf("Election complete: %s elected as new master", winner.ID),
		WinnerID:  winner.ID,
		Reason:    fmt.Sprintf("Highest battery (%.1f%%)", winner.Battery),
	})
	return Ballot{Winner: &winner, Events: events}
}
