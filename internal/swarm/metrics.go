package swarm

import "time"

// Metrics summarizes a swarm snapshot for the host layer.
type Metrics struct {
	TotalAgents        int           `json:"total_agents"`
	ActiveAgents       int           `json:"active_agents"`
	AverageBattery     float64       `json:"average_battery"`
	FormationIntegrity float64       `json:"formation_integrity"`
	JammedAgents       int           `json:"jammed_agents"`
	TargetsCompleted   int           `json:"targets_completed"`
	MasterUptime       time.Duration `json:"master_uptime"`
	Elections          int           `json:"elections"`
}

// ComputeMetrics derives Metrics from s. uptime and elections come from the
// orchestrator's simulation context.
func ComputeMetrics(s State, uptime time.Duration, elections int) Metrics {
	m := Metrics{
		TotalAgents:  len(s.Agents),
		MasterUptime: uptime,
		Elections:    elections,
	}
	var total float64
	for _, a := range s.Agents {
		if !a.Alive() {
			continue
		}
		m.ActiveAgents++
		total += a.Battery
		if a.InJammingZone {
			m.JammedAgents++
		}
	}
	if m.ActiveAgents > 0 {
		m.AverageBattery = total / float64(m.ActiveAgents)
	}
	if m.TotalAgents > 0 {
		m.FormationIntegrity = float64(m.ActiveAgents) / float64(m.TotalAgents) * 100
	}
	for _, t := range s.Targets {
		if t.Status == TargetCompleted {
			m.TargetsCompleted++
		}
	}
	return m
}
