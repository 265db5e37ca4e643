package swarm

import (
	"fmt"
	"math/rand"
	"time"

	"swarmmesh-sim/internal/geom"
)

// PhoneAgentID identifies the externally driven agent.
const PhoneAgentID = "mobile_drone"

// Range is an inclusive integer interval.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

func (r Range) pick(rng *rand.Rand) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Intn(r.Max-r.Min+1)
}

// InitOptions describes the starting scenario of a session.
type InitOptions struct {
	Count         int
	Area          geom.Rect
	Formation     FormationKind
	RandomTargets Range
	RandomZones   Range
	// Targets and Zones replace random seeding when non-empty.
	Targets []Target
	Zones   []JammingZone
}

// NewAgent creates a slave agent at pos. Regular agents start with a random
// battery in [50,100); the phone agent starts at 85.
func NewAgent(id string, pos geom.Vec, isPhone bool, rng *rand.Rand, now time.Time) Agent {
	battery := 85.0
	if !isPhone {
		battery = 50 + rng.Float64()*50
	}
	return Agent{
		ID:            id,
		Position:      pos,
		Battery:       battery,
		Role:          RoleSlave,
		Task:          TaskIdle,
		Health:        HealthFor(battery),
		Heading:       rng.Float64() * 360,
		LastHeartbeat: now,
		IsPhone:       isPhone,
	}
}

// Initialize seeds a fresh swarm. drone_1 starts as master with a battery in [90,100).
func Initialize(opts InitOptions, rng *rand.Rand, now time.Time) State {
	area := opts.Area
	agents := make([]Agent, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		pos := geom.Vec{
			X: 100 + rng.Float64()*(area.Width-200),
			Y: 100 + rng.Float64()*(area.Height-200),
		}
		a := NewAgent(fmt.Sprintf("drone_%d", i+1), pos, false, rng, now)
		if i == 0 {
			a.Role = RoleMaster
			a.Battery = 90 + rng.Float64()*10
			a.Health = HealthFor(a.Battery)
		}
		agents = append(agents, a)
	}

	targets := make([]Target, 0, len(opts.Targets))
	for _, t := range opts.Targets {
		t.Status = TargetPending
		t.AssignedAgentID = ""
		targets = append(targets, t)
	}
	if len(targets) == 0 {
		n := opts.RandomTargets.pick(rng)
		for i := 0; i < n; i++ {
			targets = append(targets, Target{
				ID: fmt.Sprintf("target_%d", i+1),
				Position: geom.Vec{
					X: 80 + rng.Float64()*(area.Width-160),
					Y: 80 + rng.Float64()*(area.Height-160),
				},
				Priority: 1 + rng.Intn(5),
				Type:     TargetTypes[rng.Intn(len(TargetTypes))],
				Status:   TargetPending,
			})
		}
	}

	zones := append([]JammingZone(nil), opts.Zones...)
	if len(zones) == 0 {
		n := opts.RandomZones.pick(rng)
		for i := 0; i < n; i++ {
			zones = append(zones, JammingZone{
				ID: fmt.Sprintf("jam_%d", i+1),
				Center: geom.Vec{
					X: 150 + rng.Float64()*(area.Width-300),
					Y: 150 + rng.Float64()*(area.Height-300),
				},
				Radius:    80 + rng.Float64()*60,
				Intensity: 60 + rng.Float64()*40,
			})
		}
	}

	st := State{
		Agents:       agents,
		Formation:    opts.Formation,
		Targets:      targets,
		JammingZones: zones,
	}
	if len(agents) > 0 {
		st.MasterID = agents[0].ID
	}
	return st
}
