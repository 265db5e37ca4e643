package sim

import (
	"fmt"
	"time"

	"swarmmesh-sim/internal/config"
	"swarmmesh-sim/internal/election"
	"swarmmesh-sim/internal/flock"
	"swarmmesh-sim/internal/geom"
	"swarmmesh-sim/internal/mesh"
	"swarmmesh-sim/internal/swarm"
)

// Env holds the tuning a tick runs under.
type Env struct {
	Area             geom.Rect
	Boids            flock.Params
	Phone            flock.PhoneParams
	Drain            swarm.DrainRates
	FormationSpacing float64
	CompletionRadius float64
	HandoffThreshold float64
	HeartbeatTimeout time.Duration
}

// EnvFor derives the tick environment from cfg.
func EnvFor(cfg *config.Config) Env {
	return Env{
		Area:             cfg.Area.Rect(),
		Boids:            cfg.Boids,
		Phone:            cfg.Phone,
		Drain:            cfg.Battery,
		FormationSpacing: cfg.Formation.Spacing,
		CompletionRadius: cfg.CompletionRadius,
		HandoffThreshold: cfg.HandoffThreshold,
		HeartbeatTimeout: cfg.HeartbeatTimeout,
	}
}

// Input carries the per-tick values supplied by the orchestrator.
type Input struct {
	Now                 time.Time
	Phone               *swarm.MotionSample
	LastMasterHeartbeat time.Time
}

// Effects are the side results of a tick the orchestrator acts on.
type Effects struct {
	Events  []swarm.ElectionEvent
	Trigger *election.Trigger
}

// Step advances st by one tick of length dt. It reads neighbors only from the
// prior snapshot, so agent updates do not depend on roster order. st is not
// modified.
func Step(st swarm.State, env Env, dt time.Duration, in Input) (swarm.State, Effects) {
	prev := st
	out := st.Clone()
	var fx Effects

	goals := formationGoals(prev, env)
	targets := make(map[string]geom.Vec, len(prev.Targets))
	for _, t := range prev.Targets {
		if t.Status == swarm.TargetAssigned {
			targets[t.ID] = t.Position
		}
	}

	for i := range out.Agents {
		a := &out.Agents[i]
		if !a.Alive() {
			a.Velocity = geom.Vec{}
			continue
		}
		old := prev.Agents[i]

		if a.IsPhone {
			a.Velocity, a.Heading = flock.PhoneMotion(old.Heading, in.Phone, env.Phone)
		} else {
			goal := goals[a.ID]
			if pos, ok := targets[old.AssignedTargetID]; ok && prev.MissionActive {
				goal = pos
			}
			a.Velocity = flock.Steer(old, prev.Agents, goal, prev.JammingZones, env.Boids)
			a.Heading = a.Velocity.HeadingDeg()
		}
		a.Position = env.Area.Clamp(old.Position.Add(a.Velocity))

		a.InJammingZone = mesh.InZone(a.Position, prev.JammingZones)
		if a.InJammingZone && !old.InJammingZone {
			fx.Events = append(fx.Events, swarm.ElectionEvent{
				Timestamp: in.Now,
				Kind:      swarm.EventJammingDetected,
				Details:   fmt.Sprintf("%s entered jamming zone", a.ID),
			})
		}
		a.Avoidance = mesh.Avoidance(a.Position, prev.JammingZones, env.Boids.AvoidanceStrength)
		if !a.Avoidance.IsZero() && old.Avoidance.IsZero() {
			fx.Events = append(fx.Events, swarm.ElectionEvent{
				Timestamp: in.Now,
				Kind:      swarm.EventAvoidanceActive,
				Details:   fmt.Sprintf("%s steering clear of jamming", a.ID),
			})
		}

		a.Battery = swarm.Drain(old.Battery, a.Role, a.Speed(), a.InJammingZone, dt, env.Drain)
		a.Health = swarm.HealthFor(a.Battery)
		if !a.Alive() {
			a.Velocity = geom.Vec{}
		}
	}

	links := mesh.Build(out.Agents, prev.JammingZones)
	for i := range out.Agents {
		out.Agents[i].Neighbors = links[out.Agents[i].ID]
	}

	if out.MissionActive {
		fx.Events = append(fx.Events, completeTargets(&out, env.CompletionRadius, in.Now)...)
	}

	fx.Trigger = detectLoss(&out, env, in)
	return out, fx
}

// formationGoals lays out one slot per live non-phone agent in roster order.
func formationGoals(st swarm.State, env Env) map[string]geom.Vec {
	members := make([]string, 0, len(st.Agents))
	for _, a := range st.Agents {
		if a.Alive() && !a.IsPhone {
			members = append(members, a.ID)
		}
	}
	slots := swarm.GenerateFormation(env.Area.Center(), len(members), st.Formation, env.FormationSpacing)
	goals := make(map[string]geom.Vec, len(members))
	for i, id := range members {
		goals[id] = slots[i]
	}
	return goals
}

// completeTargets moves assigned targets whose agent arrived to completed and
// frees that agent. Targets whose agent is gone or destroyed are left alone.
func completeTargets(st *swarm.State, radius float64, now time.Time) []swarm.ElectionEvent {
	var events []swarm.ElectionEvent
	for i := range st.Targets {
		t := &st.Targets[i]
		if t.Status != swarm.TargetAssigned {
			continue
		}
		ai := st.AgentIndex(t.AssignedAgentID)
		if ai < 0 || !st.Agents[ai].Alive() {
			continue
		}
		a := &st.Agents[ai]
		if geom.Distance(a.Position, t.Position) >= radius || !t.Status.CanAdvanceTo(swarm.TargetCompleted) {
			continue
		}
		t.Status = swarm.TargetCompleted
		a.Task = swarm.TaskIdle
		a.AssignedTargetID = ""
		events = append(events, swarm.ElectionEvent{
			Timestamp:   now,
			Kind:        swarm.EventTargetCompleted,
			Details:     fmt.Sprintf("%s completed %s", a.ID, t.ID),
			CandidateID: a.ID,
		})
	}
	return events
}

// detectLoss checks the three master loss conditions in priority order:
// destroyed, proactive handoff, then heartbeat timeout.
func detectLoss(st *swarm.State, env Env, in Input) *election.Trigger {
	if mi := st.AgentIndex(st.MasterID); mi >= 0 {
		m := &st.Agents[mi]
		if !m.Alive() {
			id := m.ID
			m.Role = swarm.RoleSlave
			st.MasterID = ""
			return &election.Trigger{Reason: election.ReasonDestroyed, MasterID: id}
		}
		if m.Battery < env.HandoffThreshold && len(election.Rank(st.Agents, m.ID)) > 0 {
			return &election.Trigger{Reason: election.ReasonHandoff, MasterID: m.ID, Battery: m.Battery}
		}
		return nil
	}
	if in.Now.Sub(in.LastMasterHeartbeat) > env.HeartbeatTimeout {
		return &election.Trigger{Reason: election.ReasonTimeout, MasterID: st.MasterID}
	}
	return nil
}

// Heartbeat refreshes the liveness timestamp of a live master. ok is false
// when no live agent holds the master id.
func Heartbeat(st swarm.State, now time.Time) (swarm.State, bool) {
	mi := st.AgentIndex(st.MasterID)
	if mi < 0 || !st.Agents[mi].Alive() {
		return st, false
	}
	out := st.Clone()
	out.Agents[mi].LastHeartbeat = now
	return out, true
}
