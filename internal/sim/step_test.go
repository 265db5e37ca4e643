package sim

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swarmmesh-sim/internal/config"
	"swarmmesh-sim/internal/election"
	"swarmmesh-sim/internal/geom"
	"swarmmesh-sim/internal/swarm"
)

func stepAgent(id string, x, y, battery float64, role swarm.Role) swarm.Agent {
	return swarm.Agent{
		ID:       id,
		Position: geom.Vec{X: x, Y: y},
		Battery:  battery,
		Role:     role,
		Task:     swarm.TaskIdle,
		Health:   swarm.HealthFor(battery),
	}
}

func stepState() swarm.State {
	return swarm.State{
		Agents: []swarm.Agent{
			stepAgent("drone_1", 400, 300, 90, swarm.RoleMaster),
			stepAgent("drone_2", 200, 200, 70, swarm.RoleSlave),
			stepAgent("drone_3", 600, 400, 60, swarm.RoleSlave),
		},
		MasterID:  "drone_1",
		Formation: swarm.FormationGrid,
	}
}

func TestStepBatteryNeverIncreases(t *testing.T) {
	env := EnvFor(config.Default())
	st := stepState()
	st.JammingZones = []swarm.JammingZone{{ID: "jam_1", Center: geom.Vec{X: 200, Y: 200}, Radius: 100, Intensity: 80}}
	now := t0
	for i := 0; i < 50; i++ {
		now = now.Add(50 * time.Millisecond)
		next, _ := Step(st, env, 50*time.Millisecond, Input{Now: now, LastMasterHeartbeat: now})
		for j := range next.Agents {
			require.LessOrEqual(t, next.Agents[j].Battery, st.Agents[j].Battery, "agent %s", next.Agents[j].ID)
			assert.Equal(t, swarm.HealthFor(next.Agents[j].Battery), next.Agents[j].Health)
			assert.Equal(t, next.Agents[j].Position, env.Area.Clamp(next.Agents[j].Position))
		}
		st = next
	}
}

func TestStepDoesNotMutateInput(t *testing.T) {
	env := EnvFor(config.Default())
	st := stepState()
	before := st.Clone()
	_, _ = Step(st, env, 50*time.Millisecond, Input{Now: t0, LastMasterHeartbeat: t0})
	assert.Equal(t, before, st)
}

func TestStepDestroyedMasterTriggersElection(t *testing.T) {
	env := EnvFor(config.Default())
	st := stepState()
	st.Agents[0].Battery = 0.00001

	next, fx := Step(st, env, 50*time.Millisecond, Input{Now: t0, LastMasterHeartbeat: t0})
	require.NotNil(t, fx.Trigger)
	assert.Equal(t, election.ReasonDestroyed, fx.Trigger.Reason)
	assert.Equal(t, "drone_1", fx.Trigger.MasterID)
	assert.Empty(t, next.MasterID)
	assert.Equal(t, swarm.HealthDestroyed, next.Agents[0].Health)
	assert.Equal(t, swarm.RoleSlave, next.Agents[0].Role)
}

func TestStepHandoffNeedsCandidate(t *testing.T) {
	env := EnvFor(config.Default())
	st := stepState()
	st.Agents[0].Battery = 18
	st.Agents[0].Health = swarm.HealthFor(18)

	_, fx := Step(st, env, 50*time.Millisecond, Input{Now: t0, LastMasterHeartbeat: t0})
	require.NotNil(t, fx.Trigger)
	assert.Equal(t, election.ReasonHandoff, fx.Trigger.Reason)

	for i := 1; i < len(st.Agents); i++ {
		st.Agents[i].Battery = 8
		st.Agents[i].Health = swarm.HealthFor(8)
	}
	_, fx = Step(st, env, 50*time.Millisecond, Input{Now: t0, LastMasterHeartbeat: t0})
	assert.Nil(t, fx.Trigger, "no handoff without an eligible successor")
}

func TestStepHeartbeatTimeout(t *testing.T) {
	env := EnvFor(config.Default())
	st := stepState()
	st.MasterID = ""
	st.Agents[0].Role = swarm.RoleSlave

	_, fx := Step(st, env, 50*time.Millisecond, Input{Now: t0, LastMasterHeartbeat: t0.Add(-time.Second)})
	assert.Nil(t, fx.Trigger)

	_, fx = Step(st, env, 50*time.Millisecond, Input{Now: t0, LastMasterHeartbeat: t0.Add(-4 * time.Second)})
	require.NotNil(t, fx.Trigger)
	assert.Equal(t, election.ReasonTimeout, fx.Trigger.Reason)
}

func TestStepCompletesTargets(t *testing.T) {
	env := EnvFor(config.Default())
	st := stepState()
	st.MissionActive = true
	st.Agents[1].AssignedTargetID = "target_1"
	st.Agents[1].Task = swarm.TaskObserver
	st.Targets = []swarm.Target{
		{ID: "target_1", Position: geom.Vec{X: 205, Y: 200}, Priority: 3, Type: swarm.TargetObserve, Status: swarm.TargetAssigned, AssignedAgentID: "drone_2"},
		{ID: "target_2", Position: geom.Vec{X: 700, Y: 100}, Priority: 1, Type: swarm.TargetRelay, Status: swarm.TargetPending},
	}

	next, fx := Step(st, env, 50*time.Millisecond, Input{Now: t0, LastMasterHeartbeat: t0})
	assert.Equal(t, swarm.TargetCompleted, next.Targets[0].Status)
	assert.Equal(t, swarm.TargetPending, next.Targets[1].Status)
	assert.Equal(t, swarm.TaskIdle, next.Agents[1].Task)
	assert.Empty(t, next.Agents[1].AssignedTargetID)
	require.NotEmpty(t, fx.Events)
	assert.Equal(t, swarm.EventTargetCompleted, fx.Events[len(fx.Events)-1].Kind)

	st.MissionActive = false
	next, _ = Step(st, env, 50*time.Millisecond, Input{Now: t0, LastMasterHeartbeat: t0})
	assert.Equal(t, swarm.TargetAssigned, next.Targets[0].Status, "targets only complete during a mission")
}

func TestStepJammingEvents(t *testing.T) {
	env := EnvFor(config.Default())
	st := stepState()
	st.JammingZones = []swarm.JammingZone{{ID: "jam_1", Center: geom.Vec{X: 600, Y: 400}, Radius: 60, Intensity: 90}}

	next, fx := Step(st, env, 50*time.Millisecond, Input{Now: t0, LastMasterHeartbeat: t0})
	assert.True(t, next.Agents[2].InJammingZone)
	kinds := map[swarm.EventKind]int{}
	for _, e := range fx.Events {
		kinds[e.Kind]++
	}
	assert.Equal(t, 1, kinds[swarm.EventJammingDetected])

	_, fx = Step(next, env, 50*time.Millisecond, Input{Now: t0, LastMasterHeartbeat: t0})
	for _, e := range fx.Events {
		assert.NotEqual(t, swarm.EventJammingDetected, e.Kind, "entry is reported once")
	}
}

func TestHeartbeat(t *testing.T) {
	st := stepState()
	next, ok := Heartbeat(st, t0)
	require.True(t, ok)
	assert.Equal(t, t0, next.Agents[0].LastHeartbeat)
	assert.True(t, st.Agents[0].LastHeartbeat.IsZero())

	st.Agents[0].Health = swarm.HealthDestroyed
	_, ok = Heartbeat(st, t0)
	assert.False(t, ok)
}

func TestFormationGoalsSkipDestroyedAgents(t *testing.T) {
	env := EnvFor(config.Default())
	st := stepState()
	st.Formation = swarm.FormationLine
	st.Agents[0].Battery = 0
	st.Agents[0].Health = swarm.HealthDestroyed
	st.Agents = append(st.Agents, swarm.Agent{ID: swarm.PhoneAgentID, IsPhone: true, Battery: 85, Health: swarm.HealthHealthy})

	goals := formationGoals(st, env)
	want := swarm.GenerateFormation(env.Area.Center(), 2, swarm.FormationLine, env.FormationSpacing)
	require.Len(t, goals, 2)
	assert.Equal(t, want[0], goals["drone_2"])
	assert.Equal(t, want[1], goals["drone_3"])
	assert.NotContains(t, goals, "drone_1")
	assert.NotContains(t, goals, swarm.PhoneAgentID)
}

func TestStepIndependentOfRosterOrder(t *testing.T) {
	env := EnvFor(config.Default())
	st := swarm.State{
		Agents: []swarm.Agent{
			stepAgent("drone_1", 400, 300, 90, swarm.RoleMaster),
			stepAgent("drone_2", 430, 310, 70, swarm.RoleSlave),
			stepAgent("drone_3", 380, 340, 60, swarm.RoleSlave),
			stepAgent("drone_4", 450, 260, 40, swarm.RoleSlave),
		},
		MasterID:      "drone_1",
		Formation:     swarm.FormationCircle,
		MissionActive: true,
		JammingZones:  []swarm.JammingZone{{ID: "jam_1", Center: geom.Vec{X: 470, Y: 300}, Radius: 40, Intensity: 70}},
	}
	// Formation slots are handed out in roster order, so every agent steers
	// toward its own target instead.
	for i := range st.Agents {
		id := fmt.Sprintf("target_%d", i+1)
		st.Agents[i].AssignedTargetID = id
		st.Agents[i].Velocity = geom.Vec{X: float64(i) - 1.5, Y: 0.5}
		st.Targets = append(st.Targets, swarm.Target{
			ID:              id,
			Position:        geom.Vec{X: 100 + float64(i)*200, Y: 550},
			Priority:        i + 1,
			Type:            swarm.TargetObserve,
			Status:          swarm.TargetAssigned,
			AssignedAgentID: st.Agents[i].ID,
		})
	}
	permuted := st.Clone()
	for i, j := 0, len(permuted.Agents)-1; i < j; i, j = i+1, j-1 {
		permuted.Agents[i], permuted.Agents[j] = permuted.Agents[j], permuted.Agents[i]
	}

	in := Input{Now: t0, LastMasterHeartbeat: t0}
	a, _ := Step(st, env, 50*time.Millisecond, in)
	b, _ := Step(permuted, env, 50*time.Millisecond, in)
	for _, want := range a.Agents {
		got := b.Agents[b.AgentIndex(want.ID)]
		assert.InDelta(t, want.Position.X, got.Position.X, 1e-9, want.ID)
		assert.InDelta(t, want.Position.Y, got.Position.Y, 1e-9, want.ID)
		assert.InDelta(t, want.Velocity.X, got.Velocity.X, 1e-9, want.ID)
		assert.InDelta(t, want.Velocity.Y, got.Velocity.Y, 1e-9, want.ID)
		assert.InDelta(t, want.Battery, got.Battery, 1e-12, want.ID)
		assert.Equal(t, want.InJammingZone, got.InJammingZone, want.ID)
		assert.Len(t, got.Neighbors, len(want.Neighbors), want.ID)
	}
}

func TestStepHeadingFollowsVelocity(t *testing.T) {
	env := EnvFor(config.Default())
	center := env.Area.Center()
	st := swarm.State{
		Agents:    []swarm.Agent{stepAgent("drone_1", center.X, center.Y, 90, swarm.RoleMaster)},
		MasterID:  "drone_1",
		Formation: swarm.FormationLine,
	}
	st.Agents[0].Heading = 90

	next, _ := Step(st, env, 50*time.Millisecond, Input{Now: t0, LastMasterHeartbeat: t0})
	require.True(t, next.Agents[0].Velocity.IsZero())
	assert.Equal(t, 0.0, next.Agents[0].Heading)

	st.Agents[0].Position = geom.Vec{X: center.X, Y: center.Y - 100}
	next, _ = Step(st, env, 50*time.Millisecond, Input{Now: t0, LastMasterHeartbeat: t0})
	assert.InDelta(t, 90.0, next.Agents[0].Heading, 1e-9)
}
