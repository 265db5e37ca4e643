package swarm

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swarmmesh-sim/internal/geom"
)

func TestGenerateFormationGrid3x3(t *testing.T) {
	center := geom.Vec{X: 400, Y: 300}
	pos := GenerateFormation(center, 9, FormationGrid, 80)
	require.Len(t, pos, 9)

	xs := map[float64]int{}
	ys := map[float64]int{}
	var sum geom.Vec
	for _, p := range pos {
		xs[p.X]++
		ys[p.Y]++
		sum = sum.Add(p)
	}
	assert.Len(t, xs, 3)
	assert.Len(t, ys, 3)
	for _, x := range []float64{320, 400, 480} {
		assert.Equal(t, 3, xs[x], "column %v", x)
	}
	for _, y := range []float64{220, 300, 380} {
		assert.Equal(t, 3, ys[y], "row %v", y)
	}
	assert.InDelta(t, center.X, sum.X/9, 1e-9)
	assert.InDelta(t, center.Y, sum.Y/9, 1e-9)
}

func TestGenerateFormationLineAndCircle(t *testing.T) {
	center := geom.Vec{X: 100, Y: 100}

	line := GenerateFormation(center, 3, FormationLine, 50)
	assert.Equal(t, []geom.Vec{{X: 50, Y: 100}, {X: 100, Y: 100}, {X: 150, Y: 100}}, line)

	circle := GenerateFormation(center, 4, FormationCircle, 80)
	require.Len(t, circle, 4)
	radius := 80 * 4 / (2 * math.Pi)
	assert.InDelta(t, center.X, circle[0].X, 1e-9)
	assert.InDelta(t, center.Y-radius, circle[0].Y, 1e-9, "first slot sits at the top")
	for _, p := range circle {
		assert.InDelta(t, radius, geom.Distance(center, p), 1e-9)
	}
}

func TestGenerateFormationEmpty(t *testing.T) {
	for _, k := range Formations {
		assert.Empty(t, GenerateFormation(geom.Vec{}, 0, k, 80))
	}
}

func TestDrainMonotonicAndClamped(t *testing.T) {
	r := DefaultDrainRates()
	b := 50.0
	for i := 0; i < 1000; i++ {
		next := Drain(b, RoleMaster, 3, i%2 == 0, 50*time.Millisecond, r)
		require.LessOrEqual(t, next, b)
		b = next
	}
	assert.Equal(t, 0.0, Drain(0.0001, RoleSlave, 3, true, time.Hour, r))
	assert.Equal(t, HealthDestroyed, HealthFor(0))
}

func TestDrainMasterCostsMore(t *testing.T) {
	r := DefaultDrainRates()
	master := Drain(80, RoleMaster, 0, false, time.Second, r)
	slave := Drain(80, RoleSlave, 0, false, time.Second, r)
	assert.Less(t, master, slave)
	assert.InDelta(t, 80-0.002, master, 1e-12)
	jammed := Drain(80, RoleSlave, 2, true, time.Second, r)
	assert.InDelta(t, 80-(0.001+0.001+0.001), jammed, 1e-12)
}

func TestHealthFor(t *testing.T) {
	cases := map[float64]Health{
		-1: HealthDestroyed, 0: HealthDestroyed, 5: HealthCritical, 14.99: HealthCritical,
		15: HealthWarning, 29.9: HealthWarning, 30: HealthHealthy, 100: HealthHealthy,
	}
	for b, want := range cases {
		assert.Equal(t, want, HealthFor(b), "battery %v", b)
	}
}

func TestTargetStatusMonotonic(t *testing.T) {
	assert.True(t, TargetPending.CanAdvanceTo(TargetAssigned))
	assert.True(t, TargetAssigned.CanAdvanceTo(TargetCompleted))
	assert.False(t, TargetCompleted.CanAdvanceTo(TargetPending))
	assert.False(t, TargetCompleted.CanAdvanceTo(TargetAssigned))
	assert.False(t, TargetAssigned.CanAdvanceTo(TargetAssigned))
}

func TestInitialize(t *testing.T) {
	opts := InitOptions{
		Count:         10,
		Area:          geom.Rect{Width: 800, Height: 600, Margin: 20},
		Formation:     FormationCircle,
		RandomTargets: Range{Min: 3, Max: 5},
		RandomZones:   Range{Min: 1, Max: 2},
	}
	st := Initialize(opts, rand.New(rand.NewSource(7)), time.Unix(0, 0))
	require.Len(t, st.Agents, 10)
	assert.Equal(t, "drone_1", st.MasterID)
	assert.Equal(t, RoleMaster, st.Agents[0].Role)
	assert.GreaterOrEqual(t, st.Agents[0].Battery, 90.0)
	for _, a := range st.Agents[1:] {
		assert.Equal(t, RoleSlave, a.Role)
		assert.GreaterOrEqual(t, a.Battery, 50.0)
		assert.Less(t, a.Battery, 100.0)
	}
	assert.GreaterOrEqual(t, len(st.Targets), 3)
	assert.LessOrEqual(t, len(st.Targets), 5)
	assert.GreaterOrEqual(t, len(st.JammingZones), 1)
	assert.LessOrEqual(t, len(st.JammingZones), 2)
	for _, tg := range st.Targets {
		assert.Equal(t, TargetPending, tg.Status)
	}

	again := Initialize(opts, rand.New(rand.NewSource(7)), time.Unix(0, 0))
	assert.Equal(t, st, again, "same seed, same swarm")
}

func TestInitializeExplicitTargets(t *testing.T) {
	opts := InitOptions{
		Count:   2,
		Area:    geom.Rect{Width: 800, Height: 600},
		Targets: []Target{{ID: "t", Priority: 3, Type: TargetAttack, Status: TargetCompleted}},
		Zones:   []JammingZone{{ID: "z", Radius: 10, Intensity: 50}},
	}
	st := Initialize(opts, rand.New(rand.NewSource(1)), time.Unix(0, 0))
	require.Len(t, st.Targets, 1)
	assert.Equal(t, TargetPending, st.Targets[0].Status)
	assert.Equal(t, "z", st.JammingZones[0].ID)
}

func TestComputeMetrics(t *testing.T) {
	st := State{
		Agents: []Agent{
			{ID: "a", Battery: 80, Health: HealthHealthy, InJammingZone: true},
			{ID: "b", Battery: 40, Health: HealthHealthy},
			{ID: "c", Battery: 0, Health: HealthDestroyed, InJammingZone: true},
			{ID: "d", Battery: 60, Health: HealthHealthy},
		},
		Targets: []Target{{Status: TargetCompleted}, {Status: TargetAssigned}},
	}
	m := ComputeMetrics(st, 3*time.Second, 2)
	assert.Equal(t, 4, m.TotalAgents)
	assert.Equal(t, 3, m.ActiveAgents)
	assert.InDelta(t, 60, m.AverageBattery, 1e-9)
	assert.InDelta(t, 75, m.FormationIntegrity, 1e-9)
	assert.Equal(t, 1, m.JammedAgents)
	assert.Equal(t, 1, m.TargetsCompleted)
	assert.Equal(t, 2, m.Elections)
}

func TestCloneIsDeep(t *testing.T) {
	st := State{Agents: []Agent{{ID: "a", Neighbors: []NeighborLink{{PeerID: "b"}}}}}
	cp := st.Clone()
	cp.Agents[0].Neighbors[0].PeerID = "x"
	cp.Agents[0].ID = "z"
	assert.Equal(t, "b", st.Agents[0].Neighbors[0].PeerID)
	assert.Equal(t, "a", st.Agents[0].ID)
}

func TestParseFormation(t *testing.T) {
	k, err := ParseFormation("grid")
	require.NoError(t, err)
	assert.Equal(t, FormationGrid, k)
	_, err = ParseFormation("wedge")
	assert.Error(t, err)
}
