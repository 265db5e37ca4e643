// Greedy mission target allocation
package tasking

import (
	"math"
	"sort"

	"swarmmesh-sim/internal/geom"
	"swarmmesh-sim/internal/swarm"
)

// fallbackTasks is cycled by roster position for agents left without a target.
var fallbackTasks = []swarm.Task{swarm.TaskScout, swarm.TaskObserver, swarm.TaskRelay}

// Assignment records one agent bound to one target.
type Assignment struct {
	AgentID  string
	TargetID string
	Task     swarm.Task
	Distance float64
}

// Result is the outcome of an allocation pass.
type Result struct {
	Agents      []swarm.Agent
	Targets     []swarm.Target
	Assignments []Assignment
}

// Allocate assigns available agents to pending targets in priority order,
// nearest agent first, then hands out fallback tasks. Inputs are not modified.
func Allocate(agents []swarm.Agent, masterID string, targets []swarm.Target) Result {
	outAgents := swarm.CloneAgents(agents)
	outTargets := append([]swarm.Target(nil), targets...)

	pending := make([]int, 0, len(outTargets))
	for i, t := range outTargets {
		if t.Status == swarm.TargetPending {
			pending = append(pending, i)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return outTargets[pending[i]].Priority > outTargets[pending[j]].Priority
	})

	available := make([]int, 0, len(outAgents))
	for i, a := range outAgents {
		if isAvailable(a, masterID) {
			available = append(available, i)
		}
	}

	var assignments []Assignment
	for _, ti := range pending {
		if len(available) == 0 {
			break
		}
		target := &outTargets[ti]
		best, bestDist := -1, math.Inf(1)
		for k, ai := range available {
			d := geom.Distance(outAgents[ai].Position, target.Position)
			if d < bestDist {
				best, bestDist = k, d
			}
		}
		ai := available[best]
		task := swarm.TaskFor(target.Type)
		outAgents[ai].Task = task
		outAgents[ai].AssignedTargetID = target.ID
		target.Status = swarm.TargetAssigned
		target.AssignedAgentID = outAgents[ai].ID
		available = append(available[:best], available[best+1:]...)
		assignments = append(assignments, Assignment{
			AgentID:  outAgents[ai].ID,
			TargetID: target.ID,
			Task:     task,
			Distance: bestDist,
		})
	}

	for i := range outAgents {
		a := &outAgents[i]
		switch {
		case masterID != "" && a.ID == masterID:
			a.Task = swarm.TaskObserver
		case a.Task == swarm.TaskIdle && a.Alive() && !a.IsPhone:
			a.Task = fallbackTasks[i%len(fallbackTasks)]
		}
	}

	return Result{Agents: outAgents, Targets: outTargets, Assignments: assignments}
}

func isAvailable(a swarm.Agent, masterID string) bool {
	return a.ID != masterID && !a.IsPhone && a.Alive() && a.Task == swarm.TaskIdle
}
