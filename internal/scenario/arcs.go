package scenario

import (
	"sort"
	"time"

	"swarmmesh-sim/internal/swarm"
)

// BuiltIn returns the predefined scenarios keyed by name.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"decapitation": {
			Name:        "Decapitation",
			Description: "Start a mission, destroy the master twice and watch the swarm re-elect.",
			Steps: []Step{
				{At: 0, Action: ActionStartMission},
				{At: 5 * time.Second, Action: ActionKillMaster},
				{At: 12 * time.Second, Action: ActionKillMaster},
				{At: 20 * time.Second, Action: ActionFormation, Formation: swarm.FormationCircle},
			},
		},
		"phone-relay": {
			Name:        "Phone Relay",
			Description: "Join a hand-flown relay drone, steer it across the area and drop it again.",
			Steps: []Step{
				{At: 0, Action: ActionConnectPhone},
				{At: time.Second, Action: ActionStartMission},
				{At: 2 * time.Second, Action: ActionPhoneMotion, Motion: &swarm.MotionSample{X: 0.6, Y: 0.4}},
				{At: 6 * time.Second, Action: ActionPhoneMotion, Motion: &swarm.MotionSample{X: -0.5, Y: 0.8, Yaw: 0.3}},
				{At: 10 * time.Second, Action: ActionPhoneMotion, Motion: &swarm.MotionSample{}},
				{At: 14 * time.Second, Action: ActionDisconnectPhone},
			},
		},
		"formation-tour": {
			Name:        "Formation Tour",
			Description: "Cycle through every formation with a pause in between.",
			Steps: []Step{
				{At: 0, Action: ActionFormation, Formation: swarm.FormationLine},
				{At: 8 * time.Second, Action: ActionFormation, Formation: swarm.FormationCircle},
				{At: 16 * time.Second, Action: ActionPause},
				{At: 18 * time.Second, Action: ActionResume},
				{At: 18 * time.Second, Action: ActionFormation, Formation: swarm.FormationGrid},
			},
		},
	}
}

// Names lists the built-in scenarios in alphabetical order.
func Names() []string {
	arcs := BuiltIn()
	names := make([]string, 0, len(arcs))
	for n := range arcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves name against the built-in library first and then as a
// path to a YAML file.
func Lookup(name string) (*Scenario, error) {
	if sc, ok := BuiltIn()[name]; ok {
		return &sc, nil
	}
	return Load(name)
}
