// Scripted command timelines replayed against a running swarm
package scenario

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"swarmmesh-sim/internal/swarm"
)

// Action is a host command issued by a scenario step.
type Action string

const (
	ActionStartMission    Action = "start_mission"
	ActionStopMission     Action = "stop_mission"
	ActionKillMaster      Action = "kill_master"
	ActionFormation       Action = "formation"
	ActionConnectPhone    Action = "connect_phone"
	ActionDisconnectPhone Action = "disconnect_phone"
	ActionPhoneMotion     Action = "phone_motion"
	ActionPause           Action = "pause"
	ActionResume          Action = "resume"
)

// Scenario is a named, ordered list of timed commands.
type Scenario struct {
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Step fires Action at offset At from the moment the scenario is applied.
type Step struct {
	At        time.Duration       `yaml:"at"`
	Action    Action              `yaml:"action"`
	Formation swarm.FormationKind `yaml:"formation,omitempty"`
	Motion    *swarm.MotionSample `yaml:"motion,omitempty"`
}

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates a YAML scenario.
func Parse(b []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every step carries what its action needs.
func (s *Scenario) Validate() error {
	var errs []error
	for i, st := range s.Steps {
		if st.At < 0 {
			errs = append(errs, fmt.Errorf("step %d: negative offset %s", i, st.At))
		}
		switch st.Action {
		case ActionStartMission, ActionStopMission, ActionKillMaster,
			ActionConnectPhone, ActionDisconnectPhone, ActionPause, ActionResume:
		case ActionFormation:
			if _, err := swarm.ParseFormation(string(st.Formation)); err != nil {
				errs = append(errs, fmt.Errorf("step %d: %w", i, err))
			}
		case ActionPhoneMotion:
			if st.Motion == nil {
				errs = append(errs, fmt.Errorf("step %d: phone_motion needs a motion sample", i))
			}
		default:
			errs = append(errs, fmt.Errorf("step %d: unknown action %q", i, st.Action))
		}
	}
	return errors.Join(errs...)
}

// Ordered returns the steps sorted by offset, keeping file order for ties.
func (s *Scenario) Ordered() []Step {
	steps := append([]Step(nil), s.Steps...)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].At < steps[j].At })
	return steps
}

// Duration is the offset of the last step.
func (s *Scenario) Duration() time.Duration {
	var d time.Duration
	for _, st := range s.Steps {
		if st.At > d {
			d = st.At
		}
	}
	return d
}
