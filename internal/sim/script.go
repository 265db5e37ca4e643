package sim

import (
	"time"

	"swarmmesh-sim/internal/scenario"
)

// ApplyScenario schedules every step of sc relative to the current time.
// Steps run on their own timeline, so a paused swarm still receives them.
func (s *Simulator) ApplyScenario(sc *scenario.Scenario) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range sc.Ordered() {
		st := st
		s.script.After(st.At, "scenario", func(time.Time) { s.exec(st) })
	}
	s.log.Info("scenario scheduled", "name", sc.Name, "steps", len(sc.Steps), "duration", sc.Duration())
	return nil
}

func (s *Simulator) exec(st scenario.Step) {
	var err error
	switch st.Action {
	case scenario.ActionStartMission:
		s.startMission()
	case scenario.ActionStopMission:
		s.stopMission()
	case scenario.ActionKillMaster:
		err = s.killMaster()
	case scenario.ActionFormation:
		err = s.setFormation(st.Formation)
	case scenario.ActionConnectPhone:
		err = s.connectPhone()
	case scenario.ActionDisconnectPhone:
		err = s.disconnectPhone()
	case scenario.ActionPhoneMotion:
		if st.Motion != nil {
			err = s.updatePhoneMotion(*st.Motion)
		}
	case scenario.ActionPause:
		s.setPaused(true)
	case scenario.ActionResume:
		s.setPaused(false)
	}
	if err != nil {
		s.log.Warn("scenario step skipped", "action", string(st.Action), "err", err)
	}
}
