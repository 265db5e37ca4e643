package sim

import "swarmmesh-sim/internal/telemetry"

// StateWriter handles per-heartbeat swarm state rows.
type StateWriter interface {
	WriteState(telemetry.StateRow) error
}

// Optional: writers may support batch mode for state rows.
type batchStateWriter interface {
	WriteStates([]telemetry.StateRow) error
}

// HeartbeatWriter handles the master's liveness messages.
type HeartbeatWriter interface {
	WriteHeartbeat(telemetry.HeartbeatRow) error
}
