package sim

import "swarmmesh-sim/internal/telemetry"

// EventWriter handles election and mission log entries.
type EventWriter interface {
	WriteEvent(telemetry.EventRow) error
}

// Optional: writers may support batch mode for events.
type batchEventWriter interface {
	WriteEvents([]telemetry.EventRow) error
}
