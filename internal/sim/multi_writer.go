package sim

import "swarmmesh-sim/internal/telemetry"

// MultiWriter fans rows out to several writers. Event, state and heartbeat
// rows reach only the writers that implement the matching interface.
type MultiWriter struct {
	writers []TelemetryWriter
}

// NewMultiWriter creates a new MultiWriter. nil writers are skipped.
func NewMultiWriter(writers ...TelemetryWriter) *MultiWriter {
	mw := &MultiWriter{}
	for _, w := range writers {
		if w != nil {
			mw.writers = append(mw.writers, w)
		}
	}
	return mw
}

// Write sends an agent row to all writers.
func (mw *MultiWriter) Write(row telemetry.AgentRow) error {
	for _, w := range mw.writers {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends multiple agent rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(rows []telemetry.AgentRow) error {
	for _, w := range mw.writers {
		if bw, ok := w.(batchWriter); ok {
			if err := bw.WriteBatch(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteEvent sends an event row to every event writer.
func (mw *MultiWriter) WriteEvent(e telemetry.EventRow) error {
	return mw.WriteEvents([]telemetry.EventRow{e})
}

// WriteEvents sends event rows to every event writer, using batch if supported.
func (mw *MultiWriter) WriteEvents(rows []telemetry.EventRow) error {
	for _, w := range mw.writers {
		if bw, ok := w.(batchEventWriter); ok {
			if err := bw.WriteEvents(rows); err != nil {
				return err
			}
			continue
		}
		ew, ok := w.(EventWriter)
		if !ok {
			continue
		}
		for _, r := range rows {
			if err := ew.WriteEvent(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteState sends a state row to every state writer.
func (mw *MultiWriter) WriteState(row telemetry.StateRow) error {
	for _, w := range mw.writers {
		if sw, ok := w.(StateWriter); ok {
			if err := sw.WriteState(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteHeartbeat sends a heartbeat row to every heartbeat writer.
func (mw *MultiWriter) WriteHeartbeat(hb telemetry.HeartbeatRow) error {
	for _, w := range mw.writers {
		if hw, ok := w.(HeartbeatWriter); ok {
			if err := hw.WriteHeartbeat(hb); err != nil {
				return err
			}
		}
	}
	return nil
}
