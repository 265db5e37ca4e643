package sim

import (
	"encoding/json"
	"os"

	"swarmmesh-sim/internal/telemetry"
)

// FileWriter writes agent, event, state and heartbeat rows to JSONL files.
type FileWriter struct {
	files    []*os.File
	agentEnc *json.Encoder
	eventEnc *json.Encoder
	stateEnc *json.Encoder
	beatEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. eventPath, statePath or heartbeatPath
// may be empty to skip those logs.
func NewFileWriter(agentPath, eventPath, statePath, heartbeatPath string) (*FileWriter, error) {
	fw := &FileWriter{}
	open := func(path string) (*json.Encoder, error) {
		if path == "" {
			return nil, nil
		}
		f, err := os.Create(path)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.files = append(fw.files, f)
		return json.NewEncoder(f), nil
	}
	var err error
	if fw.agentEnc, err = open(agentPath); err != nil {
		return nil, err
	}
	if fw.eventEnc, err = open(eventPath); err != nil {
		return nil, err
	}
	if fw.stateEnc, err = open(statePath); err != nil {
		return nil, err
	}
	if fw.beatEnc, err = open(heartbeatPath); err != nil {
		return nil, err
	}
	return fw, nil
}

// Write logs a single agent row.
func (f *FileWriter) Write(row telemetry.AgentRow) error {
	if f.agentEnc == nil {
		return nil
	}
	return f.agentEnc.Encode(row)
}

// WriteBatch logs multiple agent rows.
func (f *FileWriter) WriteBatch(rows []telemetry.AgentRow) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvent logs a single event row, if enabled.
func (f *FileWriter) WriteEvent(e telemetry.EventRow) error {
	if f.eventEnc == nil {
		return nil
	}
	return f.eventEnc.Encode(e)
}

// WriteEvents logs multiple event rows.
func (f *FileWriter) WriteEvents(rows []telemetry.EventRow) error {
	for _, r := range rows {
		if err := f.WriteEvent(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteState logs a swarm state row, if enabled.
func (f *FileWriter) WriteState(row telemetry.StateRow) error {
	if f.stateEnc == nil {
		return nil
	}
	return f.stateEnc.Encode(row)
}

// WriteStates logs multiple swarm state rows.
func (f *FileWriter) WriteStates(rows []telemetry.StateRow) error {
	for _, r := range rows {
		if err := f.WriteState(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteHeartbeat logs a heartbeat row, if enabled.
func (f *FileWriter) WriteHeartbeat(hb telemetry.HeartbeatRow) error {
	if f.beatEnc == nil {
		return nil
	}
	return f.beatEnc.Encode(hb)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	for _, file := range f.files {
		if e := file.Close(); e != nil && err == nil {
			err = e
		}
	}
	f.files = nil
	return err
}
