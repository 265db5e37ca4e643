package election

import "swarmmesh-sim/internal/swarm"

// DefaultLogSize is the number of events retained when no size is configured.
const DefaultLogSize = 50

// Log keeps the most recent events, newest first.
type Log struct {
	entries []swarm.ElectionEvent
	max     int
}

// NewLog creates a log holding at most max events.
func NewLog(max int) *Log {
	if max <= 0 {
		max = DefaultLogSize
	}
	return &Log{max: max}
}

// Append records events in the order they happened; the last one becomes the newest.
func (l *Log) Append(events ...swarm.ElectionEvent) {
	for _, e := range events {
		l.entries = append([]swarm.ElectionEvent{e}, l.entries...)
	}
	if len(l.entries) > l.max {
		l.entries = l.entries[:l.max]
	}
}

// Entries returns a copy of the retained events, newest first.
func (l *Log) Entries() []swarm.ElectionEvent {
	out := make([]swarm.ElectionEvent, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained events.
func (l *Log) Len() int { return len(l.entries) }
