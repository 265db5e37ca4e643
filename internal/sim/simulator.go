// Simulator orchestrating the swarm clock, elections and output writers
package sim

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"swarmmesh-sim/internal/config"
	"swarmmesh-sim/internal/election"
	"swarmmesh-sim/internal/logging"
	"swarmmesh-sim/internal/swarm"
	"swarmmesh-sim/internal/telemetry"
)

// TelemetryWriter is an interface to support different output writers.
type TelemetryWriter interface {
	Write(telemetry.AgentRow) error
}

// Optional: Writers can also support batch mode
type batchWriter interface {
	WriteBatch([]telemetry.AgentRow) error
}

// simContext holds the counters kept alongside the swarm state.
type simContext struct {
	masterSince         time.Time
	lastMasterHeartbeat time.Time
	elections           int
}

// Simulator is the single owner of the swarm state. Every mutation happens
// under mu, either from the simulated clock or from a command.
type Simulator struct {
	mu sync.Mutex

	cfg     *config.Config
	env     Env
	rand    *rand.Rand
	clock   *Clock
	script  *Clock
	state   swarm.State
	machine *election.Machine
	events  *election.Log
	ctx     simContext
	paused  bool
	phone   *swarm.MotionSample

	gen             *telemetry.Generator
	writer          TelemetryWriter
	eventWriter     EventWriter
	stateWriter     StateWriter
	heartbeatWriter HeartbeatWriter
	log             *slog.Logger
}

// Option customizes a Simulator.
type Option func(*Simulator)

// WithRand replaces the seeded random source.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rand = r }
}

// WithStart sets the simulated start time.
func WithStart(t time.Time) Option {
	return func(s *Simulator) {
		s.clock = NewClock(t)
		s.script = NewClock(t)
	}
}

// WithLogger sets the logger used for lifecycle and election messages.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.log = l }
}

// NewSimulator seeds a swarm from cfg. writer may be nil; when it also
// implements EventWriter, StateWriter or HeartbeatWriter those rows go to it too.
func NewSimulator(runID string, cfg *config.Config, writer TelemetryWriter, opts ...Option) *Simulator {
	now := time.Now().UTC()
	s := &Simulator{
		cfg:    cfg,
		clock:  NewClock(now),
		script: NewClock(now),
		events: election.NewLog(cfg.EventLogSize),
		gen:    telemetry.NewGenerator(runID),
		writer: writer,
		log:    slog.Default(),
		env:    EnvFor(cfg),
	}
	for _, o := range opts {
		o(s)
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewSource(cfg.Seed))
	}
	if ew, ok := writer.(EventWriter); ok {
		s.eventWriter = ew
	}
	if sw, ok := writer.(StateWriter); ok {
		s.stateWriter = sw
	}
	if hw, ok := writer.(HeartbeatWriter); ok {
		s.heartbeatWriter = hw
	}

	start := s.clock.Now()
	s.state = swarm.Initialize(cfg.InitOptions(), s.rand, start)
	s.machine = election.NewMachine(s.state.MasterID != "")
	s.ctx = simContext{masterSince: start, lastMasterHeartbeat: start}

	s.clock.Every(cfg.TickInterval, "tick", s.tick)
	s.clock.Every(cfg.HeartbeatInterval, "heartbeat", s.heartbeat)
	return s
}

// Run advances the simulation in real time until the context is done.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting simulator", "tick_interval", s.cfg.TickInterval, "agents", s.cfg.DroneCount)
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Advance(s.cfg.TickInterval)
		case <-ctx.Done():
			log.Info("stopping simulator")
			return
		}
	}
}

// Advance moves simulated time forward by d in steps of at most one tick.
// Scenario steps keep running while paused; the swarm clock does not.
func (s *Simulator) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for d > 0 {
		step := min(d, s.cfg.TickInterval)
		s.script.Advance(step)
		if !s.paused {
			s.clock.Advance(step)
		}
		d -= step
	}
}

func (s *Simulator) tick(now time.Time) {
	next, fx := Step(s.state, s.env, s.cfg.TickInterval, Input{
		Now:                 now,
		Phone:               s.phone,
		LastMasterHeartbeat: s.ctx.lastMasterHeartbeat,
	})
	s.state = next
	s.record(fx.Events...)
	if fx.Trigger != nil {
		s.beginElection(*fx.Trigger, s.cfg.ElectionDelay)
	}
}

func (s *Simulator) heartbeat(now time.Time) {
	next, ok := Heartbeat(s.state, now)
	s.state = next
	if ok {
		s.ctx.lastMasterHeartbeat = now
		if s.heartbeatWriter != nil {
			if err := s.heartbeatWriter.WriteHeartbeat(s.gen.HeartbeatRow(s.state, now)); err != nil {
				s.log.Error("heartbeat write failed", "err", err)
			}
		}
	}
	s.writeSnapshot(now)
}

// beginElection enters Lost and schedules the election after delay. It
// returns false when an election is already in progress.
func (s *Simulator) beginElection(t election.Trigger, delay time.Duration) bool {
	next, events, ok := s.machine.Begin(s.state, t, s.clock.Now())
	if !ok {
		s.log.Debug("election already in progress", "reason", t.Reason)
		return false
	}
	s.state = next
	s.ctx.elections++
	s.record(events...)
	s.log.Info("master lost", "master_id", t.MasterID, "reason", string(t.Reason), "delay", delay)
	s.clock.After(delay, "election", s.resolveElection)
	return true
}

func (s *Simulator) resolveElection(now time.Time) {
	out := s.machine.Resolve(s.state, now)
	s.state = out.State
	s.record(out.Events...)
	s.record(assignmentEvents(out.Assignments, now)...)
	s.ctx.lastMasterHeartbeat = now
	if out.WinnerID == "" {
		s.log.Warn("swarm leaderless", "phase", s.machine.Phase().String())
		return
	}
	s.ctx.masterSince = now
	s.log.Info("new master elected", "winner_id", out.WinnerID, "assignments", len(out.Assignments))
}

// record appends events to the bounded log and forwards them to the event writer.
func (s *Simulator) record(events ...swarm.ElectionEvent) {
	if len(events) == 0 {
		return
	}
	s.events.Append(events...)
	if s.eventWriter == nil {
		return
	}
	rows := make([]telemetry.EventRow, len(events))
	for i, e := range events {
		rows[i] = s.gen.EventRow(e)
	}
	if bw, ok := s.eventWriter.(batchEventWriter); ok {
		if err := bw.WriteEvents(rows); err != nil {
			s.log.Error("event batch write failed", "err", err)
		}
		return
	}
	for _, r := range rows {
		if err := s.eventWriter.WriteEvent(r); err != nil {
			s.log.Error("event write failed", "kind", r.Kind, "err", err)
		}
	}
}

func (s *Simulator) writeSnapshot(now time.Time) {
	if s.writer != nil {
		batch := s.gen.AgentRows(s.state, now)
		if bw, ok := s.writer.(batchWriter); ok {
			if err := bw.WriteBatch(batch); err != nil {
				s.log.Error("batch write failed", "err", err)
			}
		} else {
			for _, row := range batch {
				if err := s.writer.Write(row); err != nil {
					s.log.Error("write failed", "agent_id", row.AgentID, "err", err)
				}
			}
		}
	}
	if s.stateWriter != nil {
		row := s.gen.StateRow(s.state, s.metrics(), s.paused, now)
		if err := s.stateWriter.WriteState(row); err != nil {
			s.log.Error("state write failed", "err", err)
		}
	}
}

func (s *Simulator) metrics() swarm.Metrics {
	var uptime time.Duration
	if s.state.MasterID != "" {
		uptime = s.clock.Now().Sub(s.ctx.masterSince)
	}
	return swarm.ComputeMetrics(s.state, uptime, s.ctx.elections)
}
