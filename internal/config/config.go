// YAML config loader with CUE validation integration
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"swarmmesh-sim/internal/flock"
	"swarmmesh-sim/internal/geom"
	"swarmmesh-sim/internal/swarm"
)

// Area is the rectangular operating area.
type Area struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Margin float64 `yaml:"margin"`
}

// Rect converts the area to its geometric form.
func (a Area) Rect() geom.Rect {
	return geom.Rect{Width: a.Width, Height: a.Height, Margin: a.Margin}
}

// Formation selects the initial layout.
type Formation struct {
	Kind    swarm.FormationKind `yaml:"kind"`
	Spacing float64             `yaml:"spacing"`
}

// Config is the root configuration of a simulation session.
type Config struct {
	DroneCount        int           `yaml:"drone_count"`
	Seed              int64         `yaml:"seed"`
	Area              Area          `yaml:"area"`
	TickInterval      time.Duration `yaml:"tick_interval"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	HeartbeatTimeout  time.Duration `yaml:"heartbeat_timeout"`
	ElectionDelay     time.Duration `yaml:"election_delay"`
	KillElectionDelay time.Duration `yaml:"kill_election_delay"`
	HandoffThreshold  float64       `yaml:"handoff_threshold"`
	Formation         Formation     `yaml:"formation"`

	Boids   flock.Params      `yaml:"boids"`
	Battery swarm.DrainRates  `yaml:"battery"`
	Phone   flock.PhoneParams `yaml:"phone"`

	EventLogSize     int     `yaml:"event_log_size"`
	CompletionRadius float64 `yaml:"completion_radius"`

	RandomTargets swarm.Range         `yaml:"random_targets"`
	RandomZones   swarm.Range         `yaml:"random_zones"`
	Targets       []swarm.Target      `yaml:"targets"`
	JammingZones  []swarm.JammingZone `yaml:"jamming_zones"`
}

// Default returns the stock ten-drone scenario.
func Default() *Config {
	return &Config{
		DroneCount:        10,
		Seed:              1,
		Area:              Area{Width: 800, Height: 600, Margin: 20},
		TickInterval:      50 * time.Millisecond,
		HeartbeatInterval: time.Second,
		HeartbeatTimeout:  3 * time.Second,
		ElectionDelay:     100 * time.Millisecond,
		KillElectionDelay: 500 * time.Millisecond,
		HandoffThreshold:  20,
		Formation:         Formation{Kind: swarm.FormationGrid, Spacing: swarm.DefaultSpacing},
		Boids:             flock.DefaultParams(),
		Battery:           swarm.DefaultDrainRates(),
		Phone:             flock.DefaultPhoneParams(),
		EventLogSize:      50,
		CompletionRadius:  30,
		RandomTargets:     swarm.Range{Min: 3, Max: 5},
		RandomZones:       swarm.Range{Min: 1, Max: 2},
	}
}

// Load validates the YAML file at configPath against the CUE schema and
// decodes it over Default. An empty schema path skips schema validation.
func Load(configPath, cueSchemaPath string) (*Config, error) {
	if cueSchemaPath != "" {
		if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.DroneCount < 1 {
		errs = append(errs, fmt.Errorf("drone_count must be at least 1, got %d", c.DroneCount))
	}
	if c.Area.Width <= 2*c.Area.Margin || c.Area.Height <= 2*c.Area.Margin {
		errs = append(errs, fmt.Errorf("area %.0fx%.0f too small for margin %.0f", c.Area.Width, c.Area.Height, c.Area.Margin))
	}
	for name, d := range map[string]time.Duration{
		"tick_interval":      c.TickInterval,
		"heartbeat_interval": c.HeartbeatInterval,
		"heartbeat_timeout":  c.HeartbeatTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.ElectionDelay < 0 || c.KillElectionDelay < 0 {
		errs = append(errs, errors.New("election delays must not be negative"))
	}
	if _, err := swarm.ParseFormation(string(c.Formation.Kind)); err != nil {
		errs = append(errs, err)
	}
	b := c.Boids
	if !(b.SeparationRadius < b.AlignmentRadius && b.AlignmentRadius < b.CohesionRadius) {
		errs = append(errs, errors.New("boids radii must satisfy separation < alignment < cohesion"))
	}
	if b.MaxSpeed <= 0 {
		errs = append(errs, errors.New("boids max_speed must be positive"))
	}
	if c.RandomTargets.Max < c.RandomTargets.Min || c.RandomZones.Max < c.RandomZones.Min {
		errs = append(errs, errors.New("random ranges need min <= max"))
	}
	return errors.Join(errs...)
}

// InitOptions derives the roster seeding options.
func (c *Config) InitOptions() swarm.InitOptions {
	return swarm.InitOptions{
		Count:         c.DroneCount,
		Area:          c.Area.Rect(),
		Formation:     c.Formation.Kind,
		RandomTargets: c.RandomTargets,
		RandomZones:   c.RandomZones,
		Targets:       c.Targets,
		Zones:         c.JammingZones,
	}
}
