package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"swarmmesh-sim/internal/swarm"
)

const schemaPath = "../../schemas/swarm.cue"

func writeTemp(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swarm.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	path := writeTemp(t, `
drone_count: 6
tick_interval: 100ms
formation:
  kind: circle
boids:
  max_speed: 4
targets:
  - id: t1
    position: {x: 100, y: 200}
    priority: 4
    type: attack
`)
	cfg, err := Load(path, schemaPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.DroneCount != 6 || cfg.TickInterval != 100*time.Millisecond {
		t.Errorf("unexpected overrides: %+v", cfg)
	}
	if cfg.Formation.Kind != swarm.FormationCircle {
		t.Errorf("formation = %s, want circle", cfg.Formation.Kind)
	}
	if cfg.Boids.MaxSpeed != 4 || cfg.Boids.CohesionRadius != 150 {
		t.Errorf("boids not merged over defaults: %+v", cfg.Boids)
	}
	if cfg.HeartbeatTimeout != 3*time.Second {
		t.Errorf("default heartbeat timeout lost: %s", cfg.HeartbeatTimeout)
	}
	if len(cfg.Targets) != 1 || cfg.Targets[0].Position.Y != 200 || cfg.Targets[0].Type != swarm.TargetAttack {
		t.Errorf("unexpected targets: %+v", cfg.Targets)
	}
}

func TestLoadShippedConfigs(t *testing.T) {
	for _, name := range []string{"swarm.yaml", "contested.yaml"} {
		if _, err := Load(filepath.Join("../../config", name), schemaPath); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestLoadConfig_SchemaRejects(t *testing.T) {
	cases := map[string]string{
		"formation": "formation:\n  kind: wedge\n",
		"duration":  "tick_interval: fast\n",
		"priority":  "targets:\n  - id: t\n    position: {x: 1, y: 1}\n    priority: 9\n    type: relay\n",
		"count":     "drone_count: 0\n",
	}
	for name, body := range cases {
		if _, err := Load(writeTemp(t, body), schemaPath); err == nil {
			t.Errorf("%s: expected schema error", name)
		}
	}
}

func TestValidateSemantic(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cfg.Boids.SeparationRadius = 200
	cfg.TickInterval = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"separation < alignment", "tick_interval"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestParseWithoutSchema(t *testing.T) {
	cfg, err := Parse([]byte("seed: 9\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Seed != 9 || cfg.DroneCount != 10 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	opts := cfg.InitOptions()
	if opts.Area.Width != 800 || opts.Count != 10 {
		t.Errorf("unexpected init options: %+v", opts)
	}
}
