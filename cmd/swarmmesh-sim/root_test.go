package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func newEnvCmd() *cobra.Command {
	c := &cobra.Command{Use: "env-test"}
	c.Flags().String("env-file", ".env", "")
	return c
}

func TestLoadEnvMissingDefaultIsIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := loadEnv(newEnvCmd(), path); err != nil {
		t.Fatalf("expected missing default env file to be ignored, got %v", err)
	}
}

func TestLoadEnvMissingExplicitFails(t *testing.T) {
	c := newEnvCmd()
	path := filepath.Join(t.TempDir(), "missing.env")
	if err := c.Flags().Set("env-file", path); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if err := loadEnv(c, path); err == nil {
		t.Fatalf("expected error for explicit missing env file")
	}
}

func TestLoadEnvSetsVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SWARM_TEST_ENV_VALUE=relay\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("SWARM_TEST_ENV_VALUE", "")
	os.Unsetenv("SWARM_TEST_ENV_VALUE")
	if err := loadEnv(newEnvCmd(), path); err != nil {
		t.Fatalf("loadEnv: %v", err)
	}
	if got := os.Getenv("SWARM_TEST_ENV_VALUE"); got != "relay" {
		t.Fatalf("SWARM_TEST_ENV_VALUE = %q", got)
	}
}
