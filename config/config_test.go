package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}

	if cfg.Agent.MaxEnergy != 150 {
		t.Errorf("Agent.MaxEnergy = %v, want 150", cfg.Agent.MaxEnergy)
	}
	if cfg.Simulation.MaxTicks != 600 {
		t.Errorf("Simulation.MaxTicks = %v, want 600", cfg.Simulation.MaxTicks)
	}
	if cfg.Fitness.Floor != 0.1 {
		t.Errorf("Fitness.Floor = %v, want 0.1", cfg.Fitness.Floor)
	}
	if cfg.Maze.NumSmallFood != 10 || cfg.Maze.NumBigFood != 5 {
		t.Errorf("food counts = %d/%d, want 10/5", cfg.Maze.NumSmallFood, cfg.Maze.NumBigFood)
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	override := "agent:\n  max_energy: 99\n"
	if err := os.WriteFile(path, []byte(override), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q): %v", path, err)
	}

	if cfg.Agent.MaxEnergy != 99 {
		t.Errorf("Agent.MaxEnergy = %v, want override 99", cfg.Agent.MaxEnergy)
	}
	// Untouched sections keep their defaults.
	if cfg.Agent.StepCost != 0.5 {
		t.Errorf("Agent.StepCost = %v, want default 0.5", cfg.Agent.StepCost)
	}
	if cfg.Simulation.MaxTicks != 600 {
		t.Errorf("Simulation.MaxTicks = %v, want default 600", cfg.Simulation.MaxTicks)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestDerivedValues(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Derived.TotalFood != cfg.Maze.NumSmallFood+cfg.Maze.NumBigFood {
		t.Errorf("Derived.TotalFood = %d, want %d", cfg.Derived.TotalFood, cfg.Maze.NumSmallFood+cfg.Maze.NumBigFood)
	}
	if cfg.Derived.Workers < 1 {
		t.Errorf("Derived.Workers = %d, want >= 1", cfg.Derived.Workers)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Agent.MaxEnergy = 123

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reloading written config: %v", err)
	}
	if reloaded.Agent.MaxEnergy != 123 {
		t.Errorf("reloaded MaxEnergy = %v, want 123", reloaded.Agent.MaxEnergy)
	}
}
