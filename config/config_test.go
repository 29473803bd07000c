package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Game: GameConfig{
			NumRounds:        3,
			MaxTurnsPerRound: 20,
		},
		Players: []PlayerConfig{
			{Nickname: "A", Model: "model-a"},
			{Nickname: "B", Model: "model-b"},
			{Nickname: "C", Model: "model-c"},
		},
		Locations: []string{"Bank", "Beach"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero rounds", func(c *Config) { c.Game.NumRounds = 0 }, "num_rounds"},
		{"zero turn limit", func(c *Config) { c.Game.MaxTurnsPerRound = 0 }, "max_turns_per_round"},
		{"too few players", func(c *Config) { c.Players = c.Players[:2] }, "at least 3 players"},
		{"empty nickname", func(c *Config) { c.Players[1].Nickname = "" }, "nickname"},
		{"missing model", func(c *Config) { c.Players[0].Model = "" }, "no model"},
		{"duplicate nickname", func(c *Config) { c.Players[2].Nickname = "A" }, "duplicate player"},
		{"no locations", func(c *Config) { c.Locations = nil }, "at least one location"},
		{"empty location", func(c *Config) { c.Locations[0] = "" }, "location"},
		{"duplicate location", func(c *Config) { c.Locations = []string{"Bank", "Bank"} }, "duplicate location"},
		{"unknown first asker", func(c *Config) { c.Game.FirstAsker = "Z" }, "first_asker"},
		{"known first asker", func(c *Config) { c.Game.FirstAsker = "B" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfig_Nicknames_PreservesOrder(t *testing.T) {
	cfg := validConfig()
	names := cfg.Nicknames()
	want := []string{"A", "B", "C"}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("Expected nicknames %v, got %v", want, names)
		}
	}
}

func TestConfig_Player(t *testing.T) {
	cfg := validConfig()

	p, ok := cfg.Player("B")
	if !ok || p.Model != "model-b" {
		t.Errorf("Expected player B with model-b, got %+v (ok=%v)", p, ok)
	}
	if _, ok := cfg.Player("Z"); ok {
		t.Error("Expected lookup miss for unknown player")
	}
}

func TestConfig_EnsureSeed(t *testing.T) {
	cfg := validConfig()
	cfg.ensureSeed()
	if cfg.Game.RandomSeed == nil {
		t.Fatal("Expected a generated seed")
	}

	seed := int64(42)
	cfg = validConfig()
	cfg.Game.RandomSeed = &seed
	cfg.ensureSeed()
	if *cfg.Game.RandomSeed != 42 {
		t.Errorf("Configured seed must be kept, got %d", *cfg.Game.RandomSeed)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	raw := `game:
  num_rounds: 2
  max_turns_per_round: 10
  random_seed: 42
players:
  - nickname: A
    model: model-a
  - nickname: B
    model: model-b
  - nickname: C
    model: model-c
locations:
  - Bank
  - Beach
agent:
  api_key: test-key
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(raw), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Game.NumRounds != 2 {
		t.Errorf("Expected 2 rounds, got %d", cfg.Game.NumRounds)
	}
	if cfg.Game.RandomSeed == nil || *cfg.Game.RandomSeed != 42 {
		t.Errorf("Expected seed 42, got %v", cfg.Game.RandomSeed)
	}
	if len(cfg.Players) != 3 {
		t.Errorf("Expected 3 players, got %d", len(cfg.Players))
	}
	if cfg.Agent.BaseURL == "" {
		t.Error("Expected the default agent base URL to apply")
	}
	if cfg.Agent.TimeoutSeconds != 60 {
		t.Errorf("Expected default timeout 60, got %d", cfg.Agent.TimeoutSeconds)
	}
}
