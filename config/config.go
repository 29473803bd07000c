package config

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Game      GameConfig     `mapstructure:"game"`
	Players   []PlayerConfig `mapstructure:"players"`
	Locations []string       `mapstructure:"locations"`
	Agent     AgentConfig    `mapstructure:"agent"`
	Prompts   PromptsConfig  `mapstructure:"prompts"`
	Logging   LoggingConfig  `mapstructure:"logging"`
	Database  DatabaseConfig `mapstructure:"database"`
	Watch     WatchConfig    `mapstructure:"watch"`
	Monitor   MonitorConfig  `mapstructure:"monitor"`
}

// GameConfig holds the round engine rules.
type GameConfig struct {
	NumRounds        int    `mapstructure:"num_rounds"`
	MaxTurnsPerRound int    `mapstructure:"max_turns_per_round"`
	RandomSeed       *int64 `mapstructure:"random_seed"`
	// FirstAsker pins the opening asker of every round. Empty means the
	// engine picks one from the seeded rng.
	FirstAsker string `mapstructure:"first_asker"`
}

type PlayerConfig struct {
	Nickname    string  `mapstructure:"nickname"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
}

type AgentConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
}

type PromptsConfig struct {
	SystemTemplate   string `mapstructure:"system_template"`
	CivilianTemplate string `mapstructure:"civilian_template"`
	SpyTemplate      string `mapstructure:"spy_template"`
}

type LoggingConfig struct {
	OutputDir   string `mapstructure:"output_dir"`
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type DatabaseConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Driver selects the PostgreSQL access layer: "gorm" or "pq".
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type WatchConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

type MonitorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("game.num_rounds", 3)
	viper.SetDefault("game.max_turns_per_round", 20)
	viper.SetDefault("agent.base_url", "https://openrouter.ai/api/v1")
	viper.SetDefault("agent.timeout_seconds", 60)
	viper.SetDefault("agent.max_retries", 1)
	viper.SetDefault("logging.output_dir", "logs")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("database.driver", "gorm")
	viper.SetDefault("watch.address", ":8080")
	viper.SetDefault("monitor.address", ":9100")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.ensureSeed()
	return config, nil
}

// Validate enforces the pre-round rules: a meaningful game needs a spy plus
// at least two civilians, distinct nicknames, and a nonempty location pool.
func (c *Config) Validate() error {
	if c.Game.NumRounds <= 0 {
		return fmt.Errorf("game.num_rounds must be positive, got %d", c.Game.NumRounds)
	}
	if c.Game.MaxTurnsPerRound <= 0 {
		return fmt.Errorf("game.max_turns_per_round must be positive, got %d", c.Game.MaxTurnsPerRound)
	}
	if len(c.Players) < 3 {
		return fmt.Errorf("at least 3 players are required, got %d", len(c.Players))
	}

	seen := make(map[string]bool, len(c.Players))
	for _, p := range c.Players {
		if p.Nickname == "" {
			return fmt.Errorf("player nickname must not be empty")
		}
		if p.Model == "" {
			return fmt.Errorf("player %q has no model configured", p.Nickname)
		}
		if seen[p.Nickname] {
			return fmt.Errorf("duplicate player nickname %q", p.Nickname)
		}
		seen[p.Nickname] = true
	}

	if len(c.Locations) == 0 {
		return fmt.Errorf("at least one location is required")
	}
	seenLoc := make(map[string]bool, len(c.Locations))
	for _, loc := range c.Locations {
		if loc == "" {
			return fmt.Errorf("location must not be empty")
		}
		if seenLoc[loc] {
			return fmt.Errorf("duplicate location %q", loc)
		}
		seenLoc[loc] = true
	}

	if c.Game.FirstAsker != "" && !seen[c.Game.FirstAsker] {
		return fmt.Errorf("game.first_asker %q is not a configured player", c.Game.FirstAsker)
	}

	return nil
}

// Nicknames returns the player nicknames in configuration order. The engine
// depends on this ordering for reproducibility.
func (c *Config) Nicknames() []string {
	names := make([]string, 0, len(c.Players))
	for _, p := range c.Players {
		names = append(names, p.Nickname)
	}
	return names
}

// Player returns the configuration for the named player.
func (c *Config) Player(nickname string) (PlayerConfig, bool) {
	for _, p := range c.Players {
		if p.Nickname == nickname {
			return p, true
		}
	}
	return PlayerConfig{}, false
}

// ensureSeed fills in a high-entropy seed when none is configured, so the
// seed actually used is always recorded in the game log.
func (c *Config) ensureSeed() {
	if c.Game.RandomSeed != nil {
		return
	}
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		// crypto/rand failing is unrecoverable; fall back to a fixed seed
		// rather than aborting a game over entropy.
		seed := int64(42)
		c.Game.RandomSeed = &seed
		return
	}
	seed := int64(binary.LittleEndian.Uint64(b[:]))
	c.Game.RandomSeed = &seed
}
