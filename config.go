package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ConfigName       = "spacecells"
	DefaultWorldSize = 2000.0
)

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr      string `json:"addr" mapstructure:"addr"`
	ClientDir string `json:"clientDir" mapstructure:"clientDir"`
	PublicURL string `json:"publicUrl" mapstructure:"publicUrl"`
}

// SimConfig holds simulation pacing and world settings
type SimConfig struct {
	TickRate      int     `json:"tickRate" mapstructure:"tickRate"`
	BroadcastRate int     `json:"broadcastRate" mapstructure:"broadcastRate"`
	WorldSize     float64 `json:"worldSize" mapstructure:"worldSize"`
	Seed          int64   `json:"seed" mapstructure:"seed"`
}

// DBConfig holds battle log storage settings
type DBConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// AuthConfig holds commander credentials
type AuthConfig struct {
	CommanderHash string        `json:"commanderHash" mapstructure:"commanderHash"`
	TokenTTL      time.Duration `json:"tokenTTL" mapstructure:"tokenTTL"`
}

// SpawnConfig places one body at battle start
type SpawnConfig struct {
	Kind string  `json:"kind" mapstructure:"kind"`
	X    float64 `json:"x" mapstructure:"x"`
	Y    float64 `json:"y" mapstructure:"y"`
}

// ScenarioConfig lists the opening bodies; empty means the built-in scenario
type ScenarioConfig struct {
	Spawns []SpawnConfig `json:"spawns" mapstructure:"spawns"`
}

// Config is the full server configuration
type Config struct {
	LogLevel string         `json:"logLevel" mapstructure:"logLevel"`
	Pretty   bool           `json:"pretty" mapstructure:"pretty"`
	Server   ServerConfig   `json:"server" mapstructure:"server"`
	Sim      SimConfig      `json:"sim" mapstructure:"sim"`
	DB       DBConfig       `json:"db" mapstructure:"db"`
	Auth     AuthConfig     `json:"auth" mapstructure:"auth"`
	Scenario ScenarioConfig `json:"scenario" mapstructure:"scenario"`
}

// LoadConfig sets defaults, reads spacecells.json from configDir if present
// and applies SPACECELLS_* environment overrides.
func LoadConfig(configDir string) (*Config, error) {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("pretty", true)

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.clientDir", "./client")
	viper.SetDefault("server.publicUrl", "")

	viper.SetDefault("sim.tickRate", 60)
	viper.SetDefault("sim.broadcastRate", 30)
	viper.SetDefault("sim.worldSize", DefaultWorldSize)
	viper.SetDefault("sim.seed", 0)

	viper.SetDefault("db.path", "spacecells.db")

	viper.SetDefault("auth.commanderHash", "")
	viper.SetDefault("auth.tokenTTL", "24h")

	viper.SetConfigName(ConfigName)
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	viper.SetEnvPrefix("SPACECELLS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	if c.Sim.TickRate <= 0 {
		return fmt.Errorf("sim.tickRate must be positive, got %d", c.Sim.TickRate)
	}
	if c.Sim.BroadcastRate <= 0 || c.Sim.BroadcastRate > c.Sim.TickRate {
		return fmt.Errorf("sim.broadcastRate must be in [1, %d], got %d", c.Sim.TickRate, c.Sim.BroadcastRate)
	}
	if c.Sim.WorldSize <= 0 {
		return fmt.Errorf("sim.worldSize must be positive, got %v", c.Sim.WorldSize)
	}
	for i, s := range c.Scenario.Spawns {
		if _, err := LookupTemplate(s.Kind); err != nil {
			return fmt.Errorf("scenario.spawns[%d]: %w", i, err)
		}
	}
	return nil
}

// TickDuration is the wall-clock length of one tick
func (c *Config) TickDuration() time.Duration {
	return time.Second / time.Duration(c.Sim.TickRate)
}

// BroadcastEvery is the number of ticks between state broadcasts
func (c *Config) BroadcastEvery() uint64 {
	return uint64(c.Sim.TickRate / c.Sim.BroadcastRate)
}
