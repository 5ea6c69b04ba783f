// Package config loads saferoute settings.
//
// Values are layered: defaults, then an optional YAML file, then SAFEROUTE_*
// environment variables. Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hervehildenbrand/saferoute/pkg/registry"
	"github.com/hervehildenbrand/saferoute/pkg/sessionlog"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SAFEROUTE_"

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Config holds every setting of the saferoute binary.
type Config struct {
	// Data is a CSV or YAML location file. Empty means no file.
	Data string `yaml:"data"`
	// Database is a PostgreSQL URL to load locations from.
	Database       string `yaml:"database"`
	LocationsTable string `yaml:"locations_table"`

	LogLevel string `yaml:"log_level"`
	JSONLog  bool   `yaml:"json_log"`
	Output   string `yaml:"output"`

	Server ServerConfig `yaml:"server"`
	Watch  WatchConfig  `yaml:"watch"`
}

// ServerConfig configures `saferoute serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Redis enables the shared session log when set.
	Redis       string        `yaml:"redis"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
	LogCapacity int           `yaml:"log_capacity"`
}

// WatchConfig configures `saferoute watch`.
type WatchConfig struct {
	URL string `yaml:"url"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LocationsTable: registry.DefaultTable,
		LogLevel:       "info",
		Output:         OutputText,
		Server: ServerConfig{
			Addr:        ":8080",
			SessionTTL:  sessionlog.DefaultTTL,
			LogCapacity: 10000,
		},
		Watch: WatchConfig{
			URL: "ws://localhost:8080/v1/analyses/ws",
		},
	}
}

// Load returns the defaults overlaid with the file at path (if any) and the
// environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DATA":            &c.Data,
		"DATABASE":        &c.Database,
		"LOCATIONS_TABLE": &c.LocationsTable,
		"LOG_LEVEL":       &c.LogLevel,
		"OUTPUT":          &c.Output,
		"ADDR":            &c.Server.Addr,
		"REDIS":           &c.Server.Redis,
		"FEED_URL":        &c.Watch.URL,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(EnvPrefix + "JSON_LOG"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sJSON_LOG: %w", EnvPrefix, err)
		}
		c.JSONLog = b
	}
	if v, ok := lookup(EnvPrefix + "SESSION_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sSESSION_TTL: %w", EnvPrefix, err)
		}
		c.Server.SessionTTL = d
	}
	if v, ok := lookup(EnvPrefix + "LOG_CAPACITY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sLOG_CAPACITY: %w", EnvPrefix, err)
		}
		c.Server.LogCapacity = n
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Output != OutputText && c.Output != OutputJSON {
		return fmt.Errorf("invalid output format %q (want %s or %s)", c.Output, OutputText, OutputJSON)
	}
	if c.LocationsTable == "" {
		return errors.New("locations table must not be empty")
	}
	if c.Server.SessionTTL < 0 {
		return errors.New("session ttl must not be negative")
	}
	if c.Server.LogCapacity < 0 {
		return errors.New("log capacity must not be negative")
	}
	return nil
}
