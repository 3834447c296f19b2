package config

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the configuration.
const (
	DefaultHTTPPort       = 8080
	DefaultGRPCPort       = 50051
	DefaultPeriod         = 30 * time.Second
	DefaultMinLifetime    = 1 * time.Second
	DefaultMaxLifetime    = 240 * time.Second
	DefaultStreamInterval = 5 * time.Second
	DefaultPrompt         = "> "
)

// Config is the top-level configuration parsed from config.yaml.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Collector CollectorConfig `yaml:"collector"`
	Stream    StreamConfig    `yaml:"stream"`
	Console   ConsoleConfig   `yaml:"console"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, metrics and event stream listen on.
	HTTPPort int `yaml:"http_port"`

	// GRPCPort is the port the gRPC health service listens on.
	GRPCPort int `yaml:"grpc_port"`

	// Auth configures how clients of both listeners authenticate.
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig controls client authentication.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header and gRPC metadata key carrying the key.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return strings.ToLower(a.Header)
	}
	return "x-api-key"
}

// CollectorConfig controls the expiry engine.
type CollectorConfig struct {
	// Period is the time between periodic sweeps. Default: 30s.
	Period time.Duration `yaml:"period"`

	// Autostart starts the periodic loop when the process starts.
	Autostart bool `yaml:"autostart"`

	// Reactive runs one sweep after every insert.
	Reactive bool `yaml:"reactive"`

	// MinLifetime and MaxLifetime bound the random lifetime given to entries
	// inserted without one.
	MinLifetime time.Duration `yaml:"min_lifetime"`
	MaxLifetime time.Duration `yaml:"max_lifetime"`
}

// StreamConfig controls the WebSocket event stream.
type StreamConfig struct {
	// Interval is how often the full pool listing is pushed to clients.
	Interval time.Duration `yaml:"interval"`
}

// ConsoleConfig controls the interactive shell on stdin.
type ConsoleConfig struct {
	Enabled bool   `yaml:"enabled"`
	Prompt  string `yaml:"prompt"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`

	// File, when set, receives the JSON log instead of stderr.
	File string `yaml:"file"`
}

// SlogLevel returns the slog.Level for l.Level. Unknown values map to Info;
// validate rejects them before this is reached.
func (l LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults before validation. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config pre-populated with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			GRPCPort: DefaultGRPCPort,
		},
		Collector: CollectorConfig{
			Period:      DefaultPeriod,
			MinLifetime: DefaultMinLifetime,
			MaxLifetime: DefaultMaxLifetime,
		},
		Stream: StreamConfig{
			Interval: DefaultStreamInterval,
		},
		Console: ConsoleConfig{
			Enabled: true,
			Prompt:  DefaultPrompt,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort < 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [0, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.GRPCPort < 0 || cfg.Server.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port %d is out of range [0, 65535]", cfg.Server.GRPCPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Collector.Period <= 0 {
		return fmt.Errorf("collector.period must be positive")
	}
	if cfg.Collector.MinLifetime < 0 {
		return fmt.Errorf("collector.min_lifetime must not be negative")
	}
	if cfg.Collector.MaxLifetime < cfg.Collector.MinLifetime {
		return fmt.Errorf("collector.max_lifetime %v is below min_lifetime %v",
			cfg.Collector.MaxLifetime, cfg.Collector.MinLifetime)
	}
	if cfg.Stream.Interval <= 0 {
		return fmt.Errorf("stream.interval must be positive")
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	return nil
}

// RandomLifetime returns a whole number of seconds drawn uniformly from
// [MinLifetime, MaxLifetime]. It is used for entries inserted without an
// explicit lifetime.
func (c CollectorConfig) RandomLifetime() time.Duration {
	span := int64((c.MaxLifetime - c.MinLifetime) / time.Second)
	if span <= 0 {
		return c.MinLifetime
	}
	return c.MinLifetime + time.Duration(rand.Int64N(span+1))*time.Second
}
