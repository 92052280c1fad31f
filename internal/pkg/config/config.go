package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/samirrijal/coords/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Valkey     ValkeyConfig     `mapstructure:"valkey"`
	What3Words What3WordsConfig `mapstructure:"what3words"`
	Location   LocationConfig   `mapstructure:"location"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// NATSConfig configures the fix stream and readout publication. An empty
// URL disables NATS.
type NATSConfig struct {
	URL            string `mapstructure:"url"`
	FixSubject     string `mapstructure:"fix_subject"`
	ReadoutSubject string `mapstructure:"readout_subject"`
	Durable        string `mapstructure:"durable"`
}

// ValkeyConfig configures the consent store. An empty Addr keeps consent
// in memory.
type ValkeyConfig struct {
	Addr      string `mapstructure:"addr"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// What3WordsConfig configures the three-word resolver. An empty APIKey
// disables network lookups.
type What3WordsConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Language       string `mapstructure:"language"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (w What3WordsConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutSeconds) * time.Second
}

type LocationConfig struct {
	DefaultProjection string `mapstructure:"default_projection"`
	TickSeconds       int    `mapstructure:"tick_seconds"`
}

// Projection parses DefaultProjection.
func (l LocationConfig) Projection() (domain.Projection, error) {
	return domain.ParseProjection(l.DefaultProjection)
}

func (l LocationConfig) Tick() time.Duration {
	return time.Duration(l.TickSeconds) * time.Second
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.fix_subject", "coords.fix")
	v.SetDefault("nats.readout_subject", "coords.readout")
	v.SetDefault("nats.durable", "coords-fix-processor")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.key_prefix", "coords:prefs:")
	v.SetDefault("what3words.api_key", "")
	v.SetDefault("what3words.base_url", "https://api.what3words.com")
	v.SetDefault("what3words.language", "en")
	v.SetDefault("what3words.timeout_seconds", 10)
	v.SetDefault("location.default_projection", domain.ProjectionWGS84Decimal.String())
	v.SetDefault("location.tick_seconds", 1)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: COORDS_WHAT3WORDS_API_KEY → what3words.api_key
	v.SetEnvPrefix("COORDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.NATS.URL != "" {
		if c.NATS.FixSubject == "" || strings.ContainsAny(c.NATS.FixSubject, "*> ") {
			errs = append(errs, fmt.Sprintf("nats.fix_subject must be a literal subject prefix, got %q", c.NATS.FixSubject))
		}
		if c.NATS.ReadoutSubject == "" || strings.ContainsAny(c.NATS.ReadoutSubject, "*> ") {
			errs = append(errs, fmt.Sprintf("nats.readout_subject must be a literal subject prefix, got %q", c.NATS.ReadoutSubject))
		}
		if c.NATS.Durable == "" {
			errs = append(errs, "nats.durable is required")
		}
	}
	if c.What3Words.APIKey != "" {
		if c.What3Words.BaseURL == "" {
			errs = append(errs, "what3words.base_url is required when an api key is set")
		}
		if c.What3Words.TimeoutSeconds <= 0 {
			errs = append(errs, "what3words.timeout_seconds must be positive")
		}
	}
	if _, err := c.Location.Projection(); err != nil {
		errs = append(errs, fmt.Sprintf("location.default_projection: %v", err))
	}
	if c.Location.TickSeconds <= 0 {
		errs = append(errs, "location.tick_seconds must be positive")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("logging.format must be json or text, got %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
