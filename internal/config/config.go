package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Crawler configuration
	Crawler CrawlerConfig `mapstructure:"crawler"`

	// Log tally configuration
	Tally TallyConfig `mapstructure:"tally"`

	// Storage configuration
	Storage StorageConfig `mapstructure:"storage"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlerConfig holds crawler-specific configuration
type CrawlerConfig struct {
	SeedURL           string        `mapstructure:"seed_url"`
	MaxVisits         int           `mapstructure:"max_visits"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	UserAgent         string        `mapstructure:"user_agent"`
	Timeout           time.Duration `mapstructure:"timeout"`
	FollowRobotsTxt   bool          `mapstructure:"follow_robots_txt"`
	MaxBodySize       int64         `mapstructure:"max_body_size"`
}

// TallyConfig holds log tally configuration
type TallyConfig struct {
	LogPath string `mapstructure:"log_path"`
	GroupBy string `mapstructure:"group_by"` // "octet" or "char"
	Layout  string `mapstructure:"layout"`   // "text" or "table"
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type   string `mapstructure:"type"` // "none", "file", "sqlite"
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"` // export format for "file"
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // "json" or "text"
	OutputPath string `mapstructure:"output_path"`
}

// Defaults used when neither flags, environment nor a config file set a value
const (
	DefaultSeedURL   = "http://mosigra.ru"
	DefaultMaxVisits = 11
	DefaultLogPath   = "access.log"
)

var (
	validGroupBy  = map[string]bool{"octet": true, "char": true}
	validLayouts  = map[string]bool{"text": true, "table": true}
	validStorage  = map[string]bool{"none": true, "file": true, "sqlite": true}
	validFormats  = map[string]bool{"json": true, "csv": true, "markdown": true, "html": true}
	validLogLevel = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
)

// New returns a viper instance with defaults and environment bindings applied.
// Callers bind their command flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)
	return v
}

// Load reads configuration from file, environment and bound flags
func Load(v *viper.Viper, configPath string) (*Config, error) {
	v.SetConfigName("harvester")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.harvester")
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is not an error, we'll use defaults and env
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Crawler defaults
	v.SetDefault("crawler.seed_url", DefaultSeedURL)
	v.SetDefault("crawler.max_visits", DefaultMaxVisits)
	v.SetDefault("crawler.requests_per_second", 10)
	v.SetDefault("crawler.user_agent", "Harvester/1.0")
	v.SetDefault("crawler.timeout", "30s")
	v.SetDefault("crawler.follow_robots_txt", false)
	v.SetDefault("crawler.max_body_size", 10*1024*1024)

	// Tally defaults
	v.SetDefault("tally.log_path", DefaultLogPath)
	v.SetDefault("tally.group_by", "octet")
	v.SetDefault("tally.layout", "text")

	// Storage defaults
	v.SetDefault("storage.type", "none")
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.format", "json")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output_path", "stderr")
}

// bindEnvVars binds HARVESTER_* environment variables
func bindEnvVars(v *viper.Viper) {
	v.SetEnvPrefix("HARVESTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Crawler.SeedURL == "" {
		return fmt.Errorf("crawler.seed_url must be set")
	}
	if c.Crawler.MaxVisits <= 0 {
		return fmt.Errorf("crawler.max_visits must be positive")
	}
	if c.Crawler.Timeout <= 0 {
		return fmt.Errorf("crawler.timeout must be positive")
	}
	if c.Tally.LogPath == "" {
		return fmt.Errorf("tally.log_path must be set")
	}
	if !validGroupBy[c.Tally.GroupBy] {
		return fmt.Errorf("tally.group_by must be octet or char, got %q", c.Tally.GroupBy)
	}
	if !validLayouts[c.Tally.Layout] {
		return fmt.Errorf("tally.layout must be text or table, got %q", c.Tally.Layout)
	}
	if !validStorage[c.Storage.Type] {
		return fmt.Errorf("storage.type must be none, file or sqlite, got %q", c.Storage.Type)
	}
	if c.Storage.Type == "file" && !validFormats[c.Storage.Format] {
		return fmt.Errorf("storage.format %q is not supported", c.Storage.Format)
	}
	if !validLogLevel[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	return nil
}
