package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultMasterAddress is where a Mesos master listens on a standard
// single-master install.
const DefaultMasterAddress = "http://localhost:5050"

// Config represents the application configuration
type Config struct {
	Master MasterConfig `koanf:"master"`
	Cordon CordonConfig `koanf:"cordon"`
	Log    LogConfig    `koanf:"log"`
}

// MasterConfig represents the connection to the Mesos master
type MasterConfig struct {
	Address string        `koanf:"address"`
	Timeout time.Duration `koanf:"timeout"`
	TLS     *TLSConfig    `koanf:"tls"`
}

// CordonConfig represents defaults for the cordon operation
type CordonConfig struct {
	// DefaultDuration is the maintenance window length used when the
	// operator does not pass one explicitly.
	DefaultDuration time.Duration `koanf:"default_duration"`
	// AllowReschedule permits cordoning a machine that already has a
	// window in the schedule. Off by default: the master state after a
	// duplicate entry is ambiguous.
	AllowReschedule bool `koanf:"allow_reschedule"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `koanf:"level"`
}

// TLSConfig represents optional TLS client configuration for the master.
// The maintenance API is normally reached over cleartext HTTP.
type TLSConfig struct {
	CA   string `koanf:"ca"`
	Cert string `koanf:"cert"`
	Key  string `koanf:"key"`
}

// Default returns the built-in configuration used when no file is present.
func Default() *Config {
	return &Config{
		Master: MasterConfig{
			Address: DefaultMasterAddress,
			Timeout: 30 * time.Second,
		},
		Cordon: CordonConfig{
			DefaultDuration: time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the specified file, applied on top of the
// built-in defaults. A missing file is not an error; the CLI must work with
// no configuration at all.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		return cfg, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Master.Address == "" {
		return fmt.Errorf("master.address is required")
	}

	u, err := url.Parse(c.Master.Address)
	if err != nil {
		return fmt.Errorf("master.address is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("master.address must be an http or https URL, got %q", c.Master.Address)
	}

	if c.Master.Timeout <= 0 {
		return fmt.Errorf("master.timeout must be positive")
	}

	if c.Cordon.DefaultDuration <= 0 {
		return fmt.Errorf("cordon.default_duration must be positive")
	}

	if c.Master.TLS != nil {
		if c.Master.TLS.Cert == "" || c.Master.TLS.Key == "" {
			return fmt.Errorf("master.tls requires both cert and key")
		}
	}

	return nil
}
