package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Auriga.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Discovery DiscoveryConfig `yaml:"discovery"`
	Devices   DevicesConfig   `yaml:"devices"`
	Probe     ProbeConfig     `yaml:"probe"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DiscoveryConfig contains device discovery settings.
type DiscoveryConfig struct {
	// TimeoutSeconds bounds the one discovery scan at startup.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// Locations lists device description URLs scanned directly when
	// multicast discovery is unavailable.
	Locations []string `yaml:"locations"`
}

// DevicesConfig selects the devices composed at startup.
type DevicesConfig struct {
	// PreferredVendor is the manufacturer favoured during auto-discovery.
	PreferredVendor string `yaml:"preferred_vendor"`

	Streamer    DeviceHint `yaml:"streamer"`
	MediaServer DeviceHint `yaml:"media_server"`
	Amplifier   DeviceHint `yaml:"amplifier"`
}

// DeviceHint configures how one role resolves and binds.
type DeviceHint struct {
	// Hint is empty for auto-discovery, or a URL, bare host, or
	// friendly name.
	Hint string `yaml:"hint"`

	// Type forces an adapter type name, bypassing model lookup.
	Type string `yaml:"type"`

	// Models remaps device model names onto the forced or registered
	// adapter type, last entry wins.
	Models []string `yaml:"models"`
}

// ProbeConfig contains vendor probe settings.
type ProbeConfig struct {
	Port           int `yaml:"port"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// DatabaseConfig contains SQLite state-history settings.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings for state publishing.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: AURIGA_SECTION_KEY
// For example: AURIGA_DATABASE_PATH, AURIGA_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			TimeoutSeconds: 5,
		},
		Devices: DevicesConfig{
			PreferredVendor: "Cambridge Audio",
		},
		Probe: ProbeConfig{
			Port:           80,
			TimeoutSeconds: 10,
		},
		Database: DatabaseConfig{
			Path:        "./data/auriga.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "auriga-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: AURIGA_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Devices
	if v := os.Getenv("AURIGA_STREAMER_HINT"); v != "" {
		cfg.Devices.Streamer.Hint = v
	}
	if v := os.Getenv("AURIGA_MEDIA_SERVER_HINT"); v != "" {
		cfg.Devices.MediaServer.Hint = v
	}
	if v := os.Getenv("AURIGA_AMPLIFIER_HINT"); v != "" {
		cfg.Devices.Amplifier.Hint = v
	}

	// Discovery
	if v := os.Getenv("AURIGA_DISCOVERY_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Discovery.TimeoutSeconds = n
		}
	}

	// Database
	if v := os.Getenv("AURIGA_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("AURIGA_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("AURIGA_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("AURIGA_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("AURIGA_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Discovery.TimeoutSeconds <= 0 {
		errs = append(errs, "discovery.timeout_seconds must be positive")
	}

	if c.Devices.PreferredVendor == "" {
		errs = append(errs, "devices.preferred_vendor is required")
	}

	if c.Probe.Port < 1 || c.Probe.Port > 65535 {
		errs = append(errs, "probe.port must be between 1 and 65535")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when database.enabled")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when mqtt.enabled")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb.enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb.enabled (set AURIGA_INFLUXDB_TOKEN)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetDiscoveryTimeout returns the discovery scan timeout as a Duration.
func (c *Config) GetDiscoveryTimeout() time.Duration {
	return time.Duration(c.Discovery.TimeoutSeconds) * time.Second
}

// GetProbeTimeout returns the vendor probe timeout as a Duration.
func (c *Config) GetProbeTimeout() time.Duration {
	return time.Duration(c.Probe.TimeoutSeconds) * time.Second
}
