package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks errors that must stop the process at startup
var ErrConfiguration = errors.New("configuration error")

const defaultConfigPath = "config/application.yml"

// Config represents the configuration structure
type Config struct {
	PingHost           string           `yaml:"ping_host"`
	PingCount          int              `yaml:"ping_count"`
	FailureThreshold   int              `yaml:"failure_threshold"`
	PingDelaySeconds   int              `yaml:"ping_delay"`
	PingTimeoutSeconds int              `yaml:"ping_timeout_seconds"`
	Privileged         bool             `yaml:"privileged"`
	Timezone           string           `yaml:"timezone"`
	WeekStart          string           `yaml:"week_start"`
	EventStore         EventStoreConfig `yaml:"event_store"`
	Log                LogConfig        `yaml:"log"`
	HTTP               HTTPConfig       `yaml:"http"`
	Email              Email            `yaml:"email"`
}

type EventStoreConfig struct {
	Driver   string `yaml:"driver"`
	Location string `yaml:"location"`
	Sheet    string `yaml:"sheet"`
}

type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	Debug      bool   `yaml:"debug"`
}

type HTTPConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Listen       string `yaml:"listen"`
	PasswordHash string `yaml:"password_hash"`
}

type Email struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	From    string `yaml:"from"`
	To      string `yaml:"to"`
}

// loadConfig reads the YAML file, applies defaults and validates the result
func loadConfig(filename string) (Config, error) {
	var config Config

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("%w: failed to parse config file: %v", ErrConfiguration, err)
	}

	applyDefaults(&config)
	if os.Getenv("DEBUG") != "" {
		config.Log.Debug = true
	}

	if err := ValidateConfig(config); err != nil {
		return config, err
	}
	return config, nil
}

func applyDefaults(config *Config) {
	if config.PingCount == 0 {
		config.PingCount = 5
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 3
	}
	if config.PingDelaySeconds == 0 {
		config.PingDelaySeconds = 5
	}
	if config.PingTimeoutSeconds == 0 {
		config.PingTimeoutSeconds = 2
	}
	if config.Timezone == "" {
		config.Timezone = "Local"
	}
	if config.WeekStart == "" {
		config.WeekStart = "monday"
	}
	if config.EventStore.Driver == "" {
		config.EventStore.Driver = "xlsx"
	}
	if config.EventStore.Sheet == "" {
		config.EventStore.Sheet = "Disconnections"
	}
	if config.Log.MaxSizeMB == 0 {
		config.Log.MaxSizeMB = 1
	}
	if config.Log.MaxBackups == 0 {
		config.Log.MaxBackups = 5
	}
	if config.HTTP.Listen == "" {
		config.HTTP.Listen = "127.0.0.1:8080"
	}
}

// ValidateConfig validates the configuration
func ValidateConfig(config Config) error {
	errs := make([]string, 0)

	if strings.TrimSpace(config.PingHost) == "" {
		errs = append(errs, "ping_host required")
	}
	if strings.TrimSpace(config.EventStore.Location) == "" {
		errs = append(errs, "event_store.location required")
	}
	if config.EventStore.Driver != "xlsx" && config.EventStore.Driver != "sqlite" {
		errs = append(errs, "event_store.driver must be 'xlsx' or 'sqlite'")
	}

	if config.PingCount < 1 {
		errs = append(errs, "ping_count must be at least 1")
	}
	if config.PingCount > 10 {
		errs = append(errs, "ping_count should not exceed 10")
	}
	if config.FailureThreshold < 0 {
		errs = append(errs, "failure_threshold cannot be negative")
	}
	if config.PingDelaySeconds < 1 {
		errs = append(errs, "ping_delay must be at least 1 second")
	}
	if config.PingTimeoutSeconds < 1 || config.PingTimeoutSeconds > 60 {
		errs = append(errs, "ping_timeout_seconds must be between 1 and 60")
	}

	if _, err := loadLocation(config.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("timezone: %v", err))
	}
	if _, err := parseWeekday(config.WeekStart); err != nil {
		errs = append(errs, err.Error())
	}

	if config.Email.Enabled {
		if config.Email.APIKey == "" {
			errs = append(errs, "email.api_key must be set when email is enabled")
		}
		if !strings.Contains(config.Email.From, "@") {
			errs = append(errs, "email.from must be a valid email address")
		}
		if !strings.Contains(config.Email.To, "@") {
			errs = append(errs, "email.to must be a valid email address")
		}
	}

	if config.HTTP.Enabled && config.HTTP.PasswordHash != "" && !strings.HasPrefix(config.HTTP.PasswordHash, "$argon2id$") {
		errs = append(errs, "http.password_hash must be an argon2id hash")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: validation failed:\n  - %s", ErrConfiguration, strings.Join(errs, "\n  - "))
	}

	return nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func parseWeekday(name string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(name, d.String()) {
			return d, nil
		}
	}
	return time.Monday, fmt.Errorf("week_start %q is not a weekday name", name)
}

// Location returns the configured time zone, falling back to local time
func (c Config) Location() *time.Location {
	loc, err := loadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// FirstWeekday returns the configured first day of the week
func (c Config) FirstWeekday() time.Weekday {
	d, err := parseWeekday(c.WeekStart)
	if err != nil {
		return time.Monday
	}
	return d
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PingDelaySeconds) * time.Second
}

func (c Config) PingTimeout() time.Duration {
	return time.Duration(c.PingTimeoutSeconds) * time.Second
}
