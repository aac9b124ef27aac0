// ABOUTME: Bot driver configuration loading and parsing.
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing.

package botconfig

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the behavior configuration for one bot driver. Connection
// credentials live in their own file (see internal/config); this file
// only tunes what the bot does with the events it receives.
type Config struct {
	Credentials CredentialsRef `yaml:"credentials"`
	Logging     LoggingConfig  `yaml:"logging"`
	Behavior    BehaviorConfig `yaml:"behavior"`
	Session     SessionConfig  `yaml:"session"`
}

// CredentialsRef points at the credential file for the connection.
type CredentialsRef struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// BehaviorConfig tunes the driver's reactions to conversation events.
type BehaviorConfig struct {
	// Greeting is sent when the bot joins a conversation.
	Greeting string `yaml:"greeting"`

	// Announce publishes a "<role> joined" message on join.
	Announce bool `yaml:"announce"`

	// TransferKeyword moves the conversation to TransferSkill when a
	// consumer message contains it. Manager bot only.
	TransferKeyword string `yaml:"transfer_keyword"`
	TransferSkill   string `yaml:"transfer_skill"`

	// CloseKeyword closes the conversation when a consumer message
	// contains it. Manager bot only.
	CloseKeyword string `yaml:"close_keyword"`
}

// SessionConfig tunes the connection lifecycle.
type SessionConfig struct {
	AllConversations bool   `yaml:"all_conversations"`
	InitialState     string `yaml:"initial_state"`

	KeepAliveInterval    time.Duration `yaml:"-"`
	KeepAliveIntervalRaw string        `yaml:"keep_alive_interval"`
}

// Load reads a configuration file from the given path and returns a
// parsed Config. Environment variables in the format ${VAR_NAME} are
// expanded. A missing file yields the zero config so every driver runs
// without one.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables become empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// parseDurations converts the raw duration strings into time.Duration
// values.
func parseDurations(cfg *Config) error {
	if cfg.Session.KeepAliveIntervalRaw != "" {
		d, err := time.ParseDuration(cfg.Session.KeepAliveIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing keep_alive_interval %q: %w", cfg.Session.KeepAliveIntervalRaw, err)
		}
		cfg.Session.KeepAliveInterval = d
	}
	return nil
}
