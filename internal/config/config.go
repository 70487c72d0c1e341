package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/galois26/ais-ingester/internal/model"
)

const (
	DefaultFeedURL     = "wss://stream.aisstream.io/v0/stream"
	DefaultAPIKeysFile = "API keys"
	DefaultOutputDir   = "CSV"
)

type FeedConfig struct {
	URL              string        `yaml:"url"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	// EnforceDeadline ends idle sessions on time instead of at the next frame.
	EnforceDeadline bool  `yaml:"enforce_deadline"`
	ReadLimit       int64 `yaml:"read_limit"` // bytes per frame, 0 = unlimited
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type MetricsConfig struct {
	Enable        bool          `yaml:"enable"`
	ListenAddress string        `yaml:"listen_address"` // :9108
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // text|json
}

// SessionSpec is one entry of the sessions list. KeyIndex points into the
// API keys file.
type SessionSpec struct {
	Name        string            `yaml:"name"`
	KeyIndex    int               `yaml:"key_index"`
	BoundingBox model.BoundingBox `yaml:"bounding_box"`
	MessageType model.MessageType `yaml:"message_type"`
	Timeout     time.Duration     `yaml:"timeout"`
}

type Config struct {
	Feed        FeedConfig    `yaml:"feed"`
	APIKeysFile string        `yaml:"api_keys_file"`
	Output      OutputConfig  `yaml:"output"`
	Metrics     MetricsConfig `yaml:"metrics"`
	Logging     LoggingConfig `yaml:"logging"`
	Sessions    []SessionSpec `yaml:"sessions"`
}

// Default is the configuration used when no file is given.
func Default() Config {
	var c Config
	c.applyDefaults()
	return c
}

// Load reads a YAML config and fills in defaults. An empty path yields Default().
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Feed.URL == "" {
		c.Feed.URL = DefaultFeedURL
	}
	if c.Feed.HandshakeTimeout == 0 {
		c.Feed.HandshakeTimeout = 45 * time.Second
	}
	if c.APIKeysFile == "" {
		c.APIKeysFile = DefaultAPIKeysFile
	}
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
	}
	if c.Metrics.ListenAddress == "" {
		c.Metrics.ListenAddress = ":9108"
	}
	if c.Metrics.ReadTimeout == 0 {
		c.Metrics.ReadTimeout = 5 * time.Second
	}
	if c.Metrics.WriteTimeout == 0 {
		c.Metrics.WriteTimeout = 5 * time.Second
	}
	if c.Metrics.IdleTimeout == 0 {
		c.Metrics.IdleTimeout = 60 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if len(c.Sessions) == 0 {
		c.Sessions = DefaultSessions()
	}
}

// Validate reports every problem found, joined.
func (c Config) Validate() error {
	var errs []error
	if !strings.HasPrefix(c.Feed.URL, "ws://") && !strings.HasPrefix(c.Feed.URL, "wss://") {
		errs = append(errs, fmt.Errorf("feed.url %q: want ws:// or wss://", c.Feed.URL))
	}
	if c.Feed.ReadLimit < 0 {
		errs = append(errs, errors.New("feed.read_limit must not be negative"))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q: want text or json", c.Logging.Format))
	}
	if len(c.Sessions) == 0 {
		errs = append(errs, errors.New("no sessions configured"))
	}
	for i, s := range c.Sessions {
		if !s.MessageType.Known() {
			errs = append(errs, fmt.Errorf("sessions[%d]: unknown message type %q (known: %v)", i, s.MessageType, model.KnownMessageTypes()))
		}
		if s.KeyIndex < 0 {
			errs = append(errs, fmt.Errorf("sessions[%d]: negative key_index", i))
		}
		if s.Timeout <= 0 {
			errs = append(errs, fmt.Errorf("sessions[%d]: timeout must be positive", i))
		}
		if err := s.BoundingBox.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("sessions[%d]: bounding_box: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// SessionConfigs resolves key indices against keys.
func (c Config) SessionConfigs(keys []string) ([]model.SessionConfig, error) {
	out := make([]model.SessionConfig, 0, len(c.Sessions))
	for i, s := range c.Sessions {
		if s.KeyIndex < 0 || s.KeyIndex >= len(keys) {
			return nil, fmt.Errorf("sessions[%d]: key_index %d but only %d API key(s) loaded", i, s.KeyIndex, len(keys))
		}
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("%s#%d", s.MessageType, i)
		}
		out = append(out, model.SessionConfig{
			Name:        name,
			APIKey:      keys[s.KeyIndex],
			BoundingBox: s.BoundingBox,
			MessageType: s.MessageType,
			Timeout:     s.Timeout,
		})
	}
	return out, nil
}
