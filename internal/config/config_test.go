package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galois26/ais-ingester/internal/model"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultFeedURL, c.Feed.URL)
	assert.Equal(t, 45*time.Second, c.Feed.HandshakeTimeout)
	assert.False(t, c.Feed.EnforceDeadline)
	assert.Equal(t, "API keys", c.APIKeysFile)
	assert.Equal(t, "CSV", c.Output.Dir)
	assert.Equal(t, ":9108", c.Metrics.ListenAddress)
	assert.Equal(t, "info", c.Logging.Level)
	assert.Len(t, c.Sessions, 10)
	assert.NoError(t, c.Validate())
}

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, "config.yml", `
feed:
  url: ws://localhost:8080/stream
  enforce_deadline: true
  handshake_timeout: 10s
api_keys_file: /secrets/keys
output:
  dir: /data/csv
logging:
  level: debug
  format: json
sessions:
  - name: solent
    key_index: 1
    bounding_box: [[50.7, -1.5], [50.9, -1.0]]
    message_type: PositionReport
    timeout: 90s
`)
	c, err := Load(p)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "ws://localhost:8080/stream", c.Feed.URL)
	assert.True(t, c.Feed.EnforceDeadline)
	assert.Equal(t, 10*time.Second, c.Feed.HandshakeTimeout)
	assert.Equal(t, "/secrets/keys", c.APIKeysFile)
	assert.Equal(t, "/data/csv", c.Output.Dir)
	assert.Equal(t, "json", c.Logging.Format)
	require.Len(t, c.Sessions, 1)
	s := c.Sessions[0]
	assert.Equal(t, "solent", s.Name)
	assert.Equal(t, 1, s.KeyIndex)
	assert.Equal(t, model.BoundingBox{{50.7, -1.5}, {50.9, -1.0}}, s.BoundingBox)
	assert.Equal(t, model.PositionReport, s.MessageType)
	assert.Equal(t, 90*time.Second, s.Timeout)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorContains(t, err, "read config")

	_, err = Load(writeFile(t, "bad.yml", "feed: [unclosed"))
	assert.ErrorContains(t, err, "parse yaml")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
		want string
	}{
		{"bad scheme", func(c *Config) { c.Feed.URL = "https://stream.aisstream.io" }, "feed.url"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"unknown type", func(c *Config) { c.Sessions[0].MessageType = "Foo" }, "unknown message type"},
		{"negative key", func(c *Config) { c.Sessions[1].KeyIndex = -1 }, "negative key_index"},
		{"zero timeout", func(c *Config) { c.Sessions[2].Timeout = 0 }, "timeout must be positive"},
		{"bad box", func(c *Config) { c.Sessions[3].BoundingBox[0][0] = 95 }, "latitude"},
		{"no sessions", func(c *Config) { c.Sessions = nil }, "no sessions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mut(&c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}
}

func TestDefaultSessions(t *testing.T) {
	ss := DefaultSessions()
	require.Len(t, ss, 10)

	seen := map[model.MessageType]int{}
	maxKey := 0
	for _, s := range ss {
		seen[s.MessageType]++
		maxKey = max(maxKey, s.KeyIndex)
		assert.NoError(t, s.BoundingBox.Validate())
	}
	assert.Equal(t, 2, seen[model.PositionReport])
	assert.Equal(t, 7, maxKey)
	assert.Equal(t, 6000*time.Second, ss[0].Timeout)
	assert.Equal(t, 8000*time.Second, ss[4].Timeout)
	assert.Equal(t, model.BoundingBox{{51.18, -2.25}, {53.415, -8.39}}, ss[0].BoundingBox)
}

func TestSessionConfigs(t *testing.T) {
	c := Default()
	keys := []string{"k0", "k1", "k2", "k3", "k4", "k5", "k6", "k7"}

	cfgs, err := c.SessionConfigs(keys)
	require.NoError(t, err)
	require.Len(t, cfgs, 10)
	assert.Equal(t, "k0", cfgs[0].APIKey)
	assert.Equal(t, "k6", cfgs[8].APIKey)
	assert.Equal(t, "position-south", cfgs[0].Name)

	_, err = c.SessionConfigs(keys[:4])
	assert.ErrorContains(t, err, "key_index 4")

	c.Sessions = []SessionSpec{{MessageType: model.ShipStaticData, Timeout: time.Second}}
	cfgs, err = c.SessionConfigs(keys)
	require.NoError(t, err)
	assert.Equal(t, "ShipStaticData#0", cfgs[0].Name)
}

func TestLoadAPIKeys(t *testing.T) {
	p := writeFile(t, "API keys", "  abc123  \n\n\tdef456\n   \nghi789")
	keys, err := LoadAPIKeys(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc123", "def456", "ghi789"}, keys)

	_, err = LoadAPIKeys(writeFile(t, "empty", "\n \n"))
	assert.ErrorIs(t, err, ErrNoAPIKeys)

	_, err = LoadAPIKeys(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorContains(t, err, "open API keys")
}
