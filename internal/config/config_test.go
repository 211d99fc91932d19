package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultSeedURL, cfg.Crawler.SeedURL)
	assert.Equal(t, DefaultMaxVisits, cfg.Crawler.MaxVisits)
	assert.Equal(t, 30*time.Second, cfg.Crawler.Timeout)
	assert.False(t, cfg.Crawler.FollowRobotsTxt)
	assert.Equal(t, DefaultLogPath, cfg.Tally.LogPath)
	assert.Equal(t, "octet", cfg.Tally.GroupBy)
	assert.Equal(t, "none", cfg.Storage.Type)
	assert.Equal(t, "stderr", cfg.Logging.OutputPath)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "harvester.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
crawler:
  seed_url: http://example.com
  max_visits: 3
tally:
  log_path: /var/log/nginx/access.log
  group_by: char
storage:
  type: sqlite
  path: /tmp/harvest
`), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "http://example.com", cfg.Crawler.SeedURL)
	assert.Equal(t, 3, cfg.Crawler.MaxVisits)
	assert.Equal(t, "/var/log/nginx/access.log", cfg.Tally.LogPath)
	assert.Equal(t, "char", cfg.Tally.GroupBy)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HARVESTER_CRAWLER_MAX_VISITS", "5")
	t.Setenv("HARVESTER_TALLY_LOG_PATH", "other.log")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Crawler.MaxVisits)
	assert.Equal(t, "other.log", cfg.Tally.LogPath)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Crawler: CrawlerConfig{SeedURL: DefaultSeedURL, MaxVisits: 11, Timeout: time.Second},
			Tally:   TallyConfig{LogPath: DefaultLogPath, GroupBy: "octet", Layout: "text"},
			Storage: StorageConfig{Type: "none", Format: "json"},
			Logging: LoggingConfig{Level: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero visit cap", mutate: func(c *Config) { c.Crawler.MaxVisits = 0 }, wantErr: true},
		{name: "empty seed", mutate: func(c *Config) { c.Crawler.SeedURL = "" }, wantErr: true},
		{name: "bad group by", mutate: func(c *Config) { c.Tally.GroupBy = "cidr" }, wantErr: true},
		{name: "bad layout", mutate: func(c *Config) { c.Tally.Layout = "xml" }, wantErr: true},
		{name: "bad storage", mutate: func(c *Config) { c.Storage.Type = "s3" }, wantErr: true},
		{name: "bad file format", mutate: func(c *Config) { c.Storage.Type = "file"; c.Storage.Format = "pdf" }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
