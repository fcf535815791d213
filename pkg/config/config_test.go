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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, SourceFile, cfg.Corpus.Source)
	assert.Equal(t, 30.0, cfg.Search.TitleWeight)
	assert.Equal(t, 300*time.Millisecond, cfg.Search.Debounce)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlData := []byte(`
server:
  port: 9000
corpus:
  source: http
  essaysPath: https://example.com/essays.json
  contentPath: https://example.com/essay-content.json
search:
  titleWeight: 10
  debounce: 150ms
`)
	require.NoError(t, os.WriteFile(path, yamlData, 0o644))

	t.Setenv("EB_SERVER_PORT", "9100")
	t.Setenv("EB_REDIS_ENABLED", "true")
	t.Setenv("EB_SERVER_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("EB_SERVER_ADMIN_KEY_HASHES", "aa,bb")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "env should win over file")
	assert.Equal(t, SourceHTTP, cfg.Corpus.Source)
	assert.Equal(t, 10.0, cfg.Search.TitleWeight)
	assert.Equal(t, 150*time.Millisecond, cfg.Search.Debounce)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, []string{"aa", "bb"}, cfg.Server.AdminKeyHashes)
	// untouched sections keep their defaults
	assert.Equal(t, 50, cfg.Search.DefaultLimit)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"postgres without paths", func(c *Config) {
			c.Corpus.Source = SourcePostgres
			c.Corpus.EssaysPath = ""
		}, false},
		{"unknown source", func(c *Config) { c.Corpus.Source = "s3" }, true},
		{"sqlite with path", func(c *Config) { c.Corpus.Source = SourceSQLite }, false},
		{"sqlite without path", func(c *Config) {
			c.Corpus.Source = SourceSQLite
			c.Corpus.SQLitePath = ""
		}, true},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit = -1 }, true},
		{"batch above buffer", func(c *Config) {
			c.Analytics.BufferSize = 10
			c.Analytics.BatchSize = 20
		}, true},
		{"file without path", func(c *Config) { c.Corpus.EssaysPath = "" }, true},
		{"negative weight", func(c *Config) { c.Search.TitleWeight = -1 }, true},
		{"limit above max", func(c *Config) {
			c.Search.DefaultLimit = 10
			c.Search.MaxResults = 5
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
