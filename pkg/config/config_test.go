package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 4, cfg.Download.ConcurrentDownloads)
	assert.Equal(t, 30*time.Minute, cfg.Download.DownloadTimeout)
	assert.False(t, cfg.Download.Verbose)
	assert.Equal(t, "out", cfg.Output.Directory)
	assert.Equal(t, 0, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MITENEDL_ALBUM_URL", "https://mitene.us/f/abcdef")
	t.Setenv("MITENEDL_ALBUM_PASSWORD", "secret")
	t.Setenv("MITENEDL_OUTPUT_DIR", "/tmp/album")
	t.Setenv("MITENEDL_CONCURRENT_DOWNLOADS", "8")
	t.Setenv("MITENEDL_VERBOSE", "true")
	t.Setenv("MITENEDL_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "https://mitene.us/f/abcdef", cfg.Album.URL)
	assert.Equal(t, "secret", cfg.Album.Password)
	assert.Equal(t, "/tmp/album", cfg.Output.Directory)
	assert.Equal(t, 8, cfg.Download.ConcurrentDownloads)
	assert.True(t, cfg.Download.Verbose)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
album:
  url: https://family-album.com/f/xyz
download:
  concurrent_downloads: 2
  verbose: true
output:
  directory: ./photos
rate_limit:
  requests_per_minute: 30
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "https://family-album.com/f/xyz", cfg.Album.URL)
	assert.Equal(t, 2, cfg.Download.ConcurrentDownloads)
	assert.True(t, cfg.Download.Verbose)
	assert.Equal(t, "./photos", cfg.Output.Directory)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Album.URL = "https://mitene.us/f/saved"
	cfg.Download.ConcurrentDownloads = 7
	require.NoError(t, cfg.Save(path))

	// Config files may hold an album password, keep them private
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "https://mitene.us/f/saved", loaded.Album.URL)
	assert.Equal(t, 7, loaded.Download.ConcurrentDownloads)
}

func TestLoadFromFileMissingIsNotAnError(t *testing.T) {
	cfg := DefaultConfig()
	// Empty path with no config file in default locations should be a no-op
	assert.NoError(t, cfg.LoadFromFile(""))
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"album-url":           "https://mitene.us/f/flagged",
		"password":            "hunter2",
		"output":              "downloads",
		"concurrent":          6,
		"requests-per-minute": 10,
		"download-timeout":    time.Minute,
		"verbose":             true,
		"log-level":           "error",
	})

	assert.Equal(t, "https://mitene.us/f/flagged", cfg.Album.URL)
	assert.Equal(t, "hunter2", cfg.Album.Password)
	assert.Equal(t, "downloads", cfg.Output.Directory)
	assert.Equal(t, 6, cfg.Download.ConcurrentDownloads)
	assert.Equal(t, 10, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, time.Minute, cfg.Download.DownloadTimeout)
	assert.True(t, cfg.Download.Verbose)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Album.URL = "https://mitene.us/f/abcdef"
	assert.NoError(t, cfg.Validate())

	t.Run("missing album URL", func(t *testing.T) {
		c := DefaultConfig()
		err := c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "album URL is required")
	})

	t.Run("bad concurrency", func(t *testing.T) {
		c := DefaultConfig()
		c.Album.URL = "https://mitene.us/f/abcdef"
		c.Download.ConcurrentDownloads = 0
		assert.Error(t, c.Validate())

		c.Download.ConcurrentDownloads = 64
		assert.Error(t, c.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		c := DefaultConfig()
		c.Album.URL = "https://mitene.us/f/abcdef"
		c.Logging.Level = "loud"
		assert.Error(t, c.Validate())
	})
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
album:
  url: https://mitene.us/f/fromfile
output:
  directory: fromfile
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("MITENEDL_OUTPUT_DIR", "fromenv")

	cfg, err := Load(path, map[string]interface{}{
		"concurrent": 2,
	})
	require.NoError(t, err)

	// File sets the URL, env overrides the file's directory, flag wins for concurrency
	assert.Equal(t, "https://mitene.us/f/fromfile", cfg.Album.URL)
	assert.Equal(t, "fromenv", cfg.Output.Directory)
	assert.Equal(t, 2, cfg.Download.ConcurrentDownloads)
}

func TestLoadEnvVerboseSurvivesAbsentFlag(t *testing.T) {
	t.Setenv("MITENEDL_VERBOSE", "true")

	// A flags map without a "verbose" key must leave the env value alone.
	cfg, err := Load("", map[string]interface{}{
		"album-url": "https://mitene.us/f/abcdef",
	})
	require.NoError(t, err)
	assert.True(t, cfg.Download.Verbose)
}
