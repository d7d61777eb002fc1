package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notecast.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", cfg.API.BaseURL)
	assert.Equal(t, 2, cfg.Podcast.PersonCount)
	assert.True(t, cfg.Podcast.HasHost)

	// File was written for future edits.
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoad_MergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notecast.yaml")
	content := "api:\n  base_url: https://notes.example.com\n  timeout: 30s\npodcast:\n  person_count: 4\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://notes.example.com", cfg.API.BaseURL)
	assert.Equal(t, Duration(30*time.Second), cfg.API.Timeout)
	assert.Equal(t, 4, cfg.Podcast.PersonCount)
	// Untouched keys keep defaults.
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverridesBaseURL(t *testing.T) {
	t.Setenv("NOTECAST_API_URL", "https://env.example.com")
	path := filepath.Join(t.TempDir(), "notecast.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.API.BaseURL)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notecast.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDuration_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notecast.yaml")
	cfg := DefaultConfig()
	cfg.API.Timeout = Duration(90 * time.Second)
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Duration(90*time.Second), loaded.API.Timeout)
}
