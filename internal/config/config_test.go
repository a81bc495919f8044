package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestReadTOML(t *testing.T) {
	cfg := Default()
	err := Read(&cfg, strings.NewReader(`
[viewer]
width = 1920
backend = "headless"
wiggle = true

[server]
addr = ":9000"

[s3]
region = "eu-west-1"
use_path_style = true
`), ".toml")
	require.NoError(t, err)

	assert.Equal(t, 1920, cfg.Viewer.Width)
	assert.Equal(t, 720, cfg.Viewer.Height, "absent keys keep defaults")
	assert.Equal(t, "headless", cfg.Viewer.Backend)
	assert.True(t, cfg.Viewer.Wiggle)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "eu-west-1", cfg.S3.Region)
	assert.True(t, cfg.S3.UsePathStyle)
}

func TestReadYAML(t *testing.T) {
	cfg := Default()
	err := Read(&cfg, strings.NewReader(`
viewer:
  title: trip
  frame_limit: 30
google:
  client_id: abc
  scopes:
    - https://www.googleapis.com/auth/drive.file
server:
  session_ttl: 1h
`), ".yml")
	require.NoError(t, err)

	assert.Equal(t, "trip", cfg.Viewer.Title)
	assert.Equal(t, 30.0, cfg.Viewer.FrameLimit)
	assert.Equal(t, "abc", cfg.Google.ClientID)
	assert.Equal(t, []string{"https://www.googleapis.com/auth/drive.file"}, cfg.Google.Scopes)
	assert.Equal(t, time.Hour, cfg.Server.SessionTTL)
}

func TestReadEmptyYAML(t *testing.T) {
	cfg := Default()
	require.NoError(t, Read(&cfg, strings.NewReader(""), ".yaml"))
	assert.Equal(t, Default(), cfg)
}

func TestReadUnknownFormat(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, Read(&cfg, strings.NewReader("{}"), ".json"), ErrUnknownFormat)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"STEREOIMG_WIDTH":                "640",
		"STEREOIMG_DEBUG":                "true",
		"STEREOIMG_SESSION_TTL":          "90m",
		"GOOGLE_CLIENT_ID":               "id-from-env",
		"STEREOIMG_GOOGLE_CLIENT_SECRET": "secret",
		"GOOGLE_CLIENT_SECRET":           "ignored",
	}))
	require.NoError(t, err)

	assert.Equal(t, 640, cfg.Viewer.Width)
	assert.True(t, cfg.Viewer.Debug)
	assert.Equal(t, 90*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, "id-from-env", cfg.Google.ClientID)
	assert.Equal(t, "secret", cfg.Google.ClientSecret, "prefixed name wins")
}

func TestApplyEnvReportsBadValues(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"STEREOIMG_HEIGHT": "tall",
		"STEREOIMG_WIGGLE": "maybe",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STEREOIMG_HEIGHT")
	assert.Contains(t, err.Error(), "STEREOIMG_WIGGLE")
	assert.Equal(t, 720, cfg.Viewer.Height)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereoimg.toml")
	require.NoError(t, os.WriteFile(path, []byte("[viewer]\nheight = 480\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 480, cfg.Viewer.Height)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestServerValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Server.Validate(cfg.Google)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client id")
	assert.Contains(t, err.Error(), "session secret")

	cfg.Google.ClientID, cfg.Google.ClientSecret = "id", "secret"
	cfg.Server.SessionSecret = "s3cr3t"
	assert.NoError(t, cfg.Server.Validate(cfg.Google))
}
