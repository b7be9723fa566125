package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0o644))
}

func TestLoadConfig_DefaultsWhenMissing(t *testing.T) {
	chdir(t, t.TempDir())
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	want := GetDefaultConfig()
	want.Storage.Dir = filepath.Join(dir, "credentials")
	assert.Equal(t, want, cfg)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	dir := t.TempDir()
	writeConfigFile(t, dir, `
apiBaseURL: https://api.staging.moltyverse.app
storage:
  backend: sqlite
  dir: /var/lib/moltyverse
oauth:
  redirectDelay: 5s
http:
  timeout: 1m
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://api.staging.moltyverse.app", cfg.APIBaseURL)
	assert.Equal(t, DefaultAppBaseURL, cfg.AppBaseURL)
	assert.Equal(t, StorageSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/moltyverse", cfg.Storage.Dir)
	assert.Equal(t, 5*time.Second, cfg.OAuth.RedirectDelay)
	assert.Equal(t, 10*time.Minute, cfg.OAuth.MarkerTTL)
	assert.Equal(t, time.Minute, cfg.HTTP.Timeout)
}

func TestLoadConfig_EnvironmentWins(t *testing.T) {
	chdir(t, t.TempDir())
	dir := t.TempDir()
	writeConfigFile(t, dir, "apiBaseURL: https://from-file.example.com\n")

	t.Setenv("MOLTYVERSE_API_BASE_URL", "https://from-env.example.com")
	t.Setenv("MOLTYVERSE_STORAGE_BACKEND", "memory")
	t.Setenv("MOLTYVERSE_HTTP_TIMEOUT", "10s")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://from-env.example.com", cfg.APIBaseURL)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	work := t.TempDir()
	chdir(t, work)
	require.NoError(t, os.WriteFile(filepath.Join(work, ".env"), []byte("MOLTYVERSE_OAUTH_REDIS_ADDR=localhost:6379\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MOLTYVERSE_OAUTH_REDIS_ADDR") })

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.OAuth.RedisAddr)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	chdir(t, t.TempDir())
	dir := t.TempDir()
	writeConfigFile(t, dir, "apiBaseURL: [unterminated\n")

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	chdir(t, t.TempDir())
	dir := t.TempDir()
	writeConfigFile(t, dir, "apiBaseURL: not-a-url\nstorage:\n  backend: floppy\n")

	_, err := LoadConfig(dir)
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 2)
}

func TestSave_RoundTrip(t *testing.T) {
	chdir(t, t.TempDir())
	dir := filepath.Join(t.TempDir(), "nested")
	cfg := GetDefaultConfig()
	cfg.Storage.Dir = "/tmp/creds"
	cfg.Routes.Dashboard = "/home"

	require.NoError(t, Save(dir, cfg))

	loaded, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestGetDefaultConfigPathOrPanic(t *testing.T) {
	orig := osUserHomeDir
	defer func() { osUserHomeDir = orig }()

	osUserHomeDir = func() (string, error) { return "/home/tester", nil }
	assert.Equal(t, "/home/tester/.config/moltyverse", GetDefaultConfigPathOrPanic())

	osUserHomeDir = func() (string, error) { return "", errors.New("no home") }
	assert.Panics(t, func() { GetDefaultConfigPathOrPanic() })
}

func TestEnvDescription(t *testing.T) {
	desc, err := EnvDescription()
	require.NoError(t, err)
	assert.Contains(t, desc, "MOLTYVERSE_API_BASE_URL")
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
