package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{configPathEnv, databaseDSNEnv, githubTokenEnv, githubRepoEnv, githubGistEnv, runOnceEnv} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "@daily", cfg.Scheduler.CronExpression)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIBaseURL)
	assert.Equal(t, "https://github.com", cfg.GitHub.WebBaseURL)
	assert.False(t, cfg.Scheduler.RunOnce)
	assert.Equal(t, "github", cfg.Pipeline.Source)
	assert.Equal(t, 57, cfg.Pipeline.LookbackWeeks)
	assert.Equal(t, 48*time.Hour, cfg.Pipeline.FakeWindow())
	assert.Equal(t, 52, cfg.Pipeline.DisplayBuckets)
	assert.Equal(t, 2, cfg.Pipeline.Workers)
	assert.Equal(t, 10*time.Second, cfg.Pipeline.LookupTimeout())
	assert.Empty(t, cfg.Database.DSN)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(githubTokenEnv, "secret")
	t.Setenv(githubRepoEnv, "acme/widgets")
	t.Setenv(githubGistEnv, "abc123")
	t.Setenv(databaseDSNEnv, "postgres://localhost/starreport")

	cfg := Load()

	assert.Equal(t, "secret", cfg.GitHub.Token)
	assert.Equal(t, "acme/widgets", cfg.Pipeline.Repo)
	assert.Equal(t, "abc123", cfg.Pipeline.GistID)
	assert.Equal(t, "postgres://localhost/starreport", cfg.Database.DSN)
}

func TestLoadYAMLFileMerge(t *testing.T) {
	clearEnv(t)

	raw := `
logging:
  level: debug
scheduler:
  cronExpression: "0 6 * * *"
  timezone: Europe/Berlin
pipeline:
  repo: acme/widgets
  lookbackWeeks: 10
  workers: 4
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	t.Setenv(configPathEnv, path)

	cfg := Load()

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "0 6 * * *", cfg.Scheduler.CronExpression)
	assert.Equal(t, "Europe/Berlin", cfg.Scheduler.Location().String())
	assert.Equal(t, "acme/widgets", cfg.Pipeline.Repo)
	assert.Equal(t, 10, cfg.Pipeline.LookbackWeeks)
	assert.Equal(t, 4, cfg.Pipeline.Workers)

	// Untouched knobs keep their defaults through the merge.
	assert.Equal(t, 48, cfg.Pipeline.FakeWindowHours)
	assert.Equal(t, 52, cfg.Pipeline.DisplayBuckets)
}

func TestEnvOverridesBeatFile(t *testing.T) {
	clearEnv(t)

	raw := `
pipeline:
  repo: from/file
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	t.Setenv(configPathEnv, path)
	t.Setenv(githubRepoEnv, "from/env")

	cfg := Load()
	assert.Equal(t, "from/env", cfg.Pipeline.Repo)
}

func TestRunOnceFromFile(t *testing.T) {
	clearEnv(t)

	raw := `
scheduler:
  runOnce: true
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	t.Setenv(configPathEnv, path)

	cfg := Load()
	assert.True(t, cfg.Scheduler.RunOnce)
	// The default schedule survives but is ignored in one-shot mode.
	assert.Equal(t, "@daily", cfg.Scheduler.CronExpression)
}

func TestRunOnceFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(runOnceEnv, "true")

	cfg := Load()
	assert.True(t, cfg.Scheduler.RunOnce)
}
