package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "STARREPORT_CONFIG"
	databaseDSNEnv  = "DATABASE_DSN"
	githubTokenEnv  = "GITHUB_ACCESS_TOKEN"
	githubRepoEnv   = "GITHUB_REPO"
	githubGistEnv   = "GITHUB_GIST_ID"
	runOnceEnv      = "STARREPORT_RUN_ONCE"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	GitHub    GitHubConfig    `yaml:"github"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
}

// LoggingConfig controls the slog handler level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes Postgres connection details for run history.
// An empty DSN disables persistence.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SchedulerConfig defines when the pipeline should run. RunOnce forces a
// single immediate execution instead of the cron schedule.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	RunOnce        bool           `yaml:"runOnce"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// GitHubConfig wires token and endpoints for the upstream API and the
// public web pages the fallback scraper crawls.
type GitHubConfig struct {
	Token      string `yaml:"token"`
	APIBaseURL string `yaml:"apiBaseUrl"`
	WebBaseURL string `yaml:"webBaseUrl"`
}

// PipelineConfig carries the analytics knobs recognized by the pipeline.
type PipelineConfig struct {
	Repo                 string `yaml:"repo"`
	GistID               string `yaml:"gistId"`
	Source               string `yaml:"source"`
	LookbackWeeks        int    `yaml:"lookbackWeeks"`
	FakeWindowHours      int    `yaml:"fakeWindowHours"`
	DisplayBuckets       int    `yaml:"displayBuckets"`
	Workers              int    `yaml:"workers"`
	LookupTimeoutSeconds int    `yaml:"lookupTimeoutSeconds"`
}

// FakeWindow returns the account-age threshold as a duration.
func (p PipelineConfig) FakeWindow() time.Duration {
	return time.Duration(p.FakeWindowHours) * time.Hour
}

// LookupTimeout returns the per-user lookup deadline as a duration.
func (p PipelineConfig) LookupTimeout() time.Duration {
	return time.Duration(p.LookupTimeoutSeconds) * time.Second
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(githubTokenEnv); v != "" {
		c.GitHub.Token = v
	}

	if v := os.Getenv(githubRepoEnv); v != "" {
		c.Pipeline.Repo = v
	}

	if v := os.Getenv(githubGistEnv); v != "" {
		c.Pipeline.GistID = v
	}

	if v := os.Getenv(runOnceEnv); v != "" {
		if once, err := strconv.ParseBool(v); err == nil {
			c.Scheduler.RunOnce = once
		} else {
			log.Printf("config: cannot parse %s=%q as bool (ignored)", runOnceEnv, v)
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.RunOnce {
		base.Scheduler.RunOnce = true
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.GitHub.Token != "" {
		base.GitHub.Token = override.GitHub.Token
	}
	if override.GitHub.APIBaseURL != "" {
		base.GitHub.APIBaseURL = override.GitHub.APIBaseURL
	}
	if override.GitHub.WebBaseURL != "" {
		base.GitHub.WebBaseURL = override.GitHub.WebBaseURL
	}

	if override.Pipeline.Repo != "" {
		base.Pipeline.Repo = override.Pipeline.Repo
	}
	if override.Pipeline.GistID != "" {
		base.Pipeline.GistID = override.Pipeline.GistID
	}
	if override.Pipeline.Source != "" {
		base.Pipeline.Source = override.Pipeline.Source
	}
	if override.Pipeline.LookbackWeeks != 0 {
		base.Pipeline.LookbackWeeks = override.Pipeline.LookbackWeeks
	}
	if override.Pipeline.FakeWindowHours != 0 {
		base.Pipeline.FakeWindowHours = override.Pipeline.FakeWindowHours
	}
	if override.Pipeline.DisplayBuckets != 0 {
		base.Pipeline.DisplayBuckets = override.Pipeline.DisplayBuckets
	}
	if override.Pipeline.Workers != 0 {
		base.Pipeline.Workers = override.Pipeline.Workers
	}
	if override.Pipeline.LookupTimeoutSeconds != 0 {
		base.Pipeline.LookupTimeoutSeconds = override.Pipeline.LookupTimeoutSeconds
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Database:  DatabaseConfig{DSN: ""},
		Scheduler: SchedulerConfig{CronExpression: "@daily", Timezone: defaultTimezone, location: tz},
		GitHub:    GitHubConfig{APIBaseURL: "https://api.github.com", WebBaseURL: "https://github.com"},
		Pipeline: PipelineConfig{
			Source:               "github",
			LookbackWeeks:        57,
			FakeWindowHours:      48,
			DisplayBuckets:       52,
			Workers:              2,
			LookupTimeoutSeconds: 10,
		},
	}
}
