package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"strava-filter/internal/analysis"
)

// DefaultPath is where the config file is looked up when --config is not given
const DefaultPath = "config.yaml"

// MinSessionSecret is the shortest accepted session signing key
const MinSessionSecret = 32

// Config represents the application configuration
type Config struct {
	Strava   StravaConfig   `yaml:"strava"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Worker   WorkerConfig   `yaml:"worker"`
	Filter   FilterConfig   `yaml:"filter"`
}

// StravaConfig holds Strava API credentials and webhook secrets
type StravaConfig struct {
	ClientID          string `yaml:"client_id"`
	ClientSecret      string `yaml:"client_secret"`
	VerificationToken string `yaml:"verification_token"`
	// WebhookSecret enables HMAC checking of push events when set
	WebhookSecret string `yaml:"webhook_secret"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	BaseURL string `yaml:"base_url"` // public URL Strava calls back to
	// SessionSecret signs login cookies. When empty a random key is used and
	// athletes must sign in again after every restart.
	SessionSecret string `yaml:"session_secret"`
}

// DatabaseConfig holds the SQLite location
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds the rotating log file location
type LoggingConfig struct {
	Folder string `yaml:"folder"`
}

// WorkerConfig holds queue worker and retention settings
type WorkerConfig struct {
	PollIntervalMS    int    `yaml:"poll_interval_ms"`
	RetentionSchedule string `yaml:"retention_schedule"` // cron spec
	RetentionDays     int    `yaml:"retention_days"`
}

// FilterConfig holds the defaults new users start with
type FilterConfig struct {
	RunThreshold    int  `yaml:"run_threshold"`  // seconds
	RideThreshold   int  `yaml:"ride_threshold"` // seconds
	WalkThreshold   int  `yaml:"walk_threshold"` // seconds
	TitleGeneration bool `yaml:"title_generation"`
}

// ErrNoConfig is returned when neither a config file nor environment
// credentials are available
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:    ":5530",
			BaseURL: "http://localhost:5530",
		},
		Database: DatabaseConfig{
			Path: "strava_filter.db",
		},
		Logging: LoggingConfig{
			Folder: "logs",
		},
		Worker: WorkerConfig{
			PollIntervalMS:    2000,
			RetentionSchedule: "@daily",
			RetentionDays:     7,
		},
		Filter: FilterConfig{
			RunThreshold:    analysis.DefaultRunThreshold,
			RideThreshold:   analysis.DefaultRideThreshold,
			WalkThreshold:   analysis.DefaultWalkThreshold,
			TitleGeneration: true,
		},
	}
}

// LoadDotEnv loads variables from the given .env files (default ".env").
// Missing files are skipped; variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the configuration from a YAML file and applies environment
// overrides on top. A missing file is tolerated when the environment supplies
// the Strava credentials; otherwise ErrNoConfig is returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	fileMissing := os.IsNotExist(err)
	if err != nil && !fileMissing {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if !fileMissing {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	if fileMissing && cfg.Strava.ClientID == "" {
		return nil, ErrNoConfig
	}

	return &cfg, nil
}

// Save writes the configuration as YAML
func Save(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample(path string) error {
	if path == "" {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Strava = StravaConfig{
		ClientID:          "YOUR_CLIENT_ID",
		ClientSecret:      "YOUR_CLIENT_SECRET",
		VerificationToken: "YOUR_VERIFICATION_TOKEN",
	}

	return Save(path, &example)
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.VerificationToken == "" || c.Strava.VerificationToken == "YOUR_VERIFICATION_TOKEN" {
		return errors.New("strava.verification_token is required for webhook validation")
	}

	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server.base_url must be an absolute http(s) URL, got %q", c.Server.BaseURL)
	}

	for name, v := range map[string]int{
		"filter.run_threshold":  c.Filter.RunThreshold,
		"filter.ride_threshold": c.Filter.RideThreshold,
		"filter.walk_threshold": c.Filter.WalkThreshold,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, v)
		}
	}

	if n := len(c.Server.SessionSecret); n > 0 && n < MinSessionSecret {
		return fmt.Errorf("server.session_secret must be at least %d bytes, got %d", MinSessionSecret, n)
	}

	if c.Worker.PollIntervalMS <= 0 {
		return fmt.Errorf("worker.poll_interval_ms must be positive, got %d", c.Worker.PollIntervalMS)
	}
	if c.Worker.RetentionDays <= 0 {
		return fmt.Errorf("worker.retention_days must be positive, got %d", c.Worker.RetentionDays)
	}

	return nil
}

// Thresholds returns the hide thresholds new users start with
func (c *Config) Thresholds() analysis.Thresholds {
	return analysis.Thresholds{
		"Run":  c.Filter.RunThreshold,
		"Ride": c.Filter.RideThreshold,
		"Walk": c.Filter.WalkThreshold,
	}
}

// PollInterval is how long the worker idles when the queue is empty
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Worker.PollIntervalMS) * time.Millisecond
}

// Retention is how long finished queue rows are kept
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Worker.RetentionDays) * 24 * time.Hour
}

// RedirectURL is the OAuth callback registered with Strava
func (c *Config) RedirectURL() string {
	return strings.TrimRight(c.Server.BaseURL, "/") + "/auth/callback"
}

// SecureCookies reports whether cookies should carry the Secure flag
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.Server.BaseURL, "https://")
}

// WebhookURL is the push subscription callback registered with Strava
func (c *Config) WebhookURL() string {
	return strings.TrimRight(c.Server.BaseURL, "/") + "/webhook"
}

func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"STRAVA_CLIENT_ID":          &cfg.Strava.ClientID,
		"STRAVA_CLIENT_SECRET":      &cfg.Strava.ClientSecret,
		"STRAVA_VERIFICATION_TOKEN": &cfg.Strava.VerificationToken,
		"STRAVA_WEBHOOK_SECRET":     &cfg.Strava.WebhookSecret,
		"BASE_URL":                  &cfg.Server.BaseURL,
		"SESSION_SECRET":            &cfg.Server.SessionSecret,
		"SERVER_ADDR":               &cfg.Server.Addr,
		"DATABASE_PATH":             &cfg.Database.Path,
		"LOGS_FOLDER":               &cfg.Logging.Folder,
		"QUEUE_RETENTION_SCHEDULE":  &cfg.Worker.RetentionSchedule,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"WORKER_POLL_INTERVAL_MS": &cfg.Worker.PollIntervalMS,
		"QUEUE_RETENTION_DAYS":    &cfg.Worker.RetentionDays,
		"DEFAULT_RUN_THRESHOLD":   &cfg.Filter.RunThreshold,
		"DEFAULT_RIDE_THRESHOLD":  &cfg.Filter.RideThreshold,
		"DEFAULT_WALK_THRESHOLD":  &cfg.Filter.WalkThreshold,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", key, err)
		}
		*dst = n
	}

	if v := os.Getenv("TITLE_GENERATION"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing TITLE_GENERATION: %w", err)
		}
		cfg.Filter.TitleGeneration = enabled
	}

	return nil
}
