// Package config loads tally's settings: built-in defaults, then an optional
// YAML file, then TALLY_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string        `yaml:"port"`
	DBPath   string        `yaml:"db_path"`
	LogLevel string        `yaml:"log_level"`
	LogFile  string        `yaml:"log_file"`
	Summary  SummaryConfig `yaml:"summary"`
	Backup   BackupConfig  `yaml:"backup"`
}

// SummaryConfig configures the AI day summary. Summaries are disabled
// without an API key.
type SummaryConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	// RatePerMinute caps summary requests per client.
	RatePerMinute int `yaml:"rate_per_minute"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// BackupConfig configures encrypted off-site backups. Backups are disabled
// unless a bucket and passphrase are set.
type BackupConfig struct {
	S3            S3Config `yaml:"s3"`
	Passphrase    string   `yaml:"passphrase"`
	Interval      string   `yaml:"interval"`
	RetentionDays int      `yaml:"retention_days"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:     "8080",
		DBPath:   "tally.db",
		LogLevel: "info",
		Summary: SummaryConfig{
			Model:         "gemini-2.5-flash",
			RatePerMinute: 5,
		},
		Backup: BackupConfig{
			S3:            S3Config{Region: "auto"},
			Interval:      "24h",
			RetentionDays: 30,
		},
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. An empty path or a missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	str := map[string]*string{
		"TALLY_PORT":              &c.Port,
		"TALLY_DB_PATH":           &c.DBPath,
		"TALLY_LOG_LEVEL":         &c.LogLevel,
		"TALLY_LOG_FILE":          &c.LogFile,
		"GEMINI_API_KEY":          &c.Summary.APIKey,
		"TALLY_SUMMARY_MODEL":     &c.Summary.Model,
		"TALLY_SUMMARY_BASE_URL":  &c.Summary.BaseURL,
		"TALLY_S3_ENDPOINT":       &c.Backup.S3.Endpoint,
		"TALLY_S3_BUCKET":         &c.Backup.S3.Bucket,
		"TALLY_S3_REGION":         &c.Backup.S3.Region,
		"TALLY_S3_ACCESS_KEY":     &c.Backup.S3.AccessKey,
		"TALLY_S3_SECRET_KEY":     &c.Backup.S3.SecretKey,
		"TALLY_BACKUP_PASSPHRASE": &c.Backup.Passphrase,
		"TALLY_BACKUP_INTERVAL":   &c.Backup.Interval,
	}
	for name, dst := range str {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	// The tally-specific key wins over the generic one.
	if v := os.Getenv("TALLY_SUMMARY_API_KEY"); v != "" {
		c.Summary.APIKey = v
	}

	ints := map[string]*int{
		"TALLY_SUMMARY_RATE_PER_MINUTE": &c.Summary.RatePerMinute,
		"TALLY_BACKUP_RETENTION_DAYS":   &c.Backup.RetentionDays,
	}
	for name, dst := range ints {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		*dst = n
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.Summary.RatePerMinute < 1 {
		return fmt.Errorf("summary rate_per_minute must be positive")
	}
	if c.BackupEnabled() {
		if _, err := c.BackupInterval(); err != nil {
			return err
		}
		if c.Backup.RetentionDays < 1 {
			return fmt.Errorf("backup retention_days must be positive")
		}
	}
	return nil
}

// SummaryEnabled reports whether day summaries can be generated.
func (c *Config) SummaryEnabled() bool {
	return c.Summary.APIKey != ""
}

// BackupEnabled reports whether off-site backups are configured.
func (c *Config) BackupEnabled() bool {
	return c.Backup.S3.Bucket != "" && c.Backup.Passphrase != ""
}

// BackupInterval parses the backup interval.
func (c *Config) BackupInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Backup.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid backup interval %q: %w", c.Backup.Interval, err)
	}
	if d < time.Minute {
		return 0, fmt.Errorf("backup interval %s is shorter than a minute", d)
	}
	return d, nil
}
