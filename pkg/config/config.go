package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// Config holds all configuration options for the daycare media sync
type Config struct {
	// Provider endpoints and credential file location
	Procare ProcareConfig `yaml:"procare" json:"procare"`

	// Activity feed fetch window and pacing
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Media download and tagging settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Browser-driven login settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ProcareConfig holds provider-specific configuration
type ProcareConfig struct {
	BaseURL         string `yaml:"base_url" json:"base_url"`
	LoginURL        string `yaml:"login_url" json:"login_url"`
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
	UserAgent       string `yaml:"user_agent" json:"user_agent"`
}

// FetchConfig holds the date window and request pacing for the activity feed
type FetchConfig struct {
	// DateFrom and DateTo are inclusive ISO dates. An empty DateTo means
	// "today", resolved at run time.
	DateFrom          string        `yaml:"date_from" json:"date_from"`
	DateTo            string        `yaml:"date_to" json:"date_to"`
	LogDir            string        `yaml:"log_dir" json:"log_dir"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// DownloadConfig holds media download and tagging settings
type DownloadConfig struct {
	MediaDir        string        `yaml:"media_dir" json:"media_dir"`
	Tags            []string      `yaml:"tags" json:"tags"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries      int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay      time.Duration `yaml:"retry_delay" json:"retry_delay"`
	SkipPhotos      bool          `yaml:"skip_photos" json:"skip_photos"`
	SkipVideos      bool          `yaml:"skip_videos" json:"skip_videos"`
	ContinueOnError bool          `yaml:"continue_on_error" json:"continue_on_error"`
}

// BrowserConfig holds settings for the chromedp login session
type BrowserConfig struct {
	Headless bool `yaml:"headless" json:"headless"`
	// SettleTimeout bounds how long we poll browser storage for the session
	// object after submitting the login form
	SettleTimeout time.Duration `yaml:"settle_timeout" json:"settle_timeout"`
	// PollInterval is the delay between storage polls
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
	// LoginTimeout bounds the whole browser session
	LoginTimeout time.Duration `yaml:"login_timeout" json:"login_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns the default configuration: far-past start date,
// today as end date, ./photos and ./logs output, a single "daycare" keyword
// tag.
func DefaultConfig() *Config {
	return &Config{
		Procare: ProcareConfig{
			BaseURL:         "https://api-school.kinderlime.com",
			LoginURL:        "https://schools.procareconnect.com/",
			CredentialsFile: "credentials.yml",
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:90.0) Gecko/20100101 Firefox/90.0",
		},
		Fetch: FetchConfig{
			DateFrom:          "2000-01-01",
			DateTo:            "", // today
			LogDir:            "./logs",
			Timeout:           30 * time.Second,
			RequestsPerMinute: 60,
		},
		Download: DownloadConfig{
			MediaDir:        "./photos",
			Tags:            []string{"daycare"},
			Timeout:         2 * time.Minute,
			MaxRetries:      3,
			RetryDelay:      2 * time.Second,
			ContinueOnError: true,
		},
		Browser: BrowserConfig{
			Headless:      true,
			SettleTimeout: 15 * time.Second,
			PollInterval:  500 * time.Millisecond,
			LoginTimeout:  2 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// EffectiveDateTo resolves the end date, substituting today when unset.
func (c *Config) EffectiveDateTo() string {
	if c.Fetch.DateTo != "" {
		return c.Fetch.DateTo
	}
	return time.Now().Format(dateLayout)
}

// LoadFromEnv overrides configuration from environment variables
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("DAYCARESYNC_CREDENTIALS_FILE"); v != "" {
		c.Procare.CredentialsFile = v
	}
	if v := os.Getenv("DAYCARESYNC_BASE_URL"); v != "" {
		c.Procare.BaseURL = v
	}
	if v := os.Getenv("DAYCARESYNC_DATE_FROM"); v != "" {
		c.Fetch.DateFrom = v
	}
	if v := os.Getenv("DAYCARESYNC_DATE_TO"); v != "" {
		c.Fetch.DateTo = v
	}
	if v := os.Getenv("DAYCARESYNC_MEDIA_DIR"); v != "" {
		c.Download.MediaDir = v
	}
	if v := os.Getenv("DAYCARESYNC_LOG_DIR"); v != "" {
		c.Fetch.LogDir = v
	}
	if v := os.Getenv("DAYCARESYNC_TAGS"); v != "" {
		c.Download.Tags = splitTags(v)
	}
	if v := os.Getenv("DAYCARESYNC_HEADLESS"); v != "" {
		c.Browser.Headless = strings.ToLower(v) != "false"
	}
	if v := os.Getenv("DAYCARESYNC_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DAYCARESYNC_RPM"); v != "" {
		var rpm int
		fmt.Sscanf(v, "%d", &rpm)
		if rpm > 0 {
			c.Fetch.RequestsPerMinute = rpm
		}
	}
}

func splitTags(s string) []string {
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// LoadFromFile loads configuration from a YAML file. An empty path searches
// the standard locations; a missing file is not an error in that case.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for a config file in standard locations
func findConfigFile() string {
	locations := []string{
		".daycaresync.yaml",
		".daycaresync.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "daycaresync", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".daycaresync.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Procare.BaseURL == "" {
		errs = append(errs, errors.New("provider base URL is required"))
	}
	if c.Procare.CredentialsFile == "" {
		errs = append(errs, errors.New("credentials file path is required"))
	}

	if _, err := time.Parse(dateLayout, c.Fetch.DateFrom); err != nil {
		errs = append(errs, fmt.Errorf("invalid start date %q: want YYYY-MM-DD", c.Fetch.DateFrom))
	}
	if c.Fetch.DateTo != "" {
		if _, err := time.Parse(dateLayout, c.Fetch.DateTo); err != nil {
			errs = append(errs, fmt.Errorf("invalid end date %q: want YYYY-MM-DD", c.Fetch.DateTo))
		}
	}
	if c.Fetch.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch timeout must be positive"))
	}

	if c.Download.MediaDir == "" {
		errs = append(errs, errors.New("media directory is required"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Download.SkipPhotos && c.Download.SkipVideos {
		errs = append(errs, errors.New("skipping both photos and videos leaves nothing to download"))
	}

	if c.Browser.SettleTimeout <= 0 {
		errs = append(errs, errors.New("browser settle timeout must be positive"))
	}
	if c.Browser.PollInterval <= 0 {
		errs = append(errs, errors.New("browser poll interval must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save writes the configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeFlags merges command line flag values into the configuration
func (c *Config) MergeFlags(flags map[string]interface{}) {
	if v, ok := flags["from"].(string); ok && v != "" {
		c.Fetch.DateFrom = v
	}
	if v, ok := flags["to"].(string); ok && v != "" {
		c.Fetch.DateTo = v
	}
	if v, ok := flags["media-dir"].(string); ok && v != "" {
		c.Download.MediaDir = v
	}
	if v, ok := flags["log-dir"].(string); ok && v != "" {
		c.Fetch.LogDir = v
	}
	if v, ok := flags["credentials"].(string); ok && v != "" {
		c.Procare.CredentialsFile = v
	}
	if v, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = v
	}
	if v, ok := flags["skip-photos"].(bool); ok {
		c.Download.SkipPhotos = v
	}
	if v, ok := flags["skip-videos"].(bool); ok {
		c.Download.SkipVideos = v
	}
	if v, ok := flags["rate-limit"].(int); ok && v > 0 {
		c.Fetch.RequestsPerMinute = v
	}
	if v, ok := flags["max-retries"].(int); ok && v > 0 {
		c.Download.MaxRetries = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources.
// Precedence: flags > environment > .env file > config file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".daycaresync.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	config.LoadFromEnv()
	config.MergeFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
