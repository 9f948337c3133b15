package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the only configuration schema version focusd accepts.
const CurrentVersion = "1.0"

// Config is the focusd configuration file.
type Config struct {
	Version string        `yaml:"version"`
	Focus   FocusConfig   `yaml:"focus"`
	HTTP    HTTPConfig    `yaml:"http"`
	Storage StorageConfig `yaml:"storage"`
	Signal  SignalConfig  `yaml:"signal"`
	Notify  NotifyConfig  `yaml:"notify"`
	Logging LoggingConfig `yaml:"logging"`
}

// FocusConfig describes what gets blocked and how often the controller reconciles.
type FocusConfig struct {
	Domains      []string      `yaml:"domains"`
	TickInterval time.Duration `yaml:"tick_interval"`
	RedirectPath string        `yaml:"redirect_path"`
	Timezone     string        `yaml:"timezone"` // IANA name or "Local"; drives the daily rollover key
}

// HTTPConfig represents HTTP listener configuration
type HTTPConfig struct {
	AdminPort   int `yaml:"admin_port"`   // command surface, blocked page, metrics
	GatewayPort int `yaml:"gateway_port"` // redirect gateway; 0 disables it
}

// StorageConfig selects the snapshot backend and the history database.
type StorageConfig struct {
	Backend        StorageBackend   `yaml:"backend"`
	DataDir        string           `yaml:"data_dir"`
	HistoryDB      string           `yaml:"history_db"`
	NATSURL        string           `yaml:"nats_url"`
	KVBucket       string           `yaml:"kv_bucket"`
	PersistRetries int              `yaml:"persist_retries"`
	RetryBackoff   RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitial   time.Duration    `yaml:"retry_initial_delay"`
	RetryMax       time.Duration    `yaml:"retry_max_delay"`
}

// SignalConfig configures the external calendar signal.
type SignalConfig struct {
	Provider        SignalProvider `yaml:"provider"`
	CredentialsFile string         `yaml:"credentials_file"` // OAuth client JSON downloaded from the Google console
	TokenFile       string         `yaml:"token_file"`
	CalendarID      string         `yaml:"calendar_id"`
	Timeout         time.Duration  `yaml:"timeout"`
	CacheTTL        time.Duration  `yaml:"cache_ttl"`
	Window          time.Duration  `yaml:"window"`
}

// NotifyConfig configures state-change publishing. An empty URL disables it.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Location resolves the configured time zone, falling back to the local zone.
func (f FocusConfig) Location() *time.Location {
	if f.Timezone == "" || f.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(f.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// AdminAddr returns the base URL CLI clients use to reach the daemon.
func (c *Config) AdminAddr() string {
	return fmt.Sprintf("http://127.0.0.1:%d", c.HTTP.AdminPort)
}

// Load reads, expands, normalizes, defaults and validates a configuration file.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from raw YAML. Environment variables are expanded first.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported configuration version: %q (expected %s)", cfg.Version, CurrentVersion)
	}

	normalize(&cfg)
	ApplyDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns a fully defaulted configuration, used when no file exists.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion}
	ApplyDefaults(cfg)
	return cfg
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

const exampleConfig = `version: "1.0"

focus:
  domains:
    - facebook.com
    - twitter.com
    - x.com
    - instagram.com
    - linkedin.com
    - youtube.com
    - reddit.com
    - tiktok.com
  tick_interval: 1m
  redirect_path: /blocked
  timezone: Local

http:
  admin_port: 8787
  gateway_port: 8788

storage:
  backend: diskv
  data_dir: ./focusd-data
  history_db: focusd-history.db
  persist_retries: 2

signal:
  provider: none
  credentials_file: ${FOCUSD_GOOGLE_CREDENTIALS}
  token_file: ./focusd-data/google-token.json
  timeout: 10s
  cache_ttl: 1m

notify:
  nats_url: ""
  subject: focusd.state

logging:
  level: info
  format: text
`
