package config

import (
	"time"
)

// DefaultDomains is the distracting-domain list used when none is configured.
var DefaultDomains = []string{
	"facebook.com",
	"twitter.com",
	"x.com",
	"instagram.com",
	"linkedin.com",
	"youtube.com",
	"reddit.com",
	"tiktok.com",
}

const (
	DefaultTickInterval   = time.Minute
	DefaultRedirectPath   = "/blocked"
	DefaultAdminPort      = 8787
	DefaultDataDir        = "./focusd-data"
	DefaultHistoryDB      = "focusd-history.db"
	DefaultKVBucket       = "focusd"
	DefaultPersistRetries = 2
	DefaultSignalTimeout  = 10 * time.Second
	DefaultSignalCacheTTL = time.Minute
	DefaultSignalWindow   = 24 * time.Hour
	DefaultCalendarID     = "primary"
	DefaultNotifySubject  = "focusd.state"
)

// ApplyDefaults fills in every zero-valued setting. Explicit values are left alone.
func ApplyDefaults(cfg *Config) {
	applyFocusDefaults(&cfg.Focus)
	if cfg.HTTP.AdminPort == 0 {
		cfg.HTTP.AdminPort = DefaultAdminPort
	}
	applyStorageDefaults(&cfg.Storage)
	applySignalDefaults(&cfg.Signal)
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultNotifySubject
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
}

func applyFocusDefaults(f *FocusConfig) {
	if len(f.Domains) == 0 {
		f.Domains = append([]string(nil), DefaultDomains...)
	}
	if f.TickInterval <= 0 {
		f.TickInterval = DefaultTickInterval
	}
	if f.RedirectPath == "" {
		f.RedirectPath = DefaultRedirectPath
	}
	if f.Timezone == "" {
		f.Timezone = "Local"
	}
}

func applyStorageDefaults(s *StorageConfig) {
	if s.Backend == "" {
		s.Backend = StorageBackendDiskv
	}
	if s.DataDir == "" {
		s.DataDir = DefaultDataDir
	}
	if s.KVBucket == "" {
		s.KVBucket = DefaultKVBucket
	}
	if s.PersistRetries <= 0 {
		s.PersistRetries = DefaultPersistRetries
	}
	if s.RetryBackoff == "" {
		s.RetryBackoff = RetryBackoffLinear
	}
	if s.RetryInitial <= 0 {
		s.RetryInitial = 100 * time.Millisecond
	}
	if s.RetryMax <= 0 {
		s.RetryMax = 2 * time.Second
	}
}

func applySignalDefaults(s *SignalConfig) {
	if s.Provider == "" {
		s.Provider = SignalProviderNone
	}
	if s.CalendarID == "" {
		s.CalendarID = DefaultCalendarID
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultSignalTimeout
	}
	if s.CacheTTL <= 0 {
		s.CacheTTL = DefaultSignalCacheTTL
	}
	if s.Window <= 0 {
		s.Window = DefaultSignalWindow
	}
}
