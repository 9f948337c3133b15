package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidateConfig checks a defaulted configuration for values the daemon cannot run with.
func ValidateConfig(cfg *Config) error {
	var errs []error
	errs = append(errs, validateFocus(&cfg.Focus)...)
	errs = append(errs, validateHTTP(&cfg.HTTP)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateSignal(&cfg.Signal)...)
	return errors.Join(errs...)
}

func validateFocus(f *FocusConfig) []error {
	var errs []error
	if len(f.Domains) == 0 {
		errs = append(errs, errors.New("focus.domains must list at least one domain"))
	}
	for _, d := range f.Domains {
		if strings.ContainsAny(d, "/:* ") {
			errs = append(errs, fmt.Errorf("focus.domains: %q is not a bare domain", d))
		}
	}
	if f.TickInterval < time.Second {
		errs = append(errs, fmt.Errorf("focus.tick_interval must be at least 1s, got %s", f.TickInterval))
	}
	if !strings.HasPrefix(f.RedirectPath, "/") {
		errs = append(errs, fmt.Errorf("focus.redirect_path must start with '/', got %q", f.RedirectPath))
	}
	if f.Timezone != "Local" {
		if _, err := time.LoadLocation(f.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("focus.timezone: %w", err))
		}
	}
	return errs
}

func validateHTTP(h *HTTPConfig) []error {
	var errs []error
	if h.AdminPort < 1 || h.AdminPort > 65535 {
		errs = append(errs, fmt.Errorf("http.admin_port out of range: %d", h.AdminPort))
	}
	if h.GatewayPort < 0 || h.GatewayPort > 65535 {
		errs = append(errs, fmt.Errorf("http.gateway_port out of range: %d", h.GatewayPort))
	}
	if h.GatewayPort != 0 && h.GatewayPort == h.AdminPort {
		errs = append(errs, errors.New("http.gateway_port must differ from http.admin_port"))
	}
	return errs
}

func validateStorage(s *StorageConfig) []error {
	var errs []error
	if _, err := storageBackendNormalizer.NormalizeWithValidation(string(s.Backend)); err != nil {
		errs = append(errs, fmt.Errorf("storage.backend: %w", err))
	}
	if _, err := retryBackoffNormalizer.NormalizeWithValidation(string(s.RetryBackoff)); err != nil {
		errs = append(errs, fmt.Errorf("storage.retry_backoff: %w", err))
	}
	if s.Backend == StorageBackendNATS && s.NATSURL == "" {
		errs = append(errs, errors.New("storage.nats_url is required for the nats backend"))
	}
	if s.DataDir == "" {
		errs = append(errs, errors.New("storage.data_dir is required"))
	}
	return errs
}

func validateSignal(s *SignalConfig) []error {
	var errs []error
	if _, err := signalProviderNormalizer.NormalizeWithValidation(string(s.Provider)); err != nil {
		errs = append(errs, fmt.Errorf("signal.provider: %w", err))
	}
	if s.Provider == SignalProviderGoogle {
		if s.CredentialsFile == "" {
			errs = append(errs, errors.New("signal.credentials_file is required for the google provider"))
		}
		if s.TokenFile == "" {
			errs = append(errs, errors.New("signal.token_file is required for the google provider"))
		}
	}
	return errs
}
