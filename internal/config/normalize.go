package config

import "strings"

// normalize canonicalizes enum spellings and domain names in place. Unknown enum values
// are left untouched so validation can report them.
func normalize(cfg *Config) {
	if v, ok := storageBackendNormalizer.Lookup(string(cfg.Storage.Backend)); ok {
		cfg.Storage.Backend = v
	}
	if v, ok := signalProviderNormalizer.Lookup(string(cfg.Signal.Provider)); ok {
		cfg.Signal.Provider = v
	}
	if v, ok := retryBackoffNormalizer.Lookup(string(cfg.Storage.RetryBackoff)); ok {
		cfg.Storage.RetryBackoff = v
	}
	if cfg.Logging.Level != "" {
		cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	}
	if cfg.Logging.Format != "" {
		cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	}
	cfg.Focus.Domains = NormalizeDomains(cfg.Focus.Domains)
}

// NormalizeDomains lower-cases domains, strips a leading "www." and drops blanks and
// duplicates while keeping the first-seen order. Rule IDs depend on this order.
func NormalizeDomains(domains []string) []string {
	if len(domains) == 0 {
		return domains
	}
	seen := make(map[string]struct{}, len(domains))
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, "www.")
		d = strings.TrimSuffix(d, ".")
		if d == "" {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
