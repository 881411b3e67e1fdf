// Package config loads fact-fetcher and cache configuration (spec.md
// section 6) from YAML files or environment variables, validating the
// decoded struct before it reaches a facts.Registry.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/axiomrules/axiom/facts"
)

// FetcherSettings is the on-disk/env shape of one fetcher's configuration,
// mirroring facts.FetcherConfig but with duration fields expressed as
// parseable strings, the way YAML/env configuration is usually authored.
type FetcherSettings struct {
	// Kind labels the fetcher in metrics and logs.
	Kind string `yaml:"kind" mapstructure:"kind"`

	// SLAFetchTime is the agreed rolling-average fetch time budget, e.g.
	// "50ms". Empty or "0" disables the SLA check.
	SLAFetchTime string `yaml:"sla_fetch_time" mapstructure:"sla_fetch_time"`

	// MetricsTimesToSample is the rolling window size. Zero defaults to 20.
	MetricsTimesToSample int `yaml:"metrics_times_to_sample" mapstructure:"metrics_times_to_sample" validate:"gte=0"`

	// Cache configures the fetcher's TTL cache.
	Cache CacheSettings `yaml:"cache" mapstructure:"cache"`
}

// CacheSettings is the on-disk/env shape of facts.CacheConfig.
type CacheSettings struct {
	// MaximumSize bounds the number of cached entries. Zero means
	// unbounded.
	MaximumSize int `yaml:"maximum_size" mapstructure:"maximum_size" validate:"gte=0"`

	// ExpireAfterWrite is the entry TTL, e.g. "5m". Empty disables expiry.
	ExpireAfterWrite string `yaml:"expire_after_write" mapstructure:"expire_after_write"`
}

// Settings is the top-level configuration document: a named map of
// fetcher settings, keyed by the fact key each fetcher serves.
type Settings struct {
	Fetchers map[string]FetcherSettings `yaml:"fetchers" mapstructure:"fetchers" validate:"dive"`
}

// Load reads configuration from path (if non-empty) and the environment
// (prefix AXIOM_, nested keys separated by "_"), validates it, and returns
// the result. An empty path relies on AutomaticEnv and viper defaults
// alone.
func Load(path string) (*Settings, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	v.SetEnvPrefix("AXIOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := validateSettings(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func validateSettings(s *Settings) error {
	val := validator.New(validator.WithRequiredStructEnabled())
	if err := val.Struct(s); err != nil {
		return formatValidationErrors(err)
	}
	for key, fs := range s.Fetchers {
		if fs.SLAFetchTime != "" {
			if _, err := time.ParseDuration(fs.SLAFetchTime); err != nil {
				return fmt.Errorf("config: fetchers.%s.sla_fetch_time: %w", key, err)
			}
		}
		if fs.Cache.ExpireAfterWrite != "" {
			if _, err := time.ParseDuration(fs.Cache.ExpireAfterWrite); err != nil {
				return fmt.Errorf("config: fetchers.%s.cache.expire_after_write: %w", key, err)
			}
		}
	}
	return nil
}

func formatValidationErrors(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed validation: %s", e.Namespace(), e.Tag()))
	}
	return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
}

// FetcherConfig converts one named entry to a facts.FetcherConfig, parsing
// its duration strings. Call after Load/validateSettings has confirmed the
// durations parse.
func (s *Settings) FetcherConfig(key string) (facts.FetcherConfig, error) {
	fs, ok := s.Fetchers[key]
	if !ok {
		return facts.FetcherConfig{}, fmt.Errorf("config: no fetcher settings for %q", key)
	}

	var sla time.Duration
	if fs.SLAFetchTime != "" {
		d, err := time.ParseDuration(fs.SLAFetchTime)
		if err != nil {
			return facts.FetcherConfig{}, fmt.Errorf("config: fetchers.%s.sla_fetch_time: %w", key, err)
		}
		sla = d
	}

	var ttl time.Duration
	if fs.Cache.ExpireAfterWrite != "" {
		d, err := time.ParseDuration(fs.Cache.ExpireAfterWrite)
		if err != nil {
			return facts.FetcherConfig{}, fmt.Errorf("config: fetchers.%s.cache.expire_after_write: %w", key, err)
		}
		ttl = d
	}

	kind := fs.Kind
	if kind == "" {
		kind = key
	}

	return facts.FetcherConfig{
		Kind:                 kind,
		SLAFetchTime:         sla,
		MetricsTimesToSample: fs.MetricsTimesToSample,
		Cache: facts.CacheConfig{
			MaximumSize:      fs.Cache.MaximumSize,
			ExpireAfterWrite: ttl,
		},
	}, nil
}
