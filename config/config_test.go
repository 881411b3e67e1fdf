package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/axiomrules/axiom/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "axiom.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
fetchers:
  balance:
    kind: sql
    sla_fetch_time: 50ms
    metrics_times_to_sample: 10
    cache:
      maximum_size: 100
      expire_after_write: 5m
`)
	s, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	fs, ok := s.Fetchers["balance"]
	if !ok {
		t.Fatal("expected a \"balance\" fetcher entry")
	}
	if fs.Kind != "sql" || fs.SLAFetchTime != "50ms" || fs.MetricsTimesToSample != 10 {
		t.Errorf("fs = %+v", fs)
	}
}

func TestFetcherConfigParsesDurations(t *testing.T) {
	path := writeConfig(t, `
fetchers:
  balance:
    kind: sql
    sla_fetch_time: 50ms
    cache:
      maximum_size: 100
      expire_after_write: 5m
`)
	s, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	fc, err := s.FetcherConfig("balance")
	if err != nil {
		t.Fatalf("FetcherConfig: %v", err)
	}
	if fc.SLAFetchTime != 50*time.Millisecond {
		t.Errorf("SLAFetchTime = %v, want 50ms", fc.SLAFetchTime)
	}
	if fc.Cache.ExpireAfterWrite != 5*time.Minute {
		t.Errorf("ExpireAfterWrite = %v, want 5m", fc.Cache.ExpireAfterWrite)
	}
	if fc.Cache.MaximumSize != 100 {
		t.Errorf("MaximumSize = %d, want 100", fc.Cache.MaximumSize)
	}
}

func TestFetcherConfigDefaultsKindToKey(t *testing.T) {
	path := writeConfig(t, "fetchers:\n  balance: {}\n")
	s, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	fc, err := s.FetcherConfig("balance")
	if err != nil {
		t.Fatal(err)
	}
	if fc.Kind != "balance" {
		t.Errorf("Kind = %q, want %q (defaulted to the fetcher key)", fc.Kind, "balance")
	}
}

func TestFetcherConfigUnknownKey(t *testing.T) {
	path := writeConfig(t, "fetchers:\n  balance: {}\n")
	s, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.FetcherConfig("nonexistent"); err == nil {
		t.Fatal("expected an error for an unregistered fetcher key")
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	path := writeConfig(t, `
fetchers:
  balance:
    sla_fetch_time: "not-a-duration"
`)
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected an error for an unparseable sla_fetch_time")
	}
}

func TestLoadRejectsNegativeMetricsSample(t *testing.T) {
	path := writeConfig(t, `
fetchers:
  balance:
    metrics_times_to_sample: -1
`)
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected validation to reject a negative metrics_times_to_sample")
	}
}

func TestLoadWithNoFileSucceedsEmpty(t *testing.T) {
	s, err := config.Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if s == nil {
		t.Fatal("expected a non-nil Settings even with no fetchers configured")
	}
	if len(s.Fetchers) != 0 {
		t.Errorf("Fetchers = %v, want empty", s.Fetchers)
	}
}
