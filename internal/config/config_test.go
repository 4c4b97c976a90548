package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("MATCH_THRESHOLD")
	os.Unsetenv("DETECTOR_TIMEOUT_SECONDS")
	os.Unsetenv("DATABASE_MAX_OPEN_CONNS")

	cfg := Load()

	if cfg.Match.Threshold != 0.55 {
		t.Errorf("expected default threshold 0.55, got %f", cfg.Match.Threshold)
	}
	if cfg.Detector.TimeoutSeconds != 10 {
		t.Errorf("expected default detector timeout 10, got %d", cfg.Detector.TimeoutSeconds)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("expected default max open conns 25, got %d", cfg.Database.MaxOpenConns)
	}
}

func TestLoad_CustomThreshold(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "0.45")

	cfg := Load()

	if cfg.Match.Threshold != 0.45 {
		t.Errorf("expected threshold 0.45, got %f", cfg.Match.Threshold)
	}
}

func TestLoad_InvalidThresholdFallsBack(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "not-a-number")

	cfg := Load()

	if cfg.Match.Threshold != 0.55 {
		t.Errorf("expected fallback threshold 0.55, got %f", cfg.Match.Threshold)
	}
}

func TestLoad_NegativeThresholdFallsBack(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "-0.3")

	cfg := Load()

	if cfg.Match.Threshold != 0.55 {
		t.Errorf("expected fallback threshold 0.55, got %f", cfg.Match.Threshold)
	}
}

func TestLoad_DetectorConfig(t *testing.T) {
	t.Setenv("DETECTOR_URL", "http://localhost:8100")
	t.Setenv("DETECTOR_TIMEOUT_SECONDS", "3")

	cfg := Load()

	if cfg.Detector.URL != "http://localhost:8100" {
		t.Errorf("expected detector URL to be set, got %q", cfg.Detector.URL)
	}
	if cfg.Detector.TimeoutSeconds != 3 {
		t.Errorf("expected detector timeout 3, got %d", cfg.Detector.TimeoutSeconds)
	}
}

func TestLoad_EmbeddedPriorities(t *testing.T) {
	cfg := Load()

	tests := []struct {
		category string
		want     int
	}{
		{"VIP", 1},
		{"HighNetWorth", 2},
		{"Elderly", 3},
		{"Regular", 4},
		{"Unknown", 4}, // unknown ranks as Regular
	}

	for _, tt := range tests {
		if got := cfg.Branch.Priority(tt.category); got != tt.want {
			t.Errorf("Priority(%q) = %d, expected %d", tt.category, got, tt.want)
		}
	}
}

func TestLoad_EmbeddedCounters(t *testing.T) {
	cfg := Load()

	if len(cfg.Branch.Counters) == 0 {
		t.Fatal("expected counters to be loaded from embedded YAML")
	}
	if !cfg.Branch.HasCounter("Counter 1") {
		t.Error("expected Counter 1 in the catalog")
	}
	if cfg.Branch.HasCounter("Counter 99") {
		t.Error("did not expect Counter 99 in the catalog")
	}
}
