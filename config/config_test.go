package config

import (
	"os"
	"testing"
	"time"

	"github.com/Zaphodious/oosikle-app/log"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"CATALOG", "LOG_LEVEL", "LOG_FILE", "LOG_JSON", "QUEUE_CAPACITY", "CALL_TIMEOUT", "METRICS_ADDR"} {
		// Setenv restores the original value when the test ends
		t.Setenv("OOSIKLE_"+key, "")
		os.Unsetenv("OOSIKLE_" + key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if *cfg != *Default() {
		t.Errorf("Expected defaults %+v, got %+v", Default(), cfg)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("OOSIKLE_CATALOG", "postgres://localhost/oosikle")
	t.Setenv("OOSIKLE_LOG_LEVEL", "debug")
	t.Setenv("OOSIKLE_LOG_JSON", "true")
	t.Setenv("OOSIKLE_QUEUE_CAPACITY", "8")
	t.Setenv("OOSIKLE_CALL_TIMEOUT", "2s")
	t.Setenv("OOSIKLE_METRICS_ADDR", ":9464")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Catalog != "postgres://localhost/oosikle" {
		t.Errorf("Expected catalog from environment, got '%s'", cfg.Catalog)
	}
	if cfg.QueueCapacity != 8 || cfg.CallTimeout != 2*time.Second {
		t.Errorf("Expected queue capacity 8 and timeout 2s, got %d and %s", cfg.QueueCapacity, cfg.CallTimeout)
	}
	if !cfg.LogJSON || cfg.MetricsAddr != ":9464" {
		t.Errorf("Unexpected config %+v", cfg)
	}

	logger, err := cfg.Logger()
	if err != nil {
		t.Fatalf("Logger failed: %v", err)
	}
	if logger.Level != log.Debug || !logger.JSON {
		t.Errorf("Expected JSON debug logger, got level %s json %v", logger.Level, logger.JSON)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad capacity", "OOSIKLE_QUEUE_CAPACITY", "lots"},
		{"negative capacity", "OOSIKLE_QUEUE_CAPACITY", "-1"},
		{"bad level", "OOSIKLE_LOG_LEVEL", "loud"},
		{"bad timeout", "OOSIKLE_CALL_TIMEOUT", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
