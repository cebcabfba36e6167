package config

import (
	"testing"
	"time"
)

func TestSetDefaults(t *testing.T) {
	var cfg Config
	cfg.setDefaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Lottery.BaseSnapshotInterval != 72*time.Hour {
		t.Errorf("base interval = %s, want 72h", cfg.Lottery.BaseSnapshotInterval)
	}
	if cfg.Lottery.FastSnapshotInterval != 48*time.Hour {
		t.Errorf("fast interval = %s, want 48h", cfg.Lottery.FastSnapshotInterval)
	}
	if cfg.Lottery.FastModeThreshold != 200*1_000_000_000 {
		t.Errorf("fast mode threshold = %d, want 200 SOL", cfg.Lottery.FastModeThreshold)
	}
	if cfg.Lottery.AdminFeeFloor == 0 {
		t.Errorf("admin fee floor should default to a nonzero value")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %s/%s, want info/json", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestSetDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{}
	cfg.Server.Port = 9000
	cfg.Lottery.BaseSnapshotInterval = 24 * time.Hour
	cfg.setDefaults()

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Lottery.BaseSnapshotInterval != 24*time.Hour {
		t.Errorf("base interval = %s, want 24h", cfg.Lottery.BaseSnapshotInterval)
	}
}

func TestKafkaTopicDefaults(t *testing.T) {
	var kc KafkaConfig
	if got := kc.EntriesTopic(); got != "lottery.entries" {
		t.Errorf("entries topic = %s, want lottery.entries", got)
	}
	if got := kc.EventsTopic(); got != "lottery.events" {
		t.Errorf("events topic = %s, want lottery.events", got)
	}

	kc.Topics = map[string]string{"entries": "custom.in", "events": "custom.out"}
	if got := kc.EntriesTopic(); got != "custom.in" {
		t.Errorf("entries topic = %s, want custom.in", got)
	}
	if got := kc.EventsTopic(); got != "custom.out" {
		t.Errorf("events topic = %s, want custom.out", got)
	}
}

func TestEnvironmentHelpers(t *testing.T) {
	tests := []struct {
		env      string
		wantDev  bool
		wantProd bool
	}{
		{env: "development", wantDev: true},
		{env: "dev", wantDev: true},
		{env: "production", wantProd: true},
		{env: "prod", wantProd: true},
		{env: "staging"},
	}

	for _, tt := range tests {
		cfg := Config{Environment: tt.env}
		if got := cfg.IsDevelopment(); got != tt.wantDev {
			t.Errorf("IsDevelopment(%s) = %v, want %v", tt.env, got, tt.wantDev)
		}
		if got := cfg.IsProduction(); got != tt.wantProd {
			t.Errorf("IsProduction(%s) = %v, want %v", tt.env, got, tt.wantProd)
		}
	}
}
