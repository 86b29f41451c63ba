package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.HoldTTLDefault != 15*time.Minute {
		t.Fatalf("expected 15m default hold TTL, got %s", cfg.HoldTTLDefault)
	}
	if cfg.HoldTTLMin != time.Second || cfg.HoldTTLMax != time.Hour {
		t.Fatalf("unexpected TTL bounds %s..%s", cfg.HoldTTLMin, cfg.HoldTTLMax)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("expected no kafka brokers by default, got %v", cfg.KafkaBrokers)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("HOLD_TTL_DEFAULT", "5m")
	t.Setenv("SWEEP_INTERVAL", "10s")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("CORS_ORIGINS", "https://example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.HoldTTLDefault != 5*time.Minute {
		t.Fatalf("expected 5m hold TTL, got %s", cfg.HoldTTLDefault)
	}
	if cfg.SweepInterval != 10*time.Second {
		t.Fatalf("expected 10s sweep, got %s", cfg.SweepInterval)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "broker-2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://example.com" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("malformed duration", func(t *testing.T) {
		t.Setenv("LOCK_TIMEOUT", "soon")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for malformed duration")
		}
	})

	t.Run("non-positive duration", func(t *testing.T) {
		t.Setenv("HOLD_TTL_MIN", "-1s")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for negative duration")
		}
	})

	t.Run("inverted ttl bounds", func(t *testing.T) {
		t.Setenv("HOLD_TTL_MIN", "2h")
		t.Setenv("HOLD_TTL_MAX", "1h")
		if _, err := Load(); err == nil {
			t.Fatal("expected error when min exceeds max")
		}
	})
}
