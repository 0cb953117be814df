package config

import (
	"testing"
	"time"
)

func TestLoadBookingConfigDefaults(t *testing.T) {
	c := LoadBookingConfig()
	if c.UniquePhone {
		t.Fatalf("unique phone should default to off")
	}
	if c.MaxAllocAttempts != 5 || c.LegacyNumberPrefix != "NY2025-" || c.QRTokenTTL != 48*time.Hour {
		t.Fatalf("defaults = %+v", c)
	}
}

func TestLoadBookingConfigFromEnv(t *testing.T) {
	t.Setenv("BOOKING_UNIQUE_PHONE", "true")
	t.Setenv("ALLOCATION_MAX_ATTEMPTS", "0")
	t.Setenv("QR_TOKEN_TTL", "2h")
	c := LoadBookingConfig()
	if !c.UniquePhone {
		t.Fatalf("unique phone not read")
	}
	if c.MaxAllocAttempts != 1 {
		t.Fatalf("attempts = %d, want floor of 1", c.MaxAllocAttempts)
	}
	if c.QRTokenTTL != 2*time.Hour {
		t.Fatalf("ttl = %v", c.QRTokenTTL)
	}
}

func TestLoadRateLimitConfigScopes(t *testing.T) {
	t.Setenv("LOGIN_RATE_LIMIT_CAPACITY", "3")
	t.Setenv("GATE_RATE_LIMIT_ENABLED", "off")
	login := LoadRateLimitConfig("LOGIN", 5, 12*time.Second)
	if login.Capacity != 3 || !login.Enabled || login.Prefix != "evt:rl:LOGIN" {
		t.Fatalf("login = %+v", login)
	}
	if login.TTL < 5*login.RefillInterval {
		t.Fatalf("ttl %v shorter than five refills", login.TTL)
	}
	gate := LoadRateLimitConfig("GATE", 120, 500*time.Millisecond)
	if gate.Enabled || gate.Capacity != 120 {
		t.Fatalf("gate = %+v", gate)
	}
}

func TestLoadBrokerConfig(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	c := LoadBrokerConfig()
	if len(c.KafkaBrokers) != 2 || c.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("brokers = %q", c.KafkaBrokers)
	}
	if c.DispatchQueue != "pass.dispatch" {
		t.Fatalf("queue = %q", c.DispatchQueue)
	}
}

func TestLoadCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	c := LoadCacheConfig()
	if !c.Methods["GET"] || !c.Methods["HEAD"] || c.Methods["POST"] {
		t.Fatalf("methods = %v", c.Methods)
	}
}
