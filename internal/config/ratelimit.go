package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig configures one token bucket.  The server builds two of
// them: a tight one for login attempts and a wider one for the gate
// endpoints, which are hammered by scanners at the door.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig reads <scope>_RATE_LIMIT_* variables, falling back to
// the supplied capacity and refill interval.  scope is "LOGIN" or "GATE".
func LoadRateLimitConfig(scope string, defCapacity int, defEvery time.Duration) RateLimitConfig {
	p := scope + "_RATE_LIMIT_"
	def := RateLimitConfig{
		Enabled:        envBool(p+"ENABLED", envBool("RATE_LIMIT_ENABLED", true)),
		Capacity:       envInt(p+"CAPACITY", defCapacity),
		RefillTokens:   envInt(p+"REFILL_TOKENS", 1),
		RefillInterval: envDur(p+"REFILL_INTERVAL", defEvery),
		TTL:            envDur(p+"TTL", 10*time.Minute),
		KeyStrategy:    envStr(p+"KEY_STRATEGY", "ip_user_route"),
		Prefix:         envStr(p+"PREFIX", "evt:rl:"+scope),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if def.Capacity < 1 {
		def.Capacity = 1
	}
	if def.RefillTokens < 1 {
		def.RefillTokens = 1
	}
	if def.RefillInterval <= 0 {
		def.RefillInterval = time.Second
	}
	minTTL := 5 * def.RefillInterval
	if def.TTL < minTTL {
		def.TTL = minTTL
	}
	return def
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
