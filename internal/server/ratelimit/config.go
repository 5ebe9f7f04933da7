package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig holds the budget for one route. Paths ending in "/" match
// by prefix, everything else matches exactly.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int // requests per Window; <= 0 means unlimited
	Window time.Duration
	Burst  int // burst capacity, defaults to Limit
}

// Config holds limiter configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	EndpointConfigs []EndpointConfig
}

// LoadConfig reads limiter configuration from environment variables,
// falling back to the built-in endpoint budgets.
func LoadConfig() *Config {
	if !getEnvBool("RATE_LIMIT_ENABLED", true) {
		return &Config{}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 600),
		DefaultWindow:   getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the per-route budgets. Forced refresh
// always hits the semantic and generation services, so it gets the
// strictest budget; first-time match computation is moderate; batch and
// status reads only touch the cache.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		{Path: "/jobs/", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},     // match refresh
		{Path: "/jobs/match-scores", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/jobs/", Method: "GET", Limit: 300, Window: time.Minute, Burst: 50},  // match + status reads
	}
}

// match finds the endpoint budget for a request, or nil for the default.
func (c *Config) match(path, method string) *EndpointConfig {
	if path == "/health" && method == "GET" {
		return &EndpointConfig{} // unlimited
	}

	for i := range c.EndpointConfigs {
		ec := &c.EndpointConfigs[i]
		if ec.Method == method && ec.Path == path {
			return ec
		}
	}
	for i := range c.EndpointConfigs {
		ec := &c.EndpointConfigs[i]
		if ec.Method == method && strings.HasSuffix(ec.Path, "/") && strings.HasPrefix(path, ec.Path) {
			return ec
		}
	}
	return nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
