package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	NATGatewayCreate  time.Duration // Timeout for NAT gateway creation (includes the available wait)
	Delete            time.Duration // Timeout for delete operations
	RetryMaxAttempts  int           // Maximum number of retry attempts
	RetryInitialDelay time.Duration // Initial delay between retries
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - VPCFORGE_TIMEOUT_NAT_CREATE (default: 10m)
//   - VPCFORGE_TIMEOUT_DELETE (default: 5m)
//   - VPCFORGE_RETRY_MAX_ATTEMPTS (default: 5)
//   - VPCFORGE_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		NATGatewayCreate:  parseDuration("VPCFORGE_TIMEOUT_NAT_CREATE", 10*time.Minute),
		Delete:            parseDuration("VPCFORGE_TIMEOUT_DELETE", 5*time.Minute),
		RetryMaxAttempts:  parseInt("VPCFORGE_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("VPCFORGE_RETRY_INITIAL_DELAY", 1*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
