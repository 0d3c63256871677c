package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// LoadFile reads and parses the configuration from a YAML file.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var rawConfig map[string]interface{}
	if err := yaml.Unmarshal(data, &rawConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	var cfg Config
	if err := mapstructure.Decode(rawConfig, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.applyDefaults(rawConfig)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills in the documented default values for unset fields.
// Subnet counts default only when the key is absent, so an explicit zero
// (for example no private subnets, hence no NAT gateway) is respected.
func (c *Config) applyDefaults(rawConfig map[string]interface{}) {
	if c.Network.CIDR == "" {
		c.Network.CIDR = "10.0.0.0/16"
	}
	if c.Network.SubnetPrefix == 0 {
		c.Network.SubnetPrefix = 24
	}
	if c.Network.PublicSubnets == 0 && !networkKeySet(rawConfig, "public_subnets") {
		c.Network.PublicSubnets = 1
	}
	if c.Network.PrivateSubnets == 0 && !networkKeySet(rawConfig, "private_subnets") {
		c.Network.PrivateSubnets = 3
	}
	if c.Security.APIPort == 0 {
		c.Security.APIPort = 6443
	}
	if len(c.Security.AllowedCIDRs) == 0 {
		c.Security.AllowedCIDRs = []string{"0.0.0.0/0"}
	}
	if c.LedgerPath == "" && c.ClusterName != "" {
		c.LedgerPath = c.ClusterName + ".ledger.yaml"
	}
}

// networkKeySet reports whether the given key was explicitly present in the
// network section of the raw config.
func networkKeySet(rawConfig map[string]interface{}, key string) bool {
	networkMap, ok := rawConfig["network"].(map[string]interface{})
	if !ok {
		return false
	}
	_, set := networkMap[key]
	return set
}
