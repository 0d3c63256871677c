// Package config defines the configuration structure and methods for the
// application.
package config

// Config holds the application configuration.
type Config struct {
	ClusterName string `mapstructure:"cluster_name" yaml:"cluster_name"`
	Region      string `mapstructure:"region" yaml:"region"` // e.g. eu-central-1

	// LedgerPath is where the resource ledger is persisted.
	// Default: "<cluster_name>.ledger.yaml"
	LedgerPath string `mapstructure:"ledger_path" yaml:"ledger_path"`

	// KeyName is the SSH key pair name attached to launched instances.
	KeyName string `mapstructure:"key_name" yaml:"key_name"`

	// MetricsAddr is the listen address for the prometheus endpoint.
	// Empty disables it.
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"`

	// Network Configuration
	Network NetworkConfig `mapstructure:"network" yaml:"network"`

	// Security Configuration
	Security SecurityConfig `mapstructure:"security" yaml:"security"`

	// Control Plane
	ControlPlane NodePool `mapstructure:"control_plane" yaml:"control_plane"`

	// Workers
	Workers NodePool `mapstructure:"workers" yaml:"workers"`

	// Installer hand-off, run after the network is up.
	Installer InstallerConfig `mapstructure:"installer" yaml:"installer"`
}

// NetworkConfig holds the address layout configuration.
type NetworkConfig struct {
	// CIDR is the requested parent block. May be moved by the conflict
	// resolver when it overlaps an existing network.
	// Default: "10.0.0.0/16"
	CIDR string `mapstructure:"cidr" yaml:"cidr"`

	// SubnetPrefix is the prefix length of every subnet.
	// Default: 24
	SubnetPrefix int `mapstructure:"subnet_prefix" yaml:"subnet_prefix"`

	// PublicSubnets is the number of internet-routed subnets.
	// Default: 1
	PublicSubnets int `mapstructure:"public_subnets" yaml:"public_subnets"`

	// PrivateSubnets is the number of NAT-routed subnets.
	// Default: 3
	PrivateSubnets int `mapstructure:"private_subnets" yaml:"private_subnets"`

	// Zones are availability zone names assigned round-robin to subnets.
	Zones []string `mapstructure:"zones" yaml:"zones"`

	// ResolveConflicts moves the parent block when it overlaps existing
	// networks instead of failing.
	// Default: true
	ResolveConflicts *bool `mapstructure:"resolve_conflicts" yaml:"resolve_conflicts"`
}

// ResolveConflictsEnabled returns whether conflict resolution is on.
func (n NetworkConfig) ResolveConflictsEnabled() bool {
	return n.ResolveConflicts == nil || *n.ResolveConflicts
}

// SecurityConfig holds security group configuration.
type SecurityConfig struct {
	// APIPort is the control plane API port opened to AllowedCIDRs.
	// Default: 6443
	APIPort int32 `mapstructure:"api_port" yaml:"api_port"`

	// AllowedCIDRs are the source blocks allowed to reach the API port.
	// Default: ["0.0.0.0/0"]
	AllowedCIDRs []string `mapstructure:"allowed_cidrs" yaml:"allowed_cidrs"`
}

// NodePool describes one group of identical instances.
type NodePool struct {
	Count        int    `mapstructure:"count" yaml:"count"`
	InstanceType string `mapstructure:"instance_type" yaml:"instance_type"`
	ImageID      string `mapstructure:"image_id" yaml:"image_id"`
}

// InstallerConfig describes the external cluster installer invoked after
// provisioning. An empty command disables the hand-off.
type InstallerConfig struct {
	Command string   `mapstructure:"command" yaml:"command"`
	Args    []string `mapstructure:"args" yaml:"args"`
}

// InstanceCount returns the total number of instances to launch.
func (c *Config) InstanceCount() int {
	return c.ControlPlane.Count + c.Workers.Count
}
