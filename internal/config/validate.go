package config

import (
	"fmt"
	"net"
	"regexp"

	"github.com/imamik/vpcforge/internal/netplan"
)

// clusterNamePattern matches names usable both as tag values and as ledger
// file name stems.
var clusterNamePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// Validate checks the configuration for common errors and returns a
// detailed error if validation fails.
func (c *Config) Validate() error {
	if c.ClusterName == "" {
		return fmt.Errorf("cluster_name is required")
	}
	if !clusterNamePattern.MatchString(c.ClusterName) {
		return fmt.Errorf("invalid cluster_name %q: must be lowercase alphanumeric with hyphens", c.ClusterName)
	}
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}

	if err := c.validateNetwork(); err != nil {
		return fmt.Errorf("network validation failed: %w", err)
	}
	if err := c.validateSecurity(); err != nil {
		return fmt.Errorf("security validation failed: %w", err)
	}
	if err := c.validatePools(); err != nil {
		return fmt.Errorf("compute validation failed: %w", err)
	}

	return nil
}

func (c *Config) validateNetwork() error {
	parent, err := netplan.ParseBlock(c.Network.CIDR)
	if err != nil {
		return fmt.Errorf("invalid cidr %q: %w", c.Network.CIDR, err)
	}

	if c.Network.SubnetPrefix < parent.Prefix || c.Network.SubnetPrefix > 28 {
		return fmt.Errorf("subnet_prefix /%d must be between the parent prefix /%d and /28",
			c.Network.SubnetPrefix, parent.Prefix)
	}
	if c.Network.PublicSubnets < 0 || c.Network.PrivateSubnets < 0 {
		return fmt.Errorf("subnet counts must not be negative")
	}
	if c.Network.PublicSubnets == 0 && c.Network.PrivateSubnets == 0 {
		return fmt.Errorf("at least one subnet is required")
	}

	// NAT gateways live in a public subnet, so private subnets cannot
	// exist without at least one public subnet to route through.
	if c.Network.PrivateSubnets > 0 && c.Network.PublicSubnets == 0 {
		return fmt.Errorf("private subnets require at least one public subnet for the NAT gateway")
	}

	// Fail early instead of letting the planner reject the layout midway
	// through an apply.
	if _, err := netplan.Plan(parent, c.Network.PublicSubnets, c.Network.PrivateSubnets,
		c.Network.SubnetPrefix, c.Network.Zones); err != nil {
		return err
	}

	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.APIPort < 1 {
		return fmt.Errorf("api_port %d is out of range", c.Security.APIPort)
	}
	for _, cidr := range c.Security.AllowedCIDRs {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("invalid allowed cidr %q: %w", cidr, err)
		}
	}
	return nil
}

func (c *Config) validatePools() error {
	for _, pool := range []struct {
		name string
		pool NodePool
	}{
		{"control_plane", c.ControlPlane},
		{"workers", c.Workers},
	} {
		if pool.pool.Count < 0 {
			return fmt.Errorf("%s count must not be negative", pool.name)
		}
		if pool.pool.Count > 0 {
			if pool.pool.InstanceType == "" {
				return fmt.Errorf("%s instance_type is required when count > 0", pool.name)
			}
			if pool.pool.ImageID == "" {
				return fmt.Errorf("%s image_id is required when count > 0", pool.name)
			}
		}
	}
	return nil
}
