package provisioning

import (
	"fmt"

	"github.com/imamik/vpcforge/internal/config"
	"github.com/imamik/vpcforge/internal/ledger"
	"github.com/imamik/vpcforge/internal/netplan"
	"github.com/imamik/vpcforge/internal/platform/aws"
	"github.com/imamik/vpcforge/internal/util/naming"
)

// Security group roles.
const (
	RoleNode = "node" // all cluster nodes
	RoleAPI  = "api"  // control plane API endpoint
)

// Instance roles.
const (
	RoleControlPlane = "control-plane"
	RoleWorker       = "worker"
)

// graphBuilder accumulates nodes and the first Add error.
type graphBuilder struct {
	g   *Graph
	err error
}

func (b *graphBuilder) add(n *Node) {
	if b.err != nil {
		return
	}
	b.err = b.g.Add(n)
}

// BuildGraph assembles the standard topology for a cluster network: the
// VPC, an attached internet gateway, the planned subnets, route tables
// with default routes and associations, one NAT gateway when private
// subnets exist, the node and API security groups with their rules, and
// the configured instances.
//
// The plan is expected to be conflict-resolved and validated already.
func BuildGraph(cfg *config.Config, plan netplan.SubnetPlan) (*Graph, error) {
	cluster := cfg.ClusterName
	b := &graphBuilder{g: NewGraph()}

	vpcName := naming.VPC(cluster)
	b.add(&Node{
		LogicalName: vpcName,
		Kind:        ledger.KindVPC,
		Create: func(ctx *Context) (Result, error) {
			id, err := ctx.Cloud.CreateVPC(ctx, vpcName, plan.Parent.String())
			if err != nil {
				return Result{}, err
			}
			ctx.State.SetVPCID(id)
			return Result{Handle: id, Attrs: map[string]string{"cidr": plan.Parent.String()}}, nil
		},
		Adopt: func(ctx *Context, rec ledger.Record) {
			ctx.State.SetVPCID(rec.Handle)
		},
	})

	igwName := naming.InternetGateway(cluster)
	b.add(&Node{
		LogicalName: igwName,
		Kind:        ledger.KindInternetGateway,
		Create: func(ctx *Context) (Result, error) {
			id, err := ctx.Cloud.CreateInternetGateway(ctx, igwName)
			if err != nil {
				return Result{}, err
			}
			ctx.State.SetInternetGatewayID(id)
			return Result{Handle: id}, nil
		},
		Adopt: func(ctx *Context, rec ledger.Record) {
			ctx.State.SetInternetGatewayID(rec.Handle)
		},
	})

	attachmentName := naming.GatewayAttachment(cluster)
	b.add(&Node{
		LogicalName: attachmentName,
		Kind:        ledger.KindGatewayAttachment,
		DependsOn:   []string{vpcName, igwName},
		Create: func(ctx *Context) (Result, error) {
			handle, err := ctx.Cloud.AttachInternetGateway(ctx, ctx.State.InternetGatewayID(), ctx.State.VPCID())
			if err != nil {
				return Result{}, err
			}
			return Result{Handle: handle}, nil
		},
	})

	addSubnets(b, cluster, vpcName, plan)

	publicSubnets := plan.Tier(netplan.TierPublic)
	privateSubnets := plan.Tier(netplan.TierPrivate)
	hasPrivate := len(privateSubnets) > 0

	eipName := naming.ElasticIP(cluster)
	natName := naming.NATGateway(cluster)
	if hasPrivate {
		b.add(&Node{
			LogicalName: eipName,
			Kind:        ledger.KindElasticIP,
			Create: func(ctx *Context) (Result, error) {
				id, err := ctx.Cloud.AllocateElasticIP(ctx, eipName)
				if err != nil {
					return Result{}, err
				}
				ctx.State.SetAllocationID(id)
				return Result{Handle: id}, nil
			},
			Adopt: func(ctx *Context, rec ledger.Record) {
				ctx.State.SetAllocationID(rec.Handle)
			},
		})

		natSubnet := subnetName(cluster, publicSubnets[0])
		b.add(&Node{
			LogicalName: natName,
			Kind:        ledger.KindNATGateway,
			DependsOn:   []string{attachmentName, natSubnet, eipName},
			Create: func(ctx *Context) (Result, error) {
				id, err := ctx.Cloud.CreateNATGateway(ctx, natName,
					ctx.State.SubnetID(natSubnet), ctx.State.AllocationID(), ctx.Timeouts.NATGatewayCreate)
				if err != nil {
					return Result{}, err
				}
				ctx.State.SetNATGatewayID(id)
				return Result{Handle: id}, nil
			},
			Adopt: func(ctx *Context, rec ledger.Record) {
				ctx.State.SetNATGatewayID(rec.Handle)
			},
		})
	}

	addRouting(b, cluster, vpcName, netplan.TierPublic, publicSubnets, attachmentName,
		func(ctx *Context) aws.RouteTarget {
			return aws.RouteTarget{InternetGatewayID: ctx.State.InternetGatewayID()}
		})
	if hasPrivate {
		addRouting(b, cluster, vpcName, netplan.TierPrivate, privateSubnets, natName,
			func(ctx *Context) aws.RouteTarget {
				return aws.RouteTarget{NATGatewayID: ctx.State.NATGatewayID()}
			})
	}

	nodeSG, apiSG := addSecurityGroups(b, cfg, vpcName)
	addInstances(b, cfg, privateSubnets, publicSubnets, nodeSG, apiSG)

	if b.err != nil {
		return nil, b.err
	}
	if err := b.g.Validate(); err != nil {
		return nil, err
	}
	return b.g, nil
}

// subnetName returns the logical name of a planned subnet.
func subnetName(cluster string, s netplan.Subnet) string {
	return naming.Subnet(cluster, string(s.Request.Tier), s.Request.Index)
}

// addSubnets creates one node per planned subnet.
func addSubnets(b *graphBuilder, cluster, vpcName string, plan netplan.SubnetPlan) {
	for _, s := range plan.Subnets {
		s := s
		name := subnetName(cluster, s)

		b.add(&Node{
			LogicalName: name,
			Kind:        ledger.KindSubnet,
			DependsOn:   []string{vpcName},
			Create: func(ctx *Context) (Result, error) {
				id, err := ctx.Cloud.CreateSubnet(ctx, name, ctx.State.VPCID(), s.Block.String(), s.Request.ZoneHint)
				if err != nil {
					return Result{}, err
				}
				ctx.State.SetSubnetID(name, id)
				return Result{Handle: id, Attrs: map[string]string{
					"cidr": s.Block.String(),
					"tier": string(s.Request.Tier),
					"zone": s.Request.ZoneHint,
				}}, nil
			},
			Adopt: func(ctx *Context, rec ledger.Record) {
				ctx.State.SetSubnetID(name, rec.Handle)
			},
		})
	}
}

// addRouting creates the route table, default route and subnet
// associations for one tier. The default route depends on targetDep so the
// next hop exists before the route is created.
func addRouting(b *graphBuilder, cluster, vpcName string, tier netplan.Tier, subnets []netplan.Subnet,
	targetDep string, target func(ctx *Context) aws.RouteTarget,
) {
	rtName := naming.RouteTable(cluster, string(tier))
	b.add(&Node{
		LogicalName: rtName,
		Kind:        ledger.KindRouteTable,
		DependsOn:   []string{vpcName},
		Create: func(ctx *Context) (Result, error) {
			id, err := ctx.Cloud.CreateRouteTable(ctx, rtName, ctx.State.VPCID())
			if err != nil {
				return Result{}, err
			}
			ctx.State.SetRouteTableID(tier, id)
			return Result{Handle: id}, nil
		},
		Adopt: func(ctx *Context, rec ledger.Record) {
			ctx.State.SetRouteTableID(tier, rec.Handle)
		},
	})

	b.add(&Node{
		LogicalName: naming.DefaultRoute(cluster, string(tier)),
		Kind:        ledger.KindRoute,
		DependsOn:   []string{rtName, targetDep},
		Create: func(ctx *Context) (Result, error) {
			handle, err := ctx.Cloud.CreateRoute(ctx, ctx.State.RouteTableID(tier), "0.0.0.0/0", target(ctx))
			if err != nil {
				return Result{}, err
			}
			return Result{Handle: handle}, nil
		},
	})

	for _, s := range subnets {
		s := s
		sName := subnetName(cluster, s)
		b.add(&Node{
			LogicalName: naming.RouteAssociation(cluster, string(tier), s.Request.Index),
			Kind:        ledger.KindRouteAssociation,
			DependsOn:   []string{rtName, sName},
			Create: func(ctx *Context) (Result, error) {
				handle, err := ctx.Cloud.AssociateRouteTable(ctx, ctx.State.RouteTableID(tier), ctx.State.SubnetID(sName))
				if err != nil {
					return Result{}, err
				}
				return Result{Handle: handle}, nil
			},
		})
	}
}

// addSecurityGroups creates the node and API groups plus their rules and
// returns the two group node names. The node and API groups reference each
// other, which is why teardown revokes rules before deleting groups.
func addSecurityGroups(b *graphBuilder, cfg *config.Config, vpcName string) (nodeSG, apiSG string) {
	cluster := cfg.ClusterName
	nodeSG = naming.SecurityGroup(cluster, RoleNode)
	apiSG = naming.SecurityGroup(cluster, RoleAPI)

	addGroup := func(name, role, description string) {
		b.add(&Node{
			LogicalName: name,
			Kind:        ledger.KindSecurityGroup,
			DependsOn:   []string{vpcName},
			Create: func(ctx *Context) (Result, error) {
				id, err := ctx.Cloud.CreateSecurityGroup(ctx, name, description, ctx.State.VPCID())
				if err != nil {
					return Result{}, err
				}
				ctx.State.SetSecurityGroupID(role, id)
				return Result{Handle: id}, nil
			},
			Adopt: func(ctx *Context, rec ledger.Record) {
				ctx.State.SetSecurityGroupID(role, rec.Handle)
			},
		})
	}
	addGroup(nodeSG, RoleNode, "cluster node traffic")
	addGroup(apiSG, RoleAPI, "control plane API access")

	addRule := func(name string, deps []string, rule func(ctx *Context) aws.IngressRule) {
		b.add(&Node{
			LogicalName: name,
			Kind:        ledger.KindSecurityGroupRule,
			DependsOn:   deps,
			Create: func(ctx *Context) (Result, error) {
				handle, err := ctx.Cloud.AuthorizeIngress(ctx, rule(ctx))
				if err != nil {
					return Result{}, err
				}
				return Result{Handle: handle}, nil
			},
		})
	}

	// API port, open to the configured source blocks.
	for i, cidr := range cfg.Security.AllowedCIDRs {
		cidr := cidr
		addRule(naming.IngressRule(cluster, RoleAPI, fmt.Sprintf("allowed-%d", i)), []string{apiSG},
			func(ctx *Context) aws.IngressRule {
				return aws.IngressRule{
					GroupID:    ctx.State.SecurityGroupID(RoleAPI),
					Protocol:   "tcp",
					FromPort:   cfg.Security.APIPort,
					ToPort:     cfg.Security.APIPort,
					SourceCIDR: cidr,
				}
			})
	}

	// Nodes talk freely among themselves.
	addRule(naming.IngressRule(cluster, RoleNode, "from-node"), []string{nodeSG},
		func(ctx *Context) aws.IngressRule {
			return aws.IngressRule{
				GroupID:       ctx.State.SecurityGroupID(RoleNode),
				Protocol:      "-1",
				SourceGroupID: ctx.State.SecurityGroupID(RoleNode),
			}
		})

	// The node and API groups reference each other: API traffic reaches
	// nodes, node traffic reaches the API endpoint.
	addRule(naming.IngressRule(cluster, RoleNode, "from-api"), []string{nodeSG, apiSG},
		func(ctx *Context) aws.IngressRule {
			return aws.IngressRule{
				GroupID:       ctx.State.SecurityGroupID(RoleNode),
				Protocol:      "-1",
				SourceGroupID: ctx.State.SecurityGroupID(RoleAPI),
			}
		})
	addRule(naming.IngressRule(cluster, RoleAPI, "from-node"), []string{nodeSG, apiSG},
		func(ctx *Context) aws.IngressRule {
			return aws.IngressRule{
				GroupID:       ctx.State.SecurityGroupID(RoleAPI),
				Protocol:      "-1",
				SourceGroupID: ctx.State.SecurityGroupID(RoleNode),
			}
		})

	return nodeSG, apiSG
}

// addInstances creates nodes for the control plane and worker pools.
// Instances land in private subnets when they exist, otherwise in public
// ones, round-robin across the tier.
func addInstances(b *graphBuilder, cfg *config.Config,
	privateSubnets, publicSubnets []netplan.Subnet, nodeSG, apiSG string,
) {
	cluster := cfg.ClusterName

	pool := privateSubnets
	if len(pool) == 0 {
		pool = publicSubnets
	}
	if len(pool) == 0 {
		return
	}

	addPool := func(role string, spec config.NodePool, extraSG string) {
		for i := 0; i < spec.Count; i++ {
			i := i
			name := naming.Instance(cluster, role, i)
			sName := subnetName(cluster, pool[i%len(pool)])

			deps := []string{sName, nodeSG}
			if extraSG != "" {
				deps = append(deps, extraSG)
			}
			b.add(&Node{
				LogicalName: name,
				Kind:        ledger.KindInstance,
				DependsOn:   deps,
				Create: func(ctx *Context) (Result, error) {
					groups := []string{ctx.State.SecurityGroupID(RoleNode)}
					if extraSG != "" {
						groups = append(groups, ctx.State.SecurityGroupID(RoleAPI))
					}
					id, err := ctx.Cloud.RunInstance(ctx, name, aws.InstanceSpec{
						ImageID:          spec.ImageID,
						InstanceType:     spec.InstanceType,
						SubnetID:         ctx.State.SubnetID(sName),
						SecurityGroupIDs: groups,
						KeyName:          cfg.KeyName,
					})
					if err != nil {
						return Result{}, err
					}
					ctx.State.SetInstanceID(name, id)
					return Result{Handle: id, Attrs: map[string]string{"role": role}}, nil
				},
				Adopt: func(ctx *Context, rec ledger.Record) {
					ctx.State.SetInstanceID(name, rec.Handle)
				},
			})
		}
	}

	addPool(RoleControlPlane, cfg.ControlPlane, apiSG)
	addPool(RoleWorker, cfg.Workers, "")
}
