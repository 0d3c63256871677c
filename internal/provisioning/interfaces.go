package provisioning

import (
	"context"
	"time"

	"github.com/imamik/vpcforge/internal/ledger"
	"github.com/imamik/vpcforge/internal/netplan"
	"github.com/imamik/vpcforge/internal/platform/aws"
)

// CloudProvider is the provider surface the graph nodes and the unwinder
// consume. Implemented by internal/platform/aws.Client; tests back it with
// the in-memory fake from internal/platform/aws/fakes.
type CloudProvider interface {
	// ListVPCBlocks and ListSubnetBlocks return the address blocks already
	// in use in the region, for conflict resolution before anything is
	// created: the former at VPC granularity for the parent block, the
	// latter at subnet granularity for the planned layout.
	ListVPCBlocks(ctx context.Context) ([]netplan.NetworkBlock, error)
	ListSubnetBlocks(ctx context.Context) ([]netplan.NetworkBlock, error)

	CreateVPC(ctx context.Context, name, cidr string) (string, error)
	CreateSubnet(ctx context.Context, name, vpcID, cidr, zone string) (string, error)
	CreateInternetGateway(ctx context.Context, name string) (string, error)
	AttachInternetGateway(ctx context.Context, igwID, vpcID string) (string, error)
	AllocateElasticIP(ctx context.Context, name string) (string, error)
	CreateNATGateway(ctx context.Context, name, subnetID, allocationID string, timeout time.Duration) (string, error)
	CreateRouteTable(ctx context.Context, name, vpcID string) (string, error)
	CreateRoute(ctx context.Context, routeTableID, destinationCIDR string, target aws.RouteTarget) (string, error)
	AssociateRouteTable(ctx context.Context, routeTableID, subnetID string) (string, error)
	CreateSecurityGroup(ctx context.Context, name, description, vpcID string) (string, error)
	AuthorizeIngress(ctx context.Context, rule aws.IngressRule) (string, error)
	RunInstance(ctx context.Context, name string, spec aws.InstanceSpec) (string, error)

	// DeleteResource deletes a resource by kind and ledger handle. The
	// unwinder drives teardown entirely through this single entry point.
	DeleteResource(ctx context.Context, kind ledger.Kind, handle string) error
}
